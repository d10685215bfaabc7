package api

import (
	"net/http"
	"time"

	"github.com/ameyrk91/fitbooking/internal/domain"
	"github.com/ameyrk91/fitbooking/internal/service/classes"
	"github.com/gin-gonic/gin"
)

type ClassHandler struct {
	service   classes.ClassUseCase
	defaultTZ *time.Location
}

type classResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	DateTime       string `json:"date_time"`
	Instructor     string `json:"instructor"`
	TotalSlots     int    `json:"total_slots"`
	AvailableSlots int    `json:"available_slots"`
}

func NewClassHandler(service classes.ClassUseCase, defaultTZ *time.Location) *ClassHandler {
	return &ClassHandler{service: service, defaultTZ: defaultTZ}
}

func (h *ClassHandler) Register(router *gin.RouterGroup) {
	router.GET("/classes/", h.list)
}

func (h *ClassHandler) list(c *gin.Context) {
	upcoming, err := h.service.ListUpcoming(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error."})
		return
	}

	tz := resolveLocation(c.Query("timezone"), h.defaultTZ)
	out := make([]classResponse, 0, len(upcoming))
	for _, class := range upcoming {
		out = append(out, newClassResponse(&class, tz))
	}
	c.JSON(http.StatusOK, out)
}

func newClassResponse(class *domain.FitnessClass, tz *time.Location) classResponse {
	return classResponse{
		ID:             class.ID,
		Name:           class.Name,
		DateTime:       class.DateTime.In(tz).Format(time.RFC3339),
		Instructor:     class.Instructor,
		TotalSlots:     class.TotalSlots,
		AvailableSlots: class.AvailableSlots,
	}
}
