package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ameyrk91/fitbooking/internal/domain"
	"github.com/ameyrk91/fitbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service   booking.BookingUseCase
	defaultTZ *time.Location
}

type createBookingRequest struct {
	ClassID     int64  `json:"class_id" binding:"required"`
	ClientName  string `json:"client_name" binding:"required"`
	ClientEmail string `json:"client_email" binding:"required,email"`
}

type bookingResponse struct {
	ID          int64  `json:"id"`
	ClassID     int64  `json:"class_id"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	BookingTime string `json:"booking_time"`
}

type bookingListItem struct {
	ID           int64         `json:"id"`
	FitnessClass classResponse `json:"fitness_class"`
	ClientName   string        `json:"client_name"`
	ClientEmail  string        `json:"client_email"`
	BookingTime  string        `json:"booking_time"`
}

func NewBookingHandler(service booking.BookingUseCase, defaultTZ *time.Location) *BookingHandler {
	return &BookingHandler{service: service, defaultTZ: defaultTZ}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/book/", h.create)
	router.GET("/bookings/", h.list)
	router.DELETE("/bookings/:id", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), booking.CreateBookingInput{
		ClassID:     req.ClassID,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
	})
	if err != nil {
		h.writeCreateError(c, req.ClassID, err)
		return
	}

	c.JSON(http.StatusCreated, bookingResponse{
		ID:          created.ID,
		ClassID:     created.ClassID,
		ClientName:  created.ClientName,
		ClientEmail: created.ClientEmail,
		BookingTime: created.BookingTime.In(h.defaultTZ).Format(time.RFC3339),
	})
}

// writeCreateError is the only place booking failures become HTTP bodies;
// the messages are part of the API contract.
func (h *BookingHandler) writeCreateError(c *gin.Context, classID int64, err error) {
	switch {
	case errors.Is(err, domain.ErrNoSlots):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "No available slots for this class."})
	case errors.Is(err, domain.ErrClassExpired):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "This class has already expired and cannot be booked."})
	case errors.Is(err, domain.ErrDuplicateBooking):
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{"You have already booked this class."}})
	case errors.Is(err, domain.ErrClassNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"class_id": []string{fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", classID)}})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error."})
	}
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	if err := h.service.Cancel(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Booking not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "Booking cancelled."})
}

func (h *BookingHandler) list(c *gin.Context) {
	email := c.Query("client_email")
	bookings, err := h.service.ListForClient(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error."})
		return
	}

	tz := resolveLocation(c.Query("timezone"), h.defaultTZ)
	out := make([]bookingListItem, 0, len(bookings))
	for _, b := range bookings {
		item := bookingListItem{
			ID:          b.ID,
			ClientName:  b.ClientName,
			ClientEmail: b.ClientEmail,
			BookingTime: b.BookingTime.In(tz).Format(time.RFC3339),
		}
		if b.Class != nil {
			item.FitnessClass = newClassResponse(b.Class, tz)
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, out)
}
