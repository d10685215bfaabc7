package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ameyrk91/fitbooking/api"
	"github.com/ameyrk91/fitbooking/config"
	"github.com/ameyrk91/fitbooking/internal/auth"
	"github.com/ameyrk91/fitbooking/internal/service/booking"
	"github.com/ameyrk91/fitbooking/internal/service/classes"
	"github.com/ameyrk91/fitbooking/internal/service/users"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func Run(
	ctx context.Context,
	cfg *config.Config,
	log *zap.Logger,
	tokens *auth.TokenManager,
	userSvc users.UserUseCase,
	classSvc classes.ClassUseCase,
	bookingSvc booking.BookingUseCase,
) error {
	router, err := newRouter(cfg, log, tokens, userSvc, classSvc, bookingSvc)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(
	cfg *config.Config,
	log *zap.Logger,
	tokens *auth.TokenManager,
	userSvc users.UserUseCase,
	classSvc classes.ClassUseCase,
	bookingSvc booking.BookingUseCase,
) (*gin.Engine, error) {
	defaultTZ, err := time.LoadLocation(cfg.Booking.DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("load default timezone %q: %w", cfg.Booking.DefaultTimezone, err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	root := router.Group("/")
	api.NewUserHandler(userSvc).Register(root, api.RequireAuth(tokens))
	api.NewClassHandler(classSvc, defaultTZ).Register(root)
	api.NewBookingHandler(bookingSvc, defaultTZ).Register(root)

	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFS("/swagger", http.Dir(cfg.HTTP.SwaggerDir))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/openapi.json"),
		)))
	}

	return router, nil
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
