package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ameyrk91/fitbooking/config"
	"github.com/ameyrk91/fitbooking/internal/auth"
	"github.com/ameyrk91/fitbooking/internal/bootstrap"
	"github.com/ameyrk91/fitbooking/internal/cache"
	"github.com/ameyrk91/fitbooking/internal/kafka"
	"github.com/ameyrk91/fitbooking/internal/repository"
	"github.com/ameyrk91/fitbooking/internal/service/booking"
	"github.com/ameyrk91/fitbooking/internal/service/classes"
	"github.com/ameyrk91/fitbooking/internal/service/users"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.ClassesCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	tokens := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.AccessTTLMinutes)*time.Minute,
		time.Duration(cfg.Auth.RefreshTTLHours)*time.Hour,
	)

	ledger := repository.NewSlotLedger()
	classRepo := repository.NewClassRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool, ledger)
	userRepo := repository.NewUserRepository(pool)

	userService := users.NewUserService(userRepo, tokens, redisCache, logger)
	classService := classes.NewClassService(classRepo, redisCache, logger)
	bookingService := booking.NewBookingService(
		bookingRepo,
		classRepo,
		logger,
		booking.WithProducer(producer, cfg.Kafka.BookingEventsTopic),
	)

	if err := bootstrap.Run(ctx, cfg, logger, tokens, userService, classService, bookingService); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
