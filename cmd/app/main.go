package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courtsched/api"
	"courtsched/config"
	"courtsched/internal/bootstrap"
	"courtsched/internal/cache"
	"courtsched/internal/kafka"
	"courtsched/internal/repository"
	"courtsched/internal/service/reservation"

	"github.com/jackc/pgx/v5/pgxpool"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	reservationRepo := repository.NewReservationRepository(pool)
	if err := reservationRepo.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Cache.ScheduleTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	reservationService := reservation.NewReservationService(
		reservationRepo,
		redisCache,
		producer,
		cfg.Kafka.ReservationsTopic,
		cfg.Court,
	)

	handler := api.NewReservationHandler(reservationService, cfg.Court)
	engine := bootstrap.NewRouter(cfg, handler)

	log.Printf("%s scheduler listening on %s", cfg.Court.Name, cfg.HTTP.Address)
	if err := bootstrap.Run(ctx, cfg, engine); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
