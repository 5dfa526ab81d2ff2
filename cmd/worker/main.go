package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courtsched/config"
	"courtsched/internal/kafka"
	"courtsched/internal/repository"
	"courtsched/internal/service/reservation"

	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"
)

const dateLayout = "2006-01-02"

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	reservationRepo := repository.NewReservationRepository(pool)
	reservationService := reservation.NewReservationService(reservationRepo, nil, nil, "", cfg.Court)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.ReservationsTopic)
	defer consumer.Close()

	// Operational log of reservation activity. Delivery of notifications
	// is out of scope; this stops at the log line.
	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.ReservationEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("decode event error: %v", err)
				return nil
			}
			log.Printf("event %s: %s %s player=%q protected=%v",
				event.Type, event.Date, event.TimeSlot, event.PlayerName, event.Protected)
			return nil
		}); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	sweepEvery := time.Duration(cfg.Worker.RetentionSweepHours) * time.Hour
	if sweepEvery <= 0 {
		sweepEvery = 24 * time.Hour
	}
	sweepTicker := time.NewTicker(sweepEvery)
	defer sweepTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			today := time.Now().Format(dateLayout)
			purged, err := reservationService.PurgeBefore(ctx, today)
			if err != nil {
				log.Printf("retention sweep error: %v", err)
				continue
			}
			if purged > 0 {
				log.Printf("purged %d past reservations", purged)
			}
		case s := <-sig:
			log.Printf("received signal %v, shutting down", s)
			return
		}
	}
}
