package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"neurocore-backend/config"
	"neurocore-backend/models"
	"neurocore-backend/repository"
)

// alertMessage is the wire format published by the anomaly detection
// pipeline.
type alertMessage struct {
	DoctorID    string `json:"doctorId"`
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName"`
	Type        string `json:"type"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
}

func newKafkaReader(cfg *config.Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.AlertTopic,
		GroupID:  cfg.AlertGroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
}

func main() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load("../../.env")
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", "alert-ingestor").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	alertRepo := repository.NewAlertRepository(pool)

	reader := newKafkaReader(cfg)
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.AlertTopic).Msg("Consuming alerts")

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info().Msg("Shutting down")
				return
			}
			logger.Error().Err(err).Msg("Failed to read message")
			continue
		}
		processMessage(ctx, logger, alertRepo, msg)
	}
}

func processMessage(ctx context.Context, logger zerolog.Logger, alertRepo *repository.AlertRepository, msg kafka.Message) {
	var payload alertMessage
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		logger.Warn().Err(err).Str("key", string(msg.Key)).Msg("Skipping malformed alert message")
		return
	}

	doctorID, err := uuid.Parse(payload.DoctorID)
	if err != nil {
		logger.Warn().Str("doctor_id", payload.DoctorID).Msg("Skipping alert with invalid doctorId")
		return
	}
	patientID, err := uuid.Parse(payload.PatientID)
	if err != nil {
		logger.Warn().Str("patient_id", payload.PatientID).Msg("Skipping alert with invalid patientId")
		return
	}

	ts, err := time.Parse(time.RFC3339, payload.Timestamp)
	if err != nil {
		ts = time.Now()
	}

	alert := &models.Alert{
		DoctorID:    doctorID,
		PatientID:   patientID,
		PatientName: payload.PatientName,
		Type:        payload.Type,
		Message:     payload.Message,
		Timestamp:   ts,
		Status:      models.AlertNew,
	}
	if err := alertRepo.Create(ctx, alert); err != nil {
		logger.Error().Err(err).Msg("Failed to store alert")
		return
	}
	logger.Info().Str("doctor_id", payload.DoctorID).Str("type", payload.Type).Msg("Alert stored")
}
