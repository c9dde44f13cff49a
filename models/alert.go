package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertStatus tracks whether a doctor has seen an alert.
type AlertStatus string

const (
	AlertNew    AlertStatus = "New"
	AlertViewed AlertStatus = "Viewed"
)

// Alert is a top-level collection entry produced by the external anomaly
// detection pipeline and read by doctor dashboards. PatientName is
// denormalized at ingest time so the inbox renders without a profile read.
type Alert struct {
	ID          uuid.UUID   `json:"id"`
	DoctorID    uuid.UUID   `json:"doctorId"`
	PatientID   uuid.UUID   `json:"patientId"`
	PatientName string      `json:"patientName"`
	Type        string      `json:"type"`
	Message     string      `json:"message"`
	Timestamp   time.Time   `json:"timestamp"`
	Status      AlertStatus `json:"status"`
}
