package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Subcollection records. Each record belongs to exactly one parent profile;
// queries across parents are an explicit fan-out or a collection-group query,
// never a join the store performs implicitly.

// AccessStatus is the outcome recorded for a data-access event.
type AccessStatus string

const (
	AccessAuthorized AccessStatus = "Authorized"
	AccessViolation  AccessStatus = "Violation"
)

// AppointmentStatus tracks an appointment's lifecycle.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "Scheduled"
	AppointmentCompleted AppointmentStatus = "Completed"
	AppointmentCancelled AppointmentStatus = "Cancelled"
)

// SessionLog records one completed therapy session.
type SessionLog struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Type     string    `json:"type"`
	Date     time.Time `json:"date"`
	Duration string    `json:"duration"`
	Result   string    `json:"result"`
}

// AccessLog records one data-access event against a patient's record. Status
// is an enforced access-control decision: Violation means the viewer was
// denied by the patient's privacy settings.
type AccessLog struct {
	ID     uuid.UUID    `json:"id"`
	UserID uuid.UUID    `json:"user_id"`
	Viewer string       `json:"viewer"`
	Date   time.Time    `json:"date"`
	Action string       `json:"action"`
	Status AccessStatus `json:"status"`
}

// ScanFindings is the findings list on a neural scan, stored as JSONB.
type ScanFindings []string

// Value implements driver.Valuer for JSONB
func (f ScanFindings) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner for JSONB
func (f *ScanFindings) Scan(value interface{}) error {
	bytes, ok := jsonbBytes(value)
	if !ok || len(bytes) == 0 {
		*f = ScanFindings{}
		return nil
	}
	return json.Unmarshal(bytes, f)
}

// NeuralScan is one imaging record. MediaPath points at the scan blob in
// the media store; empty when no image was uploaded.
type NeuralScan struct {
	ID          uuid.UUID    `json:"id"`
	UserID      uuid.UUID    `json:"user_id"`
	Type        string       `json:"type"`
	Date        time.Time    `json:"date"`
	Findings    ScanFindings `json:"findings"`
	DoctorNotes string       `json:"doctorNotes"`
	MediaPath   string       `json:"-"`
}

// CognitiveTestResult is one cognitive assessment.
type CognitiveTestResult struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	Date         time.Time `json:"date"`
	Memory       int       `json:"memory"`
	Focus        int       `json:"focus"`
	ReactionTime int       `json:"reactionTime"`
}

// Appointment links a patient and a doctor at a point in time.
type Appointment struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"user_id"`
	DoctorID  uuid.UUID         `json:"doctorId"`
	PatientID uuid.UUID         `json:"patientId"`
	Date      time.Time         `json:"date"`
	Purpose   string            `json:"purpose"`
	Status    AppointmentStatus `json:"status"`

	// Denormalized for display, filled by join-on-read. Not stored.
	DoctorName string `json:"doctorName,omitempty"`
}

// JournalEntry is one free-text patient journal entry.
type JournalEntry struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// MoodPoint is one mood tracker sample (mood and stress on a 1-10 scale).
type MoodPoint struct {
	Name   string `json:"name"`
	Mood   int    `json:"mood"`
	Stress int    `json:"stress"`
}
