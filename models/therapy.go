package models

import (
	"time"

	"github.com/google/uuid"
)

// TherapyContentType classifies catalog entries.
type TherapyContentType string

const (
	ContentAudio TherapyContentType = "Audio"
	ContentGame  TherapyContentType = "Game"
	ContentVRSim TherapyContentType = "VR Sim"
)

// TherapyContent is a global catalog entry: read-only reference data shared
// by every patient. Distinct from TherapyModule despite the similar shape.
type TherapyContent struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Type        TherapyContentType `json:"type"`
	Category    string             `json:"category"`
	Added       time.Time          `json:"added"`
	Description string             `json:"description"`
}

// TherapyModule is a patient-owned mutable progress record against a catalog
// entry.
type TherapyModule struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ContentID uuid.UUID `json:"contentId"`
	Name      string    `json:"name"`
	Progress  int       `json:"progress"` // percent complete, 0-100
	UpdatedAt time.Time `json:"updated_at"`
}
