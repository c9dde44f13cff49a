package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role identifies which variant of UserProfile a document holds.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// UserProfile is a closed sum over the three role variants. Role-specific
// payloads are only reachable through a type switch on the concrete variant,
// so code cannot touch patientData without first narrowing the role.
type UserProfile interface {
	ID() uuid.UUID
	Email() string
	DisplayName() string
	Role() Role

	isProfile()
}

// BaseProfile holds the fields common to every role variant.
type BaseProfile struct {
	UID       uuid.UUID `json:"id"`
	Mail      string    `json:"email"`
	Name      string    `json:"displayName"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b BaseProfile) ID() uuid.UUID       { return b.UID }
func (b BaseProfile) Email() string       { return b.Mail }
func (b BaseProfile) DisplayName() string { return b.Name }

// PatientProfile is the patient variant; only this variant carries
// PatientData and PrivacySettings.
type PatientProfile struct {
	BaseProfile
	PatientData     PatientData     `json:"patientData"`
	PrivacySettings PrivacySettings `json:"privacySettings"`
}

func (PatientProfile) Role() Role { return RolePatient }
func (PatientProfile) isProfile() {}

// DoctorProfile is the doctor variant.
type DoctorProfile struct {
	BaseProfile
	Specialty *string     `json:"specialty,omitempty"`
	Patients  []uuid.UUID `json:"patients"`
}

func (DoctorProfile) Role() Role { return RoleDoctor }
func (DoctorProfile) isProfile() {}

// AdminProfile is the admin variant; it has no extra payload.
type AdminProfile struct {
	BaseProfile
}

func (AdminProfile) Role() Role { return RoleAdmin }
func (AdminProfile) isProfile() {}

// AsPatient narrows a profile to its patient variant.
func AsPatient(p UserProfile) (*PatientProfile, bool) {
	pp, ok := p.(*PatientProfile)
	return pp, ok
}

// AsDoctor narrows a profile to its doctor variant.
func AsDoctor(p UserProfile) (*DoctorProfile, bool) {
	dp, ok := p.(*DoctorProfile)
	return dp, ok
}

// CognitionScore is the AI-assessed cognition snapshot shown on the
// patient dashboard.
type CognitionScore struct {
	Value  float64 `json:"value"`
	Change float64 `json:"change"`
}

// PatientData is the aggregate health snapshot stored on the patient
// document. Mood tracker points live in the moodTracker subcollection;
// the inline copy here is the seeded weekly series used by dashboards.
type PatientData struct {
	CognitionScore    CognitionScore `json:"cognitionScore"`
	MentalHealthGrade string         `json:"mentalHealthGrade"`
	SleepQuality      int            `json:"sleepQuality"`
	Mood              string         `json:"mood"`
	MoodPrediction    string         `json:"moodPrediction"`
	RiskScore         float64        `json:"riskScore"`
	Condition         string         `json:"condition"`
	MoodTrackerData   []MoodPoint    `json:"moodTrackerData,omitempty"`
}

// Value implements driver.Valuer for JSONB
func (p PatientData) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB
func (p *PatientData) Scan(value interface{}) error {
	bytes, ok := jsonbBytes(value)
	if !ok || len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, p)
}

// PrivacySettings gate which external viewers may access a patient's data.
// DoctorAccess keys are doctor profile ids; the settings API only toggles
// existing keys, insertion happens through the admin assignment flow.
type PrivacySettings struct {
	LiveTherapyMode    bool            `json:"liveTherapyMode"`
	AnonymizedResearch bool            `json:"anonymizedResearch"`
	DoctorAccess       map[string]bool `json:"doctorAccess"`
}

// DefaultPrivacySettings are applied at signup.
func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{
		LiveTherapyMode:    false,
		AnonymizedResearch: false,
		DoctorAccess:       map[string]bool{},
	}
}

// Clone returns a deep copy; the privacy service hands copies out so its
// in-memory view cannot be mutated behind its back.
func (s PrivacySettings) Clone() PrivacySettings {
	cp := s
	cp.DoctorAccess = make(map[string]bool, len(s.DoctorAccess))
	for k, v := range s.DoctorAccess {
		cp.DoctorAccess[k] = v
	}
	return cp
}

// Value implements driver.Valuer for JSONB
func (s PrivacySettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB
func (s *PrivacySettings) Scan(value interface{}) error {
	bytes, ok := jsonbBytes(value)
	if !ok || len(bytes) == 0 {
		*s = DefaultPrivacySettings()
		return nil
	}
	if err := json.Unmarshal(bytes, s); err != nil {
		return err
	}
	if s.DoctorAccess == nil {
		s.DoctorAccess = map[string]bool{}
	}
	return nil
}

// jsonbBytes normalizes the value pgx hands back for a JSONB column.
func jsonbBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
