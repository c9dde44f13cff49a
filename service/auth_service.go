package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"neurocore-backend/models"
	"neurocore-backend/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired session token")
	ErrEmailTaken         = errors.New("email is already registered")
)

// SessionClaims is the JWT payload for a signed-in session. Subject is the
// profile id; ID is the token's jti, used for revocation on sign-out.
type SessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// AccountStore is the profile persistence needed by the auth service.
type AccountStore interface {
	Create(ctx context.Context, profile models.UserProfile, passwordHash string) error
	GetByID(ctx context.Context, id uuid.UUID) (models.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (models.UserProfile, string, error)
}

// AuthService issues and verifies session tokens. Revocation is an
// in-memory jti set; a restart only shortens sessions, never extends them.
type AuthService struct {
	store  AccountStore
	secret []byte
	ttl    time.Duration
	logger zerolog.Logger

	mu      sync.Mutex
	revoked map[string]time.Time
}

// AuthServiceOption is a functional option for AuthService
type AuthServiceOption func(*AuthService)

// AuthWithStore sets the account store
func AuthWithStore(store AccountStore) AuthServiceOption {
	return func(s *AuthService) {
		s.store = store
	}
}

// AuthWithSecret sets the token signing secret
func AuthWithSecret(secret string) AuthServiceOption {
	return func(s *AuthService) {
		s.secret = []byte(secret)
	}
}

// AuthWithTTL sets the session lifetime
func AuthWithTTL(ttl time.Duration) AuthServiceOption {
	return func(s *AuthService) {
		s.ttl = ttl
	}
}

// AuthWithLogger sets the logger
func AuthWithLogger(logger zerolog.Logger) AuthServiceOption {
	return func(s *AuthService) {
		s.logger = logger
	}
}

// NewAuthService creates a new auth service
func NewAuthService(opts ...AuthServiceOption) *AuthService {
	s := &AuthService{
		ttl:     24 * time.Hour,
		logger:  zerolog.Nop(),
		revoked: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount registers a new user. Patients start with zeroed dashboard
// data and default privacy settings; role payload fields beyond that are
// filled in later by admins or ingestion.
func (s *AuthService) CreateAccount(ctx context.Context, email, password, displayName string, role models.Role) (models.UserProfile, error) {
	if _, _, err := s.store.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	base := models.BaseProfile{
		UID:       uuid.New(),
		Mail:      email,
		Name:      displayName,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var profile models.UserProfile
	switch role {
	case models.RolePatient:
		profile = &models.PatientProfile{
			BaseProfile:     base,
			PrivacySettings: models.DefaultPrivacySettings(),
		}
	case models.RoleDoctor:
		profile = &models.DoctorProfile{BaseProfile: base}
	case models.RoleAdmin:
		profile = &models.AdminProfile{BaseProfile: base}
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}

	if err := s.store.Create(ctx, profile, string(hash)); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info().Str("email", email).Str("role", string(role)).Msg("account created")
	return profile, nil
}

// SignIn checks credentials and returns the profile together with a signed
// session token.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (models.UserProfile, string, error) {
	profile, hash, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID().String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Role: string(profile.Role()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign session token: %w", err)
	}

	s.logger.Info().Str("email", email).Str("role", string(profile.Role())).Msg("user signed in")
	return profile, token, nil
}

// SignOut revokes the token's jti for the remainder of its lifetime.
func (s *AuthService) SignOut(token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(time.Now())
	s.revoked[claims.ID] = claims.ExpiresAt.Time
	return nil
}

// Verify validates a session token and loads the current profile. A valid
// token whose profile row has since disappeared yields (nil, nil): the
// session exists but has no profile.
func (s *AuthService) Verify(ctx context.Context, token string) (models.UserProfile, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	_, gone := s.revoked[claims.ID]
	s.mu.Unlock()
	if gone {
		return nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	profile, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

func (s *AuthService) parse(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// pruneLocked drops revocation entries for tokens that have expired anyway.
func (s *AuthService) pruneLocked(now time.Time) {
	for jti, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, jti)
		}
	}
}
