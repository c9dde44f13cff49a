package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurocore-backend/models"
	"neurocore-backend/repository"
)

type fakeAccountStore struct {
	profiles map[uuid.UUID]models.UserProfile
	hashes   map[string]string
	byEmail  map[string]uuid.UUID
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{
		profiles: make(map[uuid.UUID]models.UserProfile),
		hashes:   make(map[string]string),
		byEmail:  make(map[string]uuid.UUID),
	}
}

func (s *fakeAccountStore) Create(ctx context.Context, profile models.UserProfile, passwordHash string) error {
	s.profiles[profile.ID()] = profile
	s.hashes[profile.Email()] = passwordHash
	s.byEmail[profile.Email()] = profile.ID()
	return nil
}

func (s *fakeAccountStore) GetByID(ctx context.Context, id uuid.UUID) (models.UserProfile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (s *fakeAccountStore) GetByEmail(ctx context.Context, email string) (models.UserProfile, string, error) {
	id, ok := s.byEmail[email]
	if !ok {
		return nil, "", repository.ErrNotFound
	}
	return s.profiles[id], s.hashes[email], nil
}

func newTestAuthService(store AccountStore) *AuthService {
	return NewAuthService(AuthWithStore(store), AuthWithSecret("test-secret"))
}

func TestCreateAccountAndSignIn(t *testing.T) {
	store := newFakeAccountStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	created, err := svc.CreateAccount(ctx, "patient@neurocore.dev", "password123", "John Doe", models.RolePatient)
	require.NoError(t, err)
	patient, ok := models.AsPatient(created)
	require.True(t, ok)
	assert.NotNil(t, patient.PrivacySettings.DoctorAccess)

	profile, token, err := svc.SignIn(ctx, "patient@neurocore.dev", "password123")
	require.NoError(t, err)
	assert.Equal(t, created.ID(), profile.ID())
	assert.NotEmpty(t, token)
}

func TestCreateAccountRejectsDuplicateEmail(t *testing.T) {
	store := newFakeAccountStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, "patient@neurocore.dev", "password123", "John Doe", models.RolePatient)
	require.NoError(t, err)

	_, err = svc.CreateAccount(ctx, "patient@neurocore.dev", "password456", "John Clone", models.RolePatient)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignInWrongPassword(t *testing.T) {
	store := newFakeAccountStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, "patient@neurocore.dev", "password123", "John Doe", models.RolePatient)
	require.NoError(t, err)

	_, _, err = svc.SignIn(ctx, "patient@neurocore.dev", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.SignIn(ctx, "nobody@neurocore.dev", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyRoundTrip(t *testing.T) {
	store := newFakeAccountStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	created, err := svc.CreateAccount(ctx, "doctor@neurocore.dev", "password123", "Dr. Anya Sharma", models.RoleDoctor)
	require.NoError(t, err)

	_, token, err := svc.SignIn(ctx, "doctor@neurocore.dev", "password123")
	require.NoError(t, err)

	profile, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, created.ID(), profile.ID())
	assert.Equal(t, models.RoleDoctor, profile.Role())
}

func TestSignOutRevokesToken(t *testing.T) {
	store := newFakeAccountStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, "patient@neurocore.dev", "password123", "John Doe", models.RolePatient)
	require.NoError(t, err)
	_, token, err := svc.SignIn(ctx, "patient@neurocore.dev", "password123")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(token))

	_, err = svc.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(newFakeAccountStore())

	_, err := svc.Verify(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifySessionWithoutProfile(t *testing.T) {
	store := newFakeAccountStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	created, err := svc.CreateAccount(ctx, "patient@neurocore.dev", "password123", "John Doe", models.RolePatient)
	require.NoError(t, err)
	_, token, err := svc.SignIn(ctx, "patient@neurocore.dev", "password123")
	require.NoError(t, err)

	// Profile row disappears after the session was issued.
	delete(store.profiles, created.ID())

	profile, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, profile)
}
