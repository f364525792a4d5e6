package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaticstar/hoosgottime/internal/dto"
	"github.com/novaticstar/hoosgottime/internal/models"
)

type stubAuthRepo struct {
	users map[string]*models.User
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: map[string]*models.User{}}
}

func (s *stubAuthRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "u-" + user.Email
	}
	s.users[user.Email] = user
	return nil
}

func (s *stubAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *stubAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func newAuthFixture() (*AuthService, *stubAuthRepo) {
	repo := newStubAuthRepo()
	service := NewAuthService(repo, nil, nil, AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "hoosgottime-test",
	})
	return service, repo
}

func TestAuthRegisterLoginRoundTrip(t *testing.T) {
	service, _ := newAuthFixture()

	registered, err := service.Register(context.Background(), dto.RegisterRequest{
		Email:    "Student@Example.edu",
		Password: "correct-horse",
		Name:     "Sam Student",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "student@example.edu", registered.User.Email)

	logged, err := service.Login(context.Background(), dto.LoginRequest{
		Email:    "student@example.edu",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	claims, err := service.ValidateToken(logged.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.Equal(t, "student@example.edu", claims.Email)
}

func TestAuthRegisterRejectsDuplicateEmail(t *testing.T) {
	service, _ := newAuthFixture()
	req := dto.RegisterRequest{Email: "a@b.edu", Password: "long-enough", Name: "A"}

	_, err := service.Register(context.Background(), req)
	require.NoError(t, err)
	_, err = service.Register(context.Background(), req)
	require.Error(t, err)
}

func TestAuthLoginRejectsBadPassword(t *testing.T) {
	service, _ := newAuthFixture()
	_, err := service.Register(context.Background(), dto.RegisterRequest{Email: "a@b.edu", Password: "long-enough", Name: "A"})
	require.NoError(t, err)

	_, err = service.Login(context.Background(), dto.LoginRequest{Email: "a@b.edu", Password: "wrong"})
	require.Error(t, err)
}

func TestAuthValidateRejectsGarbageToken(t *testing.T) {
	service, _ := newAuthFixture()
	_, err := service.ValidateToken("not-a-token")
	require.Error(t, err)
}
