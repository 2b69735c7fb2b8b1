package service_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrisnap/backend/internal/models"
	"github.com/nutrisnap/backend/internal/service"
	"github.com/nutrisnap/backend/internal/testhelpers"
)

func TestAuthService_Register(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	authSvc := service.NewAuthService(db, "test-secret")

	t.Run("should register a user and return a valid token", func(t *testing.T) {
		user, token, err := authSvc.Register("Alice", "alice@example.com", "password123")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.NotEmpty(t, token)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.NotEqual(t, "password123", user.PasswordHash)

		claims, err := authSvc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
	})

	t.Run("should reject a duplicate email without creating a record", func(t *testing.T) {
		_, _, err := authSvc.Register("Alice Again", "alice@example.com", "otherpass")
		assert.ErrorIs(t, err, service.ErrEmailTaken)

		var count int64
		db.Model(&models.User{}).Where("email = ?", "alice@example.com").Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("should map a unique index violation to the taken-email error", func(t *testing.T) {
		user, _, err := authSvc.Register("Erin", "erin@example.com", "password123")
		require.NoError(t, err)

		// A soft-deleted account is invisible to the duplicate pre-check but
		// still holds the email in the unique index, so this drives the
		// insert itself into the constraint.
		require.NoError(t, db.Delete(&models.User{}, "id = ?", user.ID).Error)

		_, _, err = authSvc.Register("Erin Again", "erin@example.com", "password456")
		assert.ErrorIs(t, err, service.ErrEmailTaken)
	})
}

func TestAuthService_Login(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	authSvc := service.NewAuthService(db, "test-secret")

	registered, _, err := authSvc.Register("Bob", "bob@example.com", "password123")
	require.NoError(t, err)

	t.Run("should log in with correct credentials", func(t *testing.T) {
		user, token, err := authSvc.Login("bob@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)

		claims, err := authSvc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, claims.UserID)
	})

	t.Run("should reject a wrong password", func(t *testing.T) {
		_, _, err := authSvc.Login("bob@example.com", "wrong")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("should reject an unknown email", func(t *testing.T) {
		_, _, err := authSvc.Login("nobody@example.com", "password123")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestAuthService_ValidateToken(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	authSvc := service.NewAuthService(db, "test-secret")

	t.Run("should reject an expired token", func(t *testing.T) {
		claims := jwt.MapClaims{
			"user_id": uuid.New().String(),
			"iat":     time.Now().Add(-11 * time.Hour).Unix(),
			"exp":     time.Now().Add(-time.Hour).Unix(),
		}
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = authSvc.ValidateToken(expired)
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("should reject a token signed with a different secret", func(t *testing.T) {
		other := service.NewAuthService(db, "other-secret")
		token, err := other.GenerateToken(uuid.New())
		require.NoError(t, err)

		_, err = authSvc.ValidateToken(token)
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("should reject garbage", func(t *testing.T) {
		_, err := authSvc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	authSvc := service.NewAuthService(db, "test-secret")

	user, _, err := authSvc.Register("Carol", "carol@example.com", "oldpassword")
	require.NoError(t, err)

	t.Run("should reject a wrong current password", func(t *testing.T) {
		err := authSvc.ChangePassword(user.ID, "wrong", "newpassword")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("should change the password", func(t *testing.T) {
		require.NoError(t, authSvc.ChangePassword(user.ID, "oldpassword", "newpassword"))

		_, _, err := authSvc.Login("carol@example.com", "oldpassword")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)

		_, _, err = authSvc.Login("carol@example.com", "newpassword")
		assert.NoError(t, err)
	})
}
