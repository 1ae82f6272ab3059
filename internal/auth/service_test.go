package auth

import (
	"testing"
	"time"

	"tableserve-backend/internal/apperr"
	"tableserve-backend/internal/config"
	"tableserve-backend/internal/database"
	"tableserve-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "0123456789abcdef0123456789abcdef",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, password string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := models.User{Username: username, PasswordHash: string(hash), Role: role}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func TestLoginSuccess(t *testing.T) {
	db := newTestDB(t)
	cfg := testConfig()
	svc := NewService(db, cfg)
	seedUser(t, db, "alice", "secret123", models.RoleStaff)

	result, err := svc.Login("alice", "secret123")
	require.NoError(t, err)

	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "alice", result.User.Username)
	assert.Equal(t, models.RoleStaff, result.User.Role)

	claims, err := ParseToken(cfg.JWTSecret, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleStaff, claims.Role)

	var stored models.RefreshToken
	require.NoError(t, db.First(&stored, "token = ?", result.RefreshToken).Error)
	assert.Equal(t, result.User.ID, stored.UserID)
}

func TestLoginFailureIsGeneric(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testConfig())
	seedUser(t, db, "alice", "secret123", models.RoleStaff)

	_, wrongPassword := svc.Login("alice", "wrong")
	_, unknownUser := svc.Login("nobody", "secret123")

	require.Error(t, wrongPassword)
	require.Error(t, unknownUser)

	// identical message so callers cannot probe which usernames exist
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())

	appErr, ok := wrongPassword.(*apperr.Error)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeUnauthorized, appErr.Code)
}

func TestRefreshMintsNewAccessToken(t *testing.T) {
	db := newTestDB(t)
	cfg := testConfig()
	svc := NewService(db, cfg)
	seedUser(t, db, "alice", "secret123", models.RoleAdmin)

	result, err := svc.Login("alice", "secret123")
	require.NoError(t, err)

	access, err := svc.Refresh(result.RefreshToken)
	require.NoError(t, err)

	claims, err := ParseToken(cfg.JWTSecret, access)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestRefreshRejectsExpiredAndUnknown(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testConfig())
	u := seedUser(t, db, "alice", "secret123", models.RoleStaff)

	expired := models.RefreshToken{
		Token:     "expired-token",
		UserID:    u.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, db.Create(&expired).Error)

	_, err := svc.Refresh("expired-token")
	require.Error(t, err)

	// expired tokens are purged on sight
	var count int64
	db.Model(&models.RefreshToken{}).Where("token = ?", "expired-token").Count(&count)
	assert.Zero(t, count)

	_, err = svc.Refresh("never-issued")
	require.Error(t, err)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testConfig())
	seedUser(t, db, "alice", "secret123", models.RoleStaff)

	result, err := svc.Login("alice", "secret123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(result.RefreshToken))

	_, err = svc.Refresh(result.RefreshToken)
	require.Error(t, err)
}

func TestIsStaffToken(t *testing.T) {
	db := newTestDB(t)
	cfg := testConfig()
	svc := NewService(db, cfg)
	seedUser(t, db, "cook", "secret123", models.RoleKitchen)

	result, err := svc.Login("cook", "secret123")
	require.NoError(t, err)

	assert.True(t, svc.IsStaffToken(result.AccessToken))
	assert.False(t, svc.IsStaffToken("garbage"))
}
