package backend_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"feira/internal/backend"
	"feira/internal/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testJWTSecret = "test_jwt_secret"

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newStore(t *testing.T) *backend.GORMStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	store, err := backend.NewGORMStore(db)
	require.NoError(t, err)
	return store
}

func seeded(t *testing.T) (*backend.GORMStore, *backend.AuthService, *backend.Demo) {
	t.Helper()
	store := newStore(t)
	auth := backend.NewAuthService(store, testJWTSecret, time.Hour, discard)
	demo, err := backend.Seed(context.Background(), store, auth)
	require.NoError(t, err)
	return store, auth, demo
}

func TestAuthService_Register(t *testing.T) {
	store := newStore(t)
	authService := backend.NewAuthService(store, testJWTSecret, time.Hour, discard)
	ctx := context.Background()

	account := &models.Account{Role: models.RoleBuyer, Name: "Bia", Email: "  Bia@Example.com "}
	require.NoError(t, authService.Register(ctx, account, "password123"))
	assert.Equal(t, "bia@example.com", account.Email)
	assert.NotEmpty(t, account.ID)
	assert.NotEqual(t, "password123", account.PasswordHash)

	// Same email, same role
	err := authService.Register(ctx, &models.Account{Role: models.RoleBuyer, Email: "bia@example.com"}, "password123")
	assert.ErrorIs(t, err, backend.ErrConflict)

	// Same email, other role
	err = authService.Register(ctx, &models.Account{Role: models.RoleCourier, Email: "bia@example.com"}, "password123")
	assert.NoError(t, err)
}

func TestAuthService_Login(t *testing.T) {
	_, authService, demo := seeded(t)
	ctx := context.Background()

	token, account, err := authService.Login(ctx, models.RoleBuyer, "ANA@feira.dev", backend.DemoPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, demo.Buyer.ID, account.ID)

	claims, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, demo.Buyer.ID, claims.UserID)
	assert.Equal(t, models.RoleBuyer, claims.Role)

	// Wrong password
	_, _, err = authService.Login(ctx, models.RoleBuyer, demo.Buyer.Email, "wrongpassword")
	assert.True(t, errors.Is(err, backend.ErrInvalidCredentials))

	// Right password, wrong role
	_, _, err = authService.Login(ctx, models.RoleCourier, demo.Buyer.Email, backend.DemoPassword)
	assert.True(t, errors.Is(err, backend.ErrInvalidCredentials))

	// Unknown account
	_, _, err = authService.Login(ctx, models.RoleBuyer, "nobody@feira.dev", backend.DemoPassword)
	assert.True(t, errors.Is(err, backend.ErrInvalidCredentials))
}

func TestAuthService_ValidateToken(t *testing.T) {
	store := newStore(t)
	authService := backend.NewAuthService(store, testJWTSecret, time.Hour, discard)

	sign := func(secret string, claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	valid := jwt.MapClaims{"user_id": "user-123", "role": "courier", "exp": time.Now().Add(time.Hour).Unix()}

	claims, err := authService.ValidateToken(sign(testJWTSecret, valid))
	require.NoError(t, err)
	assert.Equal(t, backend.Claims{UserID: "user-123", Role: models.RoleCourier}, claims)

	_, err = authService.ValidateToken(sign("wrong_secret", valid))
	assert.Error(t, err)

	_, err = authService.ValidateToken(sign(testJWTSecret, jwt.MapClaims{"user_id": "user-123", "role": "buyer", "exp": time.Now().Add(-time.Minute).Unix()}))
	assert.Error(t, err)

	_, err = authService.ValidateToken(sign(testJWTSecret, jwt.MapClaims{"user_id": "user-123", "role": "admin"}))
	assert.Error(t, err)

	_, err = authService.ValidateToken("not.a.token")
	assert.Error(t, err)
}
