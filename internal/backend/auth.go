package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"feira/internal/apperr"
	"feira/internal/models"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// Claims identify the caller of an authenticated request.
type Claims struct {
	UserID string
	Role   models.Role
}

// AuthService handles registration, login and token validation.
type AuthService struct {
	store     Store
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewAuthService creates a new AuthService. ttl <= 0 means 24 hours.
func NewAuthService(store Store, jwtSecret string, ttl time.Duration, logger *slog.Logger) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{store: store, jwtSecret: []byte(jwtSecret), tokenTTL: ttl, logger: logger, now: time.Now}
}

// Register hashes the password and stores the account.
func (s *AuthService) Register(ctx context.Context, account *models.Account, password string) error {
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	account.PasswordHash = string(hashed)
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to register account: %w", err)
	}
	return nil
}

// Login authenticates an account of the given role and returns a signed token.
func (s *AuthService) Login(ctx context.Context, role models.Role, email, password string) (string, *models.Account, error) {
	account, err := s.store.AccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)), role)
	if err != nil {
		if apperr.IsNotFound(err) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": account.ID,
		"role":    string(account.Role),
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, account, nil
}

// ValidateToken parses and validates a JWT token.
func (s *AuthService) ValidateToken(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.logger.Debug("token validation failed", "error", err)
		return Claims{}, fmt.Errorf("invalid token: %w", err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, fmt.Errorf("invalid token")
	}
	userID, _ := mc["user_id"].(string)
	rawRole, _ := mc["role"].(string)
	role, err := models.ParseRole(rawRole)
	if userID == "" || err != nil {
		return Claims{}, fmt.Errorf("invalid token claims")
	}
	return Claims{UserID: userID, Role: role}, nil
}
