package repositories

import (
	"context"
	"fmt"
	"net/http"

	"feira/internal/apiclient"
	"feira/internal/apperr"
	"feira/internal/models"
	"feira/internal/session"
)

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthRepository signs a role in and out.
type AuthRepository interface {
	Login(ctx context.Context, role models.Role, creds Credentials) (session.Session, *models.Account, error)
	Logout(ctx context.Context, role models.Role) error
}

// HTTPAuthRepository logs in against the backend and keeps the resulting
// session in the token store. Couriers authenticate on their own endpoint.
type HTTPAuthRepository struct {
	client *apiclient.Client
	tokens session.TokenStore
}

func NewHTTPAuthRepository(client *apiclient.Client, tokens session.TokenStore) *HTTPAuthRepository {
	return &HTTPAuthRepository{client: client, tokens: tokens}
}

type loginRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type loginResponse struct {
	Token string         `json:"token"`
	User  models.Account `json:"user"`
}

func loginPath(role models.Role) string {
	if role == models.RoleCourier {
		return "/delivery/auth/login"
	}
	return "/auth/login"
}

func (r *HTTPAuthRepository) Login(ctx context.Context, role models.Role, creds Credentials) (session.Session, *models.Account, error) {
	var resp loginResponse
	err := r.client.DoPublic(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   loginPath(role),
		Body:   loginRequest{Email: creds.Email, Password: creds.Password, Role: role},
	}, &resp)
	if err != nil {
		return session.Session{}, nil, wrap("login failed", err)
	}
	if resp.Token == "" {
		return session.Session{}, nil, &apperr.ServerError{Status: http.StatusOK, Message: "login response carried no token"}
	}

	s, err := session.NewSession(role, resp.Token)
	if err != nil {
		return session.Session{}, nil, err
	}
	if s.UserID == "" {
		s.UserID = resp.User.ID
	}
	if err := r.tokens.Save(ctx, s); err != nil {
		return session.Session{}, nil, fmt.Errorf("failed to store session: %w", err)
	}
	return s, &resp.User, nil
}

// Logout forgets the role's session. The backend keeps no session state.
func (r *HTTPAuthRepository) Logout(ctx context.Context, role models.Role) error {
	return r.tokens.Delete(ctx, role)
}
