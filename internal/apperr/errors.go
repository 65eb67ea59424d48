// Package apperr defines the error taxonomy shared by the SDK: every failure a
// repository or service returns is one of these types (possibly wrapped).
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Generic user-facing messages, in the app's language.
const (
	MsgSessionExpired = "Sua sessão expirou. Faça login novamente."
	MsgNotFound       = "Não encontramos o que você procurava."
	MsgServer         = "Erro no servidor. Tente novamente mais tarde."
	MsgNetwork        = "Sem conexão com o servidor. Verifique sua internet e tente novamente."
	MsgValidation     = "Verifique os dados informados."
)

// AuthError means the stored session is missing, expired, or was rejected.
// Callers should force a new login for Role.
type AuthError struct {
	Role   string
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth required for role %s: %s", e.Role, e.Reason)
}

// NotFoundError is returned for HTTP 404 and for absent records.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// ServerError is any other non-2xx response. Message holds the backend's own
// message when it sent one.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("server responded %d: %s", e.Status, e.Message)
}

// Permanent reports whether repeating the same request cannot succeed.
func (e *ServerError) Permanent() bool {
	return e.Status >= 400 && e.Status < 500 && e.Status != http.StatusTooManyRequests && e.Status != http.StatusRequestTimeout
}

// NetworkError wraps a transport failure (DNS, refused connection, timeout).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError is raised locally before any request is made.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// IsAuth reports whether err is, or wraps, an AuthError.
func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsPermanent reports whether retrying err is pointless.
func IsPermanent(err error) bool {
	var srv *ServerError
	if errors.As(err, &srv) {
		return srv.Permanent()
	}
	return IsAuth(err) || IsValidation(err) || IsNotFound(err)
}

// UserMessage renders err as a message fit for a banner. A message attached
// with WithMessage wins; server messages are shown verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var um *userMessageError
	if errors.As(err, &um) {
		return um.msg
	}
	var (
		auth *AuthError
		nf   *NotFoundError
		srv  *ServerError
		nw   *NetworkError
		val  *ValidationError
	)
	switch {
	case errors.As(err, &auth):
		return MsgSessionExpired
	case errors.As(err, &nf):
		return MsgNotFound
	case errors.As(err, &val):
		return MsgValidation
	case errors.As(err, &srv):
		if srv.Message != "" {
			return srv.Message
		}
		return MsgServer
	case errors.As(err, &nw):
		return MsgNetwork
	}
	return MsgServer
}

type userMessageError struct {
	msg string
	err error
}

func (e *userMessageError) Error() string { return e.msg + ": " + e.err.Error() }
func (e *userMessageError) Unwrap() error { return e.err }

// WithMessage attaches a user-facing message to err while keeping it
// inspectable with errors.As.
func WithMessage(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &userMessageError{msg: msg, err: err}
}
