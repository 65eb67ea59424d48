package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"feira/internal/models"
	"feira/internal/repositories"
	"feira/internal/syncqueue"
)

// PushState is the device's position in the push registration lifecycle.
type PushState string

const (
	PushUnregistered        PushState = "unregistered"
	PushPermissionRequested PushState = "permission_requested"
	PushGranted             PushState = "granted"
	PushDenied              PushState = "denied"
	PushTokenObtained       PushState = "token_obtained"
	PushRegistrationPending PushState = "registration_pending"
	PushTokenRegistered     PushState = "token_registered"
	PushRegistrationFailed  PushState = "registration_failed"
)

// KindRegisterToken is the sync queue job kind for token registration.
const KindRegisterToken = "register_token"

const pushJobKey = "push-token"

// ErrPushDenied is returned once the user refused notification permission.
var ErrPushDenied = errors.New("push notification permission denied")

// Messaging abstracts the platform push layer.
type Messaging interface {
	RequestPermission(ctx context.Context) (bool, error)
	Token(ctx context.Context) (string, error)
}

// PushTokenService walks the device through permission, token retrieval and
// backend registration.
type PushTokenService struct {
	messaging Messaging
	repo      repositories.NotificationRepository
	queue     *syncqueue.Queue
	platform  string
	logger    *slog.Logger

	mu    sync.Mutex
	state PushState
	token string
}

// NewPushTokenService creates the service and registers its queue handler.
func NewPushTokenService(messaging Messaging, repo repositories.NotificationRepository, queue *syncqueue.Queue, platform string, logger *slog.Logger) *PushTokenService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &PushTokenService{
		messaging: messaging,
		repo:      repo,
		queue:     queue,
		platform:  platform,
		logger:    logger,
		state:     PushUnregistered,
	}
	queue.Handle(KindRegisterToken, s.registerRemote)
	return s
}

// Register asks for permission if needed, obtains a token and queues its
// registration. After a denial it returns ErrPushDenied without asking again.
func (s *PushTokenService) Register(ctx context.Context) (PushState, error) {
	s.mu.Lock()
	if s.state == PushDenied {
		s.mu.Unlock()
		return PushDenied, ErrPushDenied
	}
	s.state = PushPermissionRequested
	s.mu.Unlock()

	granted, err := s.messaging.RequestPermission(ctx)
	if err != nil {
		s.setState(PushUnregistered)
		return PushUnregistered, fmt.Errorf("failed to request permission: %w", err)
	}
	if !granted {
		s.setState(PushDenied)
		s.logger.Info("push permission denied")
		return PushDenied, ErrPushDenied
	}
	s.setState(PushGranted)

	token, err := s.messaging.Token(ctx)
	if err != nil {
		return PushGranted, fmt.Errorf("failed to obtain push token: %w", err)
	}
	return s.OnTokenRefresh(ctx, token)
}

// OnTokenRefresh queues registration of a rotated token.
func (s *PushTokenService) OnTokenRefresh(ctx context.Context, token string) (PushState, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.State(ctx), errors.New("empty push token")
	}

	s.mu.Lock()
	if s.state == PushDenied {
		s.mu.Unlock()
		return PushDenied, ErrPushDenied
	}
	s.token = token
	s.state = PushTokenObtained
	s.mu.Unlock()

	payload := models.DeviceToken{Token: token, Platform: s.platform}
	if _, err := s.queue.Enqueue(ctx, KindRegisterToken, pushJobKey, payload); err != nil {
		return PushTokenObtained, err
	}
	s.setState(PushRegistrationPending)
	return PushRegistrationPending, nil
}

// State reports the lifecycle state, consulting the queue once registration
// was requested.
func (s *PushTokenService) State(ctx context.Context) PushState {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state != PushRegistrationPending && state != PushTokenRegistered && state != PushRegistrationFailed {
		return state
	}

	job, err := s.queue.Status(ctx, pushJobKey)
	if err != nil {
		return state
	}
	switch job.State {
	case syncqueue.StateDone:
		state = PushTokenRegistered
	case syncqueue.StateFailed:
		state = PushRegistrationFailed
	default:
		state = PushRegistrationPending
	}
	s.setState(state)
	return state
}

// Token returns the last token obtained from the platform.
func (s *PushTokenService) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *PushTokenService) setState(st PushState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *PushTokenService) registerRemote(ctx context.Context, payload []byte) error {
	var token models.DeviceToken
	if err := json.Unmarshal(payload, &token); err != nil {
		return fmt.Errorf("failed to decode token payload: %w", err)
	}
	return s.repo.RegisterToken(ctx, token)
}
