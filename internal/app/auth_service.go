package app

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/billie-coop/sift/internal/credential"
	"github.com/billie-coop/sift/internal/events"
	"github.com/billie-coop/sift/internal/identity"
)

// Authenticator issues tokens. *identity.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, username, password string) (string, error)
}

var _ Authenticator = (*identity.Client)(nil)

// AuthService handles login, registration and logout
type AuthService struct {
	auth        Authenticator
	credential  *credential.Store
	eventBroker *events.Broker
	clock       clockwork.Clock
}

// NewAuthService creates a new auth service
func NewAuthService(auth Authenticator, creds *credential.Store, eventBroker *events.Broker, clock clockwork.Clock) *AuthService {
	return &AuthService{
		auth:        auth,
		credential:  creds,
		eventBroker: eventBroker,
		clock:       clock,
	}
}

// Login exchanges credentials for a token and stores it.
func (s *AuthService) Login(ctx context.Context, username, password string) error {
	token, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return err
	}
	s.signIn(token, username)
	return nil
}

// Register creates an account and signs in with it.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	token, err := s.auth.Register(ctx, username, password)
	if err != nil {
		return err
	}
	s.signIn(token, username)
	return nil
}

// Logout clears the token.
func (s *AuthService) Logout() {
	s.credential.Clear()
	logx.Infof("logged out")
	s.eventBroker.Publish(events.Event{
		Type:    events.AuthChangedEvent,
		Payload: events.AuthChangedPayload{LoggedIn: false},
	})
}

// LoggedIn reports whether a token is set and has not expired.
func (s *AuthService) LoggedIn() bool {
	_, ok := s.credential.Token()
	return ok && !s.Expired()
}

// Expired reports whether the stored token's exp claim has passed.
func (s *AuthService) Expired() bool {
	return s.credential.Expired(s.clock.Now())
}

// Username returns the name in the current token, if it carries one.
func (s *AuthService) Username() string {
	claims, err := s.credential.Claims()
	if err != nil {
		if !errors.Is(err, credential.ErrNoToken) {
			logx.Debugf("token has no readable claims: %v", err)
		}
		return ""
	}
	return claims.Username
}

func (s *AuthService) signIn(token, username string) {
	s.credential.Set(token)
	if name := s.Username(); name != "" {
		username = name
	}
	logx.Infof("logged in as %s", username)
	s.eventBroker.Publish(events.Event{
		Type:    events.AuthChangedEvent,
		Payload: events.AuthChangedPayload{LoggedIn: true, Username: username},
	})
}
