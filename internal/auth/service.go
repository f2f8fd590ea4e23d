// Package auth issues and checks the single administrator bearer token.
package auth

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/aquahimiya/catalogd/internal/domain"
	"github.com/aquahimiya/catalogd/pkg/common"
)

const (
	DefaultTTL       = 7 * 24 * time.Hour
	DefaultFailDelay = time.Second
	tokenBytes       = 32
)

// TokenStore persists the credentials that live inside the settings record.
type TokenStore interface {
	// Credentials returns the stored password hash and session token.
	Credentials(ctx context.Context) (*domain.Settings, error)
	// SaveToken replaces the stored token without touching other settings.
	// A nil token clears it.
	SaveToken(ctx context.Context, token *domain.AuthToken) error
}

type Options struct {
	BootstrapPassword string
	TTL               time.Duration
	FailDelay         time.Duration

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration)
}

type Service struct {
	store TokenStore
	opts  Options
}

func NewService(store TokenStore, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.FailDelay < 0 {
		opts.FailDelay = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &Service{store: store, opts: opts}
}

// CheckPassword verifies plain against the stored hash, or the bootstrap
// password while no hash has been set.
func (s *Service) CheckPassword(settings *domain.Settings, plain string) bool {
	return CheckPassword(settings.AdminPasswordHash, plain, s.opts.BootstrapPassword)
}

// Login starts a new admin session, replacing any previous one. A wrong
// password is reported after the configured delay.
func (s *Service) Login(ctx context.Context, password string) (*domain.AuthToken, error) {
	if password == "" {
		return nil, domain.Errorf(domain.ErrValidation, "Password required")
	}
	creds, err := s.store.Credentials(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load credentials")
	}
	if !s.CheckPassword(creds, password) {
		zap.L().Warn("admin login rejected", zap.String("namespace", "auth"))
		if s.opts.FailDelay > 0 {
			s.opts.Sleep(ctx, s.opts.FailDelay)
		}
		return nil, domain.Errorf(domain.ErrUnauthorized, "Invalid password")
	}

	value, err := common.RandomHex(tokenBytes)
	if err != nil {
		return nil, errors.Wrap(err, "generate token")
	}
	token := &domain.AuthToken{
		Token:     value,
		ExpiresAt: s.opts.Now().Add(s.opts.TTL).UTC().Truncate(time.Second),
	}
	if err := s.store.SaveToken(ctx, token); err != nil {
		return nil, errors.Wrap(err, "save token")
	}
	zap.L().Info("admin logged in", zap.String("namespace", "auth"), zap.Time("expiresAt", token.ExpiresAt))
	return token, nil
}

// Validate reports whether token is the current, unexpired admin session.
func (s *Service) Validate(ctx context.Context, token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	creds, err := s.store.Credentials(ctx)
	if err != nil {
		zap.L().Error("load credentials failed", zap.String("namespace", "auth"), zap.Error(err))
		return false
	}
	stored := creds.AuthToken
	if stored == nil || stored.Token == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(stored.Token)) != 1 {
		return false
	}
	return !stored.Expired(s.opts.Now())
}

// Logout clears the stored session. Calling it without a session is a no-op.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.SaveToken(ctx, nil); err != nil {
		return errors.Wrap(err, "clear token")
	}
	zap.L().Info("admin logged out", zap.String("namespace", "auth"))
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
