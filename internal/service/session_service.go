package service

import (
	"context"
	"time"

	"github.com/penflow/penflow-sync-service/internal/domain"
	"github.com/penflow/penflow-sync-service/pkg/code"
	"github.com/penflow/penflow-sync-service/pkg/util"

	"go.uber.org/zap"
)

// SessionService manages opaque session tokens.
//
// A token is valid exactly while its row exists and is unexpired; there is
// nothing to decode client-side. Delete is not idempotent: removing an
// unknown token is an error the caller sees.
type SessionService interface {
	// Create mints a session for a user.
	Create(ctx context.Context, uid int64, clientIP string) (*domain.Session, error)

	// Get returns the session for a token. Unknown or expired tokens yield
	// ErrorSessionNotFound.
	Get(ctx context.Context, token string) (*domain.Session, error)

	// Delete removes a session and returns the removed record. Unknown
	// tokens yield ErrorSessionNotFound.
	Delete(ctx context.Context, token string) (*domain.Session, error)

	// Exists reports whether a live session backs the token.
	Exists(ctx context.Context, token string) (bool, error)

	// CleanupExpired removes expired sessions and returns the count.
	CleanupExpired(ctx context.Context) (int64, error)
}

const defaultSessionExpiry = 30 * 24 * time.Hour

// sessionService implements SessionService.
type sessionService struct {
	repo   domain.SessionRepository
	logger *zap.Logger
	expiry time.Duration
}

// NewSessionService creates a SessionService instance.
func NewSessionService(repo domain.SessionRepository, logger *zap.Logger, cfg *ServiceConfig) SessionService {
	expiry := defaultSessionExpiry
	if cfg != nil && cfg.App.SessionExpiry != "" {
		if d, err := util.ParseDuration(cfg.App.SessionExpiry); err == nil && d > 0 {
			expiry = d
		}
	}
	return &sessionService{
		repo:   repo,
		logger: logger,
		expiry: expiry,
	}
}

func (s *sessionService) Create(ctx context.Context, uid int64, clientIP string) (*domain.Session, error) {
	session, err := s.repo.Create(ctx, &domain.Session{
		UID:       uid,
		Token:     util.NewSessionToken(),
		ClientIP:  clientIP,
		ExpiredAt: time.Now().Add(s.expiry),
	})
	if err != nil {
		return nil, code.ErrorSessionCreateFailed.WithDetails(err.Error())
	}

	s.logger.Info("session created", zap.Int64("uid", uid))
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, token string) (*domain.Session, error) {
	session, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, code.ErrorStoreRead.WithDetails(err.Error())
	}
	if session == nil || session.IsExpired(time.Now()) {
		return nil, code.ErrorSessionNotFound
	}
	return session, nil
}

func (s *sessionService) Delete(ctx context.Context, token string) (*domain.Session, error) {
	// Existence check first: deleting an unknown token must fail, not
	// silently succeed.
	session, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, code.ErrorStoreRead.WithDetails(err.Error())
	}
	if session == nil {
		return nil, code.ErrorSessionNotFound
	}

	if err := s.repo.DeleteByToken(ctx, token); err != nil {
		return nil, code.ErrorSessionDeleteFailed.WithDetails(err.Error())
	}

	s.logger.Info("session deleted", zap.Int64("uid", session.UID))
	return session, nil
}

func (s *sessionService) Exists(ctx context.Context, token string) (bool, error) {
	session, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return false, code.ErrorStoreRead.WithDetails(err.Error())
	}
	return session != nil && !session.IsExpired(time.Now()), nil
}

func (s *sessionService) CleanupExpired(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, code.ErrorStoreWrite.WithDetails(err.Error())
	}
	if removed > 0 {
		s.logger.Info("expired sessions removed", zap.Int64("count", removed))
	}
	return removed, nil
}
