// Package services implements the session authenticator, the facade that
// combines credential verification, lockout tracking, token minting, and
// refresh rotation into login/validate/refresh/logout operations.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/sessioncore/internal/clockx"
	"github.com/dmitrijs2005/sessioncore/internal/common"
	"github.com/dmitrijs2005/sessioncore/internal/logging"
	"github.com/dmitrijs2005/sessioncore/internal/server/auth"
	"github.com/dmitrijs2005/sessioncore/internal/server/config"
	"github.com/dmitrijs2005/sessioncore/internal/server/ledger"
	"github.com/dmitrijs2005/sessioncore/internal/server/limiter"
	"github.com/dmitrijs2005/sessioncore/internal/server/repositories/principals"
	"github.com/google/uuid"
)

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionService authenticates principals and manages their token
// lifecycle. All failures affecting the caller come back as common
// sentinel errors; only storage faults wrap ErrStorageUnavailable.
type SessionService struct {
	principals principals.Repository
	verifier   *auth.Verifier
	codec      *auth.Codec
	tracker    *limiter.Tracker
	ledger     ledger.Ledger
	clock      clockx.Clock
	logger     logging.Logger
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewSessionService(p principals.Repository, codec *auth.Codec, tracker *limiter.Tracker,
	led ledger.Ledger, clock clockx.Clock, logger logging.Logger, cfg *config.Config) *SessionService {
	return &SessionService{
		principals: p,
		verifier:   auth.NewVerifier(),
		codec:      codec,
		tracker:    tracker,
		ledger:     led,
		clock:      clock,
		logger:     logger,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}
}

// SigningKeys converts configured keys into the codec's form.
func SigningKeys(cfg *config.Config) []auth.SigningKey {
	keys := make([]auth.SigningKey, 0, len(cfg.SigningKeys))
	for _, k := range cfg.SigningKeys {
		keys = append(keys, auth.SigningKey{ID: k.ID, Secret: []byte(k.Secret)})
	}
	return keys
}

// LockoutPolicy converts configured thresholds into the tracker's form.
func LockoutPolicy(cfg *config.Config) limiter.Policy {
	return limiter.Policy{
		MaxFailures:      cfg.MaxFailures,
		AttemptWindow:    cfg.AttemptWindow,
		LockoutBase:      cfg.LockoutBase,
		LockoutMax:       cfg.LockoutMax,
		EscalationWindow: cfg.EscalationWindow,
	}
}

// Login verifies the secret for the principal and, on success, mints an
// access/refresh token pair. The lockout check runs before any credential
// work, and every attempt is recorded whether it succeeds or not. An
// unknown principal, a disabled principal, and a wrong secret all return
// ErrInvalidCredentials, with comparable timing.
func (s *SessionService) Login(ctx context.Context, principalID, secret, origin string) (*TokenPair, error) {
	locked, retryAfter, err := s.tracker.IsLocked(ctx, principalID, origin)
	if err != nil {
		s.logger.Error(ctx, "lockout check failed", "error", err)
		return nil, common.StorageError(err)
	}
	if locked {
		s.logger.Warn(ctx, "login rejected, locked out", "principal", principalID, "origin", origin)
		return nil, &common.LockedOutError{RetryAfter: retryAfter}
	}

	ok := false
	p, err := s.principals.Find(ctx, principalID)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		s.verifier.DummyVerify(secret)
	case err != nil:
		s.logger.Error(ctx, "principal lookup failed", "error", err)
		return nil, common.StorageError(err)
	case p.Disabled:
		s.verifier.DummyVerify(secret)
	default:
		ok = s.verifier.Verify(p, secret)
	}

	if err := s.tracker.RecordAttempt(ctx, principalID, origin, ok); err != nil {
		s.logger.Error(ctx, "attempt recording failed", "error", err)
		return nil, common.StorageError(err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	return s.mintPair(ctx, principalID)
}

// ValidateAccess checks an access token and returns its claims. Refresh
// tokens are rejected with ErrWrongTokenKind even though their signature
// verifies.
func (s *SessionService) ValidateAccess(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Kind != auth.KindAccess {
		return nil, common.ErrWrongTokenKind
	}
	return claims, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a
// fresh pair is minted in one step. A token that was already rotated or
// revoked returns ErrRevoked, so a replayed refresh token is useless.
func (s *SessionService) Refresh(ctx context.Context, token string) (*TokenPair, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Kind != auth.KindRefresh {
		return nil, common.ErrWrongTokenKind
	}
	if claims.ID == "" {
		return nil, common.ErrTokenMalformed
	}

	rotated, err := s.ledger.Revoke(ctx, claims.ID, s.clock.Now())
	if err != nil {
		s.logger.Error(ctx, "refresh rotation failed", "error", err)
		return nil, common.StorageError(err)
	}
	if !rotated {
		s.logger.Warn(ctx, "refresh token replayed", "token_id", claims.ID)
		return nil, common.ErrRevoked
	}

	return s.mintPair(ctx, claims.Subject)
}

// Logout revokes the presented refresh token. Expired tokens are accepted
// as long as their signature verifies, and revoking an already revoked or
// unknown token succeeds, so logout is idempotent.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	claims, err := s.codec.Decode(token)
	if err != nil {
		return err
	}
	if claims.Kind != auth.KindRefresh {
		return common.ErrWrongTokenKind
	}
	if claims.ID == "" {
		return common.ErrTokenMalformed
	}

	if _, err := s.ledger.Revoke(ctx, claims.ID, s.clock.Now()); err != nil {
		s.logger.Error(ctx, "logout revocation failed", "error", err)
		return common.StorageError(err)
	}
	return nil
}

// PruneExpired drops ledger entries for refresh tokens already past their
// expiry and returns how many were removed.
func (s *SessionService) PruneExpired(ctx context.Context) (int, error) {
	pruned, err := s.ledger.Prune(ctx, s.clock.Now())
	if err != nil {
		s.logger.Error(ctx, "ledger prune failed", "error", err)
		return 0, common.StorageError(err)
	}
	return pruned, nil
}

func (s *SessionService) mintPair(ctx context.Context, principalID string) (*TokenPair, error) {
	now := s.clock.Now()

	access, err := s.codec.Mint(auth.NewClaims(principalID, auth.KindAccess, "", now, s.accessTTL))
	if err != nil {
		return nil, err
	}

	tokenID := uuid.NewString()
	refresh, err := s.codec.Mint(auth.NewClaims(principalID, auth.KindRefresh, tokenID, now, s.refreshTTL))
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Record(ctx, tokenID, now.Add(s.refreshTTL)); err != nil {
		s.logger.Error(ctx, "refresh registration failed", "error", err)
		return nil, common.StorageError(err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
