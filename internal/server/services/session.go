package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/linkup/internal/common"
	"github.com/dmitrijs2005/linkup/internal/server/auth"
	"github.com/dmitrijs2005/linkup/internal/server/models"
	"github.com/dmitrijs2005/linkup/internal/server/repositories/sessions"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"
)

// SessionService tracks which refresh tokens are still usable. Signature
// and expiry checks are left to the TokenIssuer; the stored bcrypt hash is
// what makes a rotated or revoked token unusable.
type SessionService struct {
	repo   sessions.Repository
	tokens *auth.TokenIssuer
	cost   int
	now    func() time.Time
}

func NewSessionService(repo sessions.Repository, tokens *auth.TokenIssuer, cost int) *SessionService {
	return &SessionService{repo: repo, tokens: tokens, cost: cost, now: time.Now}
}

// refreshDigest keeps bcrypt input under its 72 byte limit while still
// covering the whole token.
func refreshDigest(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return []byte(hex.EncodeToString(sum[:]))
}

func (s *SessionService) newSession(sellerID, userAgent string) (*models.Session, models.TokenPair, error) {
	id := ulid.Make().String()

	pair, err := s.tokens.Issue(sellerID, id)
	if err != nil {
		return nil, models.TokenPair{}, err
	}

	hash, err := bcrypt.GenerateFromPassword(refreshDigest(pair.RefreshToken), s.cost)
	if err != nil {
		return nil, models.TokenPair{}, fmt.Errorf("hash refresh token: %w", err)
	}

	return &models.Session{
		ID:               id,
		SellerID:         sellerID,
		RefreshTokenHash: string(hash),
		UserAgent:        userAgent,
		CreatedAt:        s.now(),
		ExpiresAt:        pair.RefreshExpiresAt,
	}, pair, nil
}

// Start opens a session for sellerID and returns its token pair.
func (s *SessionService) Start(ctx context.Context, sellerID, userAgent string) (*models.TokenPair, error) {
	sess, pair, err := s.newSession(sellerID, userAgent)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &pair, nil
}

// lookup returns the session the token belongs to, or nil when the token
// does not match any live record. expired is set for correctly signed
// tokens past their expiry.
func (s *SessionService) lookup(ctx context.Context, token string) (sess *models.Session, expired bool, err error) {
	claims, err := s.tokens.ParseRefresh(token)
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		expired = true
	case err != nil:
		return nil, false, nil
	}
	if claims.SessionID == "" {
		return nil, false, nil
	}

	sess, err = s.repo.FindByID(ctx, claims.SessionID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load session: %w", err)
	}

	if sess.SellerID != claims.Subject ||
		bcrypt.CompareHashAndPassword([]byte(sess.RefreshTokenHash), refreshDigest(token)) != nil {
		return nil, false, nil
	}

	return sess, expired || sess.Expired(s.now()), nil
}

// Rotate exchanges a live refresh token for a new pair. It returns nil, nil
// when the token is unknown, already rotated, revoked or expired; expired
// sessions are deleted on the way.
func (s *SessionService) Rotate(ctx context.Context, token string) (*models.TokenPair, error) {
	sess, expired, err := s.lookup(ctx, token)
	if err != nil || sess == nil {
		return nil, err
	}

	if expired {
		if _, err := s.repo.Delete(ctx, sess.ID); err != nil {
			return nil, fmt.Errorf("delete expired session: %w", err)
		}
		return nil, nil
	}

	next, pair, err := s.newSession(sess.SellerID, sess.UserAgent)
	if err != nil {
		return nil, err
	}

	rotated, err := s.repo.Rotate(ctx, sess.ID, next)
	if err != nil {
		return nil, fmt.Errorf("rotate session: %w", err)
	}
	if !rotated {
		return nil, nil
	}
	return &pair, nil
}

// Revoke deletes the session behind token. Unknown or already revoked
// tokens are not an error.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	sess, _, err := s.lookup(ctx, token)
	if err != nil || sess == nil {
		return err
	}
	if _, err := s.repo.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpired(ctx, s.now())
}
