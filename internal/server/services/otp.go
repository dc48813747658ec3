// Package services contains server-side business logic: one-time codes,
// refresh-token sessions, wallet custody and the identity flow that ties
// them together.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/linkup/internal/common"
	"github.com/dmitrijs2005/linkup/internal/server/models"
	"github.com/dmitrijs2005/linkup/internal/server/repositories/otpcodes"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"
)

// OTP verification failure reasons. They are shown to the client as is.
const (
	ReasonNotFound = "OTP not found"
	ReasonExpired  = "OTP expired"
	ReasonInvalid  = "OTP invalid"
)

type IssuedOtp struct {
	Code      string
	ExpiresAt time.Time
}

type OtpResult struct {
	Valid  bool
	Reason string
}

// OtpService issues and checks one-time codes.
type OtpService struct {
	repo   otpcodes.Repository
	length int
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

func NewOtpService(repo otpcodes.Repository, length int, ttl time.Duration, cost int) *OtpService {
	return &OtpService{repo: repo, length: length, ttl: ttl, cost: cost, now: time.Now}
}

// Issue stores a fresh code for (email, purpose) and returns the plaintext
// for out-of-band delivery. Earlier codes for the same pair stop working.
func (s *OtpService) Issue(ctx context.Context, subjectID, email string, purpose models.Purpose) (*IssuedOtp, error) {
	if !purpose.Valid() {
		return nil, fmt.Errorf("unknown otp purpose %q", purpose)
	}

	code, err := common.RandomDigits(s.length)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash otp: %w", err)
	}

	now := s.now()
	c := &models.OtpChallenge{
		ID:        ulid.Make().String(),
		SubjectID: subjectID,
		Email:     models.NormalizeEmail(email),
		Purpose:   purpose,
		CodeHash:  string(hash),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.repo.Replace(ctx, c); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}

	return &IssuedOtp{Code: code, ExpiresAt: c.ExpiresAt}, nil
}

// Verify checks code against the newest challenge for (email, purpose) and
// consumes it on success. A code can succeed at most once.
func (s *OtpService) Verify(ctx context.Context, email string, purpose models.Purpose, code string) (OtpResult, error) {
	c, err := s.repo.Latest(ctx, models.NormalizeEmail(email), purpose)
	if errors.Is(err, common.ErrorNotFound) {
		return OtpResult{Reason: ReasonNotFound}, nil
	}
	if err != nil {
		return OtpResult{}, fmt.Errorf("load otp: %w", err)
	}

	if c.Expired(s.now()) {
		return OtpResult{Reason: ReasonExpired}, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(c.CodeHash), []byte(code)) != nil {
		return OtpResult{Reason: ReasonInvalid}, nil
	}

	consumed, err := s.repo.Consume(ctx, c.ID)
	if err != nil {
		return OtpResult{}, fmt.Errorf("consume otp: %w", err)
	}
	if !consumed {
		// a concurrent attempt used it first
		return OtpResult{Reason: ReasonNotFound}, nil
	}

	return OtpResult{Valid: true}, nil
}

func (s *OtpService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpired(ctx, s.now())
}
