package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/linkup/internal/common"
	"github.com/dmitrijs2005/linkup/internal/logging"
	"github.com/dmitrijs2005/linkup/internal/server/auth"
	"github.com/dmitrijs2005/linkup/internal/server/mailer"
	"github.com/dmitrijs2005/linkup/internal/server/models"
	"github.com/dmitrijs2005/linkup/internal/server/repositories/sellers"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgSellerNotFound     = "Seller not found"
	msgAccountExists      = "Account already exists"
	msgPendingAccount     = "Account already exists. Please verify via OTP."
	msgBusinessNameTaken  = "Business name unavailable"
	msgInvalidRefresh     = "Invalid refresh token"
	msgUnauthorized       = "Unauthorized"

	// bcrypt ignores nothing past this, x/crypto rejects it outright.
	maxPasswordBytes = 72
	minPasswordRunes = 8
)

type SignupInput struct {
	BusinessName string
	Email        string
	Password     string
	Country      string
}

// SignupResult reports where signup left the seller. Pending is set when an
// unverified account already owned the email and a new code was sent.
type SignupResult struct {
	Pending      bool
	OtpExpiresAt time.Time
}

// AuthResult is returned by every step that opens a session.
// WalletSeedPhrase is only set on the first signup verification.
type AuthResult struct {
	Seller           models.SellerProfile
	Tokens           *models.TokenPair
	WalletSeedPhrase *string
}

// IdentityService drives signup, login, password reset and token refresh.
// It is the only service that turns collaborator failures into classified
// common.Error values.
type IdentityService struct {
	sellers      sellers.Repository
	otp          *OtpService
	sessions     *SessionService
	wallets      *WalletService
	tokens       *auth.TokenIssuer
	mail         mailer.Dispatcher
	passwordCost int
	logger       logging.Logger
	now          func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

func NewIdentityService(
	sellersRepo sellers.Repository,
	otp *OtpService,
	sessions *SessionService,
	wallets *WalletService,
	tokens *auth.TokenIssuer,
	mail mailer.Dispatcher,
	passwordCost int,
	logger logging.Logger,
) *IdentityService {
	return &IdentityService{
		sellers:      sellersRepo,
		otp:          otp,
		sessions:     sessions,
		wallets:      wallets,
		tokens:       tokens,
		mail:         mail,
		passwordCost: passwordCost,
		logger:       logger.With("module", "identity"),
		now:          time.Now,
	}
}

func checkPassword(p string) error {
	if len([]rune(p)) < minPasswordRunes {
		return common.Validation("Password must be at least 8 characters")
	}
	if len(p) > maxPasswordBytes {
		return common.Validation("Password must be at most 72 bytes")
	}
	return nil
}

func (s *IdentityService) hashPassword(p string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(p), s.passwordCost)
	if err != nil {
		return "", common.Internal("Failed to hash password", err)
	}
	return string(h), nil
}

// findByEmail returns nil, nil when no seller owns email.
func (s *IdentityService) findByEmail(ctx context.Context, email string) (*models.Seller, error) {
	seller, err := s.sellers.FindByEmail(ctx, models.NormalizeEmail(email))
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, common.Internal("Failed to load seller", err)
	}
	return seller, nil
}

func (s *IdentityService) sendCode(ctx context.Context, seller *models.Seller, purpose models.Purpose) (time.Time, error) {
	issued, err := s.otp.Issue(ctx, seller.ID, seller.Email, purpose)
	if err != nil {
		return time.Time{}, common.Internal("Failed to issue code", err)
	}
	if err := s.mail.SendOTP(ctx, seller.Email, issued.Code, purpose, issued.ExpiresAt); err != nil {
		return time.Time{}, common.Upstream("Failed to send verification code", err)
	}
	return issued.ExpiresAt, nil
}

func (s *IdentityService) checkCode(ctx context.Context, email string, purpose models.Purpose, code string) error {
	res, err := s.otp.Verify(ctx, email, purpose, code)
	if err != nil {
		return common.Internal("Failed to verify code", err)
	}
	if !res.Valid {
		return common.Validation(res.Reason)
	}
	return nil
}

func (s *IdentityService) startSession(ctx context.Context, seller *models.Seller, userAgent string) (*AuthResult, error) {
	pair, err := s.sessions.Start(ctx, seller.ID, userAgent)
	if err != nil {
		return nil, common.Internal("Failed to start session", err)
	}
	return &AuthResult{Seller: models.NewSellerProfile(seller), Tokens: pair}, nil
}

// Signup creates an unverified seller with a custodial wallet and mails a
// signup code. Repeating signup for an unverified email only re-sends the
// code.
func (s *IdentityService) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	existing, err := s.findByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Verified() {
			return nil, common.Conflict(msgAccountExists)
		}
		exp, err := s.sendCode(ctx, existing, models.PurposeSignup)
		if err != nil {
			return nil, err
		}
		return &SignupResult{Pending: true, OtpExpiresAt: exp}, nil
	}

	nameHash := models.HashBusinessName(in.BusinessName)
	_, err = s.sellers.FindByBusinessNameHash(ctx, nameHash)
	switch {
	case err == nil:
		return nil, common.Conflict(msgBusinessNameTaken)
	case !errors.Is(err, common.ErrorNotFound):
		return nil, common.Internal("Failed to load seller", err)
	}

	passwordHash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	wallet, err := s.wallets.Provision(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	seller := &models.Seller{
		ID:               uuid.NewString(),
		BusinessName:     in.BusinessName,
		BusinessNameHash: nameHash,
		Email:            models.NormalizeEmail(in.Email),
		PasswordHash:     passwordHash,
		Country:          in.Country,
		Wallet:           wallet.Record,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sellers.Create(ctx, seller); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.logger.Warn(ctx, "concurrent signup lost, provisioned wallet unused",
				"account_id", wallet.Record.AccountID)
			return nil, common.Conflict(msgAccountExists)
		}
		return nil, common.Internal("Failed to create seller", err)
	}

	exp, err := s.sendCode(ctx, seller, models.PurposeSignup)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "seller signed up", "seller_id", seller.ID)
	return &SignupResult{OtpExpiresAt: exp}, nil
}

// VerifySignup checks the signup code, marks the seller verified and opens
// a session. The custodial seed phrase is returned the first time only.
func (s *IdentityService) VerifySignup(ctx context.Context, email, code, userAgent string) (*AuthResult, error) {
	seller, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, common.NotFound(msgSellerNotFound)
	}

	if err := s.checkCode(ctx, email, models.PurposeSignup, code); err != nil {
		return nil, err
	}

	dirty := false
	if !seller.Verified() {
		now := s.now().UTC()
		seller.VerifiedAt = &now
		dirty = true
	}

	var seed *string
	if w := seller.Wallet; w != nil && !w.SeedRetrieved {
		phrase, err := s.wallets.RevealSeed(seller)
		if err != nil {
			return nil, err
		}
		if phrase != "" {
			seed = &phrase
		}
		w.SeedRetrieved = true
		dirty = true
	}

	// the seller is only marked verified and seed-retrieved once the
	// session exists, so a failed request can be retried
	res, err := s.startSession(ctx, seller, userAgent)
	if err != nil {
		return nil, err
	}

	if dirty {
		if err := s.sellers.Update(ctx, seller); err != nil {
			if rerr := s.sessions.Revoke(ctx, res.Tokens.RefreshToken); rerr != nil {
				s.logger.Error(ctx, "revoke after failed verify", "seller_id", seller.ID, "error", rerr)
			}
			return nil, common.Internal("Failed to update seller", err)
		}
	}

	res.WalletSeedPhrase = seed
	return res, nil
}

// Login checks the password of a verified seller and mails a login code.
// It never opens a session by itself.
func (s *IdentityService) Login(ctx context.Context, email, password string) (time.Time, error) {
	seller, err := s.findByEmail(ctx, email)
	if err != nil {
		return time.Time{}, err
	}
	if seller == nil || !seller.Verified() {
		s.compareDummy(password)
		return time.Time{}, common.Auth(msgInvalidCredentials)
	}
	if bcrypt.CompareHashAndPassword([]byte(seller.PasswordHash), []byte(password)) != nil {
		return time.Time{}, common.Auth(msgInvalidCredentials)
	}

	return s.sendCode(ctx, seller, models.PurposeLogin)
}

// compareDummy runs one bcrypt comparison against a fixed hash so a login
// for an unknown email takes as long as one with a wrong password.
func (s *IdentityService) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("linkup-dummy-password"), s.passwordCost)
		if err != nil {
			s.logger.Error(context.Background(), "dummy hash", "error", err)
			return
		}
		s.dummyHash = h
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

// RequestLoginOTP mails a login code without a password check.
func (s *IdentityService) RequestLoginOTP(ctx context.Context, email string) (time.Time, error) {
	seller, err := s.verifiedSeller(ctx, email)
	if err != nil {
		return time.Time{}, err
	}
	return s.sendCode(ctx, seller, models.PurposeLogin)
}

func (s *IdentityService) verifiedSeller(ctx context.Context, email string) (*models.Seller, error) {
	seller, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if seller == nil || !seller.Verified() {
		return nil, common.NotFound(msgSellerNotFound)
	}
	return seller, nil
}

func (s *IdentityService) VerifyLoginOTP(ctx context.Context, email, code, userAgent string) (*AuthResult, error) {
	seller, err := s.verifiedSeller(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.checkCode(ctx, email, models.PurposeLogin, code); err != nil {
		return nil, err
	}
	return s.startSession(ctx, seller, userAgent)
}

func (s *IdentityService) RequestPasswordReset(ctx context.Context, email string) (time.Time, error) {
	seller, err := s.findByEmail(ctx, email)
	if err != nil {
		return time.Time{}, err
	}
	if seller == nil {
		return time.Time{}, common.NotFound(msgSellerNotFound)
	}
	return s.sendCode(ctx, seller, models.PurposePasswordReset)
}

// ResetPassword sets a new password after a password-reset code check and
// opens a session.
func (s *IdentityService) ResetPassword(ctx context.Context, email, code, newPassword, userAgent string) (*AuthResult, error) {
	if err := checkPassword(newPassword); err != nil {
		return nil, err
	}

	seller, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, common.NotFound(msgSellerNotFound)
	}

	if err := s.checkCode(ctx, email, models.PurposePasswordReset, code); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	seller.PasswordHash = hash
	if err := s.sellers.Update(ctx, seller); err != nil {
		return nil, common.Internal("Failed to update seller", err)
	}

	s.logger.Info(ctx, "password reset", "seller_id", seller.ID)
	return s.startSession(ctx, seller, userAgent)
}

// Refresh rotates a refresh token. Any token that cannot be rotated is an
// authentication failure.
func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	pair, err := s.sessions.Rotate(ctx, refreshToken)
	if err != nil {
		return nil, common.Internal("Failed to rotate session", err)
	}
	if pair == nil {
		return nil, common.Auth(msgInvalidRefresh)
	}
	return pair, nil
}

func (s *IdentityService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.sessions.Revoke(ctx, refreshToken); err != nil {
		return common.Internal("Failed to revoke session", err)
	}
	return nil
}

func (s *IdentityService) ImportWallet(ctx context.Context, seller *models.Seller, mnemonic, accountID string) (*models.WalletRecord, error) {
	return s.wallets.ImportFromSeed(ctx, seller, mnemonic, accountID)
}

func (s *IdentityService) Profile(seller *models.Seller) models.SellerProfile {
	return models.NewSellerProfile(seller)
}

// Authenticate resolves an access token to its seller. Every failure is the
// same Auth error.
func (s *IdentityService) Authenticate(ctx context.Context, accessToken string) (*models.Seller, error) {
	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return nil, common.Auth(msgUnauthorized)
	}

	seller, err := s.sellers.FindByID(ctx, claims.Subject)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.Auth(msgUnauthorized)
	}
	if err != nil {
		return nil, common.Internal("Failed to load seller", err)
	}
	return seller, nil
}
