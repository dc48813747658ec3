package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/linkup/internal/common"
	"github.com/dmitrijs2005/linkup/internal/cryptox"
	"github.com/dmitrijs2005/linkup/internal/logging"
	"github.com/dmitrijs2005/linkup/internal/server/auth"
	"github.com/dmitrijs2005/linkup/internal/server/ledger"
	"github.com/dmitrijs2005/linkup/internal/server/models"
	"github.com/dmitrijs2005/linkup/internal/server/repositories/otpcodes"
	"github.com/dmitrijs2005/linkup/internal/server/repositories/sellers"
	"github.com/dmitrijs2005/linkup/internal/server/repositories/sessions"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAccessSecret  = "access-secret-access-secret-0123456789"
	testRefreshSecret = "refresh-secret-refresh-secret-0123456789"
	testVaultKey      = "vault-master-key-vault-master-key-0123"
)

type sentCode struct {
	to, code string
	purpose  models.Purpose
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (m *captureMailer) SendOTP(_ context.Context, to, code string, purpose models.Purpose, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentCode{to: to, code: code, purpose: purpose})
	return nil
}

func (m *captureMailer) last(t *testing.T, to string, purpose models.Purpose) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].to == to && m.sent[i].purpose == purpose {
			return m.sent[i].code
		}
	}
	t.Fatalf("no %s code sent to %s", purpose, to)
	return ""
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// brokenLedger fails every network call.
type brokenLedger struct {
	ledger.Client
	err error
}

func (b *brokenLedger) CreateAccount(context.Context, *ledger.KeyPair) (string, error) {
	return "", b.err
}

func (b *brokenLedger) ExecuteContract(context.Context, ledger.Credentials, ledger.ContractCall) (*ledger.Receipt, error) {
	return nil, b.err
}

type fixture struct {
	sellers  *sellers.MemoryRepository
	otpRepo  *otpcodes.MemoryRepository
	sessRepo *sessions.MemoryRepository
	ledger   *ledger.StubClient
	vault    *cryptox.Vault
	tokens   *auth.TokenIssuer
	mail     *captureMailer

	otp      *OtpService
	sessions *SessionService
	wallets  *WalletService
	identity *IdentityService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	vault, err := cryptox.NewVault(testVaultKey)
	require.NoError(t, err)

	f := &fixture{
		sellers:  sellers.NewMemoryRepository(),
		otpRepo:  otpcodes.NewMemoryRepository(),
		sessRepo: sessions.NewMemoryRepository(),
		ledger:   ledger.NewStubClient(ledger.NetworkTestnet, logging.Discard()),
		vault:    vault,
		tokens:   auth.NewTokenIssuer(testAccessSecret, testRefreshSecret, 15*time.Minute, 720*time.Hour),
		mail:     &captureMailer{},
	}

	f.otp = NewOtpService(f.otpRepo, 6, 10*time.Minute, bcrypt.MinCost)
	f.sessions = NewSessionService(f.sessRepo, f.tokens, bcrypt.MinCost)
	f.wallets = NewWalletService(f.ledger, vault, f.sellers, ledger.KeyTypeECDSA, "0.0.5005", logging.Discard())
	f.identity = NewIdentityService(f.sellers, f.otp, f.sessions, f.wallets, f.tokens, f.mail, bcrypt.MinCost, logging.Discard())
	return f
}

func requireKind(t *testing.T, err error, kind common.Kind) {
	t.Helper()
	require.Error(t, err)
	var e *common.Error
	require.True(t, errors.As(err, &e), "not a classified error: %v", err)
	require.Equal(t, kind, e.Kind, "unexpected kind: %v", err)
}

// failingSessions rejects Create while fail is set.
type failingSessions struct {
	*sessions.MemoryRepository
	fail atomic.Bool
}

func (r *failingSessions) Create(ctx context.Context, s *models.Session) error {
	if r.fail.Load() {
		return errors.New("db down")
	}
	return r.MemoryRepository.Create(ctx, s)
}

// withSessionRepo rebuilds the session and identity services on top of repo.
func (f *fixture) withSessionRepo(repo sessions.Repository) {
	f.sessions = NewSessionService(repo, f.tokens, bcrypt.MinCost)
	f.identity = NewIdentityService(f.sellers, f.otp, f.sessions, f.wallets, f.tokens, f.mail, bcrypt.MinCost, logging.Discard())
}
