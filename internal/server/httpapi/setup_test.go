package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/linkup/internal/cryptox"
	"github.com/dmitrijs2005/linkup/internal/logging"
	"github.com/dmitrijs2005/linkup/internal/server/auth"
	"github.com/dmitrijs2005/linkup/internal/server/ledger"
	"github.com/dmitrijs2005/linkup/internal/server/models"
	"github.com/dmitrijs2005/linkup/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/linkup/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *captureMailer) SendOTP(_ context.Context, to, code string, purpose models.Purpose, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[to+"/"+string(purpose)] = code
	return nil
}

func (m *captureMailer) code(t *testing.T, to string, purpose models.Purpose) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[to+"/"+string(purpose)]
	require.True(t, ok, "no %s code for %s", purpose, to)
	return c
}

type testEnv struct {
	srv  *HTTPServer
	mail *captureMailer
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	rm := repomanager.NewMemoryRepositoryManager()
	vault, err := cryptox.NewVault("vault-master-key-vault-master-key-0123")
	require.NoError(t, err)

	tokens := auth.NewTokenIssuer(
		"access-secret-access-secret-0123456789",
		"refresh-secret-refresh-secret-0123456789",
		15*time.Minute, 720*time.Hour,
	)
	mail := &captureMailer{codes: make(map[string]string)}
	log := logging.Discard()

	otp := services.NewOtpService(rm.OtpCodes(), 6, 10*time.Minute, bcrypt.MinCost)
	sessions := services.NewSessionService(rm.Sessions(), tokens, bcrypt.MinCost)
	wallets := services.NewWalletService(ledger.NewStubClient(ledger.NetworkTestnet, log), vault, rm.Sellers(), ledger.KeyTypeECDSA, "", log)
	identity := services.NewIdentityService(rm.Sellers(), otp, sessions, wallets, tokens, mail, bcrypt.MinCost, log)

	return &testEnv{srv: NewHTTPServer("127.0.0.1:0", log, identity, opts), mail: mail}
}

// do sends body as JSON and decodes the response into out when non-nil.
func (e *testEnv) do(t *testing.T, method, path string, body any, bearer string, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)

	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

type errorBody struct {
	Error string `json:"error"`
}

type otpSent struct {
	Message      string    `json:"message"`
	OtpExpiresAt time.Time `json:"otpExpiresAt"`
}

type sessionBody struct {
	Message          string               `json:"message"`
	Seller           models.SellerProfile `json:"seller"`
	Tokens           models.TokenPair     `json:"tokens"`
	WalletSeedPhrase *string              `json:"walletSeedPhrase"`
}

var acmeSignup = map[string]string{
	"businessName": "Acme Co",
	"email":        "a@acme.test",
	"password":     "longenough1",
	"country":      "Nigeria",
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

// verified signs acme up, verifies it and returns the verification body.
func (e *testEnv) verified(t *testing.T) sessionBody {
	t.Helper()
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/auth/signup", acmeSignup, "", nil))

	var body sessionBody
	code := e.do(t, http.MethodPost, "/auth/signup/verify", map[string]string{
		"email": "a@acme.test",
		"code":  e.mail.code(t, "a@acme.test", models.PurposeSignup),
	}, "", &body)
	require.Equal(t, http.StatusOK, code)
	return body
}
