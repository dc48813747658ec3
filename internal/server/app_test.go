package server

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/linkup/internal/logging"
	"github.com/dmitrijs2005/linkup/internal/server/config"
	"github.com/dmitrijs2005/linkup/internal/server/ledger"
	"github.com/dmitrijs2005/linkup/internal/server/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.JWTAccessSecret = strings.Repeat("a", 32)
	c.JWTRefreshSecret = strings.Repeat("r", 32)
	c.EncryptionKey = strings.Repeat("k", 32)
	c.PasswordHashCost = 4
	c.OTPHashCost = 4
	c.SessionHashCost = 4
	c.LogLevel = "error"
	c.ShutdownTimeout = time.Second
	return c
}

func TestNewApp_InvalidConfig(t *testing.T) {
	c := testConfig()
	c.JWTAccessSecret = "short"

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt access secret")
}

func TestNewApp_MemoryStoreUsesStubLedger(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)

	_, ok := app.ledger.(*ledger.StubClient)
	assert.True(t, ok)
	assert.NotNil(t, app.server)
}

func TestNewApp_OperatorSelectsHedera(t *testing.T) {
	c := testConfig()
	c.LedgerOperatorID = "0.0.2"
	c.LedgerOperatorKey = strings.Repeat("1", 64)

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	_, ok := app.ledger.(*ledger.HederaNetwork)
	assert.True(t, ok)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	c := testConfig()
	c.JanitorInterval = 10 * time.Millisecond

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestApp_RunReportsListenError(t *testing.T) {
	c := testConfig()
	c.HTTPAddr = "256.0.0.1:bad"

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	err = app.Run(context.Background())
	assert.Error(t, err)
}

func TestApp_PurgeWithEmptyStore(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)

	assert.NotPanics(t, func() { app.purge(context.Background()) })
}

func TestNewMailer_FollowsSMTPConfig(t *testing.T) {
	c := testConfig()
	ctx := context.Background()

	_, ok := newMailer(ctx, c, logging.Discard()).(*mailer.LogMailer)
	assert.True(t, ok)

	c.SMTPHost = "smtp.example.com"
	_, ok = newMailer(ctx, c, logging.Discard()).(*mailer.SMTPMailer)
	assert.True(t, ok)
}
