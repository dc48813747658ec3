// Package server wires the LinkUp backend together: storage, the ledger
// client, mail delivery, the identity services and the HTTP API. It also
// runs the expired-row janitor and handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/linkup/internal/cryptox"
	"github.com/dmitrijs2005/linkup/internal/logging"
	"github.com/dmitrijs2005/linkup/internal/server/auth"
	"github.com/dmitrijs2005/linkup/internal/server/config"
	"github.com/dmitrijs2005/linkup/internal/server/httpapi"
	"github.com/dmitrijs2005/linkup/internal/server/ledger"
	"github.com/dmitrijs2005/linkup/internal/server/mailer"
	"github.com/dmitrijs2005/linkup/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/linkup/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	ledger   ledger.Client
	otp      *services.OtpService
	sessions *services.SessionService
	server   *httpapi.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(os.Stdout, c.LogFormat, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	if !strings.EqualFold(c.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	vault, err := cryptox.NewVault(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("vault init error: %w", err)
	}

	repos, err := newRepositoryManager(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := repos.Init(ctx); err != nil {
		_ = repos.Close(ctx)
		return nil, fmt.Errorf("db init error: %w", err)
	}

	var lc ledger.Client
	if c.StubLedger() {
		logger.Warn(ctx, "no ledger operator configured, using stub ledger", "network", c.LedgerNetwork)
		lc = ledger.NewStubClient(c.LedgerNetwork, logger)
	} else {
		lc = ledger.NewHederaNetwork(ledger.HederaConfig{
			Network:            c.LedgerNetwork,
			KeyType:            c.LedgerKeyType,
			OperatorID:         c.LedgerOperatorID,
			OperatorKey:        c.LedgerOperatorKey,
			InitialBalanceHbar: c.LedgerInitialBalanceHbar,
		}, logger)
	}

	mail := newMailer(ctx, c, logger)

	tokens := auth.NewTokenIssuer(c.JWTAccessSecret, c.JWTRefreshSecret, c.AccessTokenTTL, c.RefreshTokenTTL)

	otp := services.NewOtpService(repos.OtpCodes(), c.OTPLength, c.OTPExpiry, c.OTPHashCost)
	sessions := services.NewSessionService(repos.Sessions(), tokens, c.SessionHashCost)
	wallets := services.NewWalletService(lc, vault, repos.Sellers(), c.LedgerKeyType, c.LedgerContractID, logger)
	identity := services.NewIdentityService(repos.Sellers(), otp, sessions, wallets, tokens, mail, c.PasswordHashCost, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := httpapi.NewHTTPServer(c.HTTPAddr, logger, identity, httpapi.Options{
		OTPRequestRate:  c.OTPRequestRate,
		OTPRequestBurst: c.OTPRequestBurst,
		ShutdownTimeout: c.ShutdownTimeout,
		Registry:        reg,
	})

	return &App{
		config:   c,
		logger:   logger,
		repos:    repos,
		ledger:   lc,
		otp:      otp,
		sessions: sessions,
		server:   srv,
	}, nil
}

func newRepositoryManager(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	switch c.Store {
	case config.StorePostgres:
		return repomanager.NewPostgresRepositoryManager(ctx, c.DatabaseDSN)
	case config.StoreMongo:
		return repomanager.NewMongoRepositoryManager(ctx, c.MongoURI, c.MongoDatabase)
	case config.StoreMemory:
		return repomanager.NewMemoryRepositoryManager(), nil
	}
	return nil, fmt.Errorf("unknown store %q", c.Store)
}

// newMailer sends codes over SMTP when a host is configured and only logs
// them otherwise.
func newMailer(ctx context.Context, c *config.Config, logger logging.Logger) mailer.Dispatcher {
	if !c.SMTPConfigured() {
		logger.Warn(ctx, "no SMTP host configured, one-time codes are only logged")
		return mailer.NewLogMailer(logger)
	}
	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.EmailFrom,
	}, logger)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	err := app.server.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "http server stopped", "error", err)
		cancelFunc()
	}
	return err
}

// runJanitor removes expired challenges and sessions until ctx is done.
func (app *App) runJanitor(ctx context.Context) {
	if app.config.JanitorInterval <= 0 {
		return
	}
	t := time.NewTicker(app.config.JanitorInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			app.purge(ctx)
		}
	}
}

func (app *App) purge(ctx context.Context) {
	if n, err := app.otp.PurgeExpired(ctx); err != nil {
		app.logger.Error(ctx, "otp purge failed", "error", err)
	} else if n > 0 {
		app.logger.Debug(ctx, "expired otp challenges removed", "count", n)
	}

	if n, err := app.sessions.PurgeExpired(ctx); err != nil {
		app.logger.Error(ctx, "session purge failed", "error", err)
	} else if n > 0 {
		app.logger.Debug(ctx, "expired sessions removed", "count", n)
	}
}

// Run serves until ctx is cancelled, a termination signal arrives or the
// HTTP server fails, then releases storage and ledger resources.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.HTTPAddr, "store", app.config.Store)

	app.initSignalHandler(cancelFunc)

	var (
		wg     sync.WaitGroup
		srvErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		srvErr = app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.runJanitor(ctx)
	}()

	wg.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	errs := []error{srvErr}
	if err := app.ledger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("ledger close: %w", err))
	}
	if err := app.repos.Close(closeCtx); err != nil {
		errs = append(errs, fmt.Errorf("db close: %w", err))
	}

	app.logger.Info(closeCtx, "App stopped")
	return errors.Join(errs...)
}
