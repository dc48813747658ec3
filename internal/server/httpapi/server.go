// Package httpapi exposes the identity flow as a JSON API over gin.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/linkup/internal/logging"
	"github.com/dmitrijs2005/linkup/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Options struct {
	// OTPRequestRate is the sustained per-IP rate, in requests per second,
	// for endpoints that send a code.
	OTPRequestRate  float64
	OTPRequestBurst int
	// CodeCheckRate and CodeCheckBurst limit the endpoints that verify a
	// code, per IP. They default to the OTP request settings.
	CodeCheckRate   float64
	CodeCheckBurst  int
	ShutdownTimeout time.Duration
	// Registry receives the HTTP metrics. A private registry is used when nil.
	Registry *prometheus.Registry
}

type HTTPServer struct {
	address  string
	logger   logging.Logger
	identity *services.IdentityService
	opts     Options
	metrics  *Metrics
	limiter  *ipLimiter
	engine   *gin.Engine
	started  time.Time

	// checkLimiter guards code verification against guessing.
	checkLimiter *ipLimiter
}

func NewHTTPServer(address string, l logging.Logger, identity *services.IdentityService, opts Options) *HTTPServer {
	useJSONFieldNames()

	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.CodeCheckRate == 0 {
		opts.CodeCheckRate, opts.CodeCheckBurst = opts.OTPRequestRate, opts.OTPRequestBurst
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &HTTPServer{
		address:  address,
		logger:   l.With("module", "http_server"),
		identity: identity,
		opts:     opts,
		metrics:  NewMetrics(opts.Registry),
		limiter:  newIPLimiter(opts.OTPRequestRate, opts.OTPRequestBurst),
		started:  time.Now(),

		checkLimiter: newIPLimiter(opts.CodeCheckRate, opts.CodeCheckBurst),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
