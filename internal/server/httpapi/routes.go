package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

func (s *HTTPServer) routes() *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	r.Use(s.recovery(), s.requestLogger(), s.metrics.Middleware(), limitBody(maxBodyBytes))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{})))

	sendsCode := s.rateLimit(s.limiter)
	checksCode := s.rateLimit(s.checkLimiter)

	a := r.Group("/auth")
	{
		a.POST("/signup", sendsCode, s.signup)
		a.POST("/signup/verify", checksCode, s.verifySignup)
		a.POST("/login", sendsCode, s.login)
		a.POST("/login/otp/request", sendsCode, s.requestLoginOTP)
		a.POST("/login/otp/verify", checksCode, s.verifyLoginOTP)
		a.POST("/password/request", sendsCode, s.requestPasswordReset)
		a.POST("/password/reset", checksCode, s.resetPassword)
		a.POST("/refresh", s.refresh)
		a.POST("/logout", s.logout)
		a.GET("/me", s.requireAuth(), s.me)
	}

	w := r.Group("/wallet", s.requireAuth())
	{
		w.POST("/import", s.importWallet)
	}

	return r
}
