package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/linkup/internal/server/models"
	"github.com/dmitrijs2005/linkup/internal/server/services"
	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	BusinessName string `json:"businessName" binding:"required,min=3,max=80"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	Country      string `json:"country" binding:"required,min=2,max=60"`
}

type codeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,min=4"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,min=4"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required,min=10"`
}

type importRequest struct {
	Mnemonic  string `json:"mnemonic" binding:"required,min=10"`
	AccountID string `json:"accountId" binding:"required,min=5"`
}

type otpSentResponse struct {
	Message      string    `json:"message"`
	OtpExpiresAt time.Time `json:"otpExpiresAt"`
}

type sessionResponse struct {
	Message string               `json:"message"`
	Seller  models.SellerProfile `json:"seller"`
	Tokens  *models.TokenPair    `json:"tokens"`
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "uptime": time.Since(s.started).Seconds()})
}

func (s *HTTPServer) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	res, err := s.identity.Signup(c.Request.Context(), services.SignupInput{
		BusinessName: req.BusinessName,
		Email:        req.Email,
		Password:     req.Password,
		Country:      req.Country,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	if res.Pending {
		c.JSON(http.StatusAccepted, otpSentResponse{"Account already exists. Please verify via OTP.", res.OtpExpiresAt})
		return
	}
	c.JSON(http.StatusCreated, otpSentResponse{"Signup initiated. Enter the OTP sent to your email.", res.OtpExpiresAt})
}

func (s *HTTPServer) verifySignup(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	res, err := s.identity.VerifySignup(c.Request.Context(), req.Email, req.Code, c.Request.UserAgent())
	if err != nil {
		s.fail(c, err)
		return
	}

	// walletSeedPhrase is always present here, null after the first time
	c.JSON(http.StatusOK, gin.H{
		"message":          "Signup verified",
		"seller":           res.Seller,
		"tokens":           res.Tokens,
		"walletSeedPhrase": res.WalletSeedPhrase,
	})
}

func (s *HTTPServer) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	exp, err := s.identity.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, otpSentResponse{"OTP sent to your email", exp})
}

func (s *HTTPServer) requestLoginOTP(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	exp, err := s.identity.RequestLoginOTP(c.Request.Context(), req.Email)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, otpSentResponse{"OTP sent", exp})
}

func (s *HTTPServer) verifyLoginOTP(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	res, err := s.identity.VerifyLoginOTP(c.Request.Context(), req.Email, req.Code, c.Request.UserAgent())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Message: "Login successful", Seller: res.Seller, Tokens: res.Tokens})
}

func (s *HTTPServer) requestPasswordReset(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	exp, err := s.identity.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, otpSentResponse{"Password reset OTP sent", exp})
}

func (s *HTTPServer) resetPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	res, err := s.identity.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword, c.Request.UserAgent())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Message: "Password updated", Seller: res.Seller, Tokens: res.Tokens})
}

func (s *HTTPServer) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	pair, err := s.identity.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": pair})
}

func (s *HTTPServer) logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	if err := s.identity.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *HTTPServer) me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"seller": s.identity.Profile(sellerFrom(c))})
}

func (s *HTTPServer) importWallet(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	w, err := s.identity.ImportWallet(c.Request.Context(), sellerFrom(c), req.Mnemonic, req.AccountID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "Wallet imported",
		"walletAccountId": w.AccountID,
		"walletNetwork":   w.Network,
	})
}
