package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/responsainveniree/student-info-api/internal/dto"
	"github.com/responsainveniree/student-info-api/internal/models"
	"github.com/responsainveniree/student-info-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
}

type passwordResetService interface {
	RequestOTP(ctx context.Context, req dto.PasswordResetRequest) error
	ConfirmOTP(ctx context.Context, req dto.PasswordResetConfirm) error
}

type passwordChanger interface {
	ChangePassword(ctx context.Context, req dto.ChangePasswordRequest, actor *models.JWTClaims) error
}

// AuthHandler wires login and password endpoints.
type AuthHandler struct {
	auth     authService
	reset    passwordResetService
	accounts passwordChanger
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(auth authService, reset passwordResetService, accounts passwordChanger) *AuthHandler {
	return &AuthHandler{auth: auth, reset: reset, accounts: accounts}
}

// Login godoc
// @Summary Authenticate a student, teacher or parent
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid login payload"))
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// RequestPasswordReset godoc
// @Summary Email a password reset code
// @Description Always answers 202 for well-formed emails so account existence is not revealed.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.PasswordResetRequest true "Email"
// @Success 202 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /auth/password-reset/request [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid password reset payload"))
		return
	}
	if err := h.reset.RequestOTP(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"message": "if the email is registered a code has been sent"}, nil)
}

// ConfirmPasswordReset godoc
// @Summary Set a new password with an emailed code
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.PasswordResetConfirm true "Code and new password"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /auth/password-reset/confirm [post]
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req dto.PasswordResetConfirm
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid password reset payload"))
		return
	}
	if err := h.reset.ConfirmOTP(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ChangePassword godoc
// @Summary Change the caller's password
// @Tags Authentication
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.ChangePasswordRequest true "Old and new password"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /auth/password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid password payload"))
		return
	}
	if err := h.accounts.ChangePassword(c.Request.Context(), req, claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
