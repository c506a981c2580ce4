package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/internmatch-client/internal/domain/user"
	"github.com/khoahotran/internmatch-client/pkg/apperror"
	"github.com/khoahotran/internmatch-client/pkg/auth"
	"github.com/khoahotran/internmatch-client/pkg/logger"
)

type AuthHandler struct {
	users  user.Repository
	jwtSvc *auth.JWTService
	logger logger.Logger
}

func NewAuthHandler(users user.Repository, jwtSvc *auth.JWTService, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		jwtSvc: jwtSvc,
		logger: log,
	}
}

func (h *AuthHandler) issue(c *gin.Context, a *user.Account, name string) {
	access, refresh, err := h.jwtSvc.GenerateTokenPair(a.Email, a.Roles())
	if err != nil {
		h.logger.Error("Failed to generate token", err, zap.String("email", a.Email))
		c.Error(apperror.NewInternal("failed to generate token", err))
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: access, RefreshToken: refresh, Name: name})
}

func (h *AuthHandler) Authenticate(c *gin.Context) {
	var req authenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewValidation("invalid JSON body for authentication", err))
		return
	}

	a, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil || !auth.CheckPasswordHash(req.Password, a.PasswordHash) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Email or password is incorrect"})
		return
	}
	h.issue(c, a, "")
}

// Google trusts the identity token's claims without verifying them; the
// development backend has no provider keys.
func (h *AuthHandler) Google(c *gin.Context) {
	var req googleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewValidation("invalid JSON body for google login", err))
		return
	}

	email, name, ok := auth.FederatedIdentity(req.Token)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid identity token"})
		return
	}

	ctx := c.Request.Context()
	a, err := h.users.FindByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		a = &user.Account{Email: email, FirstName: name, Role: "USER"}
		err = h.users.Create(ctx, a)
	}
	if err != nil {
		c.Error(err)
		return
	}
	if name == "" {
		name = a.DisplayName()
	}
	h.issue(c, a, name)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewValidation("invalid JSON body for registration", err))
		return
	}
	if req.Role == "" {
		req.Role = "USER"
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.Error(apperror.NewInternal("failed to hash password", err))
		return
	}
	a := &user.Account{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		PasswordHash: hash,
	}
	if err := h.users.Create(c.Request.Context(), a); err != nil {
		c.Error(err)
		return
	}
	h.logger.Info("User registered", zap.String("email", a.Email), zap.String("role", a.Role))
	h.issue(c, a, a.DisplayName())
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	subject, ok := GetSubjectFromGinContext(c)
	if !ok {
		c.Error(apperror.NewAuthRequired("subject not found in context"))
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewValidation("invalid JSON body for password change", err))
		return
	}
	if req.NewPassword != req.ConfirmationPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords are not the same"})
		return
	}

	ctx := c.Request.Context()
	a, err := h.users.FindByEmail(ctx, subject)
	if err != nil {
		c.Error(err)
		return
	}
	if !auth.CheckPasswordHash(req.CurrentPassword, a.PasswordHash) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Wrong password"})
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		c.Error(apperror.NewInternal("failed to hash password", err))
		return
	}
	if err := h.users.UpdatePasswordHash(ctx, subject, hash); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusOK)
}
