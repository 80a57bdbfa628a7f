package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

const (
	msgInvalidBody     = "Invalid request body"
	msgSignedUp        = "User registered successfully"
	msgLoggedIn        = "Successful"
	msgResetMailSent   = "Password reset email has been sent."
	msgPasswordChanged = "Password changed successfully"
)

// AuthHandler exposes the signup, login and password endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest(msgInvalidBody)
	}

	res, err := h.auth.Signup(c.UserContext(), req.Input())
	if err != nil {
		return err
	}
	return respondWithToken(c, msgSignedUp, res.Token)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest(msgInvalidBody)
	}

	res, err := h.auth.Login(c.UserContext(), req.Input())
	if err != nil {
		return err
	}
	return respondWithToken(c, msgLoggedIn, res.Token)
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest(msgInvalidBody)
	}

	if err := h.auth.ForgotPassword(c.UserContext(), req.Input()); err != nil {
		return err
	}
	return c.JSON(dto.ForgotPasswordResponse{Message: msgResetMailSent, SentEmail: true})
}

// ChangePassword handles PUT /auth/change-password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	account, ok := auth.AccountFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(service.MsgUnauthorizedUser)
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest(msgInvalidBody)
	}

	if err := h.auth.ChangePassword(c.UserContext(), account.ID, req.Input()); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: msgPasswordChanged})
}

func respondWithToken(c *fiber.Ctx, message, token string) error {
	bearer := "Bearer " + token
	c.Set(fiber.HeaderAuthorization, bearer)
	c.Set(fiber.HeaderAccessControlExposeHeaders, fiber.HeaderAuthorization)
	return c.JSON(dto.TokenResponse{Message: message, Token: bearer})
}
