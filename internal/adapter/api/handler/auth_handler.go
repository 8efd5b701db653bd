package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"motomarket/internal/adapter/api/middleware"
	"motomarket/internal/domain/entity"
	"motomarket/internal/usecase"
	"motomarket/pkg/errors"
	"motomarket/pkg/response"
)

type AuthHandler struct {
	authUseCase  *usecase.AuthUseCase
	cookieExpiry time.Duration
	secureCookie bool
}

func NewAuthHandler(authUseCase *usecase.AuthUseCase, cookieExpiry time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authUseCase:  authUseCase,
		cookieExpiry: cookieExpiry,
		secureCookie: secureCookie,
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	TaxID    string `json:"tax_id" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=buyer seller both"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.authUseCase.Register(c.Request().Context(), usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		TaxID:    req.TaxID,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return response.Error(c, err)
	}

	h.setTokenCookie(c, result.Token)
	return response.Created(c, authResponse{Token: result.Token, User: result.User})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.authUseCase.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return response.Error(c, err)
	}

	h.setTokenCookie(c, result.Token)
	return response.Success(c, authResponse{Token: result.Token, User: result.User})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HttpOnly: true,
		Secure:   h.secureCookie,
	})
	return response.Success(c, map[string]string{"message": "Logged out"})
}

func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.authUseCase.Me(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	if err := h.authUseCase.VerifyEmail(c.Request().Context(), c.Param("token")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Email verified"})
}

type verifyPhoneRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

func (h *AuthHandler) VerifyPhone(c echo.Context) error {
	var req verifyPhoneRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.authUseCase.VerifyPhone(c.Request().Context(), middleware.UserID(c), req.Code); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Phone verified"})
}

func (h *AuthHandler) ResendPhoneVerification(c echo.Context) error {
	if err := h.authUseCase.ResendPhoneVerification(c.Request().Context(), middleware.UserID(c)); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Verification code sent"})
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.authUseCase.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Reset email sent"})
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.authUseCase.ResetPassword(c.Request().Context(), c.Param("token"), req.Password)
	if err != nil {
		return response.Error(c, err)
	}

	h.setTokenCookie(c, result.Token)
	return response.Success(c, authResponse{Token: result.Token, User: result.User})
}

type updateDetailsRequest struct {
	Name          string                    `json:"name"`
	Address       string                    `json:"address"`
	Notifications *entity.NotificationPrefs `json:"notifications"`
}

func (h *AuthHandler) UpdateDetails(c echo.Context) error {
	var req updateDetailsRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request payload", err))
	}

	user, err := h.authUseCase.UpdateDetails(c.Request().Context(), middleware.UserID(c), usecase.UpdateDetailsInput{
		Name:          req.Name,
		Address:       req.Address,
		Notifications: req.Notifications,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	var req updatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.authUseCase.UpdatePassword(c.Request().Context(), middleware.UserID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		return response.Error(c, err)
	}

	h.setTokenCookie(c, result.Token)
	return response.Success(c, authResponse{Token: result.Token, User: result.User})
}

func (h *AuthHandler) setTokenCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookieExpiry),
		HttpOnly: true,
		Secure:   h.secureCookie,
	})
}
