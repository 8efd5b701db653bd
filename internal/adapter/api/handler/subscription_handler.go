package handler

import (
	"github.com/labstack/echo/v4"

	"motomarket/internal/adapter/api/middleware"
	"motomarket/internal/usecase"
	"motomarket/pkg/errors"
	"motomarket/pkg/response"
)

type SubscriptionHandler struct {
	subscriptionUseCase *usecase.SubscriptionUseCase
}

func NewSubscriptionHandler(subscriptionUseCase *usecase.SubscriptionUseCase) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionUseCase: subscriptionUseCase}
}

type createSubscriptionRequest struct {
	Plan          string `json:"plan" validate:"required,oneof=basic standard premium unlimited"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=card voucher instant-transfer"`
	AutoRenew     bool   `json:"auto_renew"`
}

func (h *SubscriptionHandler) Create(c echo.Context) error {
	var req createSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	subscription, err := h.subscriptionUseCase.Create(c.Request().Context(), middleware.UserID(c), usecase.CreateSubscriptionInput{
		Plan:          req.Plan,
		PaymentMethod: req.PaymentMethod,
		AutoRenew:     req.AutoRenew,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, subscription)
}

func (h *SubscriptionHandler) List(c echo.Context) error {
	subscriptions, err := h.subscriptionUseCase.List(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, subscriptions)
}

func (h *SubscriptionHandler) Get(c echo.Context) error {
	subscription, err := h.subscriptionUseCase.Get(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, subscription)
}

type updateSubscriptionRequest struct {
	AutoRenew     *bool   `json:"auto_renew"`
	PaymentMethod *string `json:"payment_method"`
}

func (h *SubscriptionHandler) Update(c echo.Context) error {
	var req updateSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request payload", err))
	}

	subscription, err := h.subscriptionUseCase.Update(c.Request().Context(), middleware.UserID(c), c.Param("id"), usecase.UpdateSubscriptionInput{
		AutoRenew:     req.AutoRenew,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, subscription)
}

func (h *SubscriptionHandler) Cancel(c echo.Context) error {
	subscription, err := h.subscriptionUseCase.Cancel(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, subscription)
}

func (h *SubscriptionHandler) Renew(c echo.Context) error {
	subscription, err := h.subscriptionUseCase.Renew(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, subscription)
}
