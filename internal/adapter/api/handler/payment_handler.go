package handler

import (
	"io"

	"github.com/labstack/echo/v4"

	"motomarket/internal/adapter/api/middleware"
	"motomarket/internal/infrastructure/payment"
	"motomarket/internal/usecase"
	"motomarket/pkg/errors"
	"motomarket/pkg/response"
)

type PaymentHandler struct {
	paymentUseCase *usecase.PaymentUseCase
}

func NewPaymentHandler(paymentUseCase *usecase.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{paymentUseCase: paymentUseCase}
}

type cardRequest struct {
	Number   string `json:"number" validate:"required"`
	ExpMonth int    `json:"exp_month" validate:"required,min=1,max=12"`
	ExpYear  int    `json:"exp_year" validate:"required,min=2024"`
	CVC      string `json:"cvc" validate:"required"`
}

type createPaymentRequest struct {
	ListingID string       `json:"listing_id" validate:"required"`
	Plan      string       `json:"plan" validate:"required,oneof=basic premium spotlight"`
	Method    string       `json:"method" validate:"required,oneof=card voucher instant-transfer"`
	Card      *cardRequest `json:"card"`
}

func (h *PaymentHandler) Create(c echo.Context) error {
	var req createPaymentRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	input := usecase.CreatePaymentInput{
		ListingID: req.ListingID,
		Plan:      req.Plan,
		Method:    req.Method,
	}
	if req.Card != nil {
		input.Card = &payment.Card{
			Number:   req.Card.Number,
			ExpMonth: req.Card.ExpMonth,
			ExpYear:  req.Card.ExpYear,
			CVC:      req.Card.CVC,
		}
	}

	pay, err := h.paymentUseCase.CreatePayment(c.Request().Context(), middleware.UserID(c), input)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, pay)
}

// Webhook verifies the provider's HMAC signature against the raw body before
// anything is decoded.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return response.Error(c, errors.Validation("Failed to read webhook body", err))
	}

	signature := c.Request().Header.Get("X-Webhook-Signature")
	if err := h.paymentUseCase.HandleWebhook(c.Request().Context(), body, signature); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"received": "ok"})
}

func (h *PaymentHandler) Renew(c echo.Context) error {
	pay, err := h.paymentUseCase.RenewListing(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, pay)
}

func (h *PaymentHandler) List(c echo.Context) error {
	payments, err := h.paymentUseCase.ListPayments(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Collection(c, payments, len(payments))
}

func (h *PaymentHandler) Get(c echo.Context) error {
	pay, err := h.paymentUseCase.GetPayment(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, pay)
}
