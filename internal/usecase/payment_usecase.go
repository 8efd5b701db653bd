package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"motomarket/internal/domain/entity"
	"motomarket/internal/domain/repository"
	"motomarket/internal/infrastructure/payment"
	"motomarket/pkg/errors"
	"motomarket/pkg/logger"
)

// Listing plan prices in cents.
var planPrices = map[string]int64{
	entity.PlanBasic:     2990,
	entity.PlanPremium:   4990,
	entity.PlanSpotlight: 7990,
}

const (
	voucherTTL         = 3 * 24 * time.Hour
	instantTransferTTL = 24 * time.Hour
	renewalWindowDays  = 7
	paymentCurrency    = "BRL"
)

type PaymentUseCase struct {
	paymentRepo repository.PaymentRepository
	listingRepo repository.ListingRepository
	charges     ChargeProvider
}

func NewPaymentUseCase(
	paymentRepo repository.PaymentRepository,
	listingRepo repository.ListingRepository,
	charges ChargeProvider,
) *PaymentUseCase {
	return &PaymentUseCase{
		paymentRepo: paymentRepo,
		listingRepo: listingRepo,
		charges:     charges,
	}
}

type CreatePaymentInput struct {
	ListingID string
	Plan      string
	Method    string
	Card      *payment.Card
}

// CreatePayment charges the caller for a listing plan. Card payments settle
// synchronously and activate the listing right away; voucher and instant
// transfer payments stay pending until the provider's webhook confirms them.
func (uc *PaymentUseCase) CreatePayment(ctx context.Context, userID string, input CreatePaymentInput) (*entity.Payment, error) {
	amount, ok := planPrices[input.Plan]
	if !ok {
		return nil, errors.Validation(fmt.Sprintf("Invalid plan %q", input.Plan), nil)
	}

	listing, err := uc.listingRepo.GetByID(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != userID {
		return nil, errors.Unauthorized("Not authorized to pay for this listing", nil)
	}

	pay := &entity.Payment{
		UserID:    userID,
		ListingID: input.ListingID,
		Amount:    amount,
		Currency:  paymentCurrency,
		Method:    input.Method,
		Status:    entity.PaymentStatusPending,
		Details:   entity.PaymentDetails{Plan: input.Plan},
	}

	switch input.Method {
	case entity.PaymentMethodCard:
		if input.Card == nil {
			return nil, errors.Validation("Card details are required for card payments", nil)
		}
		return uc.chargeCard(ctx, pay, listing, *input.Card)

	case entity.PaymentMethodVoucher:
		code, err := randomDigits(12)
		if err != nil {
			return nil, errors.Internal("Failed to generate voucher code", err)
		}
		pay.Details.Voucher = &entity.VoucherDetails{
			Code:      code,
			PDF:       fmt.Sprintf("https://payments.motomarket.app/vouchers/%s.pdf", code),
			ExpiresAt: time.Now().Add(voucherTTL),
		}
		pay.TransactionID = fmt.Sprintf("voucher_%s", code)

	case entity.PaymentMethodInstantTransfer:
		key, err := randomReference()
		if err != nil {
			return nil, errors.Internal("Failed to generate transfer reference", err)
		}
		pay.Details.InstantTransfer = &entity.InstantTransferDetails{
			QRCode:    fmt.Sprintf("https://payments.motomarket.app/qr/%s.png", key),
			CopyPaste: key,
			ExpiresAt: time.Now().Add(instantTransferTTL),
		}
		pay.TransactionID = fmt.Sprintf("transfer_%s", key)

	default:
		return nil, errors.Validation(fmt.Sprintf("Invalid payment method %q", input.Method), nil)
	}

	if err := uc.paymentRepo.Create(ctx, pay); err != nil {
		return nil, err
	}
	return pay, nil
}

// chargeCard settles a card payment synchronously. A declined charge leaves
// a failed payment record behind and surfaces as a validation error.
func (uc *PaymentUseCase) chargeCard(ctx context.Context, pay *entity.Payment, listing *entity.Listing, card payment.Card) (*entity.Payment, error) {
	if n := len(card.Number); n >= 4 {
		pay.Details.CardLastFour = card.Number[n-4:]
	}

	description := fmt.Sprintf("MotoMarket %s plan for listing %s", pay.Details.Plan, listing.ID)
	chargeID, err := uc.charges.Charge(ctx, pay.Amount, pay.Currency, description, card)
	if err != nil {
		pay.Status = entity.PaymentStatusFailed
		if createErr := uc.paymentRepo.Create(ctx, pay); createErr != nil {
			logger.Error("failed to record declined payment for listing %s: %v", listing.ID, createErr)
		}
		return nil, errors.Validation("Payment failed", err)
	}

	pay.TransactionID = chargeID
	if err := uc.paymentRepo.Create(ctx, pay); err != nil {
		return nil, err
	}
	if err := uc.completePayment(ctx, pay, true); err != nil {
		return nil, err
	}
	return pay, nil
}

// HandleWebhook applies the provider's asynchronous confirmation. Completed
// payments are terminal; a repeat or late event never moves one back.
func (uc *PaymentUseCase) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !uc.charges.VerifyWebhookSignature(body, signature) {
		return errors.Unauthorized("Invalid webhook signature", nil)
	}
	event, err := payment.ParseWebhookEvent(body)
	if err != nil {
		return errors.Validation("Malformed webhook payload", err)
	}

	pay, err := uc.paymentRepo.GetByTransactionID(ctx, event.Data.ChargeID)
	if err != nil {
		return err
	}
	if pay.Status == entity.PaymentStatusCompleted {
		logger.Info("webhook for payment %s ignored, already completed", pay.ID)
		return nil
	}

	switch event.Type {
	case payment.EventChargeSucceeded:
		return uc.completePayment(ctx, pay, false)
	case payment.EventChargeFailed:
		pay.Status = entity.PaymentStatusFailed
		return uc.paymentRepo.Update(ctx, pay)
	default:
		logger.Warn("ignoring unknown webhook event type %q", event.Type)
		return nil
	}
}

// completePayment marks the payment completed and cascades onto the listing:
// active, paid and a fresh 30-day expiry. Featuring is only granted on the
// synchronous card path (withFeatured).
func (uc *PaymentUseCase) completePayment(ctx context.Context, pay *entity.Payment, withFeatured bool) error {
	listing, err := uc.listingRepo.GetByID(ctx, pay.ListingID)
	if err != nil {
		return err
	}

	now := time.Now()
	expires := now.Add(entity.ListingPeriod)

	pay.Status = entity.PaymentStatusCompleted
	pay.CompletedAt = &now

	listing.Status = entity.ListingStatusActive
	listing.Payment = entity.ListingPayment{
		Paid:          true,
		Amount:        pay.Amount,
		TransactionID: pay.TransactionID,
		PaidAt:        &now,
		ExpiresAt:     &expires,
	}
	listing.ExpiresAt = &expires

	if withFeatured && pay.Details.Plan != entity.PlanBasic {
		listing.Featured = entity.Featured{
			IsFeatured:    true,
			FeaturedUntil: &expires,
			FeaturedType:  pay.Details.Plan,
		}
	}

	return uc.paymentRepo.ApplyCompletion(ctx, pay, listing)
}

// RenewListing extends a listing that is inside its renewal window. Renewal
// keeps the plan the listing already had and settles immediately.
func (uc *PaymentUseCase) RenewListing(ctx context.Context, userID, listingID string) (*entity.Payment, error) {
	listing, err := uc.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != userID {
		return nil, errors.Unauthorized("Not authorized to renew this listing", nil)
	}

	now := time.Now()
	days := listing.DaysUntilExpiration(now)
	if listing.ExpiresAt != nil && days > renewalWindowDays {
		return nil, errors.Validation(
			fmt.Sprintf("Listing can only be renewed within %d days of expiration (%d days left)", renewalWindowDays, days), nil)
	}

	plan := listing.Featured.FeaturedType
	amount, ok := planPrices[plan]
	if !ok {
		plan = entity.PlanBasic
		amount = planPrices[plan]
	}

	pay := &entity.Payment{
		UserID:    userID,
		ListingID: listingID,
		Amount:    amount,
		Currency:  paymentCurrency,
		Method:    entity.PaymentMethodCard,
		Status:    entity.PaymentStatusCompleted,
		Details:   entity.PaymentDetails{Plan: plan},
	}
	pay.CompletedAt = &now
	if err := uc.paymentRepo.Create(ctx, pay); err != nil {
		return nil, err
	}
	pay.TransactionID = pay.ID

	expires := now.Add(entity.ListingPeriod)
	listing.Status = entity.ListingStatusActive
	listing.ExpiresAt = &expires
	listing.Payment.Paid = true
	listing.Payment.Amount = amount
	listing.Payment.TransactionID = pay.TransactionID
	listing.Payment.PaidAt = &now
	listing.Payment.ExpiresAt = &expires
	listing.Featured = entity.Featured{
		IsFeatured:    plan != entity.PlanBasic,
		FeaturedUntil: &expires,
		FeaturedType:  plan,
	}

	if err := uc.paymentRepo.ApplyCompletion(ctx, pay, listing); err != nil {
		return nil, err
	}
	return pay, nil
}

func (uc *PaymentUseCase) ListPayments(ctx context.Context, userID string) ([]*entity.Payment, error) {
	return uc.paymentRepo.ListByUser(ctx, userID)
}

func (uc *PaymentUseCase) GetPayment(ctx context.Context, userID, paymentID string) (*entity.Payment, error) {
	pay, err := uc.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if pay.UserID != userID {
		return nil, errors.Unauthorized("Not authorized to access this payment", nil)
	}
	return pay, nil
}

func randomReference() (string, error) {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, 32)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
