package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motomarket/internal/domain/entity"
	"motomarket/internal/infrastructure/payment"
	"motomarket/pkg/errors"
)

var testCard = payment.Card{Number: "4242424242424242", ExpMonth: 12, ExpYear: 2030, CVC: "123"}

func newPaymentFixture(t *testing.T) (*PaymentUseCase, *fakePaymentRepo, *fakeListingRepo, *fakeCharger, *entity.User, *entity.Listing) {
	t.Helper()
	users := newFakeUserRepo()
	listings := newFakeListingRepo(users)
	payments := newFakePaymentRepo(listings)
	charger := &fakeCharger{chargeID: "ch_123", signature: "valid-sig"}
	uc := NewPaymentUseCase(payments, listings, charger)

	seller := seedSeller(t, users, true)
	listing := seedListing(t, listings, seller.ID, entity.ListingStatusPending)
	return uc, payments, listings, charger, seller, listing
}

func TestCreatePaymentValidation(t *testing.T) {
	uc, _, _, _, seller, listing := newPaymentFixture(t)

	_, err := uc.CreatePayment(context.Background(), seller.ID, CreatePaymentInput{
		ListingID: listing.ID, Plan: "platinum", Method: entity.PaymentMethodCard,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = uc.CreatePayment(context.Background(), "intruder", CreatePaymentInput{
		ListingID: listing.ID, Plan: entity.PlanBasic, Method: entity.PaymentMethodCard, Card: &testCard,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))

	_, err = uc.CreatePayment(context.Background(), seller.ID, CreatePaymentInput{
		ListingID: listing.ID, Plan: entity.PlanBasic, Method: entity.PaymentMethodCard,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeValidation))
}

func TestCardPaymentActivatesListing(t *testing.T) {
	uc, _, listings, charger, seller, listing := newPaymentFixture(t)

	pay, err := uc.CreatePayment(context.Background(), seller.ID, CreatePaymentInput{
		ListingID: listing.ID, Plan: entity.PlanPremium, Method: entity.PaymentMethodCard, Card: &testCard,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, charger.charges)
	assert.Equal(t, entity.PaymentStatusCompleted, pay.Status)
	assert.Equal(t, int64(4990), pay.Amount)
	assert.Equal(t, "ch_123", pay.TransactionID)
	assert.Equal(t, "4242", pay.Details.CardLastFour)
	require.NotNil(t, pay.CompletedAt)

	stored, _ := listings.GetByID(context.Background(), listing.ID)
	assert.Equal(t, entity.ListingStatusActive, stored.Status)
	assert.True(t, stored.Payment.Paid)
	assert.Equal(t, int64(4990), stored.Payment.Amount)
	require.NotNil(t, stored.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(entity.ListingPeriod), *stored.ExpiresAt, time.Minute)

	// Premium plan features the listing until the same expiry.
	assert.True(t, stored.Featured.IsFeatured)
	assert.Equal(t, entity.PlanPremium, stored.Featured.FeaturedType)
	require.NotNil(t, stored.Featured.FeaturedUntil)
	assert.True(t, stored.Featured.FeaturedUntil.Equal(*stored.ExpiresAt))
}

func TestCardPaymentBasicPlanNotFeatured(t *testing.T) {
	uc, _, listings, _, seller, listing := newPaymentFixture(t)

	_, err := uc.CreatePayment(context.Background(), seller.ID, CreatePaymentInput{
		ListingID: listing.ID, Plan: entity.PlanBasic, Method: entity.PaymentMethodCard, Card: &testCard,
	})
	require.NoError(t, err)

	stored, _ := listings.GetByID(context.Background(), listing.ID)
	assert.Equal(t, entity.ListingStatusActive, stored.Status)
	assert.False(t, stored.Featured.IsFeatured)
}

func TestCardPaymentDeclined(t *testing.T) {
	uc, payments, listings, charger, seller, listing := newPaymentFixture(t)
	charger.declined = true

	_, err := uc.CreatePayment(context.Background(), seller.ID, CreatePaymentInput{
		ListingID: listing.ID, Plan: entity.PlanSpotlight, Method: entity.PaymentMethodCard, Card: &testCard,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeValidation))

	// The decline is on record and the listing is untouched.
	recorded, err := payments.ListByUser(context.Background(), seller.ID)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, entity.PaymentStatusFailed, recorded[0].Status)

	stored, _ := listings.GetByID(context.Background(), listing.ID)
	assert.Equal(t, entity.ListingStatusPending, stored.Status)
}

func TestVoucherPaymentStaysPending(t *testing.T) {
	uc, _, listings, _, seller, listing := newPaymentFixture(t)

	pay, err := uc.CreatePayment(context.Background(), seller.ID, CreatePaymentInput{
		ListingID: listing.ID, Plan: entity.PlanBasic, Method: entity.PaymentMethodVoucher,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPending, pay.Status)
	require.NotNil(t, pay.Details.Voucher)
	assert.Len(t, pay.Details.Voucher.Code, 12)
	assert.NotEmpty(t, pay.Details.Voucher.PDF)
	assert.WithinDuration(t, time.Now().Add(voucherTTL), pay.Details.Voucher.ExpiresAt, time.Minute)

	stored, _ := listings.GetByID(context.Background(), listing.ID)
	assert.Equal(t, entity.ListingStatusPending, stored.Status)
}

func TestInstantTransferPayment(t *testing.T) {
	uc, _, _, _, seller, listing := newPaymentFixture(t)

	pay, err := uc.CreatePayment(context.Background(), seller.ID, CreatePaymentInput{
		ListingID: listing.ID, Plan: entity.PlanSpotlight, Method: entity.PaymentMethodInstantTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPending, pay.Status)
	assert.Equal(t, int64(7990), pay.Amount)
	require.NotNil(t, pay.Details.InstantTransfer)
	assert.NotEmpty(t, pay.Details.InstantTransfer.QRCode)
	assert.NotEmpty(t, pay.Details.InstantTransfer.CopyPaste)
	assert.WithinDuration(t, time.Now().Add(instantTransferTTL), pay.Details.InstantTransfer.ExpiresAt, time.Minute)
}

func webhookBody(eventType, chargeID string) []byte {
	return []byte(fmt.Sprintf(`{"type":%q,"data":{"charge_id":%q}}`, eventType, chargeID))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	uc, _, _, _, _, _ := newPaymentFixture(t)

	err := uc.HandleWebhook(context.Background(), webhookBody(payment.EventChargeSucceeded, "x"), "forged")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))
}

func TestWebhookCompletesPendingPayment(t *testing.T) {
	uc, payments, listings, _, seller, listing := newPaymentFixture(t)

	pay, err := uc.CreatePayment(context.Background(), seller.ID, CreatePaymentInput{
		ListingID: listing.ID, Plan: entity.PlanPremium, Method: entity.PaymentMethodVoucher,
	})
	require.NoError(t, err)

	err = uc.HandleWebhook(context.Background(), webhookBody(payment.EventChargeSucceeded, pay.TransactionID), "valid-sig")
	require.NoError(t, err)

	stored, _ := payments.GetByID(context.Background(), pay.ID)
	assert.Equal(t, entity.PaymentStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)

	// The cascade activates and pays the listing but never features it.
	updated, _ := listings.GetByID(context.Background(), listing.ID)
	assert.Equal(t, entity.ListingStatusActive, updated.Status)
	assert.True(t, updated.Payment.Paid)
	require.NotNil(t, updated.ExpiresAt)
	assert.False(t, updated.Featured.IsFeatured)
}

func TestWebhookCompletedIsTerminal(t *testing.T) {
	uc, payments, _, _, seller, listing := newPaymentFixture(t)

	pay, err := uc.CreatePayment(context.Background(), seller.ID, CreatePaymentInput{
		ListingID: listing.ID, Plan: entity.PlanBasic, Method: entity.PaymentMethodVoucher,
	})
	require.NoError(t, err)

	body := webhookBody(payment.EventChargeSucceeded, pay.TransactionID)
	require.NoError(t, uc.HandleWebhook(context.Background(), body, "valid-sig"))

	// A late failure event cannot undo the completion.
	failBody := webhookBody(payment.EventChargeFailed, pay.TransactionID)
	require.NoError(t, uc.HandleWebhook(context.Background(), failBody, "valid-sig"))

	stored, _ := payments.GetByID(context.Background(), pay.ID)
	assert.Equal(t, entity.PaymentStatusCompleted, stored.Status)
}

func TestWebhookFailureMarksPaymentFailed(t *testing.T) {
	uc, payments, _, _, seller, listing := newPaymentFixture(t)

	pay, err := uc.CreatePayment(context.Background(), seller.ID, CreatePaymentInput{
		ListingID: listing.ID, Plan: entity.PlanBasic, Method: entity.PaymentMethodInstantTransfer,
	})
	require.NoError(t, err)

	err = uc.HandleWebhook(context.Background(), webhookBody(payment.EventChargeFailed, pay.TransactionID), "valid-sig")
	require.NoError(t, err)

	stored, _ := payments.GetByID(context.Background(), pay.ID)
	assert.Equal(t, entity.PaymentStatusFailed, stored.Status)
}

func TestRenewListingInsideWindow(t *testing.T) {
	uc, _, listings, _, seller, listing := newPaymentFixture(t)

	soon := time.Now().Add(3 * 24 * time.Hour)
	stored := listings.listings[listing.ID]
	stored.Status = entity.ListingStatusActive
	stored.ExpiresAt = &soon
	stored.Featured = entity.Featured{IsFeatured: true, FeaturedType: entity.PlanPremium, FeaturedUntil: &soon}

	pay, err := uc.RenewListing(context.Background(), seller.ID, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusCompleted, pay.Status)
	assert.Equal(t, int64(4990), pay.Amount)
	assert.Equal(t, pay.ID, pay.TransactionID)

	renewed, _ := listings.GetByID(context.Background(), listing.ID)
	assert.Equal(t, entity.ListingStatusActive, renewed.Status)
	require.NotNil(t, renewed.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(entity.ListingPeriod), *renewed.ExpiresAt, time.Minute)
	assert.True(t, renewed.Featured.IsFeatured)
	assert.True(t, renewed.Featured.FeaturedUntil.Equal(*renewed.ExpiresAt))
}

func TestRenewListingRewritesFeaturedBlock(t *testing.T) {
	uc, _, listings, _, seller, listing := newPaymentFixture(t)

	// A premium listing whose featured window already lapsed still gets a
	// fresh 30-day featured window on renewal.
	soon := time.Now().Add(2 * 24 * time.Hour)
	lapsed := time.Now().Add(-time.Hour)
	stored := listings.listings[listing.ID]
	stored.Status = entity.ListingStatusActive
	stored.ExpiresAt = &soon
	stored.Featured = entity.Featured{IsFeatured: false, FeaturedType: entity.PlanPremium, FeaturedUntil: &lapsed}

	_, err := uc.RenewListing(context.Background(), seller.ID, listing.ID)
	require.NoError(t, err)

	renewed, _ := listings.GetByID(context.Background(), listing.ID)
	assert.True(t, renewed.Featured.IsFeatured)
	assert.Equal(t, entity.PlanPremium, renewed.Featured.FeaturedType)
	require.NotNil(t, renewed.Featured.FeaturedUntil)
	assert.True(t, renewed.Featured.FeaturedUntil.Equal(*renewed.ExpiresAt))

	// Basic renewals stay unfeatured but the window timestamp still advances.
	basic := listings.listings[listing.ID]
	basic.ExpiresAt = &soon
	basic.Featured = entity.Featured{IsFeatured: false, FeaturedType: entity.PlanBasic}

	_, err = uc.RenewListing(context.Background(), seller.ID, listing.ID)
	require.NoError(t, err)

	renewed, _ = listings.GetByID(context.Background(), listing.ID)
	assert.False(t, renewed.Featured.IsFeatured)
	assert.Equal(t, entity.PlanBasic, renewed.Featured.FeaturedType)
	require.NotNil(t, renewed.Featured.FeaturedUntil)
	assert.True(t, renewed.Featured.FeaturedUntil.Equal(*renewed.ExpiresAt))
}

func TestRenewListingOutsideWindow(t *testing.T) {
	uc, _, listings, _, seller, listing := newPaymentFixture(t)

	farOff := time.Now().Add(20 * 24 * time.Hour)
	listings.listings[listing.ID].ExpiresAt = &farOff

	_, err := uc.RenewListing(context.Background(), seller.ID, listing.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeValidation))
}

func TestRenewListingOwnerOnly(t *testing.T) {
	uc, _, _, _, _, listing := newPaymentFixture(t)

	_, err := uc.RenewListing(context.Background(), "intruder", listing.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))
}

func TestGetPaymentOwnerOnly(t *testing.T) {
	uc, _, _, _, seller, listing := newPaymentFixture(t)

	pay, err := uc.CreatePayment(context.Background(), seller.ID, CreatePaymentInput{
		ListingID: listing.ID, Plan: entity.PlanBasic, Method: entity.PaymentMethodVoucher,
	})
	require.NoError(t, err)

	_, err = uc.GetPayment(context.Background(), "intruder", pay.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))

	got, err := uc.GetPayment(context.Background(), seller.ID, pay.ID)
	require.NoError(t, err)
	assert.Equal(t, pay.ID, got.ID)
}
