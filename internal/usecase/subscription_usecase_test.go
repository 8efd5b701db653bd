package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motomarket/internal/domain/entity"
	"motomarket/pkg/errors"
)

func newSubscriptionFixture(t *testing.T) (*SubscriptionUseCase, *fakeSubscriptionRepo, *fakePaymentRepo, *fakeUserRepo, *entity.User) {
	t.Helper()
	users := newFakeUserRepo()
	listings := newFakeListingRepo(users)
	payments := newFakePaymentRepo(listings)
	subscriptions := newFakeSubscriptionRepo()
	uc := NewSubscriptionUseCase(subscriptions, payments, users)

	user := seedSeller(t, users, true)
	return uc, subscriptions, payments, users, user
}

func TestCreateSubscription(t *testing.T) {
	uc, _, payments, users, user := newSubscriptionFixture(t)

	subscription, err := uc.Create(context.Background(), user.ID, CreateSubscriptionInput{
		Plan:          entity.SubscriptionPlanStandard,
		PaymentMethod: entity.PaymentMethodCard,
		AutoRenew:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.SubscriptionStatusActive, subscription.Status)
	assert.Equal(t, 89.90, subscription.Price)
	assert.WithinDuration(t, time.Now().Add(subscriptionTerm), subscription.EndDate, time.Minute)

	// A completed payment is recorded in cents.
	recorded, err := payments.ListByUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, int64(8990), recorded[0].Amount)
	assert.Equal(t, entity.PaymentStatusCompleted, recorded[0].Status)
	assert.Equal(t, subscription.ID, recorded[0].Details.SubscriptionID)

	// The user document carries the denormalized snapshot.
	stored := users.users[user.ID]
	assert.True(t, stored.Subscription.Active)
	assert.Equal(t, entity.SubscriptionPlanStandard, stored.Subscription.Plan)
	assert.True(t, stored.Subscription.AutoRenew)
	require.NotNil(t, stored.Subscription.ExpiresAt)
}

func TestCreateSubscriptionRejectsSecondActive(t *testing.T) {
	uc, _, _, _, user := newSubscriptionFixture(t)

	_, err := uc.Create(context.Background(), user.ID, CreateSubscriptionInput{
		Plan: entity.SubscriptionPlanBasic, PaymentMethod: entity.PaymentMethodCard,
	})
	require.NoError(t, err)

	_, err = uc.Create(context.Background(), user.ID, CreateSubscriptionInput{
		Plan: entity.SubscriptionPlanPremium, PaymentMethod: entity.PaymentMethodCard,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeConflict))
}

func TestCreateSubscriptionInvalidPlan(t *testing.T) {
	uc, _, _, _, user := newSubscriptionFixture(t)

	_, err := uc.Create(context.Background(), user.ID, CreateSubscriptionInput{
		Plan: "gold", PaymentMethod: entity.PaymentMethodCard,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeValidation))
}

func TestSubscriptionOwnerChecks(t *testing.T) {
	uc, _, _, _, user := newSubscriptionFixture(t)

	subscription, err := uc.Create(context.Background(), user.ID, CreateSubscriptionInput{
		Plan: entity.SubscriptionPlanBasic, PaymentMethod: entity.PaymentMethodCard,
	})
	require.NoError(t, err)

	_, err = uc.Get(context.Background(), "intruder", subscription.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))

	_, err = uc.Cancel(context.Background(), "intruder", subscription.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))
}

func TestUpdateSubscriptionRenewalSettingsOnly(t *testing.T) {
	uc, subscriptions, _, users, user := newSubscriptionFixture(t)

	subscription, err := uc.Create(context.Background(), user.ID, CreateSubscriptionInput{
		Plan: entity.SubscriptionPlanBasic, PaymentMethod: entity.PaymentMethodCard, AutoRenew: true,
	})
	require.NoError(t, err)

	autoRenew := false
	method := entity.PaymentMethodVoucher
	updated, err := uc.Update(context.Background(), user.ID, subscription.ID, UpdateSubscriptionInput{
		AutoRenew:     &autoRenew,
		PaymentMethod: &method,
	})
	require.NoError(t, err)
	assert.False(t, updated.AutoRenew)
	assert.Equal(t, entity.PaymentMethodVoucher, updated.PaymentMethod)
	// Plan and dates are untouched.
	assert.Equal(t, entity.SubscriptionPlanBasic, updated.Plan)
	assert.True(t, updated.EndDate.Equal(subscription.EndDate))

	stored := subscriptions.subscriptions[subscription.ID]
	assert.False(t, stored.AutoRenew)
	assert.False(t, users.users[user.ID].Subscription.AutoRenew)
}

func TestCancelSubscription(t *testing.T) {
	uc, _, _, users, user := newSubscriptionFixture(t)

	subscription, err := uc.Create(context.Background(), user.ID, CreateSubscriptionInput{
		Plan: entity.SubscriptionPlanPremium, PaymentMethod: entity.PaymentMethodCard, AutoRenew: true,
	})
	require.NoError(t, err)

	canceled, err := uc.Cancel(context.Background(), user.ID, subscription.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SubscriptionStatusCanceled, canceled.Status)
	assert.False(t, canceled.AutoRenew)
	assert.False(t, users.users[user.ID].Subscription.AutoRenew)

	_, err = uc.Cancel(context.Background(), user.ID, subscription.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeConflict))
}

func TestRenewSubscription(t *testing.T) {
	uc, _, payments, users, user := newSubscriptionFixture(t)

	subscription, err := uc.Create(context.Background(), user.ID, CreateSubscriptionInput{
		Plan: entity.SubscriptionPlanUnlimited, PaymentMethod: entity.PaymentMethodCard,
	})
	require.NoError(t, err)

	// Active subscriptions cannot be renewed again.
	_, err = uc.Renew(context.Background(), user.ID, subscription.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeConflict))

	_, err = uc.Cancel(context.Background(), user.ID, subscription.ID)
	require.NoError(t, err)

	renewed, err := uc.Renew(context.Background(), user.ID, subscription.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SubscriptionStatusActive, renewed.Status)
	assert.WithinDuration(t, time.Now().Add(subscriptionTerm), renewed.EndDate, time.Minute)

	recorded, err := payments.ListByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, recorded, 2)
	assert.True(t, users.users[user.ID].Subscription.Active)
}
