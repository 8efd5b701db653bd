package usecase

import (
	"context"
	"fmt"
	"time"

	"motomarket/internal/domain/entity"
	"motomarket/internal/domain/repository"
	"motomarket/pkg/errors"
)

// Monthly subscription prices in reais.
var subscriptionPrices = map[string]float64{
	entity.SubscriptionPlanBasic:     49.90,
	entity.SubscriptionPlanStandard:  89.90,
	entity.SubscriptionPlanPremium:   149.90,
	entity.SubscriptionPlanUnlimited: 199.90,
}

const subscriptionTerm = 30 * 24 * time.Hour

type SubscriptionUseCase struct {
	subscriptionRepo repository.SubscriptionRepository
	paymentRepo      repository.PaymentRepository
	userRepo         repository.UserRepository
}

func NewSubscriptionUseCase(
	subscriptionRepo repository.SubscriptionRepository,
	paymentRepo repository.PaymentRepository,
	userRepo repository.UserRepository,
) *SubscriptionUseCase {
	return &SubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		paymentRepo:      paymentRepo,
		userRepo:         userRepo,
	}
}

type CreateSubscriptionInput struct {
	Plan          string
	PaymentMethod string
	AutoRenew     bool
}

// Create starts a one-month subscription. A user with an active subscription
// cannot open a second one.
func (uc *SubscriptionUseCase) Create(ctx context.Context, userID string, input CreateSubscriptionInput) (*entity.Subscription, error) {
	price, ok := subscriptionPrices[input.Plan]
	if !ok {
		return nil, errors.Validation(fmt.Sprintf("Invalid plan %q", input.Plan), nil)
	}

	if existing, err := uc.subscriptionRepo.GetActiveByUser(ctx, userID); err == nil && existing != nil {
		return nil, errors.Conflict("You already have an active subscription")
	} else if err != nil && !errors.Is(err, errors.CodeNotFound) {
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	subscription := &entity.Subscription{
		UserID:        userID,
		Plan:          input.Plan,
		Price:         price,
		StartDate:     now,
		EndDate:       now.Add(subscriptionTerm),
		AutoRenew:     input.AutoRenew,
		Status:        entity.SubscriptionStatusActive,
		PaymentMethod: input.PaymentMethod,
	}
	if err := uc.subscriptionRepo.Create(ctx, subscription); err != nil {
		return nil, err
	}

	pay := &entity.Payment{
		UserID:   userID,
		Amount:   int64(price*100 + 0.5),
		Currency: paymentCurrency,
		Method:   input.PaymentMethod,
		Status:   entity.PaymentStatusCompleted,
		Details: entity.PaymentDetails{
			SubscriptionID: subscription.ID,
			Plan:           input.Plan,
		},
		CompletedAt: &now,
	}
	if err := uc.paymentRepo.Create(ctx, pay); err != nil {
		return nil, err
	}

	uc.snapshotOnUser(user, subscription)
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return subscription, nil
}

func (uc *SubscriptionUseCase) Get(ctx context.Context, userID, subscriptionID string) (*entity.Subscription, error) {
	subscription, err := uc.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if subscription.UserID != userID {
		return nil, errors.Unauthorized("Not authorized to access this subscription", nil)
	}
	return subscription, nil
}

func (uc *SubscriptionUseCase) List(ctx context.Context, userID string) ([]*entity.Subscription, error) {
	return uc.subscriptionRepo.ListByUser(ctx, userID)
}

type UpdateSubscriptionInput struct {
	AutoRenew     *bool
	PaymentMethod *string
}

// Update changes renewal settings only. Plan and dates never move here.
func (uc *SubscriptionUseCase) Update(ctx context.Context, userID, subscriptionID string, input UpdateSubscriptionInput) (*entity.Subscription, error) {
	subscription, err := uc.Get(ctx, userID, subscriptionID)
	if err != nil {
		return nil, err
	}

	if input.AutoRenew != nil {
		subscription.AutoRenew = *input.AutoRenew
	}
	if input.PaymentMethod != nil {
		subscription.PaymentMethod = *input.PaymentMethod
	}
	if err := uc.subscriptionRepo.Update(ctx, subscription); err != nil {
		return nil, err
	}

	if input.AutoRenew != nil && subscription.Status == entity.SubscriptionStatusActive {
		if user, err := uc.userRepo.GetByID(ctx, userID); err == nil {
			user.Subscription.AutoRenew = subscription.AutoRenew
			if err := uc.userRepo.Update(ctx, user); err != nil {
				return nil, err
			}
		}
	}
	return subscription, nil
}

// Cancel ends the subscription. It stays usable until its end date; only
// auto-renewal stops.
func (uc *SubscriptionUseCase) Cancel(ctx context.Context, userID, subscriptionID string) (*entity.Subscription, error) {
	subscription, err := uc.Get(ctx, userID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if subscription.Status == entity.SubscriptionStatusCanceled {
		return nil, errors.Conflict("Subscription is already canceled")
	}

	subscription.Status = entity.SubscriptionStatusCanceled
	subscription.AutoRenew = false
	if err := uc.subscriptionRepo.Update(ctx, subscription); err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Subscription.AutoRenew = false
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return subscription, nil
}

// Renew reactivates a canceled or expired subscription for another month at
// its original plan price.
func (uc *SubscriptionUseCase) Renew(ctx context.Context, userID, subscriptionID string) (*entity.Subscription, error) {
	subscription, err := uc.Get(ctx, userID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if subscription.Status == entity.SubscriptionStatusActive {
		return nil, errors.Conflict("Subscription is already active")
	}

	now := time.Now()
	subscription.Status = entity.SubscriptionStatusActive
	subscription.StartDate = now
	subscription.EndDate = now.Add(subscriptionTerm)
	if err := uc.subscriptionRepo.Update(ctx, subscription); err != nil {
		return nil, err
	}

	pay := &entity.Payment{
		UserID:   userID,
		Amount:   int64(subscription.Price*100 + 0.5),
		Currency: paymentCurrency,
		Method:   subscription.PaymentMethod,
		Status:   entity.PaymentStatusCompleted,
		Details: entity.PaymentDetails{
			SubscriptionID: subscription.ID,
			Plan:           subscription.Plan,
		},
		CompletedAt: &now,
	}
	if err := uc.paymentRepo.Create(ctx, pay); err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	uc.snapshotOnUser(user, subscription)
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return subscription, nil
}

func (uc *SubscriptionUseCase) snapshotOnUser(user *entity.User, subscription *entity.Subscription) {
	endDate := subscription.EndDate
	user.Subscription = entity.SubscriptionSnapshot{
		Active:    true,
		Plan:      subscription.Plan,
		ExpiresAt: &endDate,
		AutoRenew: subscription.AutoRenew,
	}
}
