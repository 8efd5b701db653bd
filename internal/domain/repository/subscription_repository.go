package repository

import (
	"context"

	"motomarket/internal/domain/entity"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *entity.Subscription) error
	GetByID(ctx context.Context, id string) (*entity.Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Subscription, error)
	GetActiveByUser(ctx context.Context, userID string) (*entity.Subscription, error)
	Update(ctx context.Context, subscription *entity.Subscription) error
}
