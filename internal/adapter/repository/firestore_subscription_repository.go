package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"motomarket/internal/domain/entity"
	"motomarket/internal/domain/repository"
	"motomarket/pkg/errors"
)

type firestoreSubscriptionRepository struct {
	client *firestore.Client
}

func NewFirestoreSubscriptionRepository(client *firestore.Client) repository.SubscriptionRepository {
	return &firestoreSubscriptionRepository{client: client}
}

func (r *firestoreSubscriptionRepository) Create(ctx context.Context, subscription *entity.Subscription) error {
	if subscription.ID == "" {
		doc := r.client.Collection("subscriptions").NewDoc()
		subscription.ID = doc.ID
	}

	now := time.Now()
	if subscription.CreatedAt.IsZero() {
		subscription.CreatedAt = now
	}
	subscription.UpdatedAt = now

	_, err := r.client.Collection("subscriptions").Doc(subscription.ID).Set(ctx, subscription)
	if err != nil {
		return errors.Internal("Failed to create subscription", err)
	}
	return nil
}

func (r *firestoreSubscriptionRepository) GetByID(ctx context.Context, id string) (*entity.Subscription, error) {
	doc, err := r.client.Collection("subscriptions").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Subscription", err)
		}
		return nil, errors.Internal("Failed to get subscription", err)
	}

	var subscription entity.Subscription
	if err := doc.DataTo(&subscription); err != nil {
		return nil, errors.Internal("Failed to parse subscription data", err)
	}
	return &subscription, nil
}

func (r *firestoreSubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Subscription, error) {
	iter := r.client.Collection("subscriptions").
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)

	var subscriptions []*entity.Subscription
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate subscriptions", err)
		}
		var subscription entity.Subscription
		if err := doc.DataTo(&subscription); err != nil {
			return nil, errors.Internal("Failed to parse subscription data", err)
		}
		subscriptions = append(subscriptions, &subscription)
	}
	return subscriptions, nil
}

func (r *firestoreSubscriptionRepository) GetActiveByUser(ctx context.Context, userID string) (*entity.Subscription, error) {
	iter := r.client.Collection("subscriptions").
		Where("userId", "==", userID).
		Where("status", "==", entity.SubscriptionStatusActive).
		Limit(1).
		Documents(ctx)
	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Subscription", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query subscription", err)
	}

	var subscription entity.Subscription
	if err := doc.DataTo(&subscription); err != nil {
		return nil, errors.Internal("Failed to parse subscription data", err)
	}
	return &subscription, nil
}

func (r *firestoreSubscriptionRepository) Update(ctx context.Context, subscription *entity.Subscription) error {
	subscription.UpdatedAt = time.Now()

	_, err := r.client.Collection("subscriptions").Doc(subscription.ID).Set(ctx, subscription)
	if err != nil {
		return errors.Internal("Failed to update subscription", err)
	}
	return nil
}
