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

type firestorePaymentRepository struct {
	client *firestore.Client
}

func NewFirestorePaymentRepository(client *firestore.Client) repository.PaymentRepository {
	return &firestorePaymentRepository{client: client}
}

func (r *firestorePaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	if payment.ID == "" {
		doc := r.client.Collection("payments").NewDoc()
		payment.ID = doc.ID
	}

	now := time.Now()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now
	if payment.Currency == "" {
		payment.Currency = "BRL"
	}

	_, err := r.client.Collection("payments").Doc(payment.ID).Set(ctx, payment)
	if err != nil {
		return errors.Internal("Failed to create payment", err)
	}
	return nil
}

func (r *firestorePaymentRepository) GetByID(ctx context.Context, id string) (*entity.Payment, error) {
	doc, err := r.client.Collection("payments").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Payment", err)
		}
		return nil, errors.Internal("Failed to get payment", err)
	}

	var payment entity.Payment
	if err := doc.DataTo(&payment); err != nil {
		return nil, errors.Internal("Failed to parse payment data", err)
	}
	return &payment, nil
}

func (r *firestorePaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*entity.Payment, error) {
	iter := r.client.Collection("payments").
		Where("transactionId", "==", transactionID).
		Limit(1).
		Documents(ctx)
	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Payment", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query payment", err)
	}

	var payment entity.Payment
	if err := doc.DataTo(&payment); err != nil {
		return nil, errors.Internal("Failed to parse payment data", err)
	}
	return &payment, nil
}

func (r *firestorePaymentRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Payment, error) {
	iter := r.client.Collection("payments").
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)

	var payments []*entity.Payment
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate payments", err)
		}
		var payment entity.Payment
		if err := doc.DataTo(&payment); err != nil {
			return nil, errors.Internal("Failed to parse payment data", err)
		}
		payments = append(payments, &payment)
	}
	return payments, nil
}

func (r *firestorePaymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	payment.UpdatedAt = time.Now()

	_, err := r.client.Collection("payments").Doc(payment.ID).Set(ctx, payment)
	if err != nil {
		return errors.Internal("Failed to update payment", err)
	}
	return nil
}

// ApplyCompletion persists the completed payment and the activated listing
// in one transaction; a crash mid-cascade cannot strand the listing.
func (r *firestorePaymentRepository) ApplyCompletion(ctx context.Context, payment *entity.Payment, listing *entity.Listing) error {
	paymentRef := r.client.Collection("payments").Doc(payment.ID)
	listingRef := r.client.Collection("listings").Doc(listing.ID)

	now := time.Now()
	payment.UpdatedAt = now
	listing.UpdatedAt = now

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Set(paymentRef, payment); err != nil {
			return err
		}
		return tx.Set(listingRef, listing)
	})
	if err != nil {
		return errors.Internal("Failed to apply payment completion", err)
	}
	return nil
}
