package repository

import (
	"context"

	"motomarket/internal/domain/entity"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id string) (*entity.Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*entity.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Payment, error)
	Update(ctx context.Context, payment *entity.Payment) error

	// ApplyCompletion writes the completed payment and the activated listing
	// in a single transaction so a crash cannot leave one without the other.
	ApplyCompletion(ctx context.Context, payment *entity.Payment, listing *entity.Listing) error
}
