package repository

import (
	"context"

	"motomarket/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByPhone(ctx context.Context, phone string) (*entity.User, error)
	GetByTaxID(ctx context.Context, taxID string) (*entity.User, error)
	// Token lookups receive the SHA-256 hash, never the raw token.
	GetByEmailVerificationToken(ctx context.Context, tokenHash string) (*entity.User, error)
	GetByResetPasswordToken(ctx context.Context, tokenHash string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
}
