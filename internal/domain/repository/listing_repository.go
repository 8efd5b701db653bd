package repository

import (
	"context"
	"time"

	"motomarket/internal/domain/entity"
	"motomarket/internal/query"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
	// Search runs the translated query; the count it returns is computed
	// against the exact same conditions as the returned page.
	Search(ctx context.Context, search *query.Search) ([]*entity.Listing, int64, error)
	Update(ctx context.Context, listing *entity.Listing) error
	Delete(ctx context.Context, id string) error

	// RecordView bumps statistics.views and stamps statistics.lastViewed.
	RecordView(ctx context.Context, id string, now time.Time) error
	IncrementInquiries(ctx context.Context, id string) error

	// AddFavorite/RemoveFavorite move the user's favorites set and the
	// listing's favorites counter in one atomic write; duplicates and
	// missing entries surface as CONFLICT errors.
	AddFavorite(ctx context.Context, userID, listingID string) ([]string, error)
	RemoveFavorite(ctx context.Context, userID, listingID string) ([]string, error)

	// ExpireDue flips active listings whose expiresAt has passed to expired
	// and reports how many were touched.
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}
