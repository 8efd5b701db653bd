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
	"motomarket/internal/query"
	"motomarket/pkg/errors"
)

type firestoreListingRepository struct {
	client *firestore.Client
}

func NewFirestoreListingRepository(client *firestore.Client) repository.ListingRepository {
	return &firestoreListingRepository{client: client}
}

func (r *firestoreListingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	if listing.ID == "" {
		doc := r.client.Collection("listings").NewDoc()
		listing.ID = doc.ID
	}

	now := time.Now()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now

	_, err := r.client.Collection("listings").Doc(listing.ID).Set(ctx, listing)
	if err != nil {
		return errors.Internal("Failed to create listing", err)
	}
	return nil
}

func (r *firestoreListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	doc, err := r.client.Collection("listings").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Listing", err)
		}
		return nil, errors.Internal("Failed to get listing", err)
	}

	var listing entity.Listing
	if err := doc.DataTo(&listing); err != nil {
		return nil, errors.Internal("Failed to parse listing data", err)
	}
	return &listing, nil
}

func (r *firestoreListingRepository) Search(ctx context.Context, search *query.Search) ([]*entity.Listing, int64, error) {
	q := r.client.Collection("listings").Query
	for _, cond := range search.Conditions {
		q = q.Where(cond.Field, string(cond.Op), cond.Value)
	}

	// Count against the filtered query before sorting and pagination so the
	// total always matches the page filter.
	allDocs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count listings", err)
	}
	total := int64(len(allDocs))

	for _, sort := range search.Sort {
		order := firestore.Asc
		if sort.Desc {
			order = firestore.Desc
		}
		q = q.OrderBy(sort.Field, order)
	}

	if len(search.Select) > 0 {
		q = q.Select(search.Select...)
	}
	if search.Skip > 0 {
		q = q.Offset(search.Skip)
	}
	if search.Limit > 0 {
		q = q.Limit(search.Limit)
	}

	iter := q.Documents(ctx)
	var listings []*entity.Listing
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate listings", err)
		}
		var listing entity.Listing
		if err := doc.DataTo(&listing); err != nil {
			return nil, 0, errors.Internal("Failed to parse listing data", err)
		}
		listings = append(listings, &listing)
	}

	return listings, total, nil
}

func (r *firestoreListingRepository) Update(ctx context.Context, listing *entity.Listing) error {
	listing.UpdatedAt = time.Now()

	_, err := r.client.Collection("listings").Doc(listing.ID).Set(ctx, listing)
	if err != nil {
		return errors.Internal("Failed to update listing", err)
	}
	return nil
}

func (r *firestoreListingRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection("listings").Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete listing", err)
	}
	return nil
}

func (r *firestoreListingRepository) RecordView(ctx context.Context, id string, now time.Time) error {
	_, err := r.client.Collection("listings").Doc(id).Update(ctx, []firestore.Update{
		{Path: "statistics.views", Value: firestore.Increment(1)},
		{Path: "statistics.lastViewed", Value: now},
		{Path: "updatedAt", Value: now},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Listing", err)
		}
		return errors.Internal("Failed to record listing view", err)
	}
	return nil
}

func (r *firestoreListingRepository) IncrementInquiries(ctx context.Context, id string) error {
	_, err := r.client.Collection("listings").Doc(id).Update(ctx, []firestore.Update{
		{Path: "statistics.inquiries", Value: firestore.Increment(1)},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return errors.Internal("Failed to increment listing inquiries", err)
	}
	return nil
}

// AddFavorite runs as a transaction so the user's favorites set and the
// listing's favorites counter can never diverge.
func (r *firestoreListingRepository) AddFavorite(ctx context.Context, userID, listingID string) ([]string, error) {
	userRef := r.client.Collection("users").Doc(userID)
	listingRef := r.client.Collection("listings").Doc(listingID)

	var favorites []string
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(listingRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Listing", err)
			}
			return err
		}

		userDoc, err := tx.Get(userRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("User", err)
			}
			return err
		}
		var user entity.User
		if err := userDoc.DataTo(&user); err != nil {
			return err
		}

		if user.HasFavorite(listingID) {
			return errors.Conflict("Listing already in favorites")
		}
		favorites = append(user.Favorites, listingID)

		if err := tx.Update(userRef, []firestore.Update{
			{Path: "favorites", Value: favorites},
			{Path: "updatedAt", Value: time.Now()},
		}); err != nil {
			return err
		}
		return tx.Update(listingRef, []firestore.Update{
			{Path: "statistics.favorites", Value: firestore.Increment(1)},
		})
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return nil, err
		}
		return nil, errors.Internal("Failed to favorite listing", err)
	}
	return favorites, nil
}

func (r *firestoreListingRepository) RemoveFavorite(ctx context.Context, userID, listingID string) ([]string, error) {
	userRef := r.client.Collection("users").Doc(userID)
	listingRef := r.client.Collection("listings").Doc(listingID)

	var favorites []string
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		listingDoc, err := tx.Get(listingRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Listing", err)
			}
			return err
		}
		var listing entity.Listing
		if err := listingDoc.DataTo(&listing); err != nil {
			return err
		}

		userDoc, err := tx.Get(userRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("User", err)
			}
			return err
		}
		var user entity.User
		if err := userDoc.DataTo(&user); err != nil {
			return err
		}

		if !user.HasFavorite(listingID) {
			return errors.Conflict("Listing not in favorites")
		}
		favorites = favorites[:0]
		for _, id := range user.Favorites {
			if id != listingID {
				favorites = append(favorites, id)
			}
		}

		if err := tx.Update(userRef, []firestore.Update{
			{Path: "favorites", Value: favorites},
			{Path: "updatedAt", Value: time.Now()},
		}); err != nil {
			return err
		}
		// Counter never drops below zero even if a stale document slipped in.
		if listing.Statistics.Favorites > 0 {
			return tx.Update(listingRef, []firestore.Update{
				{Path: "statistics.favorites", Value: firestore.Increment(-1)},
			})
		}
		return nil
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return nil, err
		}
		return nil, errors.Internal("Failed to unfavorite listing", err)
	}
	return favorites, nil
}

func (r *firestoreListingRepository) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	iter := r.client.Collection("listings").
		Where("status", "==", entity.ListingStatusActive).
		Where("expiresAt", "<=", now).
		Documents(ctx)

	expired := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return expired, errors.Internal("Failed to iterate due listings", err)
		}
		_, err = doc.Ref.Update(ctx, []firestore.Update{
			{Path: "status", Value: entity.ListingStatusExpired},
			{Path: "updatedAt", Value: now},
		})
		if err != nil {
			return expired, errors.Internal("Failed to expire listing", err)
		}
		expired++
	}
	return expired, nil
}
