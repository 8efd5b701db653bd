package usecase

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"motomarket/internal/domain/entity"
	"motomarket/internal/domain/repository"
	"motomarket/internal/query"
	"motomarket/pkg/errors"
	"motomarket/pkg/logger"
)

const maxListingImages = 10

type ListingUseCase struct {
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
	storage     FileStorage
}

func NewListingUseCase(
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	storage FileStorage,
) *ListingUseCase {
	return &ListingUseCase{
		listingRepo: listingRepo,
		userRepo:    userRepo,
		storage:     storage,
	}
}

type CreateListingInput struct {
	Title           string
	Description     string
	Price           float64
	PriceNegotiable bool
	Motorcycle      entity.Motorcycle
	Location        entity.Location
	PaymentMethods  []string
}

// ImageUpload is one image file taken from the multipart request.
type ImageUpload struct {
	Reader      io.Reader
	ContentType string
	Filename    string
}

// CreateListing creates a pending listing. Only verified sellers may create
// listings; the first uploaded image becomes the main one.
func (uc *ListingUseCase) CreateListing(ctx context.Context, sellerID string, input CreateListingInput, images []ImageUpload) (*entity.Listing, error) {
	seller, err := uc.userRepo.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if !seller.CanSell() {
		return nil, errors.Forbidden("Only verified sellers can create listings", nil)
	}
	if len(images) > maxListingImages {
		return nil, errors.Validation(fmt.Sprintf("A listing can have at most %d images", maxListingImages), nil)
	}

	listing := &entity.Listing{
		SellerID:        sellerID,
		Title:           input.Title,
		Description:     input.Description,
		Price:           input.Price,
		PriceNegotiable: input.PriceNegotiable,
		Motorcycle:      input.Motorcycle,
		Location:        input.Location,
		PaymentMethods:  input.PaymentMethods,
		Status:          entity.ListingStatusPending,
		Featured:        entity.Featured{FeaturedType: entity.PlanBasic},
	}

	for i, img := range images {
		fileURL, err := uc.storage.UploadFile(ctx, img.Reader, img.ContentType, "listings", img.Filename)
		if err != nil {
			return nil, errors.Upstream("Failed to upload image", err)
		}
		listing.Images = append(listing.Images, entity.ListingImage{
			URL:    fileURL,
			Order:  i,
			IsMain: i == 0,
		})
	}

	if err := uc.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// SearchListings translates the raw query string and runs the filtered,
// sorted, paginated search.
func (uc *ListingUseCase) SearchListings(ctx context.Context, params url.Values) ([]*entity.Listing, int64, *query.Search, error) {
	search, err := query.Translate(params)
	if err != nil {
		return nil, 0, nil, err
	}
	listings, total, err := uc.listingRepo.Search(ctx, search)
	if err != nil {
		return nil, 0, nil, err
	}
	return listings, total, search, nil
}

func (uc *ListingUseCase) GetListing(ctx context.Context, id string) (*entity.Listing, error) {
	return uc.listingRepo.GetByID(ctx, id)
}

// ViewListing records one view. Reads never mutate; viewing is its own
// command.
func (uc *ListingUseCase) ViewListing(ctx context.Context, id string) (*entity.Listing, error) {
	listing, err := uc.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := uc.listingRepo.RecordView(ctx, id, now); err != nil {
		return nil, err
	}
	listing.Statistics.Views++
	listing.Statistics.LastViewed = &now
	return listing, nil
}

type UpdateListingInput struct {
	Title           *string
	Description     *string
	Price           *float64
	PriceNegotiable *bool
	Motorcycle      *entity.Motorcycle
	Location        *entity.Location
	PaymentMethods  []string
	Status          *string
}

// UpdateListing applies owner edits. A status change to active goes through
// Activate so the expiry is only set once.
func (uc *ListingUseCase) UpdateListing(ctx context.Context, userID, listingID string, input UpdateListingInput) (*entity.Listing, error) {
	listing, err := uc.ownedListing(ctx, userID, listingID, "update")
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		listing.Title = *input.Title
	}
	if input.Description != nil {
		listing.Description = *input.Description
	}
	if input.Price != nil {
		listing.Price = *input.Price
	}
	if input.PriceNegotiable != nil {
		listing.PriceNegotiable = *input.PriceNegotiable
	}
	if input.Motorcycle != nil {
		listing.Motorcycle = *input.Motorcycle
	}
	if input.Location != nil {
		listing.Location = *input.Location
	}
	if input.PaymentMethods != nil {
		listing.PaymentMethods = input.PaymentMethods
	}
	if input.Status != nil {
		switch *input.Status {
		case entity.ListingStatusActive:
			listing.Activate(time.Now())
		case entity.ListingStatusPending, entity.ListingStatusSold,
			entity.ListingStatusExpired, entity.ListingStatusPaused:
			listing.Status = *input.Status
		default:
			return nil, errors.Validation(fmt.Sprintf("Invalid status %q", *input.Status), nil)
		}
	}

	if err := uc.listingRepo.Update(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

func (uc *ListingUseCase) DeleteListing(ctx context.Context, userID, listingID string) error {
	if _, err := uc.ownedListing(ctx, userID, listingID, "delete"); err != nil {
		return err
	}
	return uc.listingRepo.Delete(ctx, listingID)
}

func (uc *ListingUseCase) MarkAsSold(ctx context.Context, userID, listingID string) (*entity.Listing, error) {
	listing, err := uc.ownedListing(ctx, userID, listingID, "update")
	if err != nil {
		return nil, err
	}
	listing.Status = entity.ListingStatusSold
	if err := uc.listingRepo.Update(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// FavoriteListing adds the listing to the user's favorites and bumps the
// listing's favorite counter in the same transaction. Favoriting twice is an
// error.
func (uc *ListingUseCase) FavoriteListing(ctx context.Context, userID, listingID string) ([]string, error) {
	return uc.listingRepo.AddFavorite(ctx, userID, listingID)
}

func (uc *ListingUseCase) UnfavoriteListing(ctx context.Context, userID, listingID string) ([]string, error) {
	return uc.listingRepo.RemoveFavorite(ctx, userID, listingID)
}

// ExpireDueListings flips every active listing whose expiry has passed to
// expired. Run periodically from a background job.
func (uc *ListingUseCase) ExpireDueListings(ctx context.Context) error {
	count, err := uc.listingRepo.ExpireDue(ctx, time.Now())
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Info("expired %d listings past their expiry date", count)
	}
	return nil
}

func (uc *ListingUseCase) ownedListing(ctx context.Context, userID, listingID, action string) (*entity.Listing, error) {
	listing, err := uc.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != userID {
		return nil, errors.Unauthorized(fmt.Sprintf("Not authorized to %s this listing", action), nil)
	}
	return listing, nil
}
