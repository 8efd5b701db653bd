package handler

import (
	"encoding/json"
	"mime/multipart"

	"github.com/labstack/echo/v4"

	"motomarket/internal/adapter/api/middleware"
	"motomarket/internal/domain/entity"
	"motomarket/internal/usecase"
	"motomarket/pkg/errors"
	"motomarket/pkg/response"
)

const maxImageSize = 10 << 20 // 10 MB per file

type ListingHandler struct {
	listingUseCase *usecase.ListingUseCase
}

func NewListingHandler(listingUseCase *usecase.ListingUseCase) *ListingHandler {
	return &ListingHandler{listingUseCase: listingUseCase}
}

type createListingRequest struct {
	Title           string            `json:"title" validate:"required,min=5,max=120"`
	Description     string            `json:"description" validate:"required,min=20"`
	Price           float64           `json:"price" validate:"required,gt=0"`
	PriceNegotiable bool              `json:"price_negotiable"`
	Motorcycle      motorcycleRequest `json:"motorcycle" validate:"required"`
	Location        locationRequest   `json:"location" validate:"required"`
	PaymentMethods  []string          `json:"payment_methods"`
}

type motorcycleRequest struct {
	Brand        string   `json:"brand" validate:"required"`
	Model        string   `json:"model" validate:"required"`
	Year         int      `json:"year" validate:"required,min=1900"`
	Mileage      int      `json:"mileage" validate:"min=0"`
	EngineSize   int      `json:"engine_size" validate:"required,gt=0"`
	Color        string   `json:"color"`
	Type         string   `json:"type" validate:"required,oneof=street custom sport trail scooter touring naked off-road"`
	Condition    string   `json:"condition" validate:"required,oneof=new used"`
	Features     []string `json:"features"`
	LicensePlate string   `json:"license_plate"`
}

type locationRequest struct {
	City        string              `json:"city" validate:"required"`
	State       string              `json:"state" validate:"required"`
	ZipCode     string              `json:"zip_code"`
	Coordinates *entity.Coordinates `json:"coordinates"`
}

// Create accepts a multipart form: a "data" field with the listing JSON plus
// up to ten "images" files.
func (h *ListingHandler) Create(c echo.Context) error {
	var req createListingRequest
	if err := json.Unmarshal([]byte(c.FormValue("data")), &req); err != nil {
		return response.Error(c, errors.Validation("Invalid listing payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	images, err := h.imageUploads(c)
	if err != nil {
		return response.Error(c, err)
	}
	defer closeUploads(images)

	listing, err := h.listingUseCase.CreateListing(c.Request().Context(), middleware.UserID(c), usecase.CreateListingInput{
		Title:           req.Title,
		Description:     req.Description,
		Price:           req.Price,
		PriceNegotiable: req.PriceNegotiable,
		Motorcycle: entity.Motorcycle{
			Brand:        req.Motorcycle.Brand,
			Model:        req.Motorcycle.Model,
			Year:         req.Motorcycle.Year,
			Mileage:      req.Motorcycle.Mileage,
			EngineSize:   req.Motorcycle.EngineSize,
			Color:        req.Motorcycle.Color,
			Type:         req.Motorcycle.Type,
			Condition:    req.Motorcycle.Condition,
			Features:     req.Motorcycle.Features,
			LicensePlate: req.Motorcycle.LicensePlate,
		},
		Location: entity.Location{
			City:        req.Location.City,
			State:       req.Location.State,
			ZipCode:     req.Location.ZipCode,
			Coordinates: req.Location.Coordinates,
		},
		PaymentMethods: req.PaymentMethods,
	}, imageInputs(images))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, listing)
}

// Search runs the translated query and returns the count-aware page
// envelope.
func (h *ListingHandler) Search(c echo.Context) error {
	listings, total, search, err := h.listingUseCase.SearchListings(c.Request().Context(), c.QueryParams())
	if err != nil {
		return response.Error(c, err)
	}
	return response.List(c, listings, len(listings), search.Page, search.Limit, total)
}

func (h *ListingHandler) Get(c echo.Context) error {
	listing, err := h.listingUseCase.ViewListing(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listing)
}

type updateListingRequest struct {
	Title           *string            `json:"title"`
	Description     *string            `json:"description"`
	Price           *float64           `json:"price"`
	PriceNegotiable *bool              `json:"price_negotiable"`
	Motorcycle      *entity.Motorcycle `json:"motorcycle"`
	Location        *entity.Location   `json:"location"`
	PaymentMethods  []string           `json:"payment_methods"`
	Status          *string            `json:"status"`
}

func (h *ListingHandler) Update(c echo.Context) error {
	var req updateListingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request payload", err))
	}

	listing, err := h.listingUseCase.UpdateListing(c.Request().Context(), middleware.UserID(c), c.Param("id"), usecase.UpdateListingInput{
		Title:           req.Title,
		Description:     req.Description,
		Price:           req.Price,
		PriceNegotiable: req.PriceNegotiable,
		Motorcycle:      req.Motorcycle,
		Location:        req.Location,
		PaymentMethods:  req.PaymentMethods,
		Status:          req.Status,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listing)
}

func (h *ListingHandler) Delete(c echo.Context) error {
	if err := h.listingUseCase.DeleteListing(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Listing deleted"})
}

func (h *ListingHandler) MarkAsSold(c echo.Context) error {
	listing, err := h.listingUseCase.MarkAsSold(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listing)
}

func (h *ListingHandler) Favorite(c echo.Context) error {
	favorites, err := h.listingUseCase.FavoriteListing(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"favorites": favorites})
}

func (h *ListingHandler) Unfavorite(c echo.Context) error {
	favorites, err := h.listingUseCase.UnfavoriteListing(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"favorites": favorites})
}

type openedUpload struct {
	file   multipart.File
	header *multipart.FileHeader
}

func (h *ListingHandler) imageUploads(c echo.Context) ([]openedUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// No files attached is fine.
		return nil, nil
	}

	var uploads []openedUpload
	for _, header := range form.File["images"] {
		if header.Size > maxImageSize {
			closeUploads(uploads)
			return nil, errors.Validation("Image files must be at most 10MB", nil)
		}
		file, err := header.Open()
		if err != nil {
			closeUploads(uploads)
			return nil, errors.Internal("Failed to read uploaded file", err)
		}
		uploads = append(uploads, openedUpload{file: file, header: header})
	}
	return uploads, nil
}

func imageInputs(uploads []openedUpload) []usecase.ImageUpload {
	inputs := make([]usecase.ImageUpload, 0, len(uploads))
	for _, u := range uploads {
		inputs = append(inputs, usecase.ImageUpload{
			Reader:      u.file,
			ContentType: u.header.Header.Get("Content-Type"),
			Filename:    u.header.Filename,
		})
	}
	return inputs
}

func closeUploads(uploads []openedUpload) {
	for _, u := range uploads {
		u.file.Close()
	}
}
