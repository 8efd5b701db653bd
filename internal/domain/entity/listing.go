package entity

import "time"

const (
	ListingStatusPending = "pending"
	ListingStatusActive  = "active"
	ListingStatusSold    = "sold"
	ListingStatusExpired = "expired"
	ListingStatusPaused  = "paused"
)

const (
	PlanBasic     = "basic"
	PlanPremium   = "premium"
	PlanSpotlight = "spotlight"
)

// ListingPeriod is how long a paid listing stays active before it needs a
// renewal.
const ListingPeriod = 30 * 24 * time.Hour

type ListingImage struct {
	URL    string `json:"url" firestore:"url"`
	Order  int    `json:"order" firestore:"order"`
	IsMain bool   `json:"is_main" firestore:"isMain"`
}

type Motorcycle struct {
	Brand        string   `json:"brand" firestore:"brand"`
	Model        string   `json:"model" firestore:"model"`
	Year         int      `json:"year" firestore:"year"`
	Mileage      int      `json:"mileage" firestore:"mileage"`
	EngineSize   int      `json:"engine_size" firestore:"engineSize"`
	Color        string   `json:"color" firestore:"color"`
	Type         string   `json:"type" firestore:"type"` // street, custom, sport, trail, scooter, touring, naked, off-road
	Condition    string   `json:"condition" firestore:"condition"` // new, used
	Features     []string `json:"features,omitempty" firestore:"features,omitempty"`
	LicensePlate string   `json:"license_plate,omitempty" firestore:"licensePlate,omitempty"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude" firestore:"latitude"`
	Longitude float64 `json:"longitude" firestore:"longitude"`
}

type Location struct {
	City        string       `json:"city" firestore:"city"`
	State       string       `json:"state" firestore:"state"`
	ZipCode     string       `json:"zip_code,omitempty" firestore:"zipCode,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty" firestore:"coordinates,omitempty"`
}

type Featured struct {
	IsFeatured    bool       `json:"is_featured" firestore:"isFeatured"`
	FeaturedUntil *time.Time `json:"featured_until,omitempty" firestore:"featuredUntil,omitempty"`
	FeaturedType  string     `json:"featured_type" firestore:"featuredType"` // basic, premium, spotlight
}

type ListingPayment struct {
	Paid          bool       `json:"paid" firestore:"paid"`
	Amount        int64      `json:"amount" firestore:"amount"`
	TransactionID string     `json:"transaction_id,omitempty" firestore:"transactionId,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty" firestore:"paidAt,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty" firestore:"expiresAt,omitempty"`
}

type ListingStatistics struct {
	Views      int        `json:"views" firestore:"views"`
	Favorites  int        `json:"favorites" firestore:"favorites"`
	Inquiries  int        `json:"inquiries" firestore:"inquiries"`
	LastViewed *time.Time `json:"last_viewed,omitempty" firestore:"lastViewed,omitempty"`
}

// Listing is a for-sale motorcycle post. At most one image carries
// IsMain=true; ExpiresAt is only set on the first transition to active.
type Listing struct {
	ID              string            `json:"id" firestore:"id"`
	SellerID        string            `json:"seller_id" firestore:"sellerId"`
	Title           string            `json:"title" firestore:"title"`
	Description     string            `json:"description" firestore:"description"`
	Price           float64           `json:"price" firestore:"price"`
	PriceNegotiable bool              `json:"price_negotiable" firestore:"priceNegotiable"`
	Motorcycle      Motorcycle        `json:"motorcycle" firestore:"motorcycle"`
	Images          []ListingImage    `json:"images,omitempty" firestore:"images,omitempty"`
	Location        Location          `json:"location" firestore:"location"`
	PaymentMethods  []string          `json:"payment_methods,omitempty" firestore:"paymentMethods,omitempty"`
	Status          string            `json:"status" firestore:"status"`
	Featured        Featured          `json:"featured" firestore:"featured"`
	Payment         ListingPayment    `json:"payment" firestore:"payment"`
	Statistics      ListingStatistics `json:"statistics" firestore:"statistics"`
	CreatedAt       time.Time         `json:"created_at" firestore:"createdAt"`
	UpdatedAt       time.Time         `json:"updated_at" firestore:"updatedAt"`
	ExpiresAt       *time.Time        `json:"expires_at,omitempty" firestore:"expiresAt,omitempty"`
}

// Activate flips the listing to active. ExpiresAt is only assigned when it
// was never set before.
func (l *Listing) Activate(now time.Time) {
	l.Status = ListingStatusActive
	if l.ExpiresAt == nil {
		expires := now.Add(ListingPeriod)
		l.ExpiresAt = &expires
	}
}

// DaysUntilExpiration reports the (ceiling) number of days left before the
// listing expires. Listings with no expiry report 0.
func (l *Listing) DaysUntilExpiration(now time.Time) int {
	if l.ExpiresAt == nil {
		return 0
	}
	remaining := l.ExpiresAt.Sub(now)
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}
