package entity

import "time"

const (
	SubscriptionPlanBasic     = "basic"
	SubscriptionPlanStandard  = "standard"
	SubscriptionPlanPremium   = "premium"
	SubscriptionPlanUnlimited = "unlimited"
)

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusExpired  = "expired"
)

// Subscription is a monthly seller plan. A user holds at most one
// subscription with status active.
type Subscription struct {
	ID            string    `json:"id" firestore:"id"`
	UserID        string    `json:"user_id" firestore:"userId"`
	Plan          string    `json:"plan" firestore:"plan"`
	Price         float64   `json:"price" firestore:"price"`
	StartDate     time.Time `json:"start_date" firestore:"startDate"`
	EndDate       time.Time `json:"end_date" firestore:"endDate"`
	AutoRenew     bool      `json:"auto_renew" firestore:"autoRenew"`
	Status        string    `json:"status" firestore:"status"`
	PaymentMethod string    `json:"payment_method,omitempty" firestore:"paymentMethod,omitempty"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time `json:"updated_at" firestore:"updatedAt"`
}
