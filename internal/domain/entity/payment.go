package entity

import "time"

const (
	PaymentMethodCard            = "card"
	PaymentMethodVoucher         = "voucher"
	PaymentMethodInstantTransfer = "instant-transfer"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

type VoucherDetails struct {
	Code      string    `json:"code" firestore:"code"`
	PDF       string    `json:"pdf" firestore:"pdf"`
	ExpiresAt time.Time `json:"expires_at" firestore:"expiresAt"`
}

type InstantTransferDetails struct {
	QRCode    string    `json:"qr_code" firestore:"qrCode"`
	CopyPaste string    `json:"copy_paste" firestore:"copyPaste"`
	ExpiresAt time.Time `json:"expires_at" firestore:"expiresAt"`
}

type PaymentDetails struct {
	CardLastFour    string                  `json:"card_last_four,omitempty" firestore:"cardLastFour,omitempty"`
	Voucher         *VoucherDetails         `json:"voucher,omitempty" firestore:"voucher,omitempty"`
	InstantTransfer *InstantTransferDetails `json:"instant_transfer,omitempty" firestore:"instantTransfer,omitempty"`
	SubscriptionID  string                  `json:"subscription_id,omitempty" firestore:"subscriptionId,omitempty"`
	Plan            string                  `json:"plan,omitempty" firestore:"plan,omitempty"`
}

// Payment records a charge for a listing plan or a subscription. A
// transition to completed is terminal: completed payments never move back.
type Payment struct {
	ID            string         `json:"id" firestore:"id"`
	UserID        string         `json:"user_id" firestore:"userId"`
	ListingID     string         `json:"listing_id,omitempty" firestore:"listingId,omitempty"`
	Amount        int64          `json:"amount" firestore:"amount"` // cents
	Currency      string         `json:"currency" firestore:"currency"`
	Method        string         `json:"method" firestore:"method"`
	Status        string         `json:"status" firestore:"status"`
	TransactionID string         `json:"transaction_id,omitempty" firestore:"transactionId,omitempty"`
	Details       PaymentDetails `json:"details" firestore:"details"`
	CreatedAt     time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time      `json:"updated_at" firestore:"updatedAt"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty" firestore:"completedAt,omitempty"`
}
