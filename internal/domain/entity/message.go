package entity

import "time"

const (
	OfferStatusPending  = "pending"
	OfferStatusAccepted = "accepted"
	OfferStatusRejected = "rejected"
	OfferStatusExpired  = "expired"
)

type Attachment struct {
	Type string `json:"type" firestore:"type"` // image, document
	URL  string `json:"url" firestore:"url"`
	Name string `json:"name,omitempty" firestore:"name,omitempty"`
}

// Offer is a proposed price embedded in a message. Only the message's
// receiver may move its status.
type Offer struct {
	Amount float64 `json:"amount" firestore:"amount"`
	Status string  `json:"status" firestore:"status"`
}

type Message struct {
	ID             string       `json:"id" firestore:"id"`
	ConversationID string       `json:"conversation_id" firestore:"conversationId"`
	SenderID       string       `json:"sender_id" firestore:"senderId"`
	ReceiverID     string       `json:"receiver_id" firestore:"receiverId"`
	Content        string       `json:"content" firestore:"content"`
	Attachments    []Attachment `json:"attachments,omitempty" firestore:"attachments,omitempty"`
	IsRead         bool         `json:"is_read" firestore:"isRead"`
	ReadAt         *time.Time   `json:"read_at,omitempty" firestore:"readAt,omitempty"`
	IsOffer        bool         `json:"is_offer" firestore:"isOffer"`
	Offer          *Offer       `json:"offer,omitempty" firestore:"offer,omitempty"`
	CreatedAt      time.Time    `json:"created_at" firestore:"createdAt"`
}
