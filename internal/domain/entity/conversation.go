package entity

import "time"

// LastMessage is the denormalized snapshot kept on the conversation; it is
// recomputed whenever a message lands in the conversation.
type LastMessage struct {
	Content  string    `json:"content" firestore:"content"`
	SenderID string    `json:"sender_id" firestore:"senderId"`
	SentAt   time.Time `json:"sent_at" firestore:"sentAt"`
	IsRead   bool      `json:"is_read" firestore:"isRead"`
}

// Conversation ties exactly two participants to a listing. There is at most
// one active conversation per (listing, participant pair).
type Conversation struct {
	ID           string       `json:"id" firestore:"id"`
	ListingID    string       `json:"listing_id" firestore:"listingId"`
	Participants []string     `json:"participants" firestore:"participants"`
	LastMessage  *LastMessage `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	IsActive     bool         `json:"is_active" firestore:"isActive"`
	CreatedAt    time.Time    `json:"created_at" firestore:"createdAt"`
	UpdatedAt    time.Time    `json:"updated_at" firestore:"updatedAt"`
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID. The receiver
// of a message is always computed this way, never supplied by the caller.
func (c *Conversation) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}
