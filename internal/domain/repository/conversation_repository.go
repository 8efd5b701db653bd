package repository

import (
	"context"
	"time"

	"motomarket/internal/domain/entity"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	// FindByListingAndParticipants locates the one conversation for a
	// (listing, participant pair), regardless of participant order.
	FindByListingAndParticipants(ctx context.Context, listingID, userA, userB string) (*entity.Conversation, error)
	ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error)
	Update(ctx context.Context, conversation *entity.Conversation) error

	// CreateMessage stores the message and refreshes the conversation's
	// lastMessage snapshot, isActive flag and updatedAt in one atomic write.
	CreateMessage(ctx context.Context, message *entity.Message) error
	// ListMessages pages newest-first.
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error)
	// MarkMessagesRead bulk-marks unread messages addressed to receiverID.
	MarkMessagesRead(ctx context.Context, conversationID, receiverID string, now time.Time) (int, error)
	GetMessageByID(ctx context.Context, id string) (*entity.Message, error)
	UpdateMessage(ctx context.Context, message *entity.Message) error
}
