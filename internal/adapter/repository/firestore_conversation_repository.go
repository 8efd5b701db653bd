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
	"motomarket/pkg/errors"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{client: client}
}

func (r *firestoreConversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	if conversation.ID == "" {
		doc := r.client.Collection("conversations").NewDoc()
		conversation.ID = doc.ID
	}

	now := time.Now()
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = now
	}
	conversation.UpdatedAt = now

	_, err := r.client.Collection("conversations").Doc(conversation.ID).Set(ctx, conversation)
	if err != nil {
		return errors.Internal("Failed to create conversation", err)
	}
	return nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection("conversations").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	return &conversation, nil
}

// Firestore has no "array contains all", so we narrow on one participant and
// check the other in memory.
func (r *firestoreConversationRepository) FindByListingAndParticipants(ctx context.Context, listingID, userA, userB string) (*entity.Conversation, error) {
	iter := r.client.Collection("conversations").
		Where("listingId", "==", listingID).
		Where("participants", "array-contains", userA).
		Documents(ctx)

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to query conversations", err)
		}
		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return nil, errors.Internal("Failed to parse conversation data", err)
		}
		if conversation.HasParticipant(userB) {
			return &conversation, nil
		}
	}
	return nil, errors.NotFound("Conversation", nil)
}

func (r *firestoreConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	iter := r.client.Collection("conversations").
		Where("participants", "array-contains", userID).
		Where("isActive", "==", true).
		OrderBy("updatedAt", firestore.Desc).
		Documents(ctx)

	var conversations []*entity.Conversation
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate conversations", err)
		}
		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return nil, errors.Internal("Failed to parse conversation data", err)
		}
		conversations = append(conversations, &conversation)
	}
	return conversations, nil
}

func (r *firestoreConversationRepository) Update(ctx context.Context, conversation *entity.Conversation) error {
	conversation.UpdatedAt = time.Now()

	_, err := r.client.Collection("conversations").Doc(conversation.ID).Set(ctx, conversation)
	if err != nil {
		return errors.Internal("Failed to update conversation", err)
	}
	return nil
}

// CreateMessage writes the message and the conversation's denormalized
// lastMessage snapshot in one transaction.
func (r *firestoreConversationRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	msgRef := r.client.Collection("messages").NewDoc()
	message.ID = msgRef.ID
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	convRef := r.client.Collection("conversations").Doc(message.ConversationID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(convRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Conversation", err)
			}
			return err
		}
		if err := tx.Set(msgRef, message); err != nil {
			return err
		}
		return tx.Update(convRef, []firestore.Update{
			{Path: "lastMessage", Value: &entity.LastMessage{
				Content:  message.Content,
				SenderID: message.SenderID,
				SentAt:   message.CreatedAt,
				IsRead:   false,
			}},
			{Path: "isActive", Value: true},
			{Path: "updatedAt", Value: message.CreatedAt},
		})
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return err
		}
		return errors.Internal("Failed to create message", err)
	}
	return nil
}

func (r *firestoreConversationRepository) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	q := r.client.Collection("messages").Where("conversationId", "==", conversationID)

	allDocs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count messages", err)
	}
	total := int64(len(allDocs))

	paged := q.OrderBy("createdAt", firestore.Desc)
	if offset > 0 {
		paged = paged.Offset(offset)
	}
	if limit > 0 {
		paged = paged.Limit(limit)
	}

	iter := paged.Documents(ctx)
	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate messages", err)
		}
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, 0, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}
	return messages, total, nil
}

func (r *firestoreConversationRepository) MarkMessagesRead(ctx context.Context, conversationID, receiverID string, now time.Time) (int, error) {
	iter := r.client.Collection("messages").
		Where("conversationId", "==", conversationID).
		Where("receiverId", "==", receiverID).
		Where("isRead", "==", false).
		Documents(ctx)

	bw := r.client.BulkWriter(ctx)
	marked := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return marked, errors.Internal("Failed to iterate unread messages", err)
		}
		_, err = bw.Update(doc.Ref, []firestore.Update{
			{Path: "isRead", Value: true},
			{Path: "readAt", Value: now},
		})
		if err != nil {
			return marked, errors.Internal("Failed to mark message as read", err)
		}
		marked++
	}
	bw.End()
	return marked, nil
}

func (r *firestoreConversationRepository) GetMessageByID(ctx context.Context, id string) (*entity.Message, error) {
	doc, err := r.client.Collection("messages").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &message, nil
}

func (r *firestoreConversationRepository) UpdateMessage(ctx context.Context, message *entity.Message) error {
	_, err := r.client.Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to update message", err)
	}
	return nil
}
