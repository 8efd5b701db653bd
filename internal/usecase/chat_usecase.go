package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"motomarket/internal/domain/entity"
	"motomarket/internal/domain/repository"
	"motomarket/pkg/errors"
)

// DefaultMessagePageSize is the message page size when the caller omits a limit.
const DefaultMessagePageSize = 20

type ChatUseCase struct {
	conversationRepo repository.ConversationRepository
	listingRepo      repository.ListingRepository
	storage          FileStorage
}

func NewChatUseCase(
	conversationRepo repository.ConversationRepository,
	listingRepo repository.ListingRepository,
	storage FileStorage,
) *ChatUseCase {
	return &ChatUseCase{
		conversationRepo: conversationRepo,
		listingRepo:      listingRepo,
		storage:          storage,
	}
}

// StartConversation opens (or reuses) the conversation between the caller and
// the listing's seller, optionally posting an initial message. Each initial
// message counts as one inquiry on the listing; a message-less open does not.
func (uc *ChatUseCase) StartConversation(ctx context.Context, userID, listingID, initialMessage string) (*entity.Conversation, error) {
	listing, err := uc.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID == userID {
		return nil, errors.Validation("You cannot start a conversation about your own listing", nil)
	}

	conversation, err := uc.conversationRepo.FindByListingAndParticipants(ctx, listingID, userID, listing.SellerID)
	if err != nil {
		if !errors.Is(err, errors.CodeNotFound) {
			return nil, err
		}
		conversation = &entity.Conversation{
			ListingID:    listingID,
			Participants: []string{userID, listing.SellerID},
			IsActive:     true,
		}
		if err := uc.conversationRepo.Create(ctx, conversation); err != nil {
			return nil, err
		}
	}

	if initialMessage != "" {
		message := &entity.Message{
			ConversationID: conversation.ID,
			SenderID:       userID,
			ReceiverID:     listing.SellerID,
			Content:        initialMessage,
		}
		if err := uc.conversationRepo.CreateMessage(ctx, message); err != nil {
			return nil, err
		}
		if err := uc.listingRepo.IncrementInquiries(ctx, listingID); err != nil {
			return nil, err
		}
	}
	return conversation, nil
}

func (uc *ChatUseCase) ListConversations(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	return uc.conversationRepo.ListByParticipant(ctx, userID)
}

func (uc *ChatUseCase) GetConversation(ctx context.Context, userID, conversationID string) (*entity.Conversation, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, errors.Unauthorized("Not authorized to access this conversation", nil)
	}
	return conversation, nil
}

func (uc *ChatUseCase) ArchiveConversation(ctx context.Context, userID, conversationID string) (*entity.Conversation, error) {
	conversation, err := uc.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	conversation.IsActive = false
	if err := uc.conversationRepo.Update(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

type SendMessageInput struct {
	Content     string
	OfferAmount *float64
	Attachments []ImageUpload
}

// SendMessage posts a message from userID into the conversation. The receiver
// is always the other participant; an offer amount turns the message into a
// pending offer.
func (uc *ChatUseCase) SendMessage(ctx context.Context, userID, conversationID string, input SendMessageInput) (*entity.Message, error) {
	conversation, err := uc.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	message := &entity.Message{
		ConversationID: conversationID,
		SenderID:       userID,
		ReceiverID:     conversation.OtherParticipant(userID),
		Content:        input.Content,
	}
	if input.OfferAmount != nil {
		if *input.OfferAmount <= 0 {
			return nil, errors.Validation("Offer amount must be positive", nil)
		}
		message.IsOffer = true
		message.Offer = &entity.Offer{
			Amount: *input.OfferAmount,
			Status: entity.OfferStatusPending,
		}
	}

	for _, att := range input.Attachments {
		fileURL, err := uc.storage.UploadFile(ctx, att.Reader, att.ContentType, "messages", att.Filename)
		if err != nil {
			return nil, errors.Upstream("Failed to upload attachment", err)
		}
		message.Attachments = append(message.Attachments, entity.Attachment{
			Type: attachmentType(att.ContentType),
			URL:  fileURL,
			Name: att.Filename,
		})
	}

	if err := uc.conversationRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// ReadMessages pages the conversation newest-first and bulk-marks the
// messages addressed to the caller as read.
func (uc *ChatUseCase) ReadMessages(ctx context.Context, userID, conversationID string, page, limit int) ([]*entity.Message, int64, error) {
	if _, err := uc.GetConversation(ctx, userID, conversationID); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultMessagePageSize
	}

	messages, total, err := uc.conversationRepo.ListMessages(ctx, conversationID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	if _, err := uc.conversationRepo.MarkMessagesRead(ctx, conversationID, userID, time.Now()); err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// RespondToOffer lets the offer's receiver accept or reject it. Accepting
// sends an automatic confirmation message with the agreed price.
func (uc *ChatUseCase) RespondToOffer(ctx context.Context, userID, messageID string, accept bool) (*entity.Message, error) {
	message, err := uc.conversationRepo.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !message.IsOffer || message.Offer == nil {
		return nil, errors.Validation("Message is not an offer", nil)
	}
	if message.ReceiverID != userID {
		return nil, errors.Unauthorized("Only the offer's receiver can respond to it", nil)
	}
	if message.Offer.Status != entity.OfferStatusPending {
		return nil, errors.Validation(
			fmt.Sprintf("Offer was already %s", message.Offer.Status), nil)
	}

	if accept {
		message.Offer.Status = entity.OfferStatusAccepted
	} else {
		message.Offer.Status = entity.OfferStatusRejected
	}
	if err := uc.conversationRepo.UpdateMessage(ctx, message); err != nil {
		return nil, err
	}

	if accept {
		followUp := &entity.Message{
			ConversationID: message.ConversationID,
			SenderID:       userID,
			ReceiverID:     message.SenderID,
			Content:        fmt.Sprintf("Offer of %s accepted. Let's close the deal!", formatBRL(message.Offer.Amount)),
		}
		if err := uc.conversationRepo.CreateMessage(ctx, followUp); err != nil {
			return nil, err
		}
	}
	return message, nil
}

func attachmentType(contentType string) string {
	if strings.HasPrefix(contentType, "image/") {
		return "image"
	}
	return "document"
}

// formatBRL renders cents-free reais the way the storefront shows prices,
// e.g. 12345.6 -> "R$ 12.345,60".
func formatBRL(amount float64) string {
	cents := int64(amount*100 + 0.5)
	whole := cents / 100
	frac := cents % 100

	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return fmt.Sprintf("R$ %s,%02d", b.String(), frac)
}
