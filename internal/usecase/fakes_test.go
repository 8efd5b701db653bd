package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"motomarket/internal/domain/entity"
	"motomarket/internal/infrastructure/payment"
	"motomarket/internal/query"
	"motomarket/pkg/errors"
)

// In-memory repository doubles. They mirror the Firestore adapters' error
// behavior: missing documents surface as NOT_FOUND, duplicate favorites as
// CONFLICT.

type fakeUserRepo struct {
	users  map[string]*entity.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*entity.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.nextID++
	user.ID = fmt.Sprintf("user-%d", r.nextID)
	user.CreatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) GetByPhone(ctx context.Context, phone string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Phone == phone })
}

func (r *fakeUserRepo) GetByTaxID(ctx context.Context, taxID string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.TaxID == taxID })
}

func (r *fakeUserRepo) GetByEmailVerificationToken(ctx context.Context, tokenHash string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool {
		return tokenHash != "" && u.Verifications.EmailVerificationToken == tokenHash
	})
}

func (r *fakeUserRepo) GetByResetPasswordToken(ctx context.Context, tokenHash string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool {
		return tokenHash != "" && u.ResetPasswordToken == tokenHash
	})
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return errors.NotFound("User", nil)
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) find(match func(*entity.User) bool) (*entity.User, error) {
	for _, u := range r.users {
		if match(u) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

type fakeListingRepo struct {
	listings map[string]*entity.Listing
	users    *fakeUserRepo
	nextID   int
}

func newFakeListingRepo(users *fakeUserRepo) *fakeListingRepo {
	return &fakeListingRepo{listings: make(map[string]*entity.Listing), users: users}
}

func (r *fakeListingRepo) Create(ctx context.Context, listing *entity.Listing) error {
	r.nextID++
	listing.ID = fmt.Sprintf("listing-%d", r.nextID)
	listing.CreatedAt = time.Now()
	listing.UpdatedAt = listing.CreatedAt
	clone := *listing
	r.listings[listing.ID] = &clone
	return nil
}

func (r *fakeListingRepo) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	listing, ok := r.listings[id]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	clone := *listing
	return &clone, nil
}

func (r *fakeListingRepo) Search(ctx context.Context, search *query.Search) ([]*entity.Listing, int64, error) {
	var ids []string
	for id := range r.listings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var matched []*entity.Listing
	for _, id := range ids {
		clone := *r.listings[id]
		matched = append(matched, &clone)
	}

	total := int64(len(matched))
	if search.Skip >= len(matched) {
		return nil, total, nil
	}
	matched = matched[search.Skip:]
	if len(matched) > search.Limit {
		matched = matched[:search.Limit]
	}
	return matched, total, nil
}

func (r *fakeListingRepo) Update(ctx context.Context, listing *entity.Listing) error {
	if _, ok := r.listings[listing.ID]; !ok {
		return errors.NotFound("Listing", nil)
	}
	listing.UpdatedAt = time.Now()
	clone := *listing
	r.listings[listing.ID] = &clone
	return nil
}

func (r *fakeListingRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.listings[id]; !ok {
		return errors.NotFound("Listing", nil)
	}
	delete(r.listings, id)
	return nil
}

func (r *fakeListingRepo) RecordView(ctx context.Context, id string, now time.Time) error {
	listing, ok := r.listings[id]
	if !ok {
		return errors.NotFound("Listing", nil)
	}
	listing.Statistics.Views++
	listing.Statistics.LastViewed = &now
	return nil
}

func (r *fakeListingRepo) IncrementInquiries(ctx context.Context, id string) error {
	listing, ok := r.listings[id]
	if !ok {
		return errors.NotFound("Listing", nil)
	}
	listing.Statistics.Inquiries++
	return nil
}

func (r *fakeListingRepo) AddFavorite(ctx context.Context, userID, listingID string) ([]string, error) {
	listing, ok := r.listings[listingID]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	user, ok := r.users.users[userID]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	if user.HasFavorite(listingID) {
		return nil, errors.Conflict("Listing is already in favorites")
	}
	user.Favorites = append(user.Favorites, listingID)
	listing.Statistics.Favorites++
	return append([]string(nil), user.Favorites...), nil
}

func (r *fakeListingRepo) RemoveFavorite(ctx context.Context, userID, listingID string) ([]string, error) {
	listing, ok := r.listings[listingID]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	user, ok := r.users.users[userID]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	if !user.HasFavorite(listingID) {
		return nil, errors.Conflict("Listing is not in favorites")
	}
	kept := user.Favorites[:0]
	for _, id := range user.Favorites {
		if id != listingID {
			kept = append(kept, id)
		}
	}
	user.Favorites = kept
	if listing.Statistics.Favorites > 0 {
		listing.Statistics.Favorites--
	}
	return append([]string(nil), user.Favorites...), nil
}

func (r *fakeListingRepo) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	count := 0
	for _, listing := range r.listings {
		if listing.Status == entity.ListingStatusActive &&
			listing.ExpiresAt != nil && !listing.ExpiresAt.After(now) {
			listing.Status = entity.ListingStatusExpired
			count++
		}
	}
	return count, nil
}

type fakeConversationRepo struct {
	conversations map[string]*entity.Conversation
	messages      map[string]*entity.Message
	nextID        int
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[string]*entity.Message),
	}
}

func (r *fakeConversationRepo) Create(ctx context.Context, conversation *entity.Conversation) error {
	r.nextID++
	conversation.ID = fmt.Sprintf("conv-%d", r.nextID)
	conversation.CreatedAt = time.Now()
	clone := *conversation
	r.conversations[conversation.ID] = &clone
	return nil
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	conversation, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	clone := *conversation
	return &clone, nil
}

func (r *fakeConversationRepo) FindByListingAndParticipants(ctx context.Context, listingID, userA, userB string) (*entity.Conversation, error) {
	for _, c := range r.conversations {
		if c.ListingID == listingID && c.HasParticipant(userA) && c.HasParticipant(userB) {
			clone := *c
			return &clone, nil
		}
	}
	return nil, errors.NotFound("Conversation", nil)
}

func (r *fakeConversationRepo) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	var out []*entity.Conversation
	for _, c := range r.conversations {
		if c.HasParticipant(userID) {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) Update(ctx context.Context, conversation *entity.Conversation) error {
	if _, ok := r.conversations[conversation.ID]; !ok {
		return errors.NotFound("Conversation", nil)
	}
	clone := *conversation
	r.conversations[conversation.ID] = &clone
	return nil
}

func (r *fakeConversationRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	conversation, ok := r.conversations[message.ConversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}

	r.nextID++
	message.ID = fmt.Sprintf("msg-%d", r.nextID)
	message.CreatedAt = time.Now()
	clone := *message
	r.messages[message.ID] = &clone

	conversation.LastMessage = &entity.LastMessage{
		Content:  message.Content,
		SenderID: message.SenderID,
		SentAt:   message.CreatedAt,
	}
	conversation.IsActive = true
	conversation.UpdatedAt = message.CreatedAt
	return nil
}

func (r *fakeConversationRepo) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	var all []*entity.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			clone := *m
			all = append(all, &clone)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *fakeConversationRepo) MarkMessagesRead(ctx context.Context, conversationID, receiverID string, now time.Time) (int, error) {
	count := 0
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.ReceiverID == receiverID && !m.IsRead {
			m.IsRead = true
			m.ReadAt = &now
			count++
		}
	}
	return count, nil
}

func (r *fakeConversationRepo) GetMessageByID(ctx context.Context, id string) (*entity.Message, error) {
	message, ok := r.messages[id]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	clone := *message
	if message.Offer != nil {
		offer := *message.Offer
		clone.Offer = &offer
	}
	return &clone, nil
}

func (r *fakeConversationRepo) UpdateMessage(ctx context.Context, message *entity.Message) error {
	if _, ok := r.messages[message.ID]; !ok {
		return errors.NotFound("Message", nil)
	}
	clone := *message
	if message.Offer != nil {
		offer := *message.Offer
		clone.Offer = &offer
	}
	r.messages[message.ID] = &clone
	return nil
}

type fakePaymentRepo struct {
	payments map[string]*entity.Payment
	listings *fakeListingRepo
	nextID   int
}

func newFakePaymentRepo(listings *fakeListingRepo) *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string]*entity.Payment), listings: listings}
}

func (r *fakePaymentRepo) Create(ctx context.Context, pay *entity.Payment) error {
	r.nextID++
	pay.ID = fmt.Sprintf("pay-%d", r.nextID)
	pay.CreatedAt = time.Now()
	clone := *pay
	r.payments[pay.ID] = &clone
	return nil
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, id string) (*entity.Payment, error) {
	pay, ok := r.payments[id]
	if !ok {
		return nil, errors.NotFound("Payment", nil)
	}
	clone := *pay
	return &clone, nil
}

func (r *fakePaymentRepo) GetByTransactionID(ctx context.Context, transactionID string) (*entity.Payment, error) {
	for _, p := range r.payments {
		if p.TransactionID == transactionID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, errors.NotFound("Payment", nil)
}

func (r *fakePaymentRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Payment, error) {
	var out []*entity.Payment
	for _, p := range r.payments {
		if p.UserID == userID {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) Update(ctx context.Context, pay *entity.Payment) error {
	if _, ok := r.payments[pay.ID]; !ok {
		return errors.NotFound("Payment", nil)
	}
	clone := *pay
	r.payments[pay.ID] = &clone
	return nil
}

func (r *fakePaymentRepo) ApplyCompletion(ctx context.Context, pay *entity.Payment, listing *entity.Listing) error {
	if err := r.Update(ctx, pay); err != nil {
		return err
	}
	return r.listings.Update(ctx, listing)
}

type fakeSubscriptionRepo struct {
	subscriptions map[string]*entity.Subscription
	nextID        int
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subscriptions: make(map[string]*entity.Subscription)}
}

func (r *fakeSubscriptionRepo) Create(ctx context.Context, subscription *entity.Subscription) error {
	r.nextID++
	subscription.ID = fmt.Sprintf("sub-%d", r.nextID)
	subscription.CreatedAt = time.Now()
	clone := *subscription
	r.subscriptions[subscription.ID] = &clone
	return nil
}

func (r *fakeSubscriptionRepo) GetByID(ctx context.Context, id string) (*entity.Subscription, error) {
	subscription, ok := r.subscriptions[id]
	if !ok {
		return nil, errors.NotFound("Subscription", nil)
	}
	clone := *subscription
	return &clone, nil
}

func (r *fakeSubscriptionRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Subscription, error) {
	var out []*entity.Subscription
	for _, s := range r.subscriptions {
		if s.UserID == userID {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) GetActiveByUser(ctx context.Context, userID string) (*entity.Subscription, error) {
	for _, s := range r.subscriptions {
		if s.UserID == userID && s.Status == entity.SubscriptionStatusActive {
			clone := *s
			return &clone, nil
		}
	}
	return nil, errors.NotFound("Subscription", nil)
}

func (r *fakeSubscriptionRepo) Update(ctx context.Context, subscription *entity.Subscription) error {
	if _, ok := r.subscriptions[subscription.ID]; !ok {
		return errors.NotFound("Subscription", nil)
	}
	clone := *subscription
	r.subscriptions[subscription.ID] = &clone
	return nil
}

// Outbound collaborators.

type fakeMailer struct {
	sent []string
	fail bool
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.fail {
		return fmt.Errorf("smtp unavailable")
	}
	m.sent = append(m.sent, to)
	return nil
}

type fakeSMS struct {
	sent []string
	fail bool
}

func (s *fakeSMS) Send(ctx context.Context, phone, message string) error {
	if s.fail {
		return fmt.Errorf("sms gateway unavailable")
	}
	s.sent = append(s.sent, phone)
	return nil
}

type fakeCharger struct {
	chargeID  string
	declined  bool
	signature string
	charges   int
}

func (c *fakeCharger) Charge(ctx context.Context, amount int64, currency, description string, card payment.Card) (string, error) {
	c.charges++
	if c.declined {
		return "", fmt.Errorf("card declined")
	}
	return c.chargeID, nil
}

func (c *fakeCharger) VerifyWebhookSignature(body []byte, signature string) bool {
	return signature == c.signature
}

type fakeStorage struct {
	uploads int
	fail    bool
}

func (s *fakeStorage) UploadFile(ctx context.Context, file io.Reader, contentType, folder, originalName string) (string, error) {
	if s.fail {
		return "", fmt.Errorf("bucket unavailable")
	}
	s.uploads++
	return fmt.Sprintf("https://storage.googleapis.com/test-bucket/%s/%d-%s", folder, s.uploads, originalName), nil
}

type fakeSigner struct{}

func (fakeSigner) Sign(userID string) (string, error) {
	return "token-" + userID, nil
}
