package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/phonely/marketplace/internal/core/domain"
	"github.com/phonely/marketplace/internal/core/ports"
)

type stubConvRepo struct {
	convs map[string]*domain.Conversation
}

func newStubConvRepo() *stubConvRepo {
	return &stubConvRepo{convs: make(map[string]*domain.Conversation)}
}

func (r *stubConvRepo) Create(_ context.Context, conv *domain.Conversation) error {
	clone := *conv
	r.convs[conv.ID] = &clone
	return nil
}

func (r *stubConvRepo) FindByID(_ context.Context, id string) (*domain.Conversation, error) {
	c, ok := r.convs[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubConvRepo) FindByListingAndBuyer(_ context.Context, listingID, buyerID string) (*domain.Conversation, error) {
	for _, c := range r.convs {
		if c.ListingID == listingID && c.BuyerID == buyerID {
			clone := *c
			return &clone, nil
		}
	}
	return nil, domain.ErrConversationNotFound
}

func (r *stubConvRepo) ListByParticipant(_ context.Context, userID string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	for _, c := range r.convs {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubConvRepo) TouchLastMessage(_ context.Context, id string, at time.Time) error {
	if c, ok := r.convs[id]; ok {
		c.LastMessageAt = at
	}
	return nil
}

type stubMessageRepo struct {
	messages []*domain.Message
}

func (r *stubMessageRepo) Insert(_ context.Context, msg *domain.Message) error {
	clone := *msg
	r.messages = append(r.messages, &clone)
	return nil
}

func (r *stubMessageRepo) FindByID(_ context.Context, id string) (*domain.Message, error) {
	for _, m := range r.messages {
		if m.ID == id {
			clone := *m
			if m.Offer != nil {
				offer := *m.Offer
				clone.Offer = &offer
			}
			return &clone, nil
		}
	}
	return nil, domain.ErrMessageNotFound
}

func (r *stubMessageRepo) List(_ context.Context, conversationID string, _, _ int) ([]domain.Message, int64, error) {
	var out []domain.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubMessageRepo) UpdateOfferStatus(_ context.Context, messageID string, status domain.OfferStatus) error {
	for _, m := range r.messages {
		if m.ID == messageID && m.Offer != nil {
			m.Offer.Status = status
			return nil
		}
	}
	return domain.ErrMessageNotFound
}

func (r *stubMessageRepo) MarkRead(_ context.Context, conversationID, readerID string) ([]string, error) {
	var touched []string
	for _, m := range r.messages {
		if m.ConversationID != conversationID {
			continue
		}
		already := false
		for _, id := range m.ReadBy {
			if id == readerID {
				already = true
				break
			}
		}
		if !already {
			m.ReadBy = append(m.ReadBy, readerID)
			touched = append(touched, m.ID)
		}
	}
	return touched, nil
}

type recordingNotifier struct {
	created []*domain.Message
	read    []string
}

func (n *recordingNotifier) MessageCreated(msg *domain.Message) {
	n.created = append(n.created, msg)
}

func (n *recordingNotifier) MessagesRead(_, _ string, messageIDs []string) {
	n.read = append(n.read, messageIDs...)
}

type chatFixture struct {
	svc      *ChatService
	convs    *stubConvRepo
	messages *stubMessageRepo
	listings *stubListingRepo
	notify   *recordingNotifier
}

func newChatFixture(t *testing.T) (*chatFixture, *domain.Conversation) {
	t.Helper()

	listings := newStubListingRepo()
	listing := &domain.Listing{
		SellerID:  "seller_1",
		Brand:     "Apple",
		Model:     "iPhone 12",
		Condition: domain.ConditionGood,
		PricePKR:  150000,
		Status:    domain.ListingActive,
	}
	if err := listings.Create(context.Background(), listing); err != nil {
		t.Fatalf("seed listing failed: %v", err)
	}

	f := &chatFixture{
		convs:    newStubConvRepo(),
		messages: &stubMessageRepo{},
		listings: listings,
		notify:   &recordingNotifier{},
	}
	f.svc = NewChatService(f.convs, f.messages, f.listings, f.notify, zerolog.Nop())

	conv, err := f.svc.OpenConversation(context.Background(), listing.ID, "buyer_1")
	if err != nil {
		t.Fatalf("open conversation failed: %v", err)
	}
	return f, conv
}

func TestChatService_OpenConversation_Idempotent(t *testing.T) {
	f, conv := newChatFixture(t)

	again, err := f.svc.OpenConversation(context.Background(), conv.ListingID, "buyer_1")
	if err != nil {
		t.Fatalf("second open failed: %v", err)
	}
	if again.ID != conv.ID {
		t.Fatalf("expected same conversation, got %s and %s", conv.ID, again.ID)
	}
	if len(f.convs.convs) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(f.convs.convs))
	}
}

func TestChatService_OpenConversation_SellerCannotBuyOwnPhone(t *testing.T) {
	f, conv := newChatFixture(t)

	if _, err := f.svc.OpenConversation(context.Background(), conv.ListingID, "seller_1"); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestChatService_SendMessage(t *testing.T) {
	f, conv := newChatFixture(t)

	msg, err := f.svc.SendMessage(context.Background(), ports.SendMessageInput{
		ConversationID: conv.ID,
		SenderID:       "buyer_1",
		Type:           domain.MessagePlain,
		Content:        "Is this still available?",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if msg.ID == "" {
		t.Fatalf("expected server-assigned id")
	}
	if len(msg.ReadBy) != 1 || msg.ReadBy[0] != "buyer_1" {
		t.Fatalf("sender must pre-read their own message, got %v", msg.ReadBy)
	}
	if len(f.notify.created) != 1 {
		t.Fatalf("expected 1 fanout, got %d", len(f.notify.created))
	}

	stored, _ := f.convs.FindByID(context.Background(), conv.ID)
	if !stored.LastMessageAt.Equal(msg.CreatedAt) {
		t.Fatalf("expected last_message_at bump")
	}
}

func TestChatService_SendMessage_NonParticipant(t *testing.T) {
	f, conv := newChatFixture(t)

	if _, err := f.svc.SendMessage(context.Background(), ports.SendMessageInput{
		ConversationID: conv.ID,
		SenderID:       "stranger",
		Type:           domain.MessagePlain,
		Content:        "hi",
	}); err != domain.ErrNotParticipant {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestChatService_SendMessage_SystemTypeRejected(t *testing.T) {
	f, conv := newChatFixture(t)

	if _, err := f.svc.SendMessage(context.Background(), ports.SendMessageInput{
		ConversationID: conv.ID,
		SenderID:       "buyer_1",
		Type:           domain.MessageSystem,
		Content:        "fake system note",
	}); err == nil {
		t.Fatalf("expected error for client-sent system message")
	}
}

func sendOffer(t *testing.T, f *chatFixture, convID string, price int64) *domain.Message {
	t.Helper()
	msg, err := f.svc.SendMessage(context.Background(), ports.SendMessageInput{
		ConversationID: convID,
		SenderID:       "buyer_1",
		Type:           domain.MessageOffer,
		OfferPricePKR:  price,
	})
	if err != nil {
		t.Fatalf("send offer failed: %v", err)
	}
	return msg
}

func TestChatService_RespondToOffer_Accept(t *testing.T) {
	f, conv := newChatFixture(t)
	offer := sendOffer(t, f, conv.ID, 130000)

	updated, companion, err := f.svc.RespondToOffer(context.Background(), ports.RespondToOfferInput{
		MessageID: offer.ID,
		ActorID:   "seller_1",
		Action:    ports.OfferActionAccept,
	})
	if err != nil {
		t.Fatalf("respond failed: %v", err)
	}
	if updated.Offer.Status != domain.OfferAccepted {
		t.Fatalf("expected accepted, got %s", updated.Offer.Status)
	}
	if companion.Type != domain.MessageSystem {
		t.Fatalf("expected system companion, got %s", companion.Type)
	}

	// A pending offer can be answered exactly once.
	if _, _, err := f.svc.RespondToOffer(context.Background(), ports.RespondToOfferInput{
		MessageID: offer.ID,
		ActorID:   "seller_1",
		Action:    ports.OfferActionReject,
	}); err != domain.ErrOfferClosed {
		t.Fatalf("expected ErrOfferClosed, got %v", err)
	}
}

func TestChatService_RespondToOffer_Counter(t *testing.T) {
	f, conv := newChatFixture(t)
	offer := sendOffer(t, f, conv.ID, 130000)

	updated, companion, err := f.svc.RespondToOffer(context.Background(), ports.RespondToOfferInput{
		MessageID:       offer.ID,
		ActorID:         "seller_1",
		Action:          ports.OfferActionCounter,
		CounterPricePKR: 140000,
	})
	if err != nil {
		t.Fatalf("counter failed: %v", err)
	}
	if updated.Offer.Status != domain.OfferCountered {
		t.Fatalf("expected countered, got %s", updated.Offer.Status)
	}
	if companion.Type != domain.MessageOffer || companion.Offer == nil {
		t.Fatalf("expected fresh offer companion, got %+v", companion)
	}
	if companion.Offer.Status != domain.OfferPending || companion.Offer.PricePKR != 140000 {
		t.Fatalf("unexpected counter offer: %+v", companion.Offer)
	}
}

func TestChatService_RespondToOffer_SenderCannotAnswerOwnOffer(t *testing.T) {
	f, conv := newChatFixture(t)
	offer := sendOffer(t, f, conv.ID, 130000)

	if _, _, err := f.svc.RespondToOffer(context.Background(), ports.RespondToOfferInput{
		MessageID: offer.ID,
		ActorID:   "buyer_1",
		Action:    ports.OfferActionAccept,
	}); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestChatService_RespondToOffer_PlainMessage(t *testing.T) {
	f, conv := newChatFixture(t)

	msg, _ := f.svc.SendMessage(context.Background(), ports.SendMessageInput{
		ConversationID: conv.ID,
		SenderID:       "buyer_1",
		Type:           domain.MessagePlain,
		Content:        "hello",
	})

	if _, _, err := f.svc.RespondToOffer(context.Background(), ports.RespondToOfferInput{
		MessageID: msg.ID,
		ActorID:   "seller_1",
		Action:    ports.OfferActionAccept,
	}); err != domain.ErrNotAnOffer {
		t.Fatalf("expected ErrNotAnOffer, got %v", err)
	}
}

func TestChatService_MarkRead(t *testing.T) {
	f, conv := newChatFixture(t)

	for _, content := range []string{"one", "two"} {
		if _, err := f.svc.SendMessage(context.Background(), ports.SendMessageInput{
			ConversationID: conv.ID,
			SenderID:       "buyer_1",
			Type:           domain.MessagePlain,
			Content:        content,
		}); err != nil {
			t.Fatalf("send failed: %v", err)
		}
	}

	ids, err := f.svc.MarkRead(context.Background(), conv.ID, "seller_1")
	if err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 touched messages, got %v", ids)
	}

	// Second pass touches nothing and fans out nothing new.
	fanouts := len(f.notify.read)
	ids, err = f.svc.MarkRead(context.Background(), conv.ID, "seller_1")
	if err != nil {
		t.Fatalf("second mark read failed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no touched messages, got %v", ids)
	}
	if len(f.notify.read) != fanouts {
		t.Fatalf("expected no extra read fanout")
	}
}
