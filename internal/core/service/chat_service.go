package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/phonely/marketplace/internal/core/domain"
	"github.com/phonely/marketplace/internal/core/ports"
)

// Notifier fans chat events out to connected clients. Implementations must
// not block: SendMessage is on the request path.
type Notifier interface {
	MessageCreated(msg *domain.Message)
	MessagesRead(conversationID, readerID string, messageIDs []string)
}

type noopNotifier struct{}

func (noopNotifier) MessageCreated(*domain.Message)        {}
func (noopNotifier) MessagesRead(string, string, []string) {}

type ChatService struct {
	convs    ports.ConversationRepository
	messages ports.MessageRepository
	listings ports.ListingRepository
	notify   Notifier
	log      zerolog.Logger
}

func NewChatService(
	convs ports.ConversationRepository,
	messages ports.MessageRepository,
	listings ports.ListingRepository,
	notify Notifier,
	log zerolog.Logger,
) *ChatService {
	if notify == nil {
		notify = noopNotifier{}
	}
	return &ChatService{convs: convs, messages: messages, listings: listings, notify: notify, log: log}
}

// OpenConversation starts (or returns the existing) thread between a buyer
// and the seller of a listing. Idempotent per (listing, buyer).
func (s *ChatService) OpenConversation(ctx context.Context, listingID, buyerID string) (*domain.Conversation, error) {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID == buyerID {
		return nil, domain.ErrForbidden
	}

	if existing, err := s.convs.FindByListingAndBuyer(ctx, listingID, buyerID); err == nil && existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	conv := &domain.Conversation{
		ID:            uuid.NewString(),
		ListingID:     listingID,
		BuyerID:       buyerID,
		SellerID:      listing.SellerID,
		CreatedAt:     now,
		LastMessageAt: now,
	}
	if err := s.convs.Create(ctx, conv); err != nil {
		return nil, err
	}

	s.log.Info().Str("conversation_id", conv.ID).Str("listing_id", listingID).Msg("conversation opened")
	return conv, nil
}

func (s *ChatService) GetConversation(ctx context.Context, id, actorID string) (*domain.Conversation, error) {
	conv, err := s.convs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(actorID) {
		return nil, domain.ErrNotParticipant
	}
	return conv, nil
}

func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	return s.convs.ListByParticipant(ctx, userID)
}

// SendMessage validates, persists and fans out one chat message. The id is
// always server-assigned.
func (s *ChatService) SendMessage(ctx context.Context, input ports.SendMessageInput) (*domain.Message, error) {
	conv, err := s.convs.FindByID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(input.SenderID) {
		return nil, domain.ErrNotParticipant
	}
	if !domain.ValidMessageType(input.Type) {
		return nil, fmt.Errorf("send message: clients may not send %q messages", input.Type)
	}

	msg := &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       input.SenderID,
		Type:           input.Type,
		Content:        input.Content,
		CreatedAt:      time.Now().UTC(),
		ReadBy:         []string{input.SenderID},
	}

	switch input.Type {
	case domain.MessageOffer:
		if input.OfferPricePKR <= 0 {
			return nil, fmt.Errorf("send message: offer price must be positive")
		}
		msg.Offer = &domain.Offer{PricePKR: input.OfferPricePKR, Status: domain.OfferPending}
	case domain.MessagePhoneShare:
		if input.PhoneNumber == "" {
			return nil, fmt.Errorf("send message: phone share requires a number")
		}
		msg.PhoneNumber = input.PhoneNumber
	}

	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.convs.TouchLastMessage(ctx, conv.ID, msg.CreatedAt); err != nil {
		s.log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("failed to bump last_message_at")
	}

	s.notify.MessageCreated(msg)
	return msg, nil
}

func (s *ChatService) ListMessages(ctx context.Context, conversationID, actorID string, page, limit int) (*ports.ListMessagesResult, error) {
	if _, err := s.GetConversation(ctx, conversationID, actorID); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	items, total, err := s.messages.List(ctx, conversationID, page, limit)
	if err != nil {
		return nil, err
	}
	return &ports.ListMessagesResult{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// RespondToOffer answers a pending offer. Only the counterparty of the offer's
// sender may respond, and a pending offer can be answered exactly once.
func (s *ChatService) RespondToOffer(ctx context.Context, input ports.RespondToOfferInput) (*domain.Message, *domain.Message, error) {
	offerMsg, err := s.messages.FindByID(ctx, input.MessageID)
	if err != nil {
		return nil, nil, err
	}
	if offerMsg.Type != domain.MessageOffer || offerMsg.Offer == nil {
		return nil, nil, domain.ErrNotAnOffer
	}

	conv, err := s.convs.FindByID(ctx, offerMsg.ConversationID)
	if err != nil {
		return nil, nil, err
	}
	if !conv.HasParticipant(input.ActorID) {
		return nil, nil, domain.ErrNotParticipant
	}
	if input.ActorID == offerMsg.SenderID {
		return nil, nil, domain.ErrForbidden
	}

	var next domain.OfferStatus
	switch input.Action {
	case ports.OfferActionAccept:
		next = domain.OfferAccepted
	case ports.OfferActionReject:
		next = domain.OfferRejected
	case ports.OfferActionCounter:
		next = domain.OfferCountered
		if input.CounterPricePKR <= 0 {
			return nil, nil, fmt.Errorf("respond to offer: counter price must be positive")
		}
	default:
		return nil, nil, fmt.Errorf("respond to offer: unknown action %q", input.Action)
	}

	if !offerMsg.Offer.Status.CanTransitionTo(next) {
		return nil, nil, domain.ErrOfferClosed
	}

	if err := s.messages.UpdateOfferStatus(ctx, offerMsg.ID, next); err != nil {
		return nil, nil, err
	}
	offerMsg.Offer.Status = next

	// Companion message: a system note for accept/reject, a fresh offer for
	// a counter.
	var companion *domain.Message
	now := time.Now().UTC()
	if input.Action == ports.OfferActionCounter {
		companion = &domain.Message{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			SenderID:       input.ActorID,
			Type:           domain.MessageOffer,
			Content:        fmt.Sprintf("Counter offer: PKR %d", input.CounterPricePKR),
			Offer:          &domain.Offer{PricePKR: input.CounterPricePKR, Status: domain.OfferPending},
			CreatedAt:      now,
			ReadBy:         []string{input.ActorID},
		}
	} else {
		companion = &domain.Message{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			SenderID:       input.ActorID,
			Type:           domain.MessageSystem,
			Content:        fmt.Sprintf("Offer of PKR %d was %s", offerMsg.Offer.PricePKR, next),
			CreatedAt:      now,
			ReadBy:         []string{input.ActorID},
		}
	}

	if err := s.messages.Insert(ctx, companion); err != nil {
		return nil, nil, err
	}
	if err := s.convs.TouchLastMessage(ctx, conv.ID, now); err != nil {
		s.log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("failed to bump last_message_at")
	}

	s.notify.MessageCreated(companion)
	s.log.Info().
		Str("conversation_id", conv.ID).
		Str("message_id", offerMsg.ID).
		Str("action", string(input.Action)).
		Msg("offer answered")

	return offerMsg, companion, nil
}

// MarkRead flags every unread message in the conversation as read by readerID
// and returns the ids that were touched.
func (s *ChatService) MarkRead(ctx context.Context, conversationID, readerID string) ([]string, error) {
	if _, err := s.GetConversation(ctx, conversationID, readerID); err != nil {
		return nil, err
	}

	ids, err := s.messages.MarkRead(ctx, conversationID, readerID)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		s.notify.MessagesRead(conversationID, readerID, ids)
	}
	return ids, nil
}
