package ports

import (
	"context"

	"github.com/phonely/marketplace/internal/core/domain"
)

// SendMessageInput carries one outbound chat message.
type SendMessageInput struct {
	ConversationID string
	SenderID       string
	Type           domain.MessageType
	Content        string
	// OfferPricePKR is required when Type is "offer".
	OfferPricePKR int64
	// PhoneNumber is required when Type is "phone_share".
	PhoneNumber string
}

// OfferAction is a response to a pending offer message.
type OfferAction string

const (
	OfferActionAccept  OfferAction = "accept"
	OfferActionReject  OfferAction = "reject"
	OfferActionCounter OfferAction = "counter"
)

// RespondToOfferInput answers a pending offer.
type RespondToOfferInput struct {
	MessageID string
	ActorID   string
	Action    OfferAction
	// CounterPricePKR is required when Action is "counter".
	CounterPricePKR int64
}

// ListMessagesResult is a page of a conversation's history.
type ListMessagesResult struct {
	Items []domain.Message
	Total int64
	Page  int
	Limit int
}

// ChatService defines use-case operations for conversations, messages and the
// offer thread layered onto them.
type ChatService interface {
	OpenConversation(ctx context.Context, listingID, buyerID string) (*domain.Conversation, error)
	GetConversation(ctx context.Context, id, actorID string) (*domain.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error)
	SendMessage(ctx context.Context, input SendMessageInput) (*domain.Message, error)
	ListMessages(ctx context.Context, conversationID, actorID string, page, limit int) (*ListMessagesResult, error)
	// RespondToOffer returns the updated offer message plus a companion
	// message: a system note for accept/reject, a fresh pending offer for
	// a counter.
	RespondToOffer(ctx context.Context, input RespondToOfferInput) (*domain.Message, *domain.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID string) ([]string, error)
}
