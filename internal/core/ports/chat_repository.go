package ports

import (
	"context"
	"time"

	"github.com/phonely/marketplace/internal/core/domain"
)

// ConversationRepository defines persistence for conversation threads.
type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	FindByID(ctx context.Context, id string) (*domain.Conversation, error)
	// FindByListingAndBuyer supports idempotent OpenConversation.
	FindByListingAndBuyer(ctx context.Context, listingID, buyerID string) (*domain.Conversation, error)
	ListByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error)
	TouchLastMessage(ctx context.Context, id string, at time.Time) error
}

// MessageRepository defines persistence for chat messages.
type MessageRepository interface {
	Insert(ctx context.Context, msg *domain.Message) error
	FindByID(ctx context.Context, id string) (*domain.Message, error)
	List(ctx context.Context, conversationID string, page, limit int) ([]domain.Message, int64, error)
	UpdateOfferStatus(ctx context.Context, messageID string, status domain.OfferStatus) error
	// MarkRead adds readerID to read_by on every unread message in the
	// conversation and returns the ids it touched.
	MarkRead(ctx context.Context, conversationID, readerID string) ([]string, error)
}
