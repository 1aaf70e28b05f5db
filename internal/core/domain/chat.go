package domain

import (
	"errors"
	"time"
)

// MessageType classifies a chat message.
type MessageType string

const (
	MessagePlain      MessageType = "plain"
	MessageOffer      MessageType = "offer"
	MessagePhoneShare MessageType = "phone_share"
	MessageSystem     MessageType = "system"
)

// OfferStatus is the negotiation state carried by an offer message.
type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferAccepted  OfferStatus = "accepted"
	OfferRejected  OfferStatus = "rejected"
	OfferCountered OfferStatus = "countered"
)

// validOfferTransitions: a pending offer may be answered exactly once.
// Countering closes the offer; the counterparty makes a fresh offer message.
var validOfferTransitions = map[OfferStatus][]OfferStatus{
	OfferPending: {OfferAccepted, OfferRejected, OfferCountered},
}

var ErrConversationNotFound = errors.New("conversation not found")
var ErrMessageNotFound = errors.New("message not found")
var ErrNotParticipant = errors.New("not a conversation participant")
var ErrOfferClosed = errors.New("offer already answered")
var ErrNotAnOffer = errors.New("message is not an offer")

// CanTransitionTo reports whether the offer may move to the next status.
func (s OfferStatus) CanTransitionTo(next OfferStatus) bool {
	for _, allowed := range validOfferTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidMessageType reports whether t is a type clients may send.
// System messages are fabricated server-side only.
func ValidMessageType(t MessageType) bool {
	return t == MessagePlain || t == MessageOffer || t == MessagePhoneShare
}

// Conversation groups the messages between one buyer and the seller of one listing.
type Conversation struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	ListingID     string    `json:"listing_id" bson:"listing_id"`
	BuyerID       string    `json:"buyer_id" bson:"buyer_id"`
	SellerID      string    `json:"seller_id" bson:"seller_id"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	LastMessageAt time.Time `json:"last_message_at" bson:"last_message_at"`
}

// HasParticipant reports whether userID is one of the two parties.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID == c.BuyerID || userID == c.SellerID
}

// Offer holds the negotiation payload of an offer message.
type Offer struct {
	PricePKR int64       `json:"price_pkr" bson:"price_pkr"`
	Status   OfferStatus `json:"status" bson:"status"`
}

// Message is a single chat turn. IDs are always server-assigned; clients
// deduplicate by id and never fabricate their own.
type Message struct {
	ID             string      `json:"id" bson:"_id,omitempty"`
	ConversationID string      `json:"conversation_id" bson:"conversation_id"`
	SenderID       string      `json:"sender_id" bson:"sender_id"`
	Type           MessageType `json:"type" bson:"type"`
	Content        string      `json:"content" bson:"content"`
	Offer          *Offer      `json:"offer,omitempty" bson:"offer,omitempty"`
	PhoneNumber    string      `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
	CreatedAt      time.Time   `json:"created_at" bson:"created_at"`
	ReadBy         []string    `json:"read_by" bson:"read_by"`
}
