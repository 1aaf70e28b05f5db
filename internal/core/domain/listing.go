package domain

import (
	"errors"
	"time"
)

// ListingStatus represents the lifecycle state of a phone listing.
type ListingStatus string

const (
	ListingActive        ListingStatus = "active"
	ListingPendingReview ListingStatus = "pending_review"
	ListingSold          ListingStatus = "sold"
	ListingRemoved       ListingStatus = "removed"
)

// validListingTransitions defines the allowed state machine transitions.
var validListingTransitions = map[ListingStatus][]ListingStatus{
	ListingActive:        {ListingSold, ListingRemoved, ListingPendingReview},
	ListingPendingReview: {ListingActive, ListingRemoved},
}

var ErrListingNotFound = errors.New("listing not found")
var ErrInvalidListing = errors.New("invalid listing data")
var ErrInvalidTransition = errors.New("invalid status transition")
var ErrForbidden = errors.New("access forbidden")
var ErrTooManyImages = errors.New("too many images")
var ErrUnsupportedImage = errors.New("unsupported image type")
var ErrInspectionUnavailable = errors.New("inspection service unavailable")

// MaxListingImages caps how many photos a single listing may carry.
const MaxListingImages = 8

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s ListingStatus) CanTransitionTo(next ListingStatus) bool {
	for _, allowed := range validListingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Condition grades used by the marketplace for second-hand phones.
const (
	ConditionNew     = "new"
	ConditionLikeNew = "like_new"
	ConditionGood    = "good"
	ConditionFair    = "fair"
)

// ValidCondition reports whether the grade is one of the accepted values.
func ValidCondition(c string) bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair:
		return true
	}
	return false
}

// InspectionReport holds the opaque result of an external AI inspection run.
type InspectionReport struct {
	Grade       string    `json:"grade" bson:"grade"`
	Summary     string    `json:"summary" bson:"summary"`
	RequestedAt time.Time `json:"requested_at" bson:"requested_at"`
}

// Listing is the core marketplace aggregate: one used phone offered for sale.
type Listing struct {
	ID          string            `json:"id" bson:"_id,omitempty"`
	SellerID    string            `json:"seller_id" bson:"seller_id"`
	Brand       string            `json:"brand" bson:"brand"`
	Model       string            `json:"model" bson:"model"`
	Condition   string            `json:"condition" bson:"condition"`
	PricePKR    int64             `json:"price_pkr" bson:"price_pkr"`
	Description string            `json:"description" bson:"description"`
	Images      []string          `json:"images" bson:"images"`
	Status      ListingStatus     `json:"status" bson:"status"`
	Inspection  *InspectionReport `json:"inspection,omitempty" bson:"inspection,omitempty"`
	CreatedAt   time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" bson:"updated_at"`
}
