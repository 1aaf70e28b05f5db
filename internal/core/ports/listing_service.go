package ports

import (
	"context"
	"io"

	"github.com/phonely/marketplace/internal/core/domain"
)

// CreateListingInput carries all data needed to publish a new listing.
type CreateListingInput struct {
	SellerID    string
	Brand       string
	Model       string
	Condition   string
	PricePKR    int64
	Description string
}

// UpdateListingInput mutates the seller-editable fields. Nil pointers leave
// the current value untouched.
type UpdateListingInput struct {
	ListingID   string
	ActorID     string
	PricePKR    *int64
	Description *string
	Condition   *string
}

// ListListingsResult is the paged result of a List query.
type ListListingsResult struct {
	Items      []domain.Listing
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ImageUpload is one multipart part handed to AttachImage.
type ImageUpload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

// ListingService defines use-case operations for phone listings.
type ListingService interface {
	CreateListing(ctx context.Context, input CreateListingInput) (*domain.Listing, error)
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	ListListings(ctx context.Context, filter ListingFilter) (*ListListingsResult, error)
	UpdateListing(ctx context.Context, input UpdateListingInput) (*domain.Listing, error)
	AttachImage(ctx context.Context, listingID, actorID string, upload ImageUpload) (*domain.Listing, error)
	MarkSold(ctx context.Context, listingID, actorID string) (*domain.Listing, error)
	// RemoveListing is available to the owner and to admins (moderation).
	RemoveListing(ctx context.Context, listingID, actorID, actorRole string) error
	RequestInspection(ctx context.Context, listingID, actorID string) (*domain.Listing, error)
}
