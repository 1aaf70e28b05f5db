package ports

import (
	"context"
	"time"

	"github.com/phonely/marketplace/internal/core/domain"
)

// ListingFilter narrows a listing query. Zero values mean "no filter".
type ListingFilter struct {
	SellerID    string
	Brand       string
	Condition   string
	Status      domain.ListingStatus
	MinPricePKR int64
	MaxPricePKR int64
	Search      string
	CreatedFrom time.Time
	CreatedTo   time.Time
	Page        int
	Limit       int
}

// ListingRepository defines the persistence interface for listings.
type ListingRepository interface {
	Create(ctx context.Context, listing *domain.Listing) error
	FindByID(ctx context.Context, id string) (*domain.Listing, error)
	Update(ctx context.Context, listing *domain.Listing) error
	List(ctx context.Context, filter ListingFilter) ([]domain.Listing, int64, error)
}
