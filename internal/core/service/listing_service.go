package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/phonely/marketplace/internal/core/domain"
	"github.com/phonely/marketplace/internal/core/ports"
)

// allowedImageTypes is the upload content-type whitelist.
var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

type ListingService struct {
	repo       ports.ListingRepository
	images     ports.ImageStore
	inspection ports.InspectionClient
	log        zerolog.Logger
}

func NewListingService(repo ports.ListingRepository, images ports.ImageStore, inspection ports.InspectionClient, log zerolog.Logger) *ListingService {
	return &ListingService{repo: repo, images: images, inspection: inspection, log: log}
}

// CreateListing publishes a new phone listing in active state.
func (s *ListingService) CreateListing(ctx context.Context, input ports.CreateListingInput) (*domain.Listing, error) {
	if input.SellerID == "" || input.Brand == "" || input.Model == "" || input.PricePKR <= 0 {
		return nil, domain.ErrInvalidListing
	}
	if !domain.ValidCondition(input.Condition) {
		return nil, fmt.Errorf("%w: unknown condition %q", domain.ErrInvalidListing, input.Condition)
	}

	now := time.Now().UTC()
	listing := &domain.Listing{
		SellerID:    input.SellerID,
		Brand:       input.Brand,
		Model:       input.Model,
		Condition:   input.Condition,
		PricePKR:    input.PricePKR,
		Description: input.Description,
		Images:      []string{},
		Status:      domain.ListingActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		s.log.Error().Err(err).Msg("failed to create listing")
		return nil, err
	}

	s.log.Info().Str("listing_id", listing.ID).Str("seller_id", input.SellerID).Msg("listing created")
	return listing, nil
}

func (s *ListingService) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ListingService) ListListings(ctx context.Context, filter ports.ListingFilter) (*ports.ListListingsResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	// Public browsing only ever sees active listings unless a status filter
	// was set explicitly (admin views).
	if filter.Status == "" {
		filter.Status = domain.ListingActive
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &ports.ListListingsResult{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

// UpdateListing mutates seller-editable fields. Only the owner may update.
func (s *ListingService) UpdateListing(ctx context.Context, input ports.UpdateListingInput) (*domain.Listing, error) {
	listing, err := s.ownedListing(ctx, input.ListingID, input.ActorID)
	if err != nil {
		return nil, err
	}

	if input.PricePKR != nil {
		if *input.PricePKR <= 0 {
			return nil, fmt.Errorf("%w: price must be positive", domain.ErrInvalidListing)
		}
		listing.PricePKR = *input.PricePKR
	}
	if input.Description != nil {
		listing.Description = *input.Description
	}
	if input.Condition != nil {
		if !domain.ValidCondition(*input.Condition) {
			return nil, fmt.Errorf("%w: unknown condition %q", domain.ErrInvalidListing, *input.Condition)
		}
		listing.Condition = *input.Condition
	}
	listing.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// AttachImage stores one uploaded photo and appends its URL to the listing.
func (s *ListingService) AttachImage(ctx context.Context, listingID, actorID string, upload ports.ImageUpload) (*domain.Listing, error) {
	listing, err := s.ownedListing(ctx, listingID, actorID)
	if err != nil {
		return nil, err
	}

	if len(listing.Images) >= domain.MaxListingImages {
		return nil, domain.ErrTooManyImages
	}
	if _, ok := allowedImageTypes[upload.ContentType]; !ok {
		return nil, domain.ErrUnsupportedImage
	}

	url, err := s.images.Save(ctx, upload.Filename, upload.ContentType, upload.Reader)
	if err != nil {
		s.log.Error().Err(err).Str("listing_id", listingID).Msg("image store failed")
		return nil, fmt.Errorf("store image: %w", err)
	}

	listing.Images = append(listing.Images, url)
	listing.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, err
	}

	return listing, nil
}

// MarkSold transitions an active listing to sold. Owner only.
func (s *ListingService) MarkSold(ctx context.Context, listingID, actorID string) (*domain.Listing, error) {
	return s.transition(ctx, listingID, actorID, domain.ListingSold)
}

// RemoveListing takes a listing off the marketplace. The owner may remove
// their own listing; admins may remove any (moderation path).
func (s *ListingService) RemoveListing(ctx context.Context, listingID, actorID, actorRole string) error {
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.SellerID != actorID && actorRole != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	if !listing.Status.CanTransitionTo(domain.ListingRemoved) {
		return fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, listing.Status, domain.ListingRemoved)
	}

	listing.Status = domain.ListingRemoved
	listing.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, listing); err != nil {
		return err
	}

	s.log.Info().Str("listing_id", listingID).Str("actor_id", actorID).Msg("listing removed")
	return nil
}

// RequestInspection asks the external AI inspection service for a verdict and
// stores the opaque report on the listing.
func (s *ListingService) RequestInspection(ctx context.Context, listingID, actorID string) (*domain.Listing, error) {
	listing, err := s.ownedListing(ctx, listingID, actorID)
	if err != nil {
		return nil, err
	}

	if s.inspection == nil {
		return nil, domain.ErrInspectionUnavailable
	}

	report, err := s.inspection.Inspect(ctx, listing)
	if err != nil {
		s.log.Error().Err(err).Str("listing_id", listingID).Msg("inspection request failed")
		return nil, fmt.Errorf("request inspection: %w", err)
	}

	listing.Inspection = report
	listing.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *ListingService) transition(ctx context.Context, listingID, actorID string, next domain.ListingStatus) (*domain.Listing, error) {
	listing, err := s.ownedListing(ctx, listingID, actorID)
	if err != nil {
		return nil, err
	}
	if !listing.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, listing.Status, next)
	}

	listing.Status = next
	listing.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *ListingService) ownedListing(ctx context.Context, listingID, actorID string) (*domain.Listing, error) {
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != actorID {
		return nil, domain.ErrForbidden
	}
	return listing, nil
}
