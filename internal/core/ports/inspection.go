package ports

import (
	"context"

	"github.com/phonely/marketplace/internal/core/domain"
)

// InspectionClient calls the external AI inspection service. The service is an
// opaque collaborator reached over one REST call; its verdict is stored on the
// listing as-is.
type InspectionClient interface {
	Inspect(ctx context.Context, listing *domain.Listing) (*domain.InspectionReport, error)
}
