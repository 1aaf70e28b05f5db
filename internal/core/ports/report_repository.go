package ports

import (
	"context"

	"github.com/phonely/marketplace/internal/core/domain"
)

// ReportRepository defines persistence for moderation reports.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) error
	FindByID(ctx context.Context, id string) (*domain.Report, error)
	ListByStatus(ctx context.Context, status domain.ReportStatus, page, limit int) ([]domain.Report, int64, error)
	Update(ctx context.Context, report *domain.Report) error
}
