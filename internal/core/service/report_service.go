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

type ReportService struct {
	reports  ports.ReportRepository
	listings ports.ListingService
	log      zerolog.Logger
}

func NewReportService(reports ports.ReportRepository, listings ports.ListingService, log zerolog.Logger) *ReportService {
	return &ReportService{reports: reports, listings: listings, log: log}
}

// FileReport records a moderation complaint in open state.
func (s *ReportService) FileReport(ctx context.Context, input ports.FileReportInput) (*domain.Report, error) {
	if input.ReporterID == "" || input.TargetID == "" || input.Reason == "" {
		return nil, fmt.Errorf("file report: reporter, target and reason are required")
	}
	if input.TargetType != domain.TargetListing && input.TargetType != domain.TargetUser {
		return nil, fmt.Errorf("file report: unknown target type %q", input.TargetType)
	}

	report := &domain.Report{
		ID:         uuid.NewString(),
		ReporterID: input.ReporterID,
		TargetType: input.TargetType,
		TargetID:   input.TargetID,
		Reason:     input.Reason,
		Details:    input.Details,
		Status:     domain.ReportOpen,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	s.log.Info().Str("report_id", report.ID).Str("target_type", string(input.TargetType)).Msg("report filed")
	return report, nil
}

func (s *ReportService) ListReports(ctx context.Context, status domain.ReportStatus, page, limit int) (*ports.ListReportsResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	items, total, err := s.reports.ListByStatus(ctx, status, page, limit)
	if err != nil {
		return nil, err
	}
	return &ports.ListReportsResult{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// ResolveReport closes an open report. Upholding a listing report also takes
// the listing down through the moderation removal path.
func (s *ReportService) ResolveReport(ctx context.Context, input ports.ResolveReportInput) (*domain.Report, error) {
	report, err := s.reports.FindByID(ctx, input.ReportID)
	if err != nil {
		return nil, err
	}
	if report.Status != domain.ReportOpen {
		return nil, domain.ErrReportClosed
	}

	if input.Uphold && report.TargetType == domain.TargetListing {
		if err := s.listings.RemoveListing(ctx, report.TargetID, input.AdminID, domain.RoleAdmin); err != nil {
			// A listing already sold or removed is not a moderation failure.
			s.log.Warn().Err(err).Str("listing_id", report.TargetID).Msg("upheld report: listing removal skipped")
		}
	}

	now := time.Now().UTC()
	report.Status = domain.ReportDismissed
	if input.Uphold {
		report.Status = domain.ReportUpheld
	}
	report.ResolutionNote = input.Note
	report.ResolvedAt = &now

	if err := s.reports.Update(ctx, report); err != nil {
		return nil, err
	}

	s.log.Info().Str("report_id", report.ID).Str("status", string(report.Status)).Msg("report resolved")
	return report, nil
}
