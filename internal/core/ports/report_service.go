package ports

import (
	"context"

	"github.com/phonely/marketplace/internal/core/domain"
)

// FileReportInput is a user-filed moderation complaint.
type FileReportInput struct {
	ReporterID string
	TargetType domain.ReportTarget
	TargetID   string
	Reason     string
	Details    string
}

// ResolveReportInput is an admin decision on an open report.
type ResolveReportInput struct {
	ReportID string
	AdminID  string
	// Uphold true closes the report as upheld and, for listing targets,
	// removes the listing. False dismisses.
	Uphold bool
	Note   string
}

// ListReportsResult is a page of reports.
type ListReportsResult struct {
	Items []domain.Report
	Total int64
	Page  int
	Limit int
}

// ReportService defines moderation use-cases.
type ReportService interface {
	FileReport(ctx context.Context, input FileReportInput) (*domain.Report, error)
	ListReports(ctx context.Context, status domain.ReportStatus, page, limit int) (*ListReportsResult, error)
	ResolveReport(ctx context.Context, input ResolveReportInput) (*domain.Report, error)
}
