package domain

import (
	"errors"
	"time"
)

// ReportStatus is the moderation state of a filed report.
type ReportStatus string

const (
	ReportOpen      ReportStatus = "open"
	ReportDismissed ReportStatus = "dismissed"
	ReportUpheld    ReportStatus = "upheld"
)

// ReportTarget names what kind of entity a report points at.
type ReportTarget string

const (
	TargetListing ReportTarget = "listing"
	TargetUser    ReportTarget = "user"
)

var ErrReportNotFound = errors.New("report not found")
var ErrReportClosed = errors.New("report already resolved")

// Report is a user-filed moderation complaint, resolved by an admin.
type Report struct {
	ID             string       `json:"id" bson:"_id,omitempty"`
	ReporterID     string       `json:"reporter_id" bson:"reporter_id"`
	TargetType     ReportTarget `json:"target_type" bson:"target_type"`
	TargetID       string       `json:"target_id" bson:"target_id"`
	Reason         string       `json:"reason" bson:"reason"`
	Details        string       `json:"details,omitempty" bson:"details,omitempty"`
	Status         ReportStatus `json:"status" bson:"status"`
	ResolutionNote string       `json:"resolution_note,omitempty" bson:"resolution_note,omitempty"`
	CreatedAt      time.Time    `json:"created_at" bson:"created_at"`
	ResolvedAt     *time.Time   `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
}
