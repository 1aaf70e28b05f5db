package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/phonely/marketplace/internal/core/domain"
	"github.com/phonely/marketplace/internal/core/ports"
)

type ReportHandler struct {
	reports ports.ReportService
}

func NewReportHandler(reports ports.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

type fileReportRequest struct {
	TargetType string `json:"target_type" validate:"required,oneof=listing user"`
	TargetID   string `json:"target_id"   validate:"required"`
	Reason     string `json:"reason"      validate:"required"`
	Details    string `json:"details"`
}

type resolveReportRequest struct {
	Uphold bool   `json:"uphold"`
	Note   string `json:"note"`
}

type listReportsQuery struct {
	Status string `query:"status"`
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
}

type listReportsResponse struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// File records a moderation complaint from the authenticated user.
func (h *ReportHandler) File(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req fileReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	report, err := h.reports.FileReport(c.Request().Context(), ports.FileReportInput{
		ReporterID: userID,
		TargetType: domain.ReportTarget(req.TargetType),
		TargetID:   req.TargetID,
		Reason:     req.Reason,
		Details:    req.Details,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, report)
}

// List pages the moderation queue. Admin only (enforced by RBAC middleware).
func (h *ReportHandler) List(c echo.Context) error {
	var q listReportsQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}

	result, err := h.reports.ListReports(c.Request().Context(), domain.ReportStatus(q.Status), q.Page, q.Limit)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, listReportsResponse{
		Items: result.Items,
		Total: result.Total,
		Page:  result.Page,
		Limit: result.Limit,
	})
}

// Resolve closes an open report. Admin only.
func (h *ReportHandler) Resolve(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req resolveReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	report, err := h.reports.ResolveReport(c.Request().Context(), ports.ResolveReportInput{
		ReportID: c.Param("id"),
		AdminID:  userID,
		Uphold:   req.Uphold,
		Note:     req.Note,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, report)
}
