package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/phonely/marketplace/internal/api/metrics"
	"github.com/phonely/marketplace/internal/core/ports"
)

type ListingHandler struct {
	listings ports.ListingService
}

func NewListingHandler(listings ports.ListingService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

// Create publishes a new listing owned by the authenticated seller.
func (h *ListingHandler) Create(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req createListingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	listing, err := h.listings.CreateListing(c.Request().Context(), ports.CreateListingInput{
		SellerID:    userID,
		Brand:       req.Brand,
		Model:       req.Model,
		Condition:   req.Condition,
		PricePKR:    req.PricePKR,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	metrics.ListingsCreatedTotal.WithLabelValues(listing.Condition).Inc()
	return respond(c, http.StatusCreated, listing)
}

// Get returns one listing by id. Public.
func (h *ListingHandler) Get(c echo.Context) error {
	listing, err := h.listings.GetListing(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, listing)
}

// List browses active listings with filters. Public.
func (h *ListingHandler) List(c echo.Context) error {
	var q listListingsQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}

	result, err := h.listings.ListListings(c.Request().Context(), ports.ListingFilter{
		Brand:       q.Brand,
		Condition:   q.Condition,
		MinPricePKR: q.MinPrice,
		MaxPricePKR: q.MaxPrice,
		Search:      q.Search,
		SellerID:    q.Seller,
		Page:        q.Page,
		Limit:       q.Limit,
	})
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, listListingsResponse{
		Items:      result.Items,
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages,
	})
}

// Update mutates seller-editable fields. Owner only.
func (h *ListingHandler) Update(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req updateListingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	listing, err := h.listings.UpdateListing(c.Request().Context(), ports.UpdateListingInput{
		ListingID:   c.Param("id"),
		ActorID:     userID,
		PricePKR:    req.PricePKR,
		Description: req.Description,
		Condition:   req.Condition,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, listing)
}

// UploadImage attaches one multipart photo to the listing. Owner only.
func (h *ListingHandler) UploadImage(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image file is required")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable image file")
	}
	defer src.Close()

	listing, err := h.listings.AttachImage(c.Request().Context(), c.Param("id"), userID, ports.ImageUpload{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Reader:      src,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, listing)
}

// MarkSold transitions the listing to sold. Owner only.
func (h *ListingHandler) MarkSold(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	listing, err := h.listings.MarkSold(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, listing)
}

// Remove takes the listing off the marketplace. Owner or admin.
func (h *ListingHandler) Remove(c echo.Context) error {
	userID, role, err := ctxClaims(c)
	if err != nil {
		return err
	}

	if err := h.listings.RemoveListing(c.Request().Context(), c.Param("id"), userID, role); err != nil {
		return err
	}
	return respond(c, http.StatusOK, nil)
}

// RequestInspection asks the external AI service for a condition verdict.
// Owner only.
func (h *ListingHandler) RequestInspection(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	listing, err := h.listings.RequestInspection(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, listing)
}
