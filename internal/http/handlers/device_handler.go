// Catalogue admin HTTP handlers.
//
// This file exposes REST endpoints for device documents, used by catalogue
// authoring and operations tooling:
//   - GET    /devices        (list, paginated)
//   - GET    /devices/{id}   (fetch one)
//   - PUT    /devices/{id}   (whole-document upsert)
//   - DELETE /devices/{id}   (remove)
//
// Handlers are transport-thin: they validate input, call the catalogue
// service, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthmanual/go-skill-backend/internal/domain"
	"github.com/healthmanual/go-skill-backend/internal/repo"
	"github.com/healthmanual/go-skill-backend/internal/services"
	"github.com/healthmanual/go-skill-backend/internal/utils"
)

// CatalogueService defines device document operations consumed by the
// admin HTTP layer.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type CatalogueService interface {
	// Get fetches one device document by id.
	Get(ctx context.Context, id string) (*domain.Device, error)
	// ListPage returns a page of devices and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Device, int64, error)
	// Upsert validates and stores a whole device document under id.
	Upsert(ctx context.Context, id string, d domain.Device) (*domain.Device, error)
	// Delete removes a device document by id.
	Delete(ctx context.Context, id string) error
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListDevicesResponse wraps a page of devices and pagination information.
type ListDevicesResponse struct {
	Devices    []domain.Device `json:"devices"`
	Pagination Pagination      `json:"pagination"`
}

// UpsertDeviceRequest is the JSON payload for a whole-document upsert. The
// id in the URL always wins over any id embedded in the body.
type UpsertDeviceRequest struct {
	ID      string                `json:"id"`
	Intents []domain.DeviceIntent `json:"intents"`
}

// ListDevices godoc
//
//	@Summary      List device documents
//	@Tags         devices
//	@Produce      json
//	@Param        page      query int false "page (1-based)"
//	@Param        page_size query int false "page size (max 100)"
//	@Success      200 {object} ListDevicesResponse
//	@Failure      500 {object} ErrorResponse
//	@Router       /devices [get]
func (h *Handlers) ListDevices(c *gin.Context) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	pageSize := utils.AtoiDefault(c.Query("page_size"), 20)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := h.catalogueSvc.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list devices")
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListDevicesResponse{
		Devices: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetDevice godoc
//
//	@Summary      Fetch one device document
//	@Tags         devices
//	@Produce      json
//	@Param        id path string true "device id"
//	@Success      200 {object} domain.Device
//	@Failure      404 {object} ErrorResponse
//	@Router       /devices/{id} [get]
func (h *Handlers) GetDevice(c *gin.Context) {
	d, err := h.catalogueSvc.Get(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		ok(c, http.StatusOK, d)
	case errors.Is(err, repo.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "device not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not fetch device")
	}
}

// UpsertDevice godoc
//
//	@Summary      Insert or replace a device document
//	@Tags         devices
//	@Accept       json
//	@Produce      json
//	@Param        id   path string              true "device id (5 lowercase letters)"
//	@Param        body body UpsertDeviceRequest true "device document"
//	@Success      200 {object} domain.Device
//	@Failure      400 {object} ErrorResponse
//	@Router       /devices/{id} [put]
func (h *Handlers) UpsertDevice(c *gin.Context) {
	var req UpsertDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid device JSON")
		return
	}

	stored, err := h.catalogueSvc.Upsert(c.Request.Context(), c.Param("id"), domain.Device{
		ID:      req.ID,
		Intents: req.Intents,
	})
	switch {
	case err == nil:
		ok(c, http.StatusOK, stored)
	case errors.Is(err, services.ErrInvalidDeviceID),
		errors.Is(err, services.ErrInvalidIntentName):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeUpsertFailed, "could not store device")
	}
}

// DeleteDevice godoc
//
//	@Summary      Delete a device document
//	@Tags         devices
//	@Produce      json
//	@Param        id path string true "device id"
//	@Success      204 {string} string ""
//	@Failure      404 {object} ErrorResponse
//	@Router       /devices/{id} [delete]
func (h *Handlers) DeleteDevice(c *gin.Context) {
	err := h.catalogueSvc.Delete(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, repo.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "device not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, "could not delete device")
	}
}
