// Package services – CatalogueService
//
// This file implements the catalogue admin operations behind the REST
// surface used by authoring and operations tooling. Unlike the generic
// gateway, which trusts its narrow caller set, the admin surface enforces
// the catalogue-authoring shape rules before anything reaches the store:
// device ids are exactly 5 lowercase letters and intent names are
// UPPER_SNAKE.
package services

import (
	"context"
	"errors"
	"regexp"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/healthmanual/go-skill-backend/internal/domain"
	"github.com/healthmanual/go-skill-backend/internal/repo"
)

// Authoring shape rules.
var (
	deviceIDRE   = regexp.MustCompile(`^[a-z]{5}$`)
	intentNameRE = regexp.MustCompile(`^[A-Z]+(_[A-Z]+)*$`)
)

var (
	// ErrInvalidDeviceID is returned when a device id is not exactly
	// 5 lowercase letters.
	ErrInvalidDeviceID = errors.New("device id must be 5 lowercase letters")

	// ErrInvalidIntentName is returned when an intent name is not
	// UPPER_SNAKE shaped.
	ErrInvalidIntentName = errors.New("intent name must be upper snake case")
)

// CatalogueService provides admin-level device document operations.
type CatalogueService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewCatalogueService constructs a CatalogueService over the given handle.
func NewCatalogueService(db *gorm.DB) *CatalogueService {
	return &CatalogueService{DB: db}
}

// Get fetches one device document by id.
func (s *CatalogueService) Get(ctx context.Context, id string) (*domain.Device, error) {
	return repo.GetDevice(ctx, s.DB, id)
}

// ListPage returns a page of devices in id order and the total count.
// It applies defaults for invalid page/pageSize.
func (s *CatalogueService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Device, int64, error) {
	tr := otel.Tracer("services/CatalogueService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountDevices(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Device{}, 0, nil
	}

	items, err := repo.ListDevicesPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Upsert validates the document against the authoring shape rules and
// stores it wholesale under id. The caller-supplied id overrides any id
// embedded in the document.
func (s *CatalogueService) Upsert(ctx context.Context, id string, d domain.Device) (*domain.Device, error) {
	tr := otel.Tracer("services/CatalogueService")
	ctx, span := tr.Start(ctx, "Upsert",
		trace.WithAttributes(attribute.String("device.id", id)),
	)
	defer span.End()

	if !deviceIDRE.MatchString(id) {
		return nil, ErrInvalidDeviceID
	}
	for _, it := range d.Intents {
		if !intentNameRE.MatchString(it.Name) {
			return nil, ErrInvalidIntentName
		}
	}
	return repo.UpsertDevice(ctx, s.DB, id, d)
}

// Delete removes a device document by id.
func (s *CatalogueService) Delete(ctx context.Context, id string) error {
	return repo.DeleteDevice(ctx, s.DB, id)
}
