// Package repo implements the data persistence layer for the intent
// catalogue, backed by GORM. This file provides repository functions for
// the Device document.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only document
// reads, filter queries, and whole-document writes.
//
// Error semantics:
//   - When a device (or intent) is not found, functions return
//     gorm.ErrRecordNotFound (also exported here as ErrNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/healthmanual/go-skill-backend/internal/domain"
	"github.com/healthmanual/go-skill-backend/internal/query"
)

// ErrNotFound is returned when a requested document does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetDevice fetches exactly one device document by id. If the document does
// not exist, it returns ErrNotFound.
func GetDevice(ctx context.Context, db *gorm.DB, id string) (*domain.Device, error) {
	var d domain.Device
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// QueryDevices runs a parsed device filter and returns zero or more
// documents in store iteration order (ascending id). An empty filter
// selects every device.
func QueryDevices(ctx context.Context, db *gorm.DB, f query.Filter) ([]domain.Device, error) {
	var out []domain.Device
	q := db.WithContext(ctx).Order("id")
	switch {
	case f.ID != "":
		q = q.Where("id = ?", f.ID)
	case f.IDPrefix != "":
		q = q.Where(`id LIKE ? ESCAPE '\'`, escapeLike(f.IDPrefix)+"%")
	}
	err := q.Find(&out).Error
	return out, err
}

// QueryIntent runs an intent-scoped filter: it selects the device by exact
// id, then scans its intent list for an exact name match. When the document
// holds more than one matching intent the first is taken silently. Zero
// matches (missing device or missing intent) yield ErrNotFound.
func QueryIntent(ctx context.Context, db *gorm.DB, f query.Filter) (*domain.DeviceIntent, error) {
	d, err := GetDevice(ctx, db, f.ID)
	if err != nil {
		return nil, err
	}
	it, ok := d.FindIntent(f.Intent)
	if !ok {
		return nil, ErrNotFound
	}
	return &it, nil
}

// UpsertDevice inserts or replaces the whole device document under id. The
// caller-supplied id always wins over any id embedded in the document, so a
// payload can never write to a different partition. Repeating an identical
// upsert observes the same stored document (last writer wins).
func UpsertDevice(ctx context.Context, db *gorm.DB, id string, d domain.Device) (*domain.Device, error) {
	d.ID = id
	d.UpdatedAt = time.Now().UTC()
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DeleteDevice removes a device document by id. If no rows are affected,
// it returns ErrNotFound.
func DeleteDevice(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Device{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountDevices returns the total number of device documents.
func CountDevices(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Device{}).
		Count(&total).Error
	return total, err
}

// ListDevicesPage returns a paginated slice of devices in id order.
// Use CountDevices to obtain the total for pagination metadata.
func ListDevicesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Device, error) {
	var out []domain.Device
	err := db.WithContext(ctx).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// escapeLike neutralizes LIKE wildcards in a literal prefix.
func escapeLike(s string) string {
	r := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			r = append(r, '\\')
		}
		r = append(r, s[i])
	}
	return string(r)
}
