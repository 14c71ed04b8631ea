// Package domain defines the persistence model for the intent catalogue:
// devices and their canned spoken responses. Devices are mapped with GORM
// and stored as whole documents, one row per device.
package domain

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Device represents one health device's spoken-answer catalogue. A device is
// addressed by a 5-letter lowercase id and owns an ordered list of intents.
// Devices are written wholesale (upsert, never patched) and read by id or by
// filter query.
//
// Fields:
//   - ID: 5-letter lowercase identifier, primary key (partition key upstream).
//   - Intents: ordered intent list, persisted as a JSON document in a single
//     column so that a device row behaves like one document.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Device struct {
	ID        string         `json:"id"      gorm:"type:char(5);primaryKey"`
	Intents   []DeviceIntent `json:"intents" gorm:"serializer:json;type:text"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
}

// TableName returns the database table name for Device.
func (Device) TableName() string { return "devices" }

// String renders the device as its JSON document form.
func (d Device) String() string {
	b, err := json.Marshal(d)
	if err != nil {
		return ""
	}
	return string(b)
}

// DeviceIntent is one question/answer pairing owned by exactly one device.
// It has no identity outside its device document.
//
// Fields:
//   - Name: intent name; canonical form is UPPER_SNAKE, but legacy documents
//     may carry mixed case, so lookups must not re-case stored values.
//   - Response: the canned spoken reply.
type DeviceIntent struct {
	Name     string `json:"intent"`
	Response string `json:"response"`
}

// FindIntent returns the first intent whose name equals name exactly.
// The boolean result reports whether a match was found.
func (d Device) FindIntent(name string) (DeviceIntent, bool) {
	for _, it := range d.Intents {
		if it.Name == name {
			return it, true
		}
	}
	return DeviceIntent{}, false
}

// BeforeSave normalizes a nil intent list to an empty one so the stored
// document always carries an "intents" array.
func (d *Device) BeforeSave(tx *gorm.DB) error {
	if d.Intents == nil {
		d.Intents = []DeviceIntent{}
	}
	return nil
}
