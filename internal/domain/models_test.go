package domain

import (
	"encoding/json"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableName(t *testing.T) {
	if (Device{}).TableName() != "devices" {
		t.Fatalf("Device.TableName() = %q; want %q", (Device{}).TableName(), "devices")
	}
}

func TestDevice_JSONDocumentShape(t *testing.T) {
	d := Device{
		ID: "istat",
		Intents: []DeviceIntent{
			{Name: "OPENHOURS", Response: "Open nine to five."},
		},
	}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	// Documents expose only id and intents; timestamps stay internal.
	if !strings.Contains(s, `"id":"istat"`) || !strings.Contains(s, `"intent":"OPENHOURS"`) || !strings.Contains(s, `"response":"Open nine to five."`) {
		t.Fatalf("unexpected document: %s", s)
	}
	if strings.Contains(s, "CreatedAt") || strings.Contains(s, "UpdatedAt") {
		t.Fatalf("timestamps must not leak into the document: %s", s)
	}

	if d.String() != s {
		t.Fatalf("String() should render the document form, got %q", d.String())
	}
}

func TestDevice_UnmarshalWireDocument(t *testing.T) {
	raw := `{"id":"istat","intents":[{"intent":"OPENHOURS","response":"Open nine to five."},{"intent":"CONTACT","response":"Call reception."}]}`
	var d Device
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.ID != "istat" || len(d.Intents) != 2 {
		t.Fatalf("unexpected device: %+v", d)
	}
	if d.Intents[1].Name != "CONTACT" || d.Intents[1].Response != "Call reception." {
		t.Fatalf("unexpected second intent: %+v", d.Intents[1])
	}
}

func TestFindIntent_ExactMatchOnly(t *testing.T) {
	d := Device{
		ID: "istat",
		Intents: []DeviceIntent{
			{Name: "OPENHOURS", Response: "first"},
			{Name: "OPENHOURS", Response: "second"},
			{Name: "Contact", Response: "legacy mixed case"},
		},
	}

	it, ok := d.FindIntent("OPENHOURS")
	if !ok || it.Response != "first" {
		t.Fatalf("expected first OPENHOURS pairing, got ok=%v it=%+v", ok, it)
	}

	// No case folding: legacy documents may carry mixed case and must be
	// matched exactly as stored.
	if _, ok := d.FindIntent("CONTACT"); ok {
		t.Fatalf("FindIntent must not fold case")
	}
	if it, ok := d.FindIntent("Contact"); !ok || it.Response != "legacy mixed case" {
		t.Fatalf("exact mixed-case lookup failed: ok=%v it=%+v", ok, it)
	}

	if _, ok := d.FindIntent("MISSING"); ok {
		t.Fatalf("expected miss for unknown name")
	}
	if _, ok := (Device{}).FindIntent("ANY"); ok {
		t.Fatalf("expected miss on empty device")
	}
}

func TestBeforeSave_NormalizesNilIntents(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Device{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	if err := db.Create(&Device{ID: "blank"}).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	var got Device
	if err := db.First(&got, "id = ?", "blank").Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Intents == nil {
		t.Fatalf("intents should round-trip as an empty list, got nil")
	}
	if !strings.Contains(got.String(), `"intents":[]`) {
		t.Fatalf("document must carry an intents array: %s", got.String())
	}
}
