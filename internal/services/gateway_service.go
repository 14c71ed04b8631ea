// Package services – GatewayService
//
// This file implements the data access gateway: a transport-agnostic request
// processor that accepts a typed envelope, validates it against a fixed
// schema, dispatches to one of four store operations, and normalizes every
// store outcome into a tagged Result. No store fault ever escapes Process as
// a panic or raw error; the only failure signal is a Result with ER status.
//
// Observability: Process is OpenTelemetry-instrumented; spans carry the
// caller source, method, and request type.
package services

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/healthmanual/go-skill-backend/internal/domain"
	"github.com/healthmanual/go-skill-backend/internal/query"
	"github.com/healthmanual/go-skill-backend/internal/repo"
)

// Envelope methods and request types accepted by the gateway schema.
const (
	MethodGet = "GET"
	MethodPut = "PUT"

	RequestTypeDevice  = "DEVICE"
	RequestTypeDevices = "DEVICES"
	RequestTypeIntent  = "INTENT"
)

// WireErrorTag is the fixed-length prefix marking a failed gateway response
// on the wire. Callers detect failure by checking these two characters, so
// the tag must be preserved bit-for-bit.
const WireErrorTag = "ER"

// Envelope is the generic request wrapper between callers (the voice front
// door, the catalogue-authoring tooling) and the gateway. Field names match
// the legacy wire format exactly.
type Envelope struct {
	// Source is a free-text caller identity, used for diagnostics only.
	Source string `json:"source"`
	// Method selects read (GET) or whole-document write (PUT).
	Method string `json:"method"`
	// RequestType narrows a GET to DEVICE, DEVICES, or INTENT.
	RequestType string `json:"request-type,omitempty"`
	// Query is the store filter string (GET) or the target device id (PUT).
	Query *string `json:"request-query"`
	// Payload is the device document JSON, present on PUT only.
	Payload *string `json:"payload"`
}

// Status tags a gateway Result as success or failure. A Result carries a
// payload or a diagnostic, never both.
type Status int

const (
	// StatusOK marks a successful operation with a payload.
	StatusOK Status = iota
	// StatusError marks a failed operation with a diagnostic detail.
	StatusError
)

// Result is the tagged outcome of one gateway operation.
type Result struct {
	Status Status
	// Detail is the human-readable diagnostic, set on StatusError only.
	Detail string

	// Exactly one of the payload fields is set on StatusOK, matching the
	// request type that produced it.
	Device  *domain.Device
	Devices []domain.Device
	Intent  *domain.DeviceIntent
}

// OK reports whether the result carries a payload.
func (r Result) OK() bool { return r.Status == StatusOK }

// errResult builds a failed Result with a diagnostic detail.
func errResult(detail string) Result {
	return Result{Status: StatusError, Detail: detail}
}

// GatewayService processes generic data-access envelopes against the
// catalogue store.
type GatewayService struct {
	// DB is the GORM handle used for persistence. The underlying client
	// and pool are shared across requests.
	DB *gorm.DB
}

// NewGatewayService constructs a GatewayService over the given handle.
func NewGatewayService(db *gorm.DB) *GatewayService {
	return &GatewayService{DB: db}
}

// Process validates the envelope and executes the selected store operation.
// Schema violations and store faults of any kind are reported through the
// returned Result; Process never panics and never returns a raw store error.
func (s *GatewayService) Process(ctx context.Context, env Envelope) Result {
	tr := otel.Tracer("services/GatewayService")
	ctx, span := tr.Start(ctx, "Process",
		trace.WithAttributes(
			attribute.String("envelope.source", env.Source),
			attribute.String("envelope.method", env.Method),
			attribute.String("envelope.request_type", env.RequestType),
		),
	)
	defer span.End()

	if detail, ok := validateEnvelope(env); !ok {
		return errResult(detail)
	}

	switch env.Method {
	case MethodGet:
		q := deref(env.Query)
		switch env.RequestType {
		case RequestTypeDevice:
			return s.getDevice(ctx, q)
		case RequestTypeDevices:
			return s.getDevices(ctx, q)
		default: // RequestTypeIntent, guaranteed by validateEnvelope
			return s.getIntent(ctx, q)
		}
	default: // MethodPut, guaranteed by validateEnvelope
		return s.putDevice(ctx, deref(env.Query), deref(env.Payload))
	}
}

// validateEnvelope checks the fixed envelope schema. The request type and
// the payload are mutually determined by the method: a GET names a request
// type and carries no payload, a PUT carries a payload and no request type.
func validateEnvelope(env Envelope) (detail string, ok bool) {
	switch env.Method {
	case MethodGet:
		switch env.RequestType {
		case RequestTypeDevice, RequestTypeDevices, RequestTypeIntent:
		default:
			return "invalid request envelope: unknown request-type", false
		}
		if env.Payload != nil {
			return "invalid request envelope: payload not allowed on GET", false
		}
		if env.Query == nil {
			return "invalid request envelope: missing request-query", false
		}
	case MethodPut:
		if env.RequestType != "" {
			return "invalid request envelope: request-type not allowed on PUT", false
		}
		if env.Query == nil {
			return "invalid request envelope: missing request-query", false
		}
		if env.Payload == nil {
			return "invalid request envelope: missing payload", false
		}
	default:
		return "invalid request envelope: unknown method", false
	}
	return "", true
}

// getDevice fetches exactly one document by id; the query string is the id.
func (s *GatewayService) getDevice(ctx context.Context, id string) Result {
	d, err := repo.GetDevice(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return errResult("No device found")
	}
	if err != nil {
		return errResult(err.Error())
	}
	return Result{Status: StatusOK, Device: d}
}

// getDevices runs the query as a device filter expression. Zero matches are
// a failure, never an OK result with an empty sequence.
func (s *GatewayService) getDevices(ctx context.Context, filter string) Result {
	f, err := query.ParseDevicesFilter(filter)
	if err != nil {
		return errResult(err.Error())
	}
	devices, err := repo.QueryDevices(ctx, s.DB, f)
	if err != nil {
		return errResult(err.Error())
	}
	if len(devices) == 0 {
		return errResult("No devices found")
	}
	return Result{Status: StatusOK, Devices: devices}
}

// getIntent runs the query as an intent-scoped filter expression. The store
// convention is at most one match; extra matches are not deduplicated and
// the first is taken silently.
func (s *GatewayService) getIntent(ctx context.Context, filter string) Result {
	f, err := query.ParseIntentFilter(filter)
	if err != nil {
		return errResult(err.Error())
	}
	it, err := repo.QueryIntent(ctx, s.DB, f)
	if errors.Is(err, repo.ErrNotFound) {
		return errResult("No intent found")
	}
	if err != nil {
		return errResult(err.Error())
	}
	return Result{Status: StatusOK, Intent: it}
}

// putDevice deserializes the payload and upserts it under the envelope's
// target id. The caller-supplied id always overrides any id embedded in the
// payload, so a document can never be written to the wrong partition.
func (s *GatewayService) putDevice(ctx context.Context, id, payload string) Result {
	var d domain.Device
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return errResult("Invalid device JSON")
	}
	stored, err := repo.UpsertDevice(ctx, s.DB, id, d)
	if err != nil {
		return errResult(err.Error())
	}
	return Result{Status: StatusOK, Device: stored}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
