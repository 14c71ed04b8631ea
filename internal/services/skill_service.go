// Package services – SkillService
//
// This file implements the voice-platform front door. It authenticates the
// request origin, classifies the request into a lifecycle kind, answers the
// built-in intents locally, and resolves every other intent against a
// catalogue snapshot fetched through the data access gateway.
//
// The snapshot fetch is started before classification so that by the time a
// lookup is actually needed the data is usually already available. Branches
// that never consult the catalogue do not wait for it, so their latency is
// unaffected by store latency. The fetch is never cancelled; a branch that
// turns out not to need it simply leaves the buffered result unread.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/healthmanual/go-skill-backend/internal/domain"
	"github.com/healthmanual/go-skill-backend/internal/query"
	"github.com/healthmanual/go-skill-backend/internal/skill"
)

// Fixed spoken texts.
const (
	speechLaunch   = "Health manual has launched"
	speechGoodbye  = "Goodbye!"
	speechFallback = "Sorry, I didn't understand that."
)

// snapshotSource names the front door in envelopes it sends to the gateway.
const snapshotSource = "alexa-front-door"

// CatalogueGateway is the gateway contract required by the front door.
type CatalogueGateway interface {
	Process(ctx context.Context, env Envelope) Result
}

// SkillService handles inbound voice-platform requests end to end.
type SkillService struct {
	// Gateway executes catalogue reads on the lookup path.
	Gateway CatalogueGateway
	// SkillID is the registered application identifier; requests carrying
	// any other id are dropped before any side effect.
	SkillID string
	// SnapshotTimeout bounds the per-request catalogue fetch.
	SnapshotTimeout time.Duration
}

// NewSkillService constructs a SkillService with a default snapshot timeout.
func NewSkillService(gw CatalogueGateway, skillID string) *SkillService {
	return &SkillService{
		Gateway:         gw,
		SkillID:         skillID,
		SnapshotTimeout: 5 * time.Second,
	}
}

// snapshot is the outcome of one catalogue fetch.
type snapshot struct {
	devices []domain.Device
	err     error
}

// Handle validates, classifies, and answers one raw request body.
//
// It returns a spoken response, or one of the service errors:
// ErrMalformedRequest for an empty/unparseable body, ErrInvalidApplication
// when the origin check fails, and ErrNoResponse when the derived lookup
// key matches nothing. Store faults never escape; they surface as
// ErrNoResponse like any other miss.
func (s *SkillService) Handle(ctx context.Context, raw []byte) (*skill.Response, error) {
	tr := otel.Tracer("services/SkillService")
	ctx, span := tr.Start(ctx, "Handle")
	defer span.End()

	if len(raw) == 0 {
		return nil, ErrMalformedRequest
	}
	req, err := skill.Parse(raw)
	if err != nil {
		return nil, ErrMalformedRequest
	}

	// Authentication boundary: every request is checked before any side effect.
	if req.Session.Application.ApplicationID != s.SkillID {
		log.Info().Msg("dropped request, invalid applicationId")
		return nil, ErrInvalidApplication
	}

	// Start the catalogue fetch now so classification and fetch overlap.
	// The channel is buffered: if the branch taken never reads it, the
	// goroutine still completes and exits.
	snapCh := make(chan snapshot, 1)
	go s.fetchSnapshot(context.WithoutCancel(ctx), snapCh)

	switch req.Kind() {
	case skill.KindLaunch:
		return skill.Tell(speechLaunch, false), nil
	case skill.KindSessionEnded:
		return skill.Tell(speechGoodbye, true), nil
	case skill.KindIntent:
		return s.handleIntent(ctx, span, req.Request.Intent.Name, snapCh)
	default:
		return nil, ErrMalformedRequest
	}
}

// handleIntent sub-dispatches by intent name. Built-in intents are answered
// locally; anything else becomes a catalogue lookup.
func (s *SkillService) handleIntent(ctx context.Context, span trace.Span, name string, snapCh <-chan snapshot) (*skill.Response, error) {
	span.SetAttributes(attribute.String("intent.name", name))

	switch skill.ClassifyIntent(name) {
	case skill.IntentCancel, skill.IntentStop:
		return skill.Tell(speechGoodbye, true), nil
	case skill.IntentFallback:
		return skill.Tell(speechFallback, false), nil
	}

	key, ok := skill.SplitIntentName(name)
	if !ok {
		log.Warn().Str("intent", name).Msg("intent name too short for lookup key")
		return nil, ErrNoResponse
	}
	span.SetAttributes(
		attribute.String("lookup.device_id", key.DeviceID),
		attribute.String("lookup.intent", key.IntentName),
	)

	// First point at which the snapshot result is actually needed.
	snap := <-snapCh
	if snap.err != nil {
		// A failed or malformed snapshot is a miss, never a fault.
		log.Error().Err(snap.err).Msg("catalogue snapshot unavailable")
		return nil, ErrNoResponse
	}

	device, ok := findDevice(snap.devices, key.DeviceID)
	if !ok {
		return nil, ErrNoResponse
	}
	it, ok := device.FindIntent(key.IntentName)
	if !ok {
		return nil, ErrNoResponse
	}
	return skill.Tell(it.Response, false), nil
}

// fetchSnapshot pulls the full device catalogue through the gateway and
// delivers it on ch. It always sends exactly one value.
func (s *SkillService) fetchSnapshot(ctx context.Context, ch chan<- snapshot) {
	timeout := s.SnapshotTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	q := query.BuildDevicesQuery()
	res := s.Gateway.Process(ctx, Envelope{
		Source:      snapshotSource,
		Method:      MethodGet,
		RequestType: RequestTypeDevices,
		Query:       &q,
	})
	if !res.OK() {
		ch <- snapshot{err: errSnapshot(res.Detail)}
		return
	}
	ch <- snapshot{devices: res.Devices}
}

// findDevice matches a device id case-insensitively against the snapshot.
func findDevice(devices []domain.Device, id string) (domain.Device, bool) {
	for _, d := range devices {
		if strings.EqualFold(d.ID, id) {
			return d, true
		}
	}
	return domain.Device{}, false
}

// errSnapshot wraps a gateway diagnostic as an error value.
type errSnapshot string

func (e errSnapshot) Error() string { return string(e) }
