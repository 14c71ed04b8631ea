package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/healthmanual/go-skill-backend/internal/domain"
	"github.com/healthmanual/go-skill-backend/internal/skill"
)

const testSkillID = "amzn1.ask.skill.test"

// ----- Fake gateway -----

type fakeGateway struct {
	mu    sync.Mutex
	calls []Envelope

	result Result
	delay  time.Duration
}

func (g *fakeGateway) Process(ctx context.Context, env Envelope) Result {
	g.mu.Lock()
	g.calls = append(g.calls, env)
	g.mu.Unlock()
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	return g.result
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func snapshotOf(devices ...domain.Device) Result {
	return Result{Status: StatusOK, Devices: devices}
}

func newTestSkillService(gw CatalogueGateway) *SkillService {
	return NewSkillService(gw, testSkillID)
}

func rawRequest(t *testing.T, appID, reqType, intentName string) []byte {
	t.Helper()
	req := skill.Request{
		Version: "1.0",
		Session: skill.Session{Application: skill.Application{ApplicationID: appID}},
		Request: skill.RequestBody{Type: reqType},
	}
	if intentName != "" {
		req.Request.Intent = skill.Intent{Name: intentName}
	}
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return b
}

func speech(t *testing.T, resp *skill.Response) (string, bool) {
	t.Helper()
	if resp == nil || resp.Response.OutputSpeech == nil {
		t.Fatalf("response carries no speech: %+v", resp)
	}
	return resp.Response.OutputSpeech.Text, resp.Response.ShouldEndSession
}

// ----- origin check -----

func TestHandle_InvalidApplicationID_DroppedBeforeGateway(t *testing.T) {
	gw := &fakeGateway{result: snapshotOf()}
	svc := newTestSkillService(gw)

	raw := rawRequest(t, "amzn1.ask.skill.other", skill.TypeIntentRequest, "istatGET_HOURS")
	resp, err := svc.Handle(context.Background(), raw)
	if resp != nil || !errors.Is(err, ErrInvalidApplication) {
		t.Fatalf("expected ErrInvalidApplication, got resp=%v err=%v", resp, err)
	}
	if gw.callCount() != 0 {
		t.Fatalf("gateway must not be invoked for a foreign application id")
	}
}

func TestHandle_EmptyAndMalformedBodies(t *testing.T) {
	gw := &fakeGateway{result: snapshotOf()}
	svc := newTestSkillService(gw)

	for _, raw := range [][]byte{nil, {}, []byte("not json")} {
		resp, err := svc.Handle(context.Background(), raw)
		if resp != nil || !errors.Is(err, ErrMalformedRequest) {
			t.Fatalf("Handle(%q): expected ErrMalformedRequest, got resp=%v err=%v", raw, resp, err)
		}
	}
	if gw.callCount() != 0 {
		t.Fatalf("gateway must not be invoked for unparseable bodies")
	}
}

func TestHandle_UnknownRequestType(t *testing.T) {
	gw := &fakeGateway{result: snapshotOf()}
	svc := newTestSkillService(gw)

	raw := rawRequest(t, testSkillID, "SomethingElse", "")
	resp, err := svc.Handle(context.Background(), raw)
	if resp != nil || !errors.Is(err, ErrMalformedRequest) {
		t.Fatalf("expected ErrMalformedRequest, got resp=%v err=%v", resp, err)
	}
}

// ----- lifecycle branches -----

func TestHandle_LaunchRequest(t *testing.T) {
	gw := &fakeGateway{result: snapshotOf()}
	svc := newTestSkillService(gw)

	resp, err := svc.Handle(context.Background(), rawRequest(t, testSkillID, skill.TypeLaunchRequest, ""))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text, end := speech(t, resp)
	if text != "Health manual has launched" || end {
		t.Fatalf("unexpected launch reply: text=%q end=%v", text, end)
	}
}

func TestHandle_SessionEndedRequest(t *testing.T) {
	gw := &fakeGateway{result: snapshotOf()}
	svc := newTestSkillService(gw)

	resp, err := svc.Handle(context.Background(), rawRequest(t, testSkillID, skill.TypeSessionEndedRequest, ""))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text, end := speech(t, resp)
	if text != "Goodbye!" || !end {
		t.Fatalf("unexpected session-end reply: text=%q end=%v", text, end)
	}
}

func TestHandle_BuiltInIntents_NoLookup(t *testing.T) {
	cases := []struct {
		name string
		text string
		end  bool
	}{
		{skill.IntentNameCancel, "Goodbye!", true},
		{skill.IntentNameStop, "Goodbye!", true},
		{skill.IntentNameFallback, "Sorry, I didn't understand that.", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			gw := &fakeGateway{result: snapshotOf()}
			svc := newTestSkillService(gw)

			resp, err := svc.Handle(context.Background(), rawRequest(t, testSkillID, skill.TypeIntentRequest, c.name))
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			text, end := speech(t, resp)
			if text != c.text || end != c.end {
				t.Fatalf("unexpected reply: text=%q end=%v", text, end)
			}
		})
	}
}

// ----- catalogue lookups -----

func TestHandle_GenericIntent_AnswersFromCatalogue(t *testing.T) {
	gw := &fakeGateway{result: snapshotOf(domain.Device{
		ID: "istat",
		Intents: []domain.DeviceIntent{
			{Name: "OPENHOURS", Response: "Open nine to five."},
		},
	})}
	svc := newTestSkillService(gw)

	resp, err := svc.Handle(context.Background(), rawRequest(t, testSkillID, skill.TypeIntentRequest, "istat_OPENHOURS"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text, end := speech(t, resp)
	if text != "Open nine to five." || end {
		t.Fatalf("unexpected lookup reply: text=%q end=%v", text, end)
	}

	// The snapshot request goes through the gateway as a DEVICES read.
	if gw.callCount() != 1 {
		t.Fatalf("expected one gateway call, got %d", gw.callCount())
	}
	env := gw.calls[0]
	if env.Method != MethodGet || env.RequestType != RequestTypeDevices || env.Query == nil || *env.Query != "SELECT * FROM c" {
		t.Fatalf("unexpected snapshot envelope: %+v", env)
	}
}

func TestHandle_GenericIntent_DeviceIDCaseInsensitive(t *testing.T) {
	// Snapshot documents may carry legacy uppercase ids; the derived key is
	// lowercase and must still match.
	gw := &fakeGateway{result: snapshotOf(domain.Device{
		ID:      "ISTAT",
		Intents: []domain.DeviceIntent{{Name: "OPENHOURS", Response: "ok"}},
	})}
	svc := newTestSkillService(gw)

	resp, err := svc.Handle(context.Background(), rawRequest(t, testSkillID, skill.TypeIntentRequest, "IstatXOPENHOURS"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if text, _ := speech(t, resp); text != "ok" {
		t.Fatalf("unexpected reply: %q", text)
	}
}

func TestHandle_GenericIntent_Misses(t *testing.T) {
	snapshot := snapshotOf(domain.Device{
		ID:      "istat",
		Intents: []domain.DeviceIntent{{Name: "OPENHOURS", Response: "ok"}},
	})

	cases := []struct {
		name   string
		intent string
	}{
		{"unknown device", "pumps_OPENHOURS"},
		{"unknown intent on known device", "istat_UNKNOWN"},
		{"intent name case mismatch", "istat_openhours"},
		{"name too short for key", "ist"},
		{"device-only name", "istat"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			gw := &fakeGateway{result: snapshot}
			svc := newTestSkillService(gw)

			resp, err := svc.Handle(context.Background(), rawRequest(t, testSkillID, skill.TypeIntentRequest, c.intent))
			if resp != nil || !errors.Is(err, ErrNoResponse) {
				t.Fatalf("expected ErrNoResponse, got resp=%v err=%v", resp, err)
			}
		})
	}
}

func TestHandle_GenericIntent_SnapshotFailureIsAMiss(t *testing.T) {
	gw := &fakeGateway{result: errResult("No devices found")}
	svc := newTestSkillService(gw)

	resp, err := svc.Handle(context.Background(), rawRequest(t, testSkillID, skill.TypeIntentRequest, "istat_OPENHOURS"))
	if resp != nil || !errors.Is(err, ErrNoResponse) {
		t.Fatalf("expected ErrNoResponse on snapshot failure, got resp=%v err=%v", resp, err)
	}
}

func TestHandle_SnapshotOverlapsSlowGateway(t *testing.T) {
	// Branches that never consult the catalogue return without waiting for
	// the fetch to finish.
	gw := &fakeGateway{result: snapshotOf(), delay: 300 * time.Millisecond}
	svc := newTestSkillService(gw)

	start := time.Now()
	resp, err := svc.Handle(context.Background(), rawRequest(t, testSkillID, skill.TypeLaunchRequest, ""))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if elapsed := time.Since(start); elapsed >= gw.delay {
		t.Fatalf("launch reply blocked on the snapshot fetch: %v", elapsed)
	}
	if text, _ := speech(t, resp); text != "Health manual has launched" {
		t.Fatalf("unexpected reply: %q", text)
	}
}

func TestNewSkillService_DefaultTimeout(t *testing.T) {
	svc := NewSkillService(&fakeGateway{}, testSkillID)
	if svc.SnapshotTimeout != 5*time.Second {
		t.Fatalf("default snapshot timeout = %v", svc.SnapshotTimeout)
	}
}
