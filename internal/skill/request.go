// Package skill defines the voice-platform wire contract: the inbound
// request envelope, the spoken response envelope, and the classification
// of requests into lifecycle kinds and intent sub-kinds.
package skill

import "encoding/json"

// Request type discriminators used by the voice platform.
const (
	TypeLaunchRequest       = "LaunchRequest"
	TypeSessionEndedRequest = "SessionEndedRequest"
	TypeIntentRequest       = "IntentRequest"
)

// Built-in intent names answered locally, without touching storage.
const (
	IntentNameCancel   = "AMAZON.CancelIntent"
	IntentNameStop     = "AMAZON.StopIntent"
	IntentNameFallback = "AMAZON.FallbackIntent"
)

// Request is the inbound voice-platform request envelope.
type Request struct {
	Version string      `json:"version"`
	Session Session     `json:"session"`
	Request RequestBody `json:"request"`
}

// Session carries the per-session metadata, including the application
// identifier used for origin validation.
type Session struct {
	New         bool        `json:"new"`
	SessionID   string      `json:"sessionId,omitempty"`
	Application Application `json:"application"`
}

// Application identifies the skill that generated the request.
type Application struct {
	ApplicationID string `json:"applicationId"`
}

// RequestBody is the type-discriminated inner request.
type RequestBody struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Intent    Intent `json:"intent,omitempty"`
	// Reason is set on SessionEndedRequest only.
	Reason string `json:"reason,omitempty"`
}

// Intent names the matched intent; slot data is carried but unused here.
type Intent struct {
	Name  string          `json:"name"`
	Slots map[string]Slot `json:"slots,omitempty"`
}

// Slot is one captured slot value.
type Slot struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Kind is the closed set of request lifecycle stages.
type Kind int

const (
	// KindUnknown marks a request whose type discriminator is not recognized.
	KindUnknown Kind = iota
	// KindLaunch is the session-opening request.
	KindLaunch
	// KindSessionEnded terminates the session.
	KindSessionEnded
	// KindIntent carries a named intent to answer.
	KindIntent
)

// Kind classifies the request by its type discriminator.
func (r Request) Kind() Kind {
	switch r.Request.Type {
	case TypeLaunchRequest:
		return KindLaunch
	case TypeSessionEndedRequest:
		return KindSessionEnded
	case TypeIntentRequest:
		return KindIntent
	default:
		return KindUnknown
	}
}

// IntentKind is the closed set of intent sub-kinds.
type IntentKind int

const (
	// IntentGeneric is any intent answered from the catalogue.
	IntentGeneric IntentKind = iota
	// IntentCancel and IntentStop end the session with a farewell.
	IntentCancel
	IntentStop
	// IntentFallback apologizes and keeps the session open.
	IntentFallback
)

// ClassifyIntent maps a platform intent name onto its sub-kind.
func ClassifyIntent(name string) IntentKind {
	switch name {
	case IntentNameCancel:
		return IntentCancel
	case IntentNameStop:
		return IntentStop
	case IntentNameFallback:
		return IntentFallback
	default:
		return IntentGeneric
	}
}

// Response is the outbound envelope returned to the voice platform.
type Response struct {
	Version  string       `json:"version"`
	Response ResponseBody `json:"response"`
}

// ResponseBody carries the spoken text and the session flag.
type ResponseBody struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	ShouldEndSession bool          `json:"shouldEndSession"`
}

// OutputSpeech is a plain-text spoken reply.
type OutputSpeech struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Tell builds a plain-text spoken response.
func Tell(text string, endSession bool) *Response {
	return &Response{
		Version: "1.0",
		Response: ResponseBody{
			OutputSpeech:     &OutputSpeech{Type: "PlainText", Text: text},
			ShouldEndSession: endSession,
		},
	}
}

// Parse decodes a raw request body. An empty or unparseable body yields an
// error; no partial request is ever returned.
func Parse(raw []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
