// Package bus links the three marketpilot processes (content watcher,
// background service, popup) over a websocket with a typed request/response
// envelope. The underlying transport gives one response per request; requests
// are correlated by id so a single connection can have several in flight.
package bus

import (
	"encoding/json"

	"github.com/oklog/ulid/v2"
)

// MessageType discriminates the payload shape of a request. Every request
// type has exactly one response envelope shape; there is no streaming.
type MessageType string

const (
	ProductDetected MessageType = "PRODUCT_DETECTED"
	OpenPopup       MessageType = "OPEN_POPUP"
	Optimize        MessageType = "OPTIMIZE"
	GetAlerts       MessageType = "GET_ALERTS"
	GetTracked      MessageType = "GET_TRACKED"
	TrackProduct    MessageType = "TRACK_PRODUCT"
)

// Request is one wire frame from a client to the background. A notification
// carries an empty ID and never gets a response.
type Request struct {
	ID      string          `json:"id,omitempty"`
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the uniform reply envelope. Exactly one Response answers each
// Request that carried an ID.
type Response struct {
	ID    string          `json:"id"`
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

func newRequestID() string {
	return ulid.Make().String()
}
