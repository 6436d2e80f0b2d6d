package hass

import (
	"encoding/json"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
)

// State is the connection lifecycle of the upstream client.
type State int32

const (
	Disconnected State = iota
	Connecting
	AuthPending
	Syncing
	SteadyState
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case AuthPending:
		return "auth_pending"
	case Syncing:
		return "syncing"
	case SteadyState:
		return "steady"
	}
	return "disconnected"
}

const (
	typeAuthRequired = "auth_required"
	typeAuth         = "auth"
	typeAuthOK       = "auth_ok"
	typeAuthInvalid  = "auth_invalid"
	typeResult       = "result"
	typeEvent        = "event"
	typePing         = "ping"
	typePong         = "pong"
	typeCallService  = "call_service"

	eventStateChanged = "state_changed"
)

// frame is any inbound message. Only the fields of its type are set.
type frame struct {
	ID        int             `json:"id,omitempty"`
	Type      string          `json:"type"`
	HAVersion string          `json:"ha_version,omitempty"`
	Message   string          `json:"message,omitempty"`
	Success   *bool           `json:"success,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *resultError    `json:"error,omitempty"`
	Event     *event          `json:"event,omitempty"`
}

type resultError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type event struct {
	EventType string    `json:"event_type"`
	Data      eventData `json:"data"`
}

type eventData struct {
	EntityID string         `json:"entity_id"`
	OldState *model.HAState `json:"old_state"`
	NewState *model.HAState `json:"new_state"`
}

type authRequest struct {
	Type        string `json:"type"`
	AccessToken string `json:"access_token"`
}

type request struct {
	ID        int    `json:"id"`
	Type      string `json:"type"`
	EventType string `json:"event_type,omitempty"`
}

type callServiceRequest struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
	model.ServiceCall
}
