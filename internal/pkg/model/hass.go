package model

import (
	"encoding/json"
	"maps"
	"strconv"
	"strings"
)

// Attributes is the loosely typed attribute map of a Home Assistant state.
type Attributes map[string]any

func (a Attributes) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

func (a Attributes) String(key string) string {
	switch v := a[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// Float returns a numeric attribute. Numeric strings are accepted.
func (a Attributes) Float(key string) (float64, bool) {
	return toFloat(a[key])
}

// Int returns a numeric attribute truncated to int.
func (a Attributes) Int(key string) (int, bool) {
	f, ok := toFloat(a[key])
	return int(f), ok
}

func (a Attributes) Strings(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (a Attributes) Floats(key string) []float64 {
	switch v := a[key].(type) {
	case []float64:
		return v
	case []any:
		out := make([]float64, 0, len(v))
		for _, item := range v {
			if f, ok := toFloat(item); ok {
				out = append(out, f)
			}
		}
		return out
	}
	return nil
}

// Clone copies the top level of the map.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return Attributes{}
	}
	return maps.Clone(a)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// HAState is one entry of get_states or the new/old state of a
// state_changed event.
type HAState struct {
	EntityID    string     `json:"entity_id"`
	State       string     `json:"state"`
	Attributes  Attributes `json:"attributes"`
	LastChanged string     `json:"last_changed,omitempty"`
	LastUpdated string     `json:"last_updated,omitempty"`
}

// Domain returns the entity_id prefix before the first dot.
func (s HAState) Domain() string {
	return Domain(s.EntityID)
}

func Domain(entityID string) string {
	domain, _, _ := strings.Cut(entityID, ".")
	return domain
}

// AreaRecord is one entry of config/area_registry/list.
type AreaRecord struct {
	AreaID string `json:"area_id"`
	Name   string `json:"name"`
}

// DeviceRecord is one entry of config/device_registry/list.
type DeviceRecord struct {
	AreaID       string `json:"area_id"`
	HwVersion    string `json:"hw_version"`
	ID           string `json:"id"`
	Manufacturer string `json:"manufacturer"`
	ModelID      string `json:"model_id"`
	Model        string `json:"model"`
	Name         string `json:"name"`
	NameByUser   string `json:"name_by_user"`
	SwVersion    string `json:"sw_version"`
	ViaDeviceID  string `json:"via_device_id"`
}

// EntityRecord is one entry of config/entity_registry/list.
type EntityRecord struct {
	AreaID         string            `json:"area_id"`
	Categories     map[string]string `json:"categories"`
	ConfigEntryID  string            `json:"config_entry_id"`
	DeviceID       string            `json:"device_id"`
	DisabledBy     string            `json:"disabled_by"`
	EntityCategory string            `json:"entity_category"`
	EntityID       string            `json:"entity_id"`
	HiddenBy       string            `json:"hidden_by"`
	ID             string            `json:"id"`
	Labels         []string          `json:"labels"`
	Name           string            `json:"name"`
	Options        map[string]any    `json:"options"`
	OriginalName   string            `json:"original_name"`
	Platform       string            `json:"platform"`
	UniqueID       string            `json:"unique_id"`
}

type ServiceTarget struct {
	EntityID string `json:"entity_id"`
}

// ServiceCall is an upstream action produced by command translation.
type ServiceCall struct {
	Domain      string         `json:"domain"`
	Service     string         `json:"service"`
	ServiceData map[string]any `json:"service_data,omitempty"`
	Target      ServiceTarget  `json:"target"`
}

func NewServiceCall(entityID, service string, data map[string]any) ServiceCall {
	return ServiceCall{
		Domain:      Domain(entityID),
		Service:     service,
		ServiceData: data,
		Target:      ServiceTarget{EntityID: entityID},
	}
}
