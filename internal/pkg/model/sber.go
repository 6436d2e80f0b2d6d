package model

import (
	"bytes"
	"strconv"
)

// FlexInt decodes integers sent either as JSON numbers or quoted strings.
// Anything it cannot parse decodes as zero.
type FlexInt int64

func (i *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*i = 0
		return nil
	}
	if n, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*i = FlexInt(n)
		return nil
	}
	if f, err := strconv.ParseFloat(string(data), 64); err == nil {
		*i = FlexInt(f)
		return nil
	}
	*i = 0
	return nil
}

type ColourValue struct {
	H FlexInt `json:"h"`
	S FlexInt `json:"s"`
	V FlexInt `json:"v"`
}

// Value is a typed Sber state value. Exactly one of the *Value fields is set,
// matching Type.
type Value struct {
	Type         ValueType    `json:"type"`
	BoolValue    *bool        `json:"bool_value,omitempty"`
	IntegerValue *FlexInt     `json:"integer_value,omitempty"`
	EnumValue    *string      `json:"enum_value,omitempty"`
	StringValue  *string      `json:"string_value,omitempty"`
	FloatValue   *float64     `json:"float_value,omitempty"`
	ColourValue  *ColourValue `json:"colour_value,omitempty"`
}

func BoolValue(b bool) Value {
	return Value{Type: ValueBool, BoolValue: &b}
}

func IntegerValue(i int64) Value {
	v := FlexInt(i)
	return Value{Type: ValueInteger, IntegerValue: &v}
}

func EnumValue(s string) Value {
	return Value{Type: ValueEnum, EnumValue: &s}
}

func StringValue(s string) Value {
	return Value{Type: ValueString, StringValue: &s}
}

func FloatValue(f float64) Value {
	return Value{Type: ValueFloat, FloatValue: &f}
}

func ColourValueOf(h, s, v int) Value {
	return Value{Type: ValueColour, ColourValue: &ColourValue{H: FlexInt(h), S: FlexInt(s), V: FlexInt(v)}}
}

// Bool returns the boolean payload, false when absent.
func (v Value) Bool() bool {
	if v.BoolValue == nil {
		return false
	}
	return *v.BoolValue
}

// Int returns the integer payload or def when absent. A float payload is
// truncated.
func (v Value) Int(def int64) int64 {
	switch {
	case v.IntegerValue != nil:
		return int64(*v.IntegerValue)
	case v.FloatValue != nil:
		return int64(*v.FloatValue)
	}
	return def
}

// Float returns the numeric payload or def when absent.
func (v Value) Float(def float64) float64 {
	switch {
	case v.FloatValue != nil:
		return *v.FloatValue
	case v.IntegerValue != nil:
		return float64(*v.IntegerValue)
	}
	return def
}

// Enum returns the enum payload, falling back to a string payload.
func (v Value) Enum() string {
	switch {
	case v.EnumValue != nil:
		return *v.EnumValue
	case v.StringValue != nil:
		return *v.StringValue
	}
	return ""
}

// Any returns the payload as a plain Go value.
func (v Value) Any() any {
	switch v.Type {
	case ValueBool:
		return v.Bool()
	case ValueInteger:
		return v.Int(0)
	case ValueFloat:
		return v.Float(0)
	case ValueEnum, ValueString:
		return v.Enum()
	case ValueColour:
		if v.ColourValue != nil {
			return *v.ColourValue
		}
	}
	return nil
}

type State struct {
	Key   string `json:"key"`
	Value Value  `json:"value"`
}

type DeviceStates struct {
	States []State `json:"states"`
}

// Get returns the state for key, if present.
func (d DeviceStates) Get(key string) (State, bool) {
	for _, s := range d.States {
		if s.Key == key {
			return s, true
		}
	}
	return State{}, false
}

// StatesPayload is published on up/status and received on down/commands.
type StatesPayload struct {
	Devices map[string]DeviceStates `json:"devices"`
}

// StatusRequest is received on down/status_request. A single empty id means
// every known device.
type StatusRequest struct {
	Devices []string `json:"devices"`
}

// All reports whether the request asks for every device.
func (r StatusRequest) All() bool {
	return len(r.Devices) == 0 || (len(r.Devices) == 1 && r.Devices[0] == "")
}

type IntegerValues struct {
	Min  int64 `json:"min"`
	Max  int64 `json:"max"`
	Step int64 `json:"step,omitempty"`
}

type EnumValues struct {
	Values []string `json:"values"`
}

// AllowedValue declares the value domain of a feature.
type AllowedValue struct {
	Type          ValueType      `json:"type"`
	IntegerValues *IntegerValues `json:"integer_values,omitempty"`
	EnumValues    *EnumValues    `json:"enum_values,omitempty"`
}

func IntegerRange(min, max int64) AllowedValue {
	return AllowedValue{Type: ValueInteger, IntegerValues: &IntegerValues{Min: min, Max: max}}
}

func EnumOf(values ...string) AllowedValue {
	return AllowedValue{Type: ValueEnum, EnumValues: &EnumValues{Values: values}}
}

type DeviceModel struct {
	ID            string                  `json:"id,omitempty"`
	Manufacturer  string                  `json:"manufacturer,omitempty"`
	Model         string                  `json:"model,omitempty"`
	Description   string                  `json:"description,omitempty"`
	Category      Category                `json:"category,omitempty"`
	Features      []string                `json:"features"`
	AllowedValues map[string]AllowedValue `json:"allowed_values,omitempty"`
}

// Descriptor is one entry of the devices-list. Empty values are omitted on
// the wire.
type Descriptor struct {
	ID          string       `json:"id"`
	Name        string       `json:"name,omitempty"`
	DefaultName string       `json:"default_name,omitempty"`
	Nicknames   []string     `json:"nicknames,omitempty"`
	Home        string       `json:"home,omitempty"`
	Room        string       `json:"room,omitempty"`
	Groups      []string     `json:"groups,omitempty"`
	Model       *DeviceModel `json:"model,omitempty"`
	ModelID     string       `json:"model_id,omitempty"`
	HwVersion   string       `json:"hw_version,omitempty"`
	SwVersion   string       `json:"sw_version,omitempty"`
}

// DevicesPayload is published on up/config.
type DevicesPayload struct {
	Devices []Descriptor `json:"devices"`
}

// GlobalConfig is received on the shared __config topic.
type GlobalConfig struct {
	HTTPAPIEndpoint string `json:"http_api_endpoint"`
}

type ChangeGroupRequest struct {
	DeviceID string `json:"device_id"`
	Home     string `json:"home"`
	Room     string `json:"room"`
}

type RenameRequest struct {
	DeviceID string `json:"device_id"`
	NewName  string `json:"new_name"`
}
