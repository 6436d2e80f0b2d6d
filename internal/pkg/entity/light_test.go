package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
)

func newTestLight(t *testing.T, state string, attrs model.Attributes) *Light {
	t.Helper()
	l := NewLight(model.EntityRecord{EntityID: "light.kitchen", ID: "abc"}).(*Light)
	l.FillByHAState(haState("light.kitchen", state, attrs))
	return l
}

func TestLight_Capabilities(t *testing.T) {
	tests := map[string]struct {
		attrs          model.Attributes
		wantBrightness bool
		wantColour     bool
		wantTemp       bool
	}{
		"color_temp only": {
			attrs:          model.Attributes{"supported_color_modes": []any{"color_temp"}},
			wantBrightness: true,
			wantTemp:       true,
		},
		"onoff only": {
			attrs: model.Attributes{"supported_color_modes": []any{"onoff"}},
		},
		"hs and color_temp mixed case": {
			attrs:          model.Attributes{"supported_color_modes": []any{"HS", "color_temp"}},
			wantBrightness: true,
			wantColour:     true,
			wantTemp:       true,
		},
		"unknown mode still dims": {
			attrs:          model.Attributes{"supported_color_modes": []any{"onoff", "future"}},
			wantBrightness: true,
		},
		"legacy supported_features bit": {
			attrs:          model.Attributes{"supported_features": 1.0},
			wantBrightness: true,
		},
		"nothing": {
			attrs: model.Attributes{"supported_features": 0.0},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			l := newTestLight(t, "on", tt.attrs)
			assert.Equal(t, tt.wantBrightness, l.SupportsBrightness())
			assert.Equal(t, tt.wantColour, l.SupportsColour())
			assert.Equal(t, tt.wantTemp, l.SupportsColourTemp())

			features := l.Features()
			assert.Equal(t, tt.wantBrightness, contains(features, model.FeatureLightBrightness))
			assert.Equal(t, tt.wantColour, contains(features, model.FeatureLightColour))
			assert.Equal(t, tt.wantColour, contains(features, model.FeatureLightMode))
			assert.Equal(t, tt.wantTemp, contains(features, model.FeatureLightColourTemp))

			allowed := l.AllowedValues()
			_, hasBrightness := allowed[model.FeatureLightBrightness]
			assert.Equal(t, tt.wantBrightness, hasBrightness)
			_, hasColour := allowed[model.FeatureLightColour]
			assert.Equal(t, tt.wantColour, hasColour)
		})
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func TestLight_CurrentState_White(t *testing.T) {
	l := newTestLight(t, "on", model.Attributes{
		"supported_color_modes": []any{"color_temp"},
		"color_mode":            "color_temp",
		"brightness":            128.0,
		"color_temp":            300.0,
		"min_mireds":            153.0,
		"max_mireds":            500.0,
	})

	got, err := l.CurrentState()
	require.NoError(t, err)
	assert.Equal(t, []model.State{
		{Key: model.FeatureOnline, Value: model.BoolValue(true)},
		{Key: model.FeatureOnOff, Value: model.BoolValue(true)},
		{Key: model.FeatureLightBrightness, Value: model.IntegerValue(527)},
		{Key: model.FeatureLightColourTemp, Value: model.IntegerValue(576)},
		{Key: model.FeatureLightMode, Value: model.EnumValue("white")},
	}, got.States)
}

func TestLight_CurrentState_Colour(t *testing.T) {
	l := newTestLight(t, "on", model.Attributes{
		"supported_color_modes": []any{"hs"},
		"color_mode":            "hs",
		"brightness":            128.0,
		"hs_color":              []any{30.0, 80.0},
	})

	got, err := l.CurrentState()
	require.NoError(t, err)
	colour, ok := got.Get(model.FeatureLightColour)
	require.True(t, ok)
	assert.Equal(t, model.ColourValueOf(30, 800, 552), colour.Value)
	mode, _ := got.Get(model.FeatureLightMode)
	assert.Equal(t, "colour", mode.Value.Enum())
}

func TestLight_CurrentState_Off(t *testing.T) {
	l := newTestLight(t, "off", model.Attributes{"supported_color_modes": []any{"color_temp"}})

	got, err := l.CurrentState()
	require.NoError(t, err)
	assert.Equal(t, []model.State{
		{Key: model.FeatureOnline, Value: model.BoolValue(true)},
		{Key: model.FeatureOnOff, Value: model.BoolValue(false)},
		{Key: model.FeatureLightBrightness, Value: model.IntegerValue(50)},
	}, got.States)
}

func TestLight_CurrentState_MissingBrightnessReportsFloor(t *testing.T) {
	tests := map[string]struct {
		attrs model.Attributes
		want  int64
	}{
		"no brightness attribute": {
			attrs: model.Attributes{"supported_color_modes": []any{"brightness"}},
			want:  50,
		},
		"zero brightness": {
			attrs: model.Attributes{"supported_color_modes": []any{"brightness"}, "brightness": 0.0},
			want:  50,
		},
		"full brightness": {
			attrs: model.Attributes{"supported_color_modes": []any{"brightness"}, "brightness": 255.0},
			want:  1000,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			l := newTestLight(t, "on", tt.attrs)

			got, err := l.CurrentState()
			require.NoError(t, err)
			brightness, ok := got.Get(model.FeatureLightBrightness)
			require.True(t, ok)
			assert.Equal(t, tt.want, brightness.Value.Int(0))
		})
	}
}

func TestLight_ProcessCommand(t *testing.T) {
	target := model.ServiceTarget{EntityID: "light.kitchen"}
	tests := map[string]struct {
		state       string
		states      []model.State
		want        []model.ServiceCall
		wantChanged bool
	}{
		"turn on": {
			state:  "off",
			states: []model.State{{Key: model.FeatureOnOff, Value: model.BoolValue(true)}},
			want:   []model.ServiceCall{{Domain: "light", Service: "turn_on", Target: target}},
		},
		"turn off": {
			state:  "on",
			states: []model.State{{Key: model.FeatureOnOff, Value: model.BoolValue(false)}},
			want:   []model.ServiceCall{{Domain: "light", Service: "turn_off", Target: target}},
		},
		"brightness rescaled": {
			state:  "on",
			states: []model.State{{Key: model.FeatureLightBrightness, Value: model.IntegerValue(500)}},
			want: []model.ServiceCall{{
				Domain: "light", Service: "turn_on", Target: target,
				ServiceData: map[string]any{"brightness": 121},
			}},
		},
		"brightness clamped to floor": {
			state:  "on",
			states: []model.State{{Key: model.FeatureLightBrightness, Value: model.IntegerValue(50)}},
			want: []model.ServiceCall{{
				Domain: "light", Service: "turn_on", Target: target,
				ServiceData: map[string]any{"brightness": 50},
			}},
		},
		"brightness ignored while off": {
			state:  "off",
			states: []model.State{{Key: model.FeatureLightBrightness, Value: model.IntegerValue(500)}},
		},
		"on then brightness in one command": {
			state: "off",
			states: []model.State{
				{Key: model.FeatureOnOff, Value: model.BoolValue(true)},
				{Key: model.FeatureLightBrightness, Value: model.IntegerValue(1000)},
			},
			want: []model.ServiceCall{
				{Domain: "light", Service: "turn_on", Target: target},
				{Domain: "light", Service: "turn_on", Target: target, ServiceData: map[string]any{"brightness": 255}},
			},
		},
		"colour": {
			state:  "on",
			states: []model.State{{Key: model.FeatureLightColour, Value: model.ColourValueOf(120, 1000, 1000)}},
			want: []model.ServiceCall{{
				Domain: "light", Service: "turn_on", Target: target,
				ServiceData: map[string]any{"hs_color": []int{120, 100}, "brightness": 255},
			}},
		},
		"colour out of range is clamped": {
			state:  "on",
			states: []model.State{{Key: model.FeatureLightColour, Value: model.ColourValueOf(400, 2000, 5000)}},
			want: []model.ServiceCall{{
				Domain: "light", Service: "turn_on", Target: target,
				ServiceData: map[string]any{"hs_color": []int{360, 100}, "brightness": 255},
			}},
		},
		"missing colour falls back to off colour": {
			state:  "on",
			states: []model.State{{Key: model.FeatureLightColour, Value: model.Value{Type: model.ValueColour}}},
			want: []model.ServiceCall{{
				Domain: "light", Service: "turn_on", Target: target,
				ServiceData: map[string]any{"hs_color": []int{0, 0}, "brightness": 100},
			}},
		},
		"colour temperature reversed": {
			state:  "on",
			states: []model.State{{Key: model.FeatureLightColourTemp, Value: model.IntegerValue(500)}},
			want: []model.ServiceCall{{
				Domain: "light", Service: "turn_on", Target: target,
				ServiceData: map[string]any{"color_temp": 326},
			}},
		},
		"mode is local": {
			state:       "on",
			states:      []model.State{{Key: model.FeatureLightMode, Value: model.EnumValue("colour")}},
			wantChanged: true,
		},
		"unknown key ignored": {
			state:  "on",
			states: []model.State{{Key: "volume", Value: model.IntegerValue(3)}},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			l := newTestLight(t, tt.state, model.Attributes{"supported_color_modes": []any{"brightness"}})
			got := l.ProcessCommand(tt.states)
			assert.Equal(t, tt.want, got.Calls)
			assert.Equal(t, tt.wantChanged, got.StateChanged)
		})
	}
}

func TestLight_ModeCommandSwitchesReportedState(t *testing.T) {
	l := newTestLight(t, "on", model.Attributes{
		"supported_color_modes": []any{"hs", "color_temp"},
		"color_mode":            "hs",
		"hs_color":              []any{10.0, 20.0},
		"color_temp":            153.0,
	})

	got, _ := l.CurrentState()
	mode, _ := got.Get(model.FeatureLightMode)
	assert.Equal(t, "colour", mode.Value.Enum())

	l.ProcessCommand([]model.State{{Key: model.FeatureLightMode, Value: model.EnumValue("white")}})
	got, _ = l.CurrentState()
	mode, _ = got.Get(model.FeatureLightMode)
	assert.Equal(t, "white", mode.Value.Enum())
	temp, ok := got.Get(model.FeatureLightColourTemp)
	require.True(t, ok)
	assert.Equal(t, int64(1000), temp.Value.Int(0))
}

func TestLight_ProcessStateChange(t *testing.T) {
	l := newTestLight(t, "off", nil)
	l.ProcessStateChange(nil, &model.HAState{EntityID: "light.kitchen", State: "on"})
	got, _ := l.CurrentState()
	onOff, _ := got.Get(model.FeatureOnOff)
	assert.True(t, onOff.Value.Bool())

	l.ProcessStateChange(nil, nil)
	assert.Equal(t, "on", l.State().State)
}
