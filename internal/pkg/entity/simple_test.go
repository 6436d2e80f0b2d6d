package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
)

func TestSimple_CurrentState(t *testing.T) {
	tests := map[string]struct {
		ctor  Constructor
		state model.HAState
		want  []model.State
	}{
		"relay on": {
			ctor:  NewRelay,
			state: model.HAState{EntityID: "switch.a", State: "on"},
			want: []model.State{
				{Key: "online", Value: model.BoolValue(true)},
				{Key: "on_off", Value: model.BoolValue(true)},
			},
		},
		"relay unavailable": {
			ctor:  NewRelay,
			state: model.HAState{EntityID: "switch.a", State: "unavailable"},
			want: []model.State{
				{Key: "online", Value: model.BoolValue(false)},
				{Key: "on_off", Value: model.BoolValue(false)},
			},
		},
		"temperature in tenths": {
			ctor:  NewTemperatureSensor,
			state: model.HAState{EntityID: "sensor.t", State: "21.46"},
			want: []model.State{
				{Key: "online", Value: model.BoolValue(true)},
				{Key: "temperature", Value: model.IntegerValue(215)},
			},
		},
		"temperature not numeric": {
			ctor:  NewTemperatureSensor,
			state: model.HAState{EntityID: "sensor.t", State: "unknown"},
			want:  []model.State{{Key: "online", Value: model.BoolValue(true)}},
		},
		"motion detected": {
			ctor:  NewMotionSensor,
			state: model.HAState{EntityID: "binary_sensor.m", State: "on"},
			want: []model.State{
				{Key: "online", Value: model.BoolValue(true)},
				{Key: "pir", Value: model.EnumValue("pir")},
			},
		},
		"motion clear": {
			ctor:  NewMotionSensor,
			state: model.HAState{EntityID: "binary_sensor.m", State: "off"},
			want:  []model.State{{Key: "online", Value: model.BoolValue(true)}},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e := tt.ctor(model.EntityRecord{EntityID: tt.state.EntityID})
			e.FillByHAState(tt.state)
			got, err := e.CurrentState()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.States)
			assert.Empty(t, e.ProcessCommand([]model.State{{Key: "on_off", Value: model.BoolValue(true)}}).Calls)
		})
	}
}

func TestScenarioButton_EmitsClickOnce(t *testing.T) {
	e := NewScenarioButton(model.EntityRecord{EntityID: "input_button.door"})
	e.FillByHAState(model.HAState{EntityID: "input_button.door", State: "2025-01-01", LastChanged: "t1"})

	got, err := e.CurrentState()
	require.NoError(t, err)
	_, ok := got.Get("button_event")
	assert.False(t, ok, "initial fill is not a press")

	e.ProcessStateChange(nil, &model.HAState{EntityID: "input_button.door", State: "2025-01-02", LastChanged: "t2"})
	got, _ = e.CurrentState()
	event, ok := got.Get("button_event")
	require.True(t, ok)
	assert.Equal(t, "click", event.Value.Enum())

	got, _ = e.CurrentState()
	_, ok = got.Get("button_event")
	assert.False(t, ok, "event is reset after it is reported")

	d, err := e.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, model.CategoryScenarioButton, d.Model.Category)
	assert.Contains(t, d.Model.AllowedValues, "button_event")
}
