package devicedb

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
)

func ids(p model.DevicesPayload) []string {
	out := make([]string, 0, len(p.Devices))
	for _, d := range p.Devices {
		out = append(out, d.ID)
	}
	return out
}

func TestDevicesList_RootOnlyWhenNothingEnabled(t *testing.T) {
	db := newTestDatabase(t)
	bootstrap(t, db, kitchenLight)

	got, err := db.DevicesList()
	require.NoError(t, err)
	require.Len(t, got.Devices, 1)
	root := got.Devices[0]
	assert.Equal(t, model.RootDeviceID, root.ID)
	assert.Equal(t, "1.2.3", root.SwVersion)
	assert.Equal(t, model.CategoryHub, root.Model.Category)
}

func TestDevicesList_Filter(t *testing.T) {
	db := newTestDatabase(t)
	bootstrap(t, db, kitchenLight, model.HAState{EntityID: "switch.fan", State: "on"})
	require.NoError(t, db.Enable("light.kitchen"))
	require.NoError(t, db.Enable("switch.fan"))

	got, err := db.DevicesList()
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "light.kitchen", "switch.fan"}, ids(got))

	got, err = db.DevicesList("switch.fan")
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "switch.fan"}, ids(got))
}

func TestDevicesList_LegacyFeatures(t *testing.T) {
	db := newTestDatabase(t)
	bootstrap(t, db, model.HAState{EntityID: "sensor.t", State: "20", Attributes: model.Attributes{"device_class": "temperature", "friendly_name": "Outside"}})
	require.NoError(t, db.Enable("sensor.t"))
	db.legacy["sensor.t"].States["humidity"] = 40.0

	got, err := db.DevicesList("sensor.t")
	require.NoError(t, err)
	require.Len(t, got.Devices, 2)
	d := got.Devices[1]
	assert.Equal(t, "Outside", d.Name)
	assert.Equal(t, "ID_sensor_temp", d.Model.ID)
	assert.Equal(t, []string{"online", "temperature", "humidity"}, d.Model.Features)
}

func TestDevicesList_Placement(t *testing.T) {
	db := newTestDatabase(t)
	bootstrap(t, db,
		model.HAState{EntityID: "switch.a", State: "on"},
		model.HAState{EntityID: "switch.b", State: "on"},
		model.HAState{EntityID: "switch.c", State: "on"},
	)
	for _, id := range []string{"switch.a", "switch.b", "switch.c"} {
		require.NoError(t, db.Enable(id))
	}
	require.NoError(t, db.RedefinePlacement("switch.a", "Home", "Hall"))
	require.NoError(t, db.Rename("switch.c", "Lamp"))
	db.legacy["switch.c"].Room = "kitchen"

	got, err := db.DevicesList()
	require.NoError(t, err)
	require.Len(t, got.Devices, 4)

	a, b, c := got.Devices[1], got.Devices[2], got.Devices[3]
	assert.Equal(t, "Home", a.Home)
	assert.Equal(t, "Hall", a.Room)
	assert.Equal(t, "Home", b.Home, "inherits last seen home")
	assert.Equal(t, "Hall", b.Room, "inherits last seen room")
	assert.Equal(t, "Kitchen", c.Room, "own room wins, resolved to area name")
	assert.Equal(t, "Lamp", c.Name)
}

func TestDevicesList_EmptyKeysStripped(t *testing.T) {
	db := newTestDatabase(t)
	bootstrap(t, db, model.HAState{EntityID: "switch.a", State: "on"})
	require.NoError(t, db.Enable("switch.a"))

	got, err := db.DevicesList("switch.a")
	require.NoError(t, err)
	data, err := json.Marshal(got.Devices[1])
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "home")
	assert.NotContains(t, raw, "room")
	assert.NotContains(t, raw, "default_name")
	assert.Contains(t, raw, "model")
}

func TestStatesList(t *testing.T) {
	db := newTestDatabase(t)
	bootstrap(t, db,
		kitchenLight,
		model.HAState{EntityID: "switch.fan", State: "on"},
		model.HAState{EntityID: "sensor.t", State: "21.46", Attributes: model.Attributes{"device_class": "temperature"}},
		model.HAState{EntityID: "switch.hidden", State: "on"},
	)
	for _, id := range []string{"light.kitchen", "switch.fan", "sensor.t"} {
		require.NoError(t, db.Enable(id))
	}

	got, err := db.StatesList()
	require.NoError(t, err)
	assert.Len(t, got.Devices, 3)
	assert.NotContains(t, got.Devices, "switch.hidden")

	assert.Equal(t, []model.State{
		{Key: "online", Value: model.BoolValue(true)},
		{Key: "on_off", Value: model.BoolValue(true)},
	}, got.Devices["switch.fan"].States)
	assert.Equal(t, []model.State{
		{Key: "online", Value: model.BoolValue(true)},
		{Key: "temperature", Value: model.IntegerValue(215)},
	}, got.Devices["sensor.t"].States)

	got, err = db.StatesList("switch.fan", "switch.unknown")
	require.NoError(t, err)
	assert.Len(t, got.Devices, 1)
}

func TestStatesList_RootFallback(t *testing.T) {
	db := newTestDatabase(t)
	bootstrap(t, db, kitchenLight)

	got, err := db.StatesList()
	require.NoError(t, err)
	assert.Equal(t, map[string]model.DeviceStates{
		"root": {States: []model.State{{Key: "online", Value: model.BoolValue(true)}}},
	}, got.Devices)
}

func TestStatesList_ButtonEventReset(t *testing.T) {
	db := newTestDatabase(t)
	bootstrap(t, db, model.HAState{EntityID: "input_boolean.b", State: "off"})
	require.NoError(t, db.Enable("input_boolean.b"))

	next := model.HAState{EntityID: "input_boolean.b", State: "on"}
	require.True(t, db.ApplyStateChange("input_boolean.b", nil, &next))

	got, err := db.StatesList("input_boolean.b")
	require.NoError(t, err)
	event, ok := got.Devices["input_boolean.b"].Get("button_event")
	require.True(t, ok)
	assert.Equal(t, "click", event.Value.Enum())

	got, err = db.StatesList("input_boolean.b")
	require.NoError(t, err)
	_, ok = got.Devices["input_boolean.b"].Get("button_event")
	assert.False(t, ok, "event is reported once")
	online, _ := got.Devices["input_boolean.b"].Get("online")
	assert.True(t, online.Value.Bool())
}
