package devicedb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/entity"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/registry"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	return newTestDatabaseWith(t, entity.DefaultDomains)
}

func newTestDatabaseWith(t *testing.T, domains map[string]string) *Database {
	t.Helper()
	originalLogger := zap.L()
	zap.ReplaceGlobals(zaptest.NewLogger(t))
	t.Cleanup(func() {
		zap.ReplaceGlobals(originalLogger)
	})

	ctors, err := entity.ConstructorsFor(domains)
	require.NoError(t, err)
	dir := t.TempDir()
	reg := registry.New(ctors, filepath.Join(dir, "placements.json"), filepath.Join(dir, "enabled.json"))
	catalogue, err := LoadCatalogue("")
	require.NoError(t, err)
	return New(reg, catalogue, "1.2.3")
}

func TestDatabase_Readiness(t *testing.T) {
	db := newTestDatabase(t)
	assert.False(t, db.IsReady())

	_, err := db.DevicesList()
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = db.StatesList()
	assert.ErrorIs(t, err, ErrNotReady)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, db.WaitReady(ctx), context.DeadlineExceeded)

	done := make(chan error, 1)
	go func() {
		done <- db.WaitReady(context.Background())
	}()
	db.SetReady()
	db.SetReady()
	require.NoError(t, <-done)
	assert.True(t, db.IsReady())
}

// bootstrap drives the database the way the upstream client does after auth.
func bootstrap(t *testing.T, db *Database, states ...model.HAState) {
	t.Helper()
	db.SetAreas([]model.AreaRecord{{AreaID: "kitchen", Name: "Kitchen"}})
	db.UpsertDevices([]model.DeviceRecord{{
		ID:           "dev1",
		AreaID:       "kitchen",
		Manufacturer: "IKEA",
		Model:        "TRADFRI bulb",
		ModelID:      "LED1545G12",
		Name:         "Bulb",
		HwVersion:    "1",
		SwVersion:    "2.3",
	}})
	db.UpsertEntities([]model.EntityRecord{{
		EntityID:     "light.kitchen",
		DeviceID:     "dev1",
		OriginalName: "Kitchen light",
	}})
	db.LoadStates(states)
	db.SetReady()
}

var kitchenLight = model.HAState{
	EntityID: "light.kitchen",
	State:    "on",
	Attributes: model.Attributes{
		"supported_color_modes": []any{"color_temp"},
		"color_mode":            "color_temp",
		"brightness":            128.0,
		"color_temp":            300.0,
		"min_mireds":            153.0,
		"max_mireds":            500.0,
	},
}

func TestDatabase_EndToEnd(t *testing.T) {
	db := newTestDatabase(t)
	bootstrap(t, db, kitchenLight, model.HAState{EntityID: "sun.sun", State: "above_horizon"})
	require.NoError(t, db.Enable("light.kitchen"))

	devices, err := db.DevicesList()
	require.NoError(t, err)
	require.Len(t, devices.Devices, 2)
	assert.Equal(t, model.RootDeviceID, devices.Devices[0].ID)

	light := devices.Devices[1]
	assert.Equal(t, "light.kitchen", light.ID)
	assert.Equal(t, "Kitchen", light.Room)
	assert.Equal(t, "Bulb", light.Name)
	assert.Equal(t, "LED1545G12", light.Model.ID)
	assert.Subset(t, light.Model.Features, []string{"on_off", "light_brightness", "light_colour_temp"})

	states, err := db.StatesList("light.kitchen")
	require.NoError(t, err)
	got := states.Devices["light.kitchen"]
	onOff, ok := got.Get("on_off")
	require.True(t, ok)
	assert.True(t, onOff.Value.Bool())
	temp, ok := got.Get("light_colour_temp")
	require.True(t, ok)
	assert.Equal(t, int64(576), temp.Value.Int(0))
}

func TestDatabase_ProcessCommand_Typed(t *testing.T) {
	db := newTestDatabase(t)
	bootstrap(t, db, model.HAState{
		EntityID:   "light.kitchen",
		State:      "on",
		Attributes: model.Attributes{"supported_color_modes": []any{"brightness"}, "brightness": 100.0},
	})

	res, err := db.ProcessCommand("light.kitchen", []model.State{{Key: "light_brightness", Value: model.IntegerValue(500)}})
	require.NoError(t, err)
	require.Len(t, res.Calls, 1)
	assert.Equal(t, "turn_on", res.Calls[0].Service)
	assert.Equal(t, map[string]any{"brightness": 121}, res.Calls[0].ServiceData)

	_, err = db.ProcessCommand("light.unknown", nil)
	assert.ErrorIs(t, err, registry.ErrUnknownEntity)
}

func TestDatabase_ApplyStateChange(t *testing.T) {
	db := newTestDatabase(t)
	bootstrap(t, db, kitchenLight)

	next := kitchenLight
	next.State = "off"
	assert.True(t, db.ApplyStateChange("light.kitchen", &kitchenLight, &next))
	assert.False(t, db.ApplyStateChange("light.kitchen", &kitchenLight, nil))
	assert.False(t, db.ApplyStateChange("switch.unknown", nil, &model.HAState{EntityID: "switch.unknown", State: "on"}))

	require.NoError(t, db.Enable("light.kitchen"))
	states, err := db.StatesList("light.kitchen")
	require.NoError(t, err)
	onOff, _ := states.Devices["light.kitchen"].Get("on_off")
	assert.False(t, onOff.Value.Bool())
}

func TestDatabase_Stats(t *testing.T) {
	db := newTestDatabase(t)
	bootstrap(t, db, kitchenLight, model.HAState{EntityID: "switch.fan", State: "on"})
	require.NoError(t, db.Enable("switch.fan"))

	assert.Equal(t, Stats{Ready: true, Typed: 1, Legacy: 1, Enabled: 1}, db.Stats())
	assert.Len(t, db.WebEntities(), 1)
}
