package devicedb

import (
	"maps"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
)

const legacyManufacturer = "SberGate"

func (db *Database) rootDescriptor() model.Descriptor {
	return model.Descriptor{
		ID:        model.RootDeviceID,
		Name:      "SberGate hub",
		HwVersion: db.version,
		SwVersion: db.version,
		Model: &model.DeviceModel{
			ID:           "ID_root_hub",
			Manufacturer: legacyManufacturer,
			Model:        "VHub",
			Description:  "HA MQTT SberGate HUB",
			Category:     model.CategoryHub,
			Features:     []string{model.FeatureOnline},
		},
	}
}

// DevicesList builds the up/config payload for ids, or for every enabled
// device when ids is empty. Entries follow the root hub sorted by id. Home and
// room come from the operator override when one is set, otherwise an entry
// without its own value inherits the last value seen on a preceding entry.
func (db *Database) DevicesList(ids ...string) (model.DevicesPayload, error) {
	if !db.IsReady() {
		return model.DevicesPayload{}, ErrNotReady
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	wanted := func(id string) bool {
		return (len(ids) == 0 || lo.Contains(ids, id)) && db.registry.IsEnabled(id)
	}

	entries := map[string]model.Descriptor{}
	for id, d := range db.legacy {
		if wanted(id) {
			entries[id] = db.legacyDescriptor(id, d)
		}
	}
	for _, id := range db.registry.IDs() {
		if !wanted(id) {
			continue
		}
		e, _ := db.registry.Get(id)
		d, err := e.Descriptor()
		if err != nil {
			db.logger.Warn("skipping entity without descriptor", zap.String("entity_id", id), zap.Error(err))
			continue
		}
		d.Room = db.registry.AreaName(d.Room)
		entries[id] = d
	}

	payload := model.DevicesPayload{Devices: []model.Descriptor{db.rootDescriptor()}}
	var lastHome, lastRoom string
	for _, id := range slices.Sorted(maps.Keys(entries)) {
		d := entries[id]
		p, _ := db.registry.Redefinition(id)
		d.Home = resolvePlacement(p.Home, d.Home, &lastHome)
		d.Room = resolvePlacement(p.Room, d.Room, &lastRoom)
		if p.Name != nil && *p.Name != "" {
			d.Name = *p.Name
		}
		payload.Devices = append(payload.Devices, d)
	}
	return payload, nil
}

func resolvePlacement(override *string, own string, last *string) string {
	v := own
	switch {
	case override != nil:
		v = *override
	case v == "":
		v = *last
	}
	if v != "" {
		*last = v
	}
	return v
}

// legacyDescriptor lists required features always and optional ones only when
// a state for them is stored.
func (db *Database) legacyDescriptor(id string, d *LegacyDevice) model.Descriptor {
	category := d.Category
	if category == "" {
		category = model.CategoryRelay
	}
	var features []string
	for _, f := range db.catalogue.Features(category) {
		if _, ok := d.States[f.Name]; f.Required || ok {
			features = append(features, f.Name)
		}
	}
	return model.Descriptor{
		ID:          id,
		Name:        d.Name,
		DefaultName: d.DefaultName,
		Room:        db.registry.AreaName(d.Room),
		HwVersion:   d.HwVersion,
		SwVersion:   d.SwVersion,
		Model: &model.DeviceModel{
			ID:           "ID_" + category.String(),
			Manufacturer: legacyManufacturer,
			Model:        "Model_" + category.String(),
			Category:     category,
			Features:     features,
		},
	}
}

// StatesList builds the up/status payload for ids, or for every known id when
// ids is empty. Disabled and unknown ids are skipped. An empty result is
// replaced by a single online root entry.
func (db *Database) StatesList(ids ...string) (model.StatesPayload, error) {
	if !db.IsReady() {
		return model.StatesPayload{}, ErrNotReady
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	if len(ids) == 0 {
		ids = slices.Sorted(maps.Keys(db.legacy))
		ids = append(ids, db.registry.IDs()...)
	}

	payload := model.StatesPayload{Devices: map[string]model.DeviceStates{}}
	for _, id := range ids {
		if !db.registry.IsEnabled(id) {
			continue
		}
		if e, err := db.registry.Get(id); err == nil {
			states, err := e.CurrentState()
			if err != nil {
				db.logger.Warn("skipping entity without state", zap.String("entity_id", id), zap.Error(err))
				continue
			}
			payload.Devices[id] = states
			continue
		}
		if d, ok := db.legacy[id]; ok {
			payload.Devices[id] = db.legacyStates(id, d)
		}
	}

	if len(payload.Devices) == 0 {
		payload.Devices[model.RootDeviceID] = model.DeviceStates{States: []model.State{
			{Key: model.FeatureOnline, Value: model.BoolValue(true)},
		}}
	}
	return payload, nil
}

// legacyStates fills missing required keys with their declared default and
// clears a reported button event.
func (db *Database) legacyStates(id string, d *LegacyDevice) model.DeviceStates {
	if d.Category == "" {
		d.Category = model.CategoryRelay
	}
	out := model.DeviceStates{States: []model.State{}}
	for _, f := range db.catalogue.Features(d.Category) {
		v, ok := d.States[f.Name]
		if !ok {
			if !f.Required {
				continue
			}
			db.logger.Warn("required state missing, using default", zap.String("entity_id", id), zap.String("feature", f.Name))
			v = f.defaultValue()
			d.States[f.Name] = v
		}
		if s, ok := legacyState(f, v); ok {
			out.States = append(out.States, s)
		}
		if f.Name == model.FeatureButtonEvent {
			d.States[model.FeatureButtonEvent] = ""
		}
	}
	return out
}
