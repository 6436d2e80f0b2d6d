package devicedb

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/entity"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/registry"
)

// Legacy entity types, used to pick the upstream action for a command.
const (
	typeSwitch        = "sw"
	typeScript        = "scr"
	typeButton        = "button"
	typeSensorTemp    = "sensor_temp"
	typeInputBoolean  = "input_boolean"
	typeClimate       = "climate"
	typeHvacRadiator  = "hvac_radiator"
	buttonEventClick  = "click"
	buttonEventDouble = "double_click"
)

// LegacyDevice is an untyped device served from the flat map. States holds
// raw values keyed by Sber feature name.
type LegacyDevice struct {
	Name         string         `json:"name"`
	DefaultName  string         `json:"default_name"`
	Nicknames    []string       `json:"nicknames"`
	Home         string         `json:"home"`
	Room         string         `json:"room"`
	Groups       []string       `json:"groups"`
	ModelID      string         `json:"model_id"`
	Category     model.Category `json:"category"`
	HwVersion    string         `json:"hw_version"`
	SwVersion    string         `json:"sw_version"`
	EntityHA     bool           `json:"entity_ha"`
	EntityType   string         `json:"entity_type"`
	FriendlyName string         `json:"friendly_name"`
	States       map[string]any `json:"States"`
}

func (d *LegacyDevice) clone() LegacyDevice {
	c := *d
	c.Nicknames = slices.Clone(d.Nicknames)
	c.Groups = slices.Clone(d.Groups)
	c.States = maps.Clone(d.States)
	return c
}

// LegacyDevice returns a copy of the legacy entry for id.
func (db *Database) LegacyDevice(id string) (LegacyDevice, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	d, ok := db.legacy[id]
	if !ok {
		return LegacyDevice{}, false
	}
	return d.clone(), true
}

// upsertLegacy merges patch into the entry for id, creating it with defaults.
func (db *Database) upsertLegacy(id string, patch LegacyDevice) {
	d, ok := db.legacy[id]
	if !ok {
		d = &LegacyDevice{
			Nicknames: []string{},
			Groups:    []string{},
			HwVersion: model.Unknown,
			SwVersion: model.Unknown,
			States:    map[string]any{},
		}
		db.legacy[id] = d
	}
	d.EntityHA = patch.EntityHA
	d.EntityType = patch.EntityType
	d.FriendlyName = patch.FriendlyName
	d.Category = patch.Category
	for k, v := range patch.States {
		d.States[k] = v
	}
	if d.Name == "" {
		d.Name = d.FriendlyName
	}
}

type legacyConverter func(state model.HAState) (LegacyDevice, bool)

var legacyConverters = map[string]legacyConverter{
	"switch":        onOffDevice(typeSwitch, model.CategoryRelay),
	"script":        onOffDevice(typeScript, model.CategoryRelay),
	"button":        onOffDevice(typeButton, model.CategoryRelay),
	"input_boolean": onOffDevice(typeInputBoolean, model.CategoryScenarioButton),
	"sensor":        temperatureDevice(typeSensorTemp, model.CategorySensorTemp),
	"hvac_radiator": temperatureDevice(typeHvacRadiator, model.CategoryHvacRadiator),
	"climate":       climateDevice,
}

func onOffDevice(entityType string, category model.Category) legacyConverter {
	return func(state model.HAState) (LegacyDevice, bool) {
		d := LegacyDevice{
			EntityHA:     true,
			EntityType:   entityType,
			FriendlyName: state.Attributes.String("friendly_name"),
			Category:     category,
			States:       map[string]any{},
		}
		switch category {
		case model.CategoryRelay:
			d.States[model.FeatureOnOff] = state.State == "on"
		case model.CategoryScenarioButton:
			d.States[model.FeatureButtonEvent] = ""
		}
		return d, true
	}
}

func temperatureDevice(entityType string, category model.Category) legacyConverter {
	return func(state model.HAState) (LegacyDevice, bool) {
		if state.Attributes.String("device_class") != "temperature" {
			return LegacyDevice{}, false
		}
		d := LegacyDevice{
			EntityHA:     true,
			EntityType:   entityType,
			FriendlyName: state.Attributes.String("friendly_name"),
			Category:     category,
			States:       map[string]any{},
		}
		if v, err := strconv.ParseFloat(state.State, 64); err == nil {
			d.States[model.FeatureTemperature] = v
		}
		return d, true
	}
}

func climateDevice(state model.HAState) (LegacyDevice, bool) {
	d := LegacyDevice{
		EntityHA:     true,
		EntityType:   typeClimate,
		FriendlyName: state.Attributes.String("friendly_name"),
		Category:     model.CategoryHvacAC,
		States: map[string]any{
			model.FeatureOnOff: state.State != "off",
		},
	}
	if v, ok := state.Attributes.Float("current_temperature"); ok {
		d.States[model.FeatureTemperature] = v
	}
	if v, ok := state.Attributes.Float("temperature"); ok {
		d.States[model.FeatureHvacTempSet] = v
	}
	return d, true
}

// LoadStates consumes the bootstrap state snapshot. Domains claimed by a typed
// variant fill the registry, the remaining known domains populate the legacy
// map.
func (db *Database) LoadStates(states []model.HAState) {
	db.mu.Lock()
	defer db.mu.Unlock()
	typed, legacy := 0, 0
	for _, state := range states {
		domain := state.Domain()
		if db.registry.Supports(domain) {
			if _, ok := db.registry.UpdateByHAState(state); ok {
				typed++
			}
			continue
		}
		convert, ok := legacyConverters[domain]
		if !ok {
			continue
		}
		d, ok := convert(state)
		if !ok {
			continue
		}
		db.upsertLegacy(state.EntityID, d)
		legacy++
	}
	db.logger.Info("loaded upstream states", zap.Int("typed", typed), zap.Int("legacy", legacy), zap.Int("total", len(states)))
}

// applyLegacyEvent maps a raw state change onto legacy state keys. Only
// enabled legacy devices are updated.
func (db *Database) applyLegacyEvent(id string, oldState *model.HAState, newState model.HAState) bool {
	d, ok := db.legacy[id]
	if !ok || !db.registry.IsEnabled(id) {
		return false
	}
	from := ""
	if oldState != nil {
		from = oldState.State
	}
	db.logger.Info("legacy state change", zap.String("entity_id", id), zap.String("from", from), zap.String("to", newState.State))

	_, hasButton := d.States[model.FeatureButtonEvent]
	switch {
	case d.Category == model.CategorySensorTemp:
		v, err := strconv.ParseFloat(newState.State, 64)
		if err != nil {
			db.logger.Debug("non numeric temperature", zap.String("entity_id", id), zap.String("state", newState.State))
			return false
		}
		d.States[model.FeatureTemperature] = v

	case newState.State == "on":
		d.States[model.FeatureOnOff] = true
		if hasButton {
			d.States[model.FeatureButtonEvent] = buttonEventClick
		}

	case d.EntityType == typeClimate:
		d.States[model.FeatureOnOff] = newState.State != "off"
		if v, ok := newState.Attributes.Float("current_temperature"); ok {
			d.States[model.FeatureTemperature] = v
		}

	default:
		d.States[model.FeatureOnOff] = false
		if hasButton {
			d.States[model.FeatureButtonEvent] = buttonEventDouble
		}
	}
	return true
}

// legacyCommand stores the requested values and produces the category
// specific upstream call.
func (db *Database) legacyCommand(id string, states []model.State) (entity.CommandResult, error) {
	d, ok := db.legacy[id]
	if !ok {
		return entity.CommandResult{}, fmt.Errorf("%w: %s", registry.ErrUnknownEntity, id)
	}
	var changed []string
	for _, s := range states {
		v := s.Value.Any()
		if old, ok := d.States[s.Key]; !ok || old != v {
			changed = append(changed, s.Key)
		}
		d.States[s.Key] = v
	}
	db.logger.Debug("legacy command", zap.String("entity_id", id), zap.Strings("changed", changed))

	on, _ := d.States[model.FeatureOnOff].(bool)
	switch {
	case d.EntityType == typeClimate:
		mode := "off"
		if on {
			mode = "cool"
		}
		target, _ := toFloat(d.States[model.FeatureHvacTempSet])
		return entity.CommandResult{Calls: []model.ServiceCall{
			model.NewServiceCall(id, "set_temperature", map[string]any{"temperature": target, "hvac_mode": mode}),
		}}, nil

	case !d.EntityHA:
		db.logger.Info("legacy device is not an upstream entity", zap.String("entity_id", id))
		return entity.CommandResult{}, nil

	case model.Domain(id) == "button":
		return entity.CommandResult{Calls: []model.ServiceCall{model.NewServiceCall(id, "press", nil)}}, nil
	}

	service := "turn_off"
	if on {
		service = "turn_on"
	}
	return entity.CommandResult{Calls: []model.ServiceCall{model.NewServiceCall(id, service, nil)}}, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// legacyState renders one catalogue feature from a stored value. Temperatures
// are reported in tenths of a degree.
func legacyState(f Feature, v any) (model.State, bool) {
	switch f.DataType {
	case model.ValueBool:
		b, ok := v.(bool)
		if !ok {
			n, _ := toFloat(v)
			b = n != 0
		}
		return model.State{Key: f.Name, Value: model.BoolValue(b)}, true

	case model.ValueInteger:
		n, ok := toFloat(v)
		if !ok {
			return model.State{}, false
		}
		if f.Name == model.FeatureTemperature {
			n *= 10
		}
		return model.State{Key: f.Name, Value: model.IntegerValue(int64(math.Round(n)))}, true

	case model.ValueEnum:
		s, _ := v.(string)
		if s == "" {
			return model.State{}, false
		}
		return model.State{Key: f.Name, Value: model.EnumValue(s)}, true
	}
	return model.State{}, false
}
