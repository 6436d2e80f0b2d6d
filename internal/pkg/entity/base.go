package entity

import (
	"fmt"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
)

const (
	stateOn          = "on"
	stateOff         = "off"
	stateUnavailable = "unavailable"
)

// base carries identity, display metadata and the raw snapshot shared by
// every variant.
type base struct {
	entityID       string
	id             string
	uniqueID       string
	platform       string
	configEntryID  string
	entityCategory string
	areaID         string
	deviceID       string
	name           string
	explicitName   bool
	originalName   string
	labels         []string
	category       model.Category

	state  model.HAState
	filled bool
	device *model.Device
}

func newBase(rec model.EntityRecord, category model.Category) base {
	b := base{
		entityID:       rec.EntityID,
		id:             rec.ID,
		uniqueID:       rec.UniqueID,
		platform:       rec.Platform,
		configEntryID:  rec.ConfigEntryID,
		entityCategory: rec.EntityCategory,
		areaID:         rec.AreaID,
		deviceID:       rec.DeviceID,
		originalName:   rec.OriginalName,
		labels:         rec.Labels,
		category:       category,
	}
	switch {
	case rec.Name != "":
		b.name = rec.Name
		b.explicitName = true
	case rec.OriginalName != "":
		b.name = rec.OriginalName
	default:
		b.name = rec.EntityID
	}
	return b
}

func (b *base) EntityID() string         { return b.entityID }
func (b *base) ID() string               { return b.id }
func (b *base) Category() model.Category { return b.category }
func (b *base) Name() string             { return b.name }
func (b *base) OriginalName() string     { return b.originalName }
func (b *base) AreaID() string           { return b.areaID }
func (b *base) DeviceID() string         { return b.deviceID }
func (b *base) Device() *model.Device    { return b.device }
func (b *base) IsFilled() bool           { return b.filled }
func (b *base) EntityCategory() string   { return b.entityCategory }
func (b *base) State() model.HAState     { return b.state }

func (b *base) LinkDevice(device *model.Device) error {
	if device == nil || device.ID != b.deviceID {
		return fmt.Errorf("%w: entity %s expects %q", ErrDeviceMismatch, b.entityID, b.deviceID)
	}
	if b.device == nil {
		b.device = device
	}
	return nil
}

func (b *base) fill(state model.HAState) {
	state.Attributes = state.Attributes.Clone()
	b.state = state
	b.filled = true
}

// IsGroupState reports whether the snapshot enumerates member entities.
func (b *base) IsGroupState() bool {
	return len(b.GroupMembers()) > 0
}

func (b *base) GroupMembers() []string {
	return b.state.Attributes.Strings("entity_id")
}

func (b *base) isOn() bool {
	return b.state.State == stateOn
}

func (b *base) attrs() model.Attributes {
	return b.state.Attributes
}

// descriptor builds the devices-list entry. An entity without a device gets a
// synthetic model, otherwise the linked device supplies the metadata.
func (b *base) descriptor(features []string, allowed map[string]model.AllowedValue) (model.Descriptor, error) {
	if !b.filled {
		return model.Descriptor{}, fmt.Errorf("%w: %s", ErrNotFilled, b.entityID)
	}
	if len(allowed) == 0 {
		allowed = nil
	}

	if b.deviceID == "" {
		return model.Descriptor{
			ID:          b.entityID,
			Name:        b.name,
			DefaultName: b.entityID,
			Room:        b.areaID,
			Model: &model.DeviceModel{
				ID:            "Mdl_" + b.category.String(),
				Manufacturer:  model.Unknown,
				Model:         model.Unknown,
				Description:   b.name,
				Category:      b.category,
				Features:      features,
				AllowedValues: allowed,
			},
			HwVersion: model.Unknown,
			SwVersion: model.Unknown,
		}, nil
	}

	if b.device == nil {
		return model.Descriptor{}, fmt.Errorf("%w: %s (device %s)", ErrDeviceNotLinked, b.entityID, b.deviceID)
	}

	name := b.device.DisplayName(b.originalName)
	if b.explicitName {
		name = b.name
	}
	room := b.areaID
	if room == "" {
		room = b.device.AreaID
	}
	return model.Descriptor{
		ID:          b.entityID,
		Name:        name,
		DefaultName: b.originalName,
		Room:        room,
		Model: &model.DeviceModel{
			ID:            b.device.SberModelID(),
			Manufacturer:  b.device.Manufacturer,
			Model:         b.device.Model,
			Description:   b.device.DisplayName(b.name),
			Category:      b.category,
			Features:      features,
			AllowedValues: allowed,
		},
		HwVersion: b.device.HwVersion,
		SwVersion: b.device.SwVersion,
	}, nil
}

func (b *base) currentState(states ...model.State) (model.DeviceStates, error) {
	if !b.filled {
		return model.DeviceStates{}, fmt.Errorf("%w: %s", ErrNotFilled, b.entityID)
	}
	return model.DeviceStates{States: states}, nil
}

func (b *base) call(service string, data map[string]any) model.ServiceCall {
	return model.NewServiceCall(b.entityID, service, data)
}

func onlineState(online bool) model.State {
	return model.State{Key: model.FeatureOnline, Value: model.BoolValue(online)}
}

func onOffCall(b *base, on bool) model.ServiceCall {
	if on {
		return b.call("turn_on", nil)
	}
	return b.call("turn_off", nil)
}
