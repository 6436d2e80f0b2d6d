package entity

import (
	"errors"
	"fmt"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
)

var (
	ErrNotFilled       = errors.New("entity: state snapshot has not been filled")
	ErrDeviceNotLinked = errors.New("entity: device_id is set but no device is linked")
	ErrDeviceMismatch  = errors.New("entity: device id does not match")
	ErrInvalidValue    = errors.New("entity: value outside of declared domain")
	ErrUnknownVariant  = errors.New("entity: unknown variant")
)

// Entity is one upstream entity exposed to Sber.
type Entity interface {
	EntityID() string
	ID() string
	Category() model.Category
	Name() string
	OriginalName() string
	// EntityCategory is the upstream registry category (config, diagnostic).
	EntityCategory() string
	AreaID() string
	DeviceID() string
	Device() *model.Device
	// LinkDevice attaches device metadata. The first successful link wins.
	LinkDevice(device *model.Device) error

	IsFilled() bool
	State() model.HAState
	IsGroupState() bool
	GroupMembers() []string

	FillByHAState(state model.HAState)
	Features() []string
	AllowedValues() map[string]model.AllowedValue
	Descriptor() (model.Descriptor, error)
	CurrentState() (model.DeviceStates, error)
	ProcessCommand(states []model.State) CommandResult
	ProcessStateChange(oldState, newState *model.HAState)
}

// CommandResult carries the upstream actions produced by a Sber command.
// StateChanged is set when the command altered local state that Sber should
// see again without waiting for an upstream event.
type CommandResult struct {
	Calls        []model.ServiceCall
	StateChanged bool
}

// Constructor builds an entity from its entity registry record.
type Constructor func(rec model.EntityRecord) Entity

// Variants maps variant names used in configuration to constructors.
var Variants = map[string]Constructor{
	"light":           NewLight,
	"curtain":         NewCurtain,
	"climate":         NewClimate,
	"relay":           NewRelay,
	"sensor_temp":     NewTemperatureSensor,
	"motion":          NewMotionSensor,
	"scenario_button": NewScenarioButton,
}

// DefaultDomains is the domain → variant table used unless configured otherwise.
var DefaultDomains = map[string]string{
	"light":         "light",
	"cover":         "curtain",
	"climate":       "climate",
	"binary_sensor": "motion",
}

// ConstructorsFor resolves a domain → variant table into constructors.
func ConstructorsFor(domains map[string]string) (map[string]Constructor, error) {
	out := make(map[string]Constructor, len(domains))
	for domain, variant := range domains {
		ctor, ok := Variants[variant]
		if !ok {
			return nil, fmt.Errorf("%w: %s for domain %s", ErrUnknownVariant, variant, domain)
		}
		out[domain] = ctor
	}
	return out, nil
}
