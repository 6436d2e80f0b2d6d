package entity

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
)

const absoluteZero = -273.15

// Climate exposes an air conditioner as a Sber hvac_ac device.
type Climate struct {
	base

	on                bool
	temperature       *float64
	targetTemperature *float64
	fanModes          []string
	swingModes        []string
	hvacModes         []string
	fanMode           string
	swingMode         string
	hvacMode          string
	hvacAction        string
	minTemp           float64
	maxTemp           float64
	targetTempStep    float64
}

func NewClimate(rec model.EntityRecord) Entity {
	return &Climate{base: newBase(rec, model.CategoryHvacAC)}
}

func (c *Climate) FillByHAState(state model.HAState) {
	c.fill(state)
	attrs := c.attrs()

	c.on = state.State != stateOff && state.State != stateUnavailable
	c.temperature = optionalFloat(attrs, "current_temperature")
	c.targetTemperature = optionalFloat(attrs, "temperature")
	c.fanModes = attrs.Strings("fan_modes")
	c.swingModes = attrs.Strings("swing_modes")
	c.hvacModes = attrs.Strings("hvac_modes")
	c.fanMode = firstOr(attrs.String("fan_mode"), c.fanModes)
	c.swingMode = firstOr(attrs.String("swing_mode"), c.swingModes)
	c.hvacAction = attrs.String("hvac_action")
	c.hvacMode = ""
	if lo.Contains(c.hvacModes, state.State) {
		c.hvacMode = state.State
	}
	c.minTemp, _ = attrs.Float("min_temp")
	c.maxTemp, _ = attrs.Float("max_temp")
	c.targetTempStep, _ = attrs.Float("target_temp_step")
}

func optionalFloat(attrs model.Attributes, key string) *float64 {
	if v, ok := attrs.Float(key); ok {
		return &v
	}
	return nil
}

func firstOr(v string, options []string) string {
	if v != "" || len(options) == 0 {
		return v
	}
	return options[0]
}

func (c *Climate) Temperature() *float64       { return c.temperature }
func (c *Climate) TargetTemperature() *float64 { return c.targetTemperature }
func (c *Climate) FanMode() string             { return c.fanMode }
func (c *Climate) SwingMode() string           { return c.swingMode }
func (c *Climate) HvacMode() string            { return c.hvacMode }
func (c *Climate) HvacAction() string          { return c.hvacAction }
func (c *Climate) IsOn() bool                  { return c.on }

func (c *Climate) SetOn(on bool) {
	c.on = on
}

func (c *Climate) SetTemperature(v float64) error {
	if v < absoluteZero {
		return fmt.Errorf("%w: temperature %v below absolute zero", ErrInvalidValue, v)
	}
	c.temperature = &v
	return nil
}

func (c *Climate) SetTargetTemperature(v float64) error {
	if v < absoluteZero {
		return fmt.Errorf("%w: target temperature %v below absolute zero", ErrInvalidValue, v)
	}
	c.targetTemperature = &v
	return nil
}

func (c *Climate) SetFanMode(mode string) error {
	if !lo.Contains(c.fanModes, mode) {
		return fmt.Errorf("%w: fan mode %q", ErrInvalidValue, mode)
	}
	c.fanMode = mode
	return nil
}

func (c *Climate) SetSwingMode(mode string) error {
	if !lo.Contains(c.swingModes, mode) {
		return fmt.Errorf("%w: swing mode %q", ErrInvalidValue, mode)
	}
	c.swingMode = mode
	return nil
}

func (c *Climate) SetHvacMode(mode string) error {
	if !lo.Contains(c.hvacModes, mode) {
		return fmt.Errorf("%w: hvac mode %q", ErrInvalidValue, mode)
	}
	c.hvacMode = mode
	return nil
}

func (c *Climate) Features() []string {
	features := []string{
		model.FeatureOnline,
		model.FeatureOnOff,
		model.FeatureTemperature,
		model.FeatureHvacTempSet,
	}
	if len(c.swingModes) > 0 {
		features = append(features, model.FeatureHvacAirFlowDirection)
	}
	if len(c.fanModes) > 0 {
		features = append(features, model.FeatureHvacAirFlowPower)
	}
	if len(c.hvacModes) > 0 {
		features = append(features, model.FeatureHvacWorkMode)
	}
	return features
}

func (c *Climate) AllowedValues() map[string]model.AllowedValue {
	allowed := map[string]model.AllowedValue{}
	if len(c.fanModes) > 0 {
		allowed[model.FeatureHvacAirFlowPower] = model.EnumOf(c.fanModes...)
	}
	if len(c.swingModes) > 0 {
		allowed[model.FeatureHvacAirFlowDirection] = model.EnumOf(c.swingModes...)
	}
	if len(c.hvacModes) > 0 {
		allowed[model.FeatureHvacWorkMode] = model.EnumOf(c.hvacModes...)
	}
	if c.maxTemp > c.minTemp {
		allowed[model.FeatureHvacTempSet] = c.targetRange()
	}
	return allowed
}

// targetRange widens min_temp/max_temp to whole degrees. Sber only takes
// integer steps, so anything finer becomes 1.
func (c *Climate) targetRange() model.AllowedValue {
	v := model.IntegerRange(int64(math.Floor(c.minTemp)), int64(math.Ceil(c.maxTemp)))
	v.IntegerValues.Step = int64(math.Max(1, math.Round(c.targetTempStep)))
	return v
}

func (c *Climate) Descriptor() (model.Descriptor, error) {
	return c.descriptor(c.Features(), c.AllowedValues())
}

// CurrentState reports temperature in tenths of a degree and the target in
// whole degrees.
func (c *Climate) CurrentState() (model.DeviceStates, error) {
	states := []model.State{
		onlineState(c.state.State != stateUnavailable),
		{Key: model.FeatureOnOff, Value: model.BoolValue(c.on)},
	}
	if c.temperature != nil {
		states = append(states, model.State{Key: model.FeatureTemperature, Value: model.IntegerValue(int64(math.Round(*c.temperature * 10)))})
	}
	if c.targetTemperature != nil {
		states = append(states, model.State{Key: model.FeatureHvacTempSet, Value: model.IntegerValue(int64(math.Round(*c.targetTemperature)))})
	}
	if c.swingMode != "" && len(c.swingModes) > 0 {
		states = append(states, model.State{Key: model.FeatureHvacAirFlowDirection, Value: model.EnumValue(c.swingMode)})
	}
	if c.fanMode != "" && len(c.fanModes) > 0 {
		states = append(states, model.State{Key: model.FeatureHvacAirFlowPower, Value: model.EnumValue(c.fanMode)})
	}
	if c.hvacMode != "" {
		states = append(states, model.State{Key: model.FeatureHvacWorkMode, Value: model.EnumValue(c.hvacMode)})
	}
	return c.currentState(states...)
}

// ProcessCommand maps Sber hvac keys onto climate services. Values rejected
// by the setters are dropped.
func (c *Climate) ProcessCommand(states []model.State) CommandResult {
	var res CommandResult
	for _, s := range states {
		switch s.Key {
		case model.FeatureOnOff:
			c.on = s.Value.Bool()
			res.Calls = append(res.Calls, onOffCall(&c.base, c.on))

		case model.FeatureHvacTempSet:
			target := s.Value.Float(0)
			if err := c.SetTargetTemperature(target); err != nil {
				continue
			}
			// TODO: pick the mode from hvac_work_mode once Sber sends it alongside the target.
			mode := "heat"
			if c.on {
				mode = "cool"
			}
			res.Calls = append(res.Calls, c.call("set_temperature", map[string]any{
				"temperature": target,
				"hvac_mode":   mode,
			}))

		case model.FeatureHvacAirFlowPower:
			if err := c.SetFanMode(s.Value.Enum()); err != nil {
				continue
			}
			res.Calls = append(res.Calls, c.call("set_fan_mode", map[string]any{"fan_mode": c.fanMode}))

		case model.FeatureHvacAirFlowDirection:
			if err := c.SetSwingMode(s.Value.Enum()); err != nil {
				continue
			}
			res.Calls = append(res.Calls, c.call("set_swing_mode", map[string]any{"swing_mode": c.swingMode}))

		case model.FeatureHvacWorkMode:
			if err := c.SetHvacMode(s.Value.Enum()); err != nil {
				continue
			}
			res.Calls = append(res.Calls, c.call("set_hvac_mode", map[string]any{"hvac_mode": c.hvacMode}))
		}
	}
	return res
}

func (c *Climate) ProcessStateChange(_, newState *model.HAState) {
	if newState != nil {
		c.FillByHAState(*newState)
	}
}
