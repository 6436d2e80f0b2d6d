package entity

import (
	"github.com/samber/lo"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
)

const (
	openSetOpen  = "open"
	openSetClose = "close"
	openSetStop  = "stop"

	coverStateOpen = "open"
)

type Curtain struct {
	base
	position int
}

func NewCurtain(rec model.EntityRecord) Entity {
	return &Curtain{base: newBase(rec, model.CategoryCurtain)}
}

func (c *Curtain) FillByHAState(state model.HAState) {
	c.fill(state)
	if pos, ok := c.attrs().Int("current_position"); ok {
		c.position = lo.Clamp(pos, 0, 100)
		return
	}
	c.position = 0
	if state.State == coverStateOpen {
		c.position = 100
	}
}

func (c *Curtain) Position() int {
	return c.position
}

func (c *Curtain) Features() []string {
	return []string{
		model.FeatureOnline,
		model.FeatureOpenPercentage,
		model.FeatureOpenSet,
		model.FeatureOpenState,
	}
}

func (c *Curtain) AllowedValues() map[string]model.AllowedValue {
	return map[string]model.AllowedValue{
		model.FeatureOpenPercentage: model.IntegerRange(0, 100),
		model.FeatureOpenSet:        model.EnumOf(openSetOpen, openSetClose, openSetStop),
		model.FeatureOpenState:      model.EnumOf("open", "close"),
	}
}

func (c *Curtain) Descriptor() (model.Descriptor, error) {
	return c.descriptor(c.Features(), c.AllowedValues())
}

func (c *Curtain) CurrentState() (model.DeviceStates, error) {
	if c.state.State == stateUnavailable {
		return c.currentState(onlineState(false))
	}
	openState := "close"
	if c.position > 0 {
		openState = "open"
	}
	return c.currentState(
		onlineState(true),
		model.State{Key: model.FeatureOpenPercentage, Value: model.IntegerValue(int64(c.position))},
		model.State{Key: model.FeatureOpenState, Value: model.EnumValue(openState)},
	)
}

func (c *Curtain) ProcessCommand(states []model.State) CommandResult {
	var res CommandResult
	for _, s := range states {
		switch s.Key {
		case model.FeatureOpenPercentage, model.FeatureCoverPosition:
			pos := lo.Clamp(int(s.Value.Int(0)), 0, 100)
			res.Calls = append(res.Calls, c.call("set_cover_position", map[string]any{"position": pos}))

		case model.FeatureOpenSet:
			switch s.Value.Enum() {
			case openSetOpen:
				res.Calls = append(res.Calls, c.call("open_cover", nil))
			case openSetClose:
				res.Calls = append(res.Calls, c.call("close_cover", nil))
			case openSetStop:
				res.Calls = append(res.Calls, c.call("stop_cover", nil))
			}
		}
	}
	return res
}

func (c *Curtain) ProcessStateChange(_, newState *model.HAState) {
	if newState != nil {
		c.FillByHAState(*newState)
	}
}
