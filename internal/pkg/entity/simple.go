package entity

import (
	"math"
	"strconv"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
)

// simple is a read-only entity with a fixed snapshot. Sber commands are ignored.
type simple struct {
	base
	features []string
	snapshot func(s *simple) []model.State

	// lastChanged and pendingEvent are used by the scenario button only.
	lastChanged  string
	pendingEvent string
}

func newSimple(rec model.EntityRecord, category model.Category, features []string, snapshot func(*simple) []model.State) *simple {
	return &simple{
		base:     newBase(rec, category),
		features: append([]string{model.FeatureOnline}, features...),
		snapshot: snapshot,
	}
}

// NewRelay reports on/off only.
func NewRelay(rec model.EntityRecord) Entity {
	return newSimple(rec, model.CategoryRelay, []string{model.FeatureOnOff}, func(s *simple) []model.State {
		return []model.State{{Key: model.FeatureOnOff, Value: model.BoolValue(s.isOn())}}
	})
}

// NewTemperatureSensor reports the state as tenths of a degree.
func NewTemperatureSensor(rec model.EntityRecord) Entity {
	return newSimple(rec, model.CategorySensorTemp, []string{model.FeatureTemperature}, func(s *simple) []model.State {
		v, err := strconv.ParseFloat(s.state.State, 64)
		if err != nil {
			return nil
		}
		return []model.State{{Key: model.FeatureTemperature, Value: model.IntegerValue(int64(math.Round(v * 10)))}}
	})
}

// NewMotionSensor reports a pir event while motion is detected.
func NewMotionSensor(rec model.EntityRecord) Entity {
	return newSimple(rec, model.CategorySensorPir, []string{model.FeaturePirEvent}, func(s *simple) []model.State {
		if !s.isOn() {
			return nil
		}
		return []model.State{{Key: model.FeaturePirEvent, Value: model.EnumValue("pir")}}
	})
}

// NewScenarioButton emits a click once per upstream press.
func NewScenarioButton(rec model.EntityRecord) Entity {
	return newSimple(rec, model.CategoryScenarioButton, []string{model.FeatureButtonEvent}, func(s *simple) []model.State {
		if s.pendingEvent == "" {
			return nil
		}
		event := s.pendingEvent
		s.pendingEvent = ""
		return []model.State{{Key: model.FeatureButtonEvent, Value: model.EnumValue(event)}}
	})
}

func (s *simple) FillByHAState(state model.HAState) {
	first := !s.filled
	s.fill(state)
	if s.category != model.CategoryScenarioButton {
		return
	}
	changed := state.LastChanged != s.lastChanged
	s.lastChanged = state.LastChanged
	if !first && changed {
		s.pendingEvent = "click"
	}
}

func (s *simple) Features() []string {
	return s.features
}

func (s *simple) AllowedValues() map[string]model.AllowedValue {
	if s.category == model.CategoryScenarioButton {
		return map[string]model.AllowedValue{
			model.FeatureButtonEvent: model.EnumOf("click", "double_click"),
		}
	}
	return nil
}

func (s *simple) Descriptor() (model.Descriptor, error) {
	return s.descriptor(s.features, s.AllowedValues())
}

func (s *simple) CurrentState() (model.DeviceStates, error) {
	if !s.filled {
		return s.currentState()
	}
	states := []model.State{onlineState(s.state.State != stateUnavailable)}
	states = append(states, s.snapshot(s)...)
	return s.currentState(states...)
}

func (s *simple) ProcessCommand([]model.State) CommandResult {
	return CommandResult{}
}

func (s *simple) ProcessStateChange(_, newState *model.HAState) {
	if newState != nil {
		s.FillByHAState(*newState)
	}
}
