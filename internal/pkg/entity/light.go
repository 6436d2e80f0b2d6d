package entity

import (
	"strings"

	"github.com/samber/lo"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/converter"
	"github.com/ikstema/mqtt-sbergate/internal/pkg/model"
)

const (
	defaultMinMireds = 153
	defaultMaxMireds = 500

	sberBrightnessMin = 50
	sberBrightnessMax = 1000
	haBrightnessFloor = 50
	haBrightnessMax   = 255

	lightModeWhite  = "white"
	lightModeColour = "colour"

	supportBrightness = 1
)

var (
	colourModes = []string{"xy", "hs", "rgb", "rgbw", "rgbww", "rgbcw", "rgbcct"}

	brightnessModes = append([]string{"brightness", "color_temp", "white", "warmwhite", "coldwhite"}, colourModes...)

	// upstream colour modes that mean the lamp is showing white light
	whiteColourModes = []string{"white", "color_temp"}
)

type Light struct {
	base

	brightness *converter.Linear
	colourTemp *converter.Linear

	on                bool
	haBrightness      int
	sberBrightness    int
	sberColourTemp    *int
	colourMode        bool
	supportedFeatures int
	colorModes        []string
	hs                []float64
}

func NewLight(rec model.EntityRecord) Entity {
	l := &Light{
		base:       newBase(rec, model.CategoryLight),
		brightness: converter.NewLinear(false),
		colourTemp: converter.NewLinear(true),
		colourMode: true,
	}
	// fixed, valid limits
	_ = l.brightness.SetHALimits(0, haBrightnessMax)
	_ = l.brightness.SetSberLimits(sberBrightnessMin, sberBrightnessMax)
	_ = l.colourTemp.SetHALimits(defaultMinMireds, defaultMaxMireds)
	_ = l.colourTemp.SetSberLimits(0, 1000)
	return l
}

func (l *Light) FillByHAState(state model.HAState) {
	l.fill(state)
	attrs := l.attrs()

	minMireds, ok := attrs.Float("min_mireds")
	if !ok {
		minMireds = defaultMinMireds
	}
	maxMireds, ok := attrs.Float("max_mireds")
	if !ok {
		maxMireds = defaultMaxMireds
	}
	// an inverted range from upstream keeps the previous limits
	_ = l.colourTemp.SetHALimits(minMireds, maxMireds)

	l.on = l.isOn()

	// a missing brightness reads as 0, which maps onto the Sber floor
	l.haBrightness, _ = attrs.Int("brightness")
	l.sberBrightness = l.brightness.HAToSber(float64(l.haBrightness))

	l.sberColourTemp = nil
	if mireds, ok := attrs.Float("color_temp"); ok {
		v := l.colourTemp.HAToSber(mireds)
		l.sberColourTemp = &v
	}

	colorMode := attrs.String("color_mode")
	l.colourMode = !lo.Contains(whiteColourModes, colorMode)

	l.supportedFeatures, _ = attrs.Int("supported_features")
	l.colorModes = normalizeModes(attrs.Strings("supported_color_modes"))
	l.hs = attrs.Floats("hs_color")
}

func normalizeModes(modes []string) []string {
	return lo.Uniq(lo.Map(modes, func(m string, _ int) string {
		return strings.ToLower(m)
	}))
}

func (l *Light) SupportsColour() bool {
	return len(lo.Intersect(l.colorModes, colourModes)) > 0
}

// SupportsBrightness follows the colour-mode list when upstream reports one and
// falls back to the legacy supported_features bit otherwise.
func (l *Light) SupportsBrightness() bool {
	if len(l.colorModes) > 0 {
		if len(l.colorModes) == 1 && l.colorModes[0] == "onoff" {
			return false
		}
		return len(lo.Intersect(l.colorModes, brightnessModes)) > 0 ||
			len(lo.Without(l.colorModes, "onoff")) > 0
	}
	return l.supportedFeatures&supportBrightness != 0
}

func (l *Light) SupportsColourTemp() bool {
	return lo.Contains(l.colorModes, "color_temp")
}

func (l *Light) Features() []string {
	features := []string{model.FeatureOnline, model.FeatureOnOff}
	if l.SupportsBrightness() {
		features = append(features, model.FeatureLightBrightness)
	}
	if l.SupportsColour() {
		features = append(features, model.FeatureLightColour, model.FeatureLightMode)
	}
	if l.SupportsColourTemp() {
		features = append(features, model.FeatureLightColourTemp)
	}
	return features
}

func (l *Light) AllowedValues() map[string]model.AllowedValue {
	allowed := map[string]model.AllowedValue{}
	if l.SupportsBrightness() {
		allowed[model.FeatureLightBrightness] = model.IntegerRange(sberBrightnessMin, sberBrightnessMax)
	}
	if l.SupportsColour() {
		allowed[model.FeatureLightColour] = model.AllowedValue{Type: model.ValueColour}
		allowed[model.FeatureLightMode] = model.EnumOf(lightModeWhite, lightModeColour)
	}
	if l.SupportsColourTemp() {
		allowed[model.FeatureLightColourTemp] = model.IntegerRange(0, 1000)
	}
	return allowed
}

func (l *Light) Descriptor() (model.Descriptor, error) {
	return l.descriptor(l.Features(), l.AllowedValues())
}

func (l *Light) CurrentState() (model.DeviceStates, error) {
	states := []model.State{
		onlineState(l.state.State != stateUnavailable),
		{Key: model.FeatureOnOff, Value: model.BoolValue(l.on)},
	}
	if l.SupportsBrightness() && l.sberBrightness != 0 {
		states = append(states, model.State{Key: model.FeatureLightBrightness, Value: model.IntegerValue(int64(l.sberBrightness))})
	}

	if l.on {
		if l.colourMode && len(l.hs) >= 2 {
			c := converter.HAToSberHSV(l.hs[0], l.hs[1], float64(l.haBrightness))
			states = append(states,
				model.State{Key: model.FeatureLightColour, Value: model.ColourValueOf(c.H, c.S, c.V)},
				model.State{Key: model.FeatureLightMode, Value: model.EnumValue(lightModeColour)},
			)
		} else {
			if l.sberColourTemp != nil {
				states = append(states, model.State{Key: model.FeatureLightColourTemp, Value: model.IntegerValue(int64(*l.sberColourTemp))})
			}
			states = append(states, model.State{Key: model.FeatureLightMode, Value: model.EnumValue(lightModeWhite)})
		}
	}
	return l.currentState(states...)
}

// ProcessCommand translates Sber keys into light service calls. Brightness,
// colour and temperature are only sent while the lamp is on.
func (l *Light) ProcessCommand(states []model.State) CommandResult {
	var res CommandResult
	for _, s := range states {
		switch s.Key {
		case model.FeatureOnOff:
			l.on = s.Value.Bool()
			res.Calls = append(res.Calls, onOffCall(&l.base, l.on))

		case model.FeatureLightBrightness:
			ha := l.brightness.SberToHA(float64(s.Value.Int(sberBrightnessMin)))
			ha = lo.Clamp(ha, haBrightnessFloor, haBrightnessMax)
			if l.on {
				res.Calls = append(res.Calls, l.call("turn_on", map[string]any{"brightness": ha}))
			}

		case model.FeatureLightColour:
			var c converter.HSV
			if cv := s.Value.ColourValue; cv != nil {
				c = converter.SberToHAHSV(
					min(float64(cv.H), 360),
					min(float64(cv.S), 1000),
					min(float64(cv.V), 1000),
				)
			} else {
				c = converter.HAToSberHSV(0, 0, 0)
			}
			if l.on {
				res.Calls = append(res.Calls, l.call("turn_on", map[string]any{
					"hs_color":   []int{c.H, c.S},
					"brightness": c.V,
				}))
			}

		case model.FeatureLightMode:
			l.colourMode = s.Value.Enum() == lightModeColour
			res.StateChanged = true

		case model.FeatureLightColourTemp:
			mireds := l.colourTemp.SberToHA(float64(s.Value.Int(0)))
			if l.on {
				res.Calls = append(res.Calls, l.call("turn_on", map[string]any{"color_temp": mireds}))
			}
		}
	}
	return res
}

func (l *Light) ProcessStateChange(_, newState *model.HAState) {
	if newState != nil {
		l.FillByHAState(*newState)
	}
}
