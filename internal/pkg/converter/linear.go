package converter

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLimits is returned when a range is configured with min >= max.
var ErrInvalidLimits = errors.New("converter: min must be less than max")

const (
	defaultSberMin = 0
	defaultSberMax = 1000
	defaultHAMin   = 0
	defaultHAMax   = 255
)

// Linear rescales values between the Sber and Home Assistant numeric ranges.
// Inputs outside the source range resolve to the nearest destination bound.
type Linear struct {
	sberMin  float64
	sberMax  float64
	haMin    float64
	haMax    float64
	reversed bool
}

// NewLinear returns a converter for sber 0..1000 <-> ha 0..255.
// When reversed, the low end of one range maps onto the high end of the other.
func NewLinear(reversed bool) *Linear {
	return &Linear{
		sberMin:  defaultSberMin,
		sberMax:  defaultSberMax,
		haMin:    defaultHAMin,
		haMax:    defaultHAMax,
		reversed: reversed,
	}
}

func (c *Linear) SetReversed(reversed bool) {
	c.reversed = reversed
}

func (c *Linear) Reversed() bool {
	return c.reversed
}

func (c *Linear) SetSberLimits(min, max float64) error {
	if min >= max {
		return fmt.Errorf("%w: sber limits %v..%v", ErrInvalidLimits, min, max)
	}
	c.sberMin, c.sberMax = min, max
	return nil
}

func (c *Linear) SetHALimits(min, max float64) error {
	if min >= max {
		return fmt.Errorf("%w: ha limits %v..%v", ErrInvalidLimits, min, max)
	}
	c.haMin, c.haMax = min, max
	return nil
}

func (c *Linear) SberLimits() (float64, float64) {
	return c.sberMin, c.sberMax
}

func (c *Linear) HALimits() (float64, float64) {
	return c.haMin, c.haMax
}

func (c *Linear) SberToHA(v float64) int {
	return rescale(v, c.sberMin, c.sberMax, c.haMin, c.haMax, c.reversed)
}

func (c *Linear) HAToSber(v float64) int {
	return rescale(v, c.haMin, c.haMax, c.sberMin, c.sberMax, c.reversed)
}

// rescale clamps out-of-range inputs to the destination bound on the same
// side, whether or not the mapping is reversed.
func rescale(v, srcMin, srcMax, dstMin, dstMax float64, reversed bool) int {
	switch {
	case v < srcMin:
		return round(dstMin)
	case v > srcMax:
		return round(dstMax)
	}
	delta := v - srcMin
	if reversed {
		delta = srcMax - v
	}
	return round(delta*(dstMax-dstMin)/(srcMax-srcMin) + dstMin)
}

// round uses banker's rounding so that x.5 lands on the even neighbour.
func round(v float64) int {
	return int(math.RoundToEven(v))
}
