package converter

// HSV is a hue/saturation/value triple in one of the two colour domains.
//
//	Home Assistant: H 0..360, S 0..100, V 0..255
//	Sber:           H 0..360, S 0..1000, V 100..1000
type HSV struct {
	H int
	S int
	V int
}

// HAToSberHSV clamps each component to the Home Assistant domain and rescales
// it to the Sber domain. Sber has no zero brightness, V starts at 100.
func HAToSberHSV(h, s, v float64) HSV {
	h = clamp(h, 0, 360)
	s = clamp(s, 0, 100)
	v = float64(int(clamp(v, 0, 255)))

	return HSV{
		H: round(h),
		S: round(s * 10),
		V: round(v/255*900 + 100),
	}
}

// SberToHAHSV is the inverse of HAToSberHSV. Round trips are approximate.
func SberToHAHSV(h, s, v float64) HSV {
	h = clamp(h, 0, 360)
	s = clamp(s, 0, 1000)
	v = clamp(v, 100, 1000)

	return HSV{
		H: round(h),
		S: round(s / 10),
		V: round((v - 100) / 900 * 255),
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
