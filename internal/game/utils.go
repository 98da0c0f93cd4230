package game

import "image/color"

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// withAlpha scales a straight-alpha color into premultiplied RGBA.
func withAlpha(c color.RGBA, alpha float64) color.RGBA {
	a := clamp01(alpha)
	return color.RGBA{
		R: uint8(float64(c.R) * a),
		G: uint8(float64(c.G) * a),
		B: uint8(float64(c.B) * a),
		A: uint8(float64(c.A) * a),
	}
}
