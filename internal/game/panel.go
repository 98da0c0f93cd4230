package game

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/iburimskiy/particle-field/internal/panel"
)

type widget int

const (
	widgetNone widget = iota
	widgetToggle
	widgetSensitivity
	widgetVolume
)

const (
	panelRight  = 14
	panelBottom = 90
	panelGap    = 8

	toggleWidth  = 84
	toggleHeight = 28
	sliderWidth  = 120
	sliderHeight = 14
)

// panelLayout is the screen placement of the panel widgets, stacked
// bottom-right: toggle, sensitivity slider, volume slider.
type panelLayout struct {
	toggle, sensitivity, volume image.Rectangle
}

func layoutPanel(width, height int) panelLayout {
	right := width - panelRight
	bottom := height - panelBottom
	vol := image.Rect(right-sliderWidth, bottom-sliderHeight, right, bottom)
	sens := vol.Sub(image.Pt(0, sliderHeight+panelGap))
	toggle := image.Rect(right-toggleWidth, sens.Min.Y-panelGap-toggleHeight, right, sens.Min.Y-panelGap)
	return panelLayout{toggle: toggle, sensitivity: sens, volume: vol}
}

func (l panelLayout) rect(w widget) image.Rectangle {
	switch w {
	case widgetToggle:
		return l.toggle
	case widgetSensitivity:
		return l.sensitivity
	case widgetVolume:
		return l.volume
	}
	return image.Rectangle{}
}

// hit returns the widget under (x, y). Sliders only count when shown.
func (l panelLayout) hit(x, y int, sliders bool) widget {
	p := image.Pt(x, y)
	ws := []widget{widgetToggle}
	if sliders {
		ws = append(ws, widgetSensitivity, widgetVolume)
	}
	for _, w := range ws {
		if p.In(l.rect(w)) {
			return w
		}
	}
	return widgetNone
}

func (g *Game) drawPanel(screen *ebiten.Image, st panel.State, alpha float64) {
	r := g.widgets.toggle

	// Toggle background
	var bgColor color.Color
	if st.Enabled {
		bgColor = withAlpha(color.RGBA{R: 100, G: 120, B: 160, A: 255}, alpha)
	} else {
		bgColor = withAlpha(color.RGBA{R: 60, G: 64, B: 80, A: 255}, alpha)
	}
	vector.DrawFilledRect(screen, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), bgColor, false)

	borderColor := withAlpha(color.RGBA{R: 150, G: 170, B: 200, A: 255}, alpha)
	vector.StrokeRect(screen, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), 2, borderColor, false)

	label := "audio on"
	if !st.Enabled {
		label = "muted"
	}
	textWidth := len(label) * 6 // debug font glyph width
	ebitenutil.DebugPrintAt(screen, label, r.Min.X+(r.Dx()-textWidth)/2, r.Min.Y+(r.Dy()-16)/2)

	if !st.ShowSliders {
		return
	}
	g.drawSlider(screen, g.widgets.sensitivity, st.Sensitivity, alpha)
	g.drawSlider(screen, g.widgets.volume, st.Volume, alpha)
}

func (g *Game) drawSlider(screen *ebiten.Image, r image.Rectangle, pos, alpha float64) {
	midY := float32(r.Min.Y + r.Dy()/2)
	track := withAlpha(color.RGBA{R: 70, G: 80, B: 100, A: 255}, alpha)
	fill := withAlpha(color.RGBA{R: 159, G: 182, B: 255, A: 255}, alpha)

	vector.StrokeLine(screen, float32(r.Min.X), midY, float32(r.Max.X), midY, 3, track, false)
	knobX := float32(r.Min.X) + float32(pos)*float32(r.Dx())
	vector.StrokeLine(screen, float32(r.Min.X), midY, knobX, midY, 3, fill, false)
	vector.DrawFilledCircle(screen, knobX, midY, float32(r.Dy())/2, fill, false)
}
