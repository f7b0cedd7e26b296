package draw

import (
	"image"
	"image/color"
	"image/draw"
)

// Ellipse defines the struct components required to apply the ellipse's formula.
type Ellipse struct {
	Cx int // center x
	Cy int // center y
	Rx int // semi-major axis x
	Ry int // semi-minor axis y
}

func (e *Ellipse) ColorModel() color.Model {
	return color.AlphaModel
}

func (e *Ellipse) Bounds() image.Rectangle {
	min := image.Point{
		X: e.Cx - e.Rx,
		Y: e.Cy - e.Ry,
	}
	max := image.Point{
		X: e.Cx + e.Rx + 1,
		Y: e.Cy + e.Ry + 1,
	}
	return image.Rectangle{Min: min, Max: max} // size of just mask
}

func (e *Ellipse) At(x, y int) color.Color {
	if e.Rx <= 0 || e.Ry <= 0 {
		return color.Alpha{0}
	}
	// Equation of ellipse
	p1 := float64((x-e.Cx)*(x-e.Cx)) / float64(e.Rx*e.Rx)
	p2 := float64((y-e.Cy)*(y-e.Cy)) / float64(e.Ry*e.Ry)
	eqn := p1 + p2

	if eqn <= 1 {
		return color.Alpha{255}
	}
	return color.Alpha{0}
}

// Union draws all the ellipses into a single alpha mask covering bounds.
// It returns nil when there is nothing to draw.
func Union(bounds image.Rectangle, ellipses []Ellipse) *image.Alpha {
	if len(ellipses) == 0 {
		return nil
	}
	mask := image.NewAlpha(bounds)
	for i := range ellipses {
		e := &ellipses[i]
		r := e.Bounds().Intersect(bounds)
		if r.Empty() {
			continue
		}
		draw.Draw(mask, r, e, r.Min, draw.Over)
	}
	return mask
}
