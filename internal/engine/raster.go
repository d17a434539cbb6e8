package engine

import (
	"image/color"
	"io"

	"github.com/fogleman/gg"
)

// rasterCanvas paints onto an RGBA image and encodes PNG.
type rasterCanvas struct {
	dc *gg.Context
}

func newRasterCanvas(width, height int) *rasterCanvas {
	return &rasterCanvas{dc: gg.NewContext(width, height)}
}

func (r *rasterCanvas) Background(c color.Color) {
	r.dc.SetColor(c)
	r.dc.Clear()
}

func (r *rasterCanvas) Rect(x, y, w, h, radius float64, st Style) {
	if radius > 0 {
		r.dc.DrawRoundedRectangle(x, y, w, h, radius)
	} else {
		r.dc.DrawRectangle(x, y, w, h)
	}
	r.paint(st)
}

func (r *rasterCanvas) Ellipse(x, y, w, h float64, st Style) {
	r.dc.DrawEllipse(x+w/2, y+h/2, w/2, h/2)
	r.paint(st)
}

func (r *rasterCanvas) Line(x1, y1, x2, y2 float64, st Style) {
	if st.Stroke == nil {
		return
	}
	r.dc.DrawLine(x1, y1, x2, y2)
	r.dc.SetColor(st.Stroke)
	r.dc.SetLineWidth(st.StrokeWidth)
	r.dc.Stroke()
}

func (r *rasterCanvas) Path(segs []Segment, st Style) {
	for _, s := range segs {
		switch s.Kind {
		case SegmentMove:
			r.dc.MoveTo(s.Pts[0].X, s.Pts[0].Y)
		case SegmentLine:
			r.dc.LineTo(s.Pts[0].X, s.Pts[0].Y)
		case SegmentCurve:
			r.dc.CubicTo(s.Pts[0].X, s.Pts[0].Y, s.Pts[1].X, s.Pts[1].Y, s.Pts[2].X, s.Pts[2].Y)
		case SegmentClose:
			r.dc.ClosePath()
		}
	}
	r.paint(st)
}

func (r *rasterCanvas) Text(s string, x, y float64, st Style) {
	if st.Fill == nil {
		return
	}
	r.dc.SetColor(st.Fill)
	r.dc.DrawString(s, x, y)
}

func (r *rasterCanvas) Translate(dx, dy float64) { r.dc.Translate(dx, dy) }
func (r *rasterCanvas) Rotate(degrees float64)   { r.dc.Rotate(gg.Radians(degrees)) }
func (r *rasterCanvas) Scale(sx, sy float64)     { r.dc.Scale(sx, sy) }
func (r *rasterCanvas) Push()                    { r.dc.Push() }
func (r *rasterCanvas) Pop()                     { r.dc.Pop() }

func (r *rasterCanvas) Encode(w io.Writer) error {
	return r.dc.EncodePNG(w)
}

// paint fills then strokes the current path and clears it.
func (r *rasterCanvas) paint(st Style) {
	if st.Fill != nil {
		r.dc.SetColor(st.Fill)
		r.dc.FillPreserve()
	}
	if st.Stroke != nil && st.StrokeWidth > 0 {
		r.dc.SetColor(st.Stroke)
		r.dc.SetLineWidth(st.StrokeWidth)
		r.dc.StrokePreserve()
	}
	r.dc.ClearPath()
}
