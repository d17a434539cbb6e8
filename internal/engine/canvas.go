package engine

import (
	"image/color"
	"io"
)

// Style is the paint state captured when a shape is drawn. A nil color
// means "do not paint".
type Style struct {
	Fill        color.Color
	Stroke      color.Color
	StrokeWidth float64
}

// SegmentKind identifies a path segment.
type SegmentKind int

const (
	SegmentMove SegmentKind = iota
	SegmentLine
	SegmentCurve
	SegmentClose
)

// Point is a 2D coordinate in canvas units.
type Point struct{ X, Y float64 }

// Segment is one element of a path. Move and Line use Pts[0]; Curve uses
// all three as control, control, end.
type Segment struct {
	Kind SegmentKind
	Pts  [3]Point
}

// Canvas is a drawing backend. The builtin engine replays a compiled
// Drawing onto a Canvas and then encodes it.
type Canvas interface {
	Background(c color.Color)
	Rect(x, y, w, h, radius float64, st Style)
	Ellipse(x, y, w, h float64, st Style)
	Line(x1, y1, x2, y2 float64, st Style)
	Path(segs []Segment, st Style)
	Text(s string, x, y float64, st Style)
	Translate(dx, dy float64)
	Rotate(degrees float64)
	Scale(sx, sy float64)
	Push()
	Pop()
	Encode(w io.Writer) error
}

// Op is one recorded drawing operation.
type Op func(c Canvas)

// Drawing is a compiled script: a canvas size, a background and the
// operations to replay.
type Drawing struct {
	Width, Height int
	Background    color.Color
	Ops           []Op
}

// Replay paints the drawing onto c.
func (d *Drawing) Replay(c Canvas) {
	if d.Background != nil {
		c.Background(d.Background)
	}
	for _, op := range d.Ops {
		op(c)
	}
}
