package engine

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
)

// vectorCanvas writes SVG. Shapes go to a body buffer so the background
// rect can be emitted first regardless of where the script set it.
type vectorCanvas struct {
	width, height int
	background    color.Color
	body          bytes.Buffer
	doc           *svg.SVG
	// groups counts the open transform groups per push frame.
	groups []int
}

func newVectorCanvas(width, height int) *vectorCanvas {
	v := &vectorCanvas{width: width, height: height, groups: []int{0}}
	v.doc = svg.New(&v.body)
	return v
}

func (v *vectorCanvas) Background(c color.Color) { v.background = c }

func (v *vectorCanvas) Rect(x, y, w, h, radius float64, st Style) {
	if w < 0 {
		x, w = x+w, -w
	}
	if h < 0 {
		y, h = y+h, -h
	}
	if radius > 0 {
		r := px(radius)
		v.doc.Roundrect(px(x), px(y), px(w), px(h), r, r, svgStyle(st))
		return
	}
	v.doc.Rect(px(x), px(y), px(w), px(h), svgStyle(st))
}

func (v *vectorCanvas) Ellipse(x, y, w, h float64, st Style) {
	v.doc.Ellipse(px(x+w/2), px(y+h/2), px(math.Abs(w/2)), px(math.Abs(h/2)), svgStyle(st))
}

func (v *vectorCanvas) Line(x1, y1, x2, y2 float64, st Style) {
	if st.Stroke == nil {
		return
	}
	v.doc.Line(px(x1), px(y1), px(x2), px(y2), svgStyle(Style{Stroke: st.Stroke, StrokeWidth: st.StrokeWidth}))
}

func (v *vectorCanvas) Path(segs []Segment, st Style) {
	var d strings.Builder
	for _, s := range segs {
		switch s.Kind {
		case SegmentMove:
			fmt.Fprintf(&d, "M%s,%s ", num(s.Pts[0].X), num(s.Pts[0].Y))
		case SegmentLine:
			fmt.Fprintf(&d, "L%s,%s ", num(s.Pts[0].X), num(s.Pts[0].Y))
		case SegmentCurve:
			fmt.Fprintf(&d, "C%s,%s %s,%s %s,%s ",
				num(s.Pts[0].X), num(s.Pts[0].Y),
				num(s.Pts[1].X), num(s.Pts[1].Y),
				num(s.Pts[2].X), num(s.Pts[2].Y))
		case SegmentClose:
			d.WriteString("Z ")
		}
	}
	v.doc.Path(strings.TrimSpace(d.String()), svgStyle(st))
}

func (v *vectorCanvas) Text(s string, x, y float64, st Style) {
	if st.Fill == nil {
		return
	}
	v.doc.Text(px(x), px(y), s, "font-family:sans-serif;font-size:13px;"+paint("fill", st.Fill))
}

func (v *vectorCanvas) Translate(dx, dy float64) {
	v.transform(fmt.Sprintf("translate(%s,%s)", num(dx), num(dy)))
}

func (v *vectorCanvas) Rotate(degrees float64) {
	v.transform(fmt.Sprintf("rotate(%s)", num(degrees)))
}

func (v *vectorCanvas) Scale(sx, sy float64) {
	v.transform(fmt.Sprintf("scale(%s,%s)", num(sx), num(sy)))
}

func (v *vectorCanvas) transform(t string) {
	v.doc.Gtransform(t)
	v.groups[len(v.groups)-1]++
}

func (v *vectorCanvas) Push() { v.groups = append(v.groups, 0) }

func (v *vectorCanvas) Pop() {
	if len(v.groups) == 1 {
		return
	}
	v.closeGroups(v.groups[len(v.groups)-1])
	v.groups = v.groups[:len(v.groups)-1]
}

func (v *vectorCanvas) closeGroups(n int) {
	for i := 0; i < n; i++ {
		v.doc.Gend()
	}
}

func (v *vectorCanvas) Encode(w io.Writer) error {
	for len(v.groups) > 1 {
		v.Pop()
	}
	v.closeGroups(v.groups[0])
	v.groups[0] = 0

	out := svg.New(w)
	out.Start(v.width, v.height)
	if v.background != nil {
		out.Rect(0, 0, v.width, v.height, paint("fill", v.background))
	}
	if _, err := out.Writer.Write(v.body.Bytes()); err != nil {
		return err
	}
	out.End()
	return nil
}

func px(f float64) int { return int(math.Round(f)) }

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func svgStyle(st Style) string {
	parts := []string{"fill:none"}
	if st.Fill != nil {
		parts = []string{paint("fill", st.Fill)}
	}
	if st.Stroke != nil && st.StrokeWidth > 0 {
		parts = append(parts, paint("stroke", st.Stroke), "stroke-width:"+num(st.StrokeWidth))
	}
	return strings.Join(parts, ";")
}

// paint renders a color as an SVG property plus its opacity when the color
// is not opaque.
func paint(prop string, c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	s := fmt.Sprintf("%s:rgb(%d,%d,%d)", prop, n.R, n.G, n.B)
	if n.A != 255 {
		s += fmt.Sprintf(";%s-opacity:%s", prop, num(float64(n.A)/255))
	}
	return s
}
