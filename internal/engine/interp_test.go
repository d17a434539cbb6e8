package engine

import (
	"fmt"
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/conneroisu/sketchdoc/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a Canvas that logs every call.
type recorder struct {
	calls []string
}

func (r *recorder) add(format string, args ...interface{}) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) Background(c color.Color) { r.add("background %v", c) }
func (r *recorder) Rect(x, y, w, h, radius float64, st Style) {
	r.add("rect %g %g %g %g r=%g fill=%v", x, y, w, h, radius, st.Fill)
}
func (r *recorder) Ellipse(x, y, w, h float64, st Style) { r.add("ellipse %g %g %g %g", x, y, w, h) }
func (r *recorder) Line(x1, y1, x2, y2 float64, st Style) {
	r.add("line %g %g %g %g stroke=%v", x1, y1, x2, y2, st.Stroke)
}
func (r *recorder) Path(segs []Segment, st Style)         { r.add("path %d", len(segs)) }
func (r *recorder) Text(s string, x, y float64, st Style) { r.add("text %s %g %g", s, x, y) }
func (r *recorder) Translate(dx, dy float64)              { r.add("translate %g %g", dx, dy) }
func (r *recorder) Rotate(degrees float64)                { r.add("rotate %g", degrees) }
func (r *recorder) Scale(sx, sy float64)                  { r.add("scale %g %g", sx, sy) }
func (r *recorder) Push()                                 { r.add("push") }
func (r *recorder) Pop()                                  { r.add("pop") }
func (r *recorder) Encode(w io.Writer) error              { return nil }

func replay(t *testing.T, src string) (*Drawing, []string) {
	t.Helper()
	d, err := Compile(src, 100, 100)
	require.NoError(t, err)
	rec := &recorder{}
	d.Replay(rec)
	return d, rec.calls
}

func TestCompileRecordsOperations(t *testing.T) {
	src := `size(300, 200)
fill(1, 0, 0)
rect(10, 10, WIDTH / 3, 20)
nofill()
stroke(0)
line(0, 0, WIDTH, HEIGHT)
push()
translate(5, 6)
rotate(45)
scale(2)
ellipse(0, 0, 10, 10)
pop()
text("hello", 1, 2)
`
	d, calls := replay(t, src)

	assert.Equal(t, 300, d.Width)
	assert.Equal(t, 200, d.Height)
	assert.Equal(t, []string{
		"rect 10 10 100 20 r=0 fill={255 0 0 255}",
		"line 0 0 300 200 stroke={0 0 0 255}",
		"push",
		"translate 5 6",
		"rotate 45",
		"scale 2 2",
		"ellipse 0 0 10 10",
		"pop",
		"text hello 1 2",
	}, calls)
}

func TestBackgroundIsPaintedFirst(t *testing.T) {
	_, calls := replay(t, "rect(0, 0, 1, 1)\nbackground(0.2)\nbackground(\"#ffffff\")\n")
	require.Len(t, calls, 2)
	assert.Equal(t, "background {255 255 255 255}", calls[0])
	assert.True(t, strings.HasPrefix(calls[1], "rect"))
}

func TestRoundedRect(t *testing.T) {
	_, calls := replay(t, "rect(0, 0, 40, 20, 0.5)")
	assert.Equal(t, []string{"rect 0 0 40 20 r=5 fill={0 0 0 255}"}, calls)
}

func TestPathSegments(t *testing.T) {
	src := `beginpath(0, 0)
lineto(10, 0)
curveto(10, 5, 5, 10, 0, 10)
closepath()
endpath()
`
	d, calls := replay(t, src)
	assert.Equal(t, []string{"path 4"}, calls)
	assert.Len(t, d.Ops, 1)
}

func TestDefaultSizeWithoutSizeCall(t *testing.T) {
	d, err := Compile("rect(0, 0, WIDTH, HEIGHT)", 64, 32)
	require.NoError(t, err)
	assert.Equal(t, 64, d.Width)
	assert.Equal(t, 32, d.Height)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"negative size", "size(-1, -1)", "line 1: invalid canvas size -1x-1"},
		{"huge size", "size(10000, 10)", "invalid canvas size 10000x10"},
		{"size after drawing", "rect(0,0,1,1)\nsize(10, 10)", "line 2: size() must be called before drawing"},
		{"ximport", "\nximport(\"colors\")", `line 2: ximport("colors"): library not available`},
		{"unknown command", "sparkle(1)", "line 1: unknown command sparkle()"},
		{"arity", "rect(1, 2)", "line 1: rect() takes 4 to 5 arguments, got 2"},
		{"string argument", `line("a", 0, 1, 1)`, "must be a number"},
		{"pop without push", "pop()", "pop() without push()"},
		{"unclosed path", "beginpath(0, 0)\nlineto(1, 1)", "line 1: beginpath() without endpath()"},
		{"lineto outside path", "lineto(1, 1)", "outside beginpath()"},
		{"bad color", `fill("chartreuse-ish")`, "unknown color"},
		{"too many color args", "fill(1, 1, 1, 1, 1)", "1 to 4 components"},
		{"assign WIDTH", "WIDTH = 3", "cannot assign to WIDTH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.src, 100, 100)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCanvasSizeBoundMatchesConfig(t *testing.T) {
	limit := config.MaxCanvasSize

	d, err := Compile(fmt.Sprintf("size(%d, 1)", limit), 100, 100)
	require.NoError(t, err)
	assert.Equal(t, limit, d.Width)

	_, err = Compile(fmt.Sprintf("size(1, %d)", limit+1), 100, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("invalid canvas size 1x%d", limit+1))

	_, err = Compile("rect(0, 0, 1, 1)", limit+1, 10)
	assert.Error(t, err)
}

func TestInvalidDefaultSize(t *testing.T) {
	_, err := Compile("rect(0, 0, 1, 1)", 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid canvas size 0x10")
}

func TestColorFromArgs(t *testing.T) {
	tests := []struct {
		args []value
		want color.NRGBA
	}{
		{[]value{{num: 1}}, color.NRGBA{255, 255, 255, 255}},
		{[]value{{num: 0}, {num: 0.5}}, color.NRGBA{0, 0, 0, 128}},
		{[]value{{num: 2}, {num: -1}, {num: 0}}, color.NRGBA{255, 0, 0, 255}},
		{[]value{{num: 0}, {num: 0}, {num: 1}, {num: 1}}, color.NRGBA{0, 0, 255, 255}},
		{[]value{{str: "#f00", isStr: true}}, color.NRGBA{255, 0, 0, 255}},
		{[]value{{str: "#336699", isStr: true}}, color.NRGBA{0x33, 0x66, 0x99, 255}},
		{[]value{{str: "#33669980", isStr: true}}, color.NRGBA{0x33, 0x66, 0x99, 0x80}},
		{[]value{{str: "White", isStr: true}}, color.NRGBA{255, 255, 255, 255}},
	}

	for _, tt := range tests {
		got, err := colorFromArgs(tt.args)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestColorArgs(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{in: "1", want: "1"},
		{in: "0.2, 0.4,0.6", want: "0.2, 0.4, 0.6"},
		{in: "#336699", want: `"#336699"`},
		{in: "white", want: `"white"`},
		{in: "", err: true},
		{in: "#12", err: true},
		{in: "1,2,3,4,5", err: true},
		{in: "red-ish", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ColorArgs(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
