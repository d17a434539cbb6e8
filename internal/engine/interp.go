package engine

import (
	"image/color"
	"math"

	"github.com/conneroisu/sketchdoc/internal/config"
)

type path struct {
	segs []Segment
	line int
}

type interp struct {
	d     *Drawing
	env   map[string]value
	style Style
	depth int
	path  *path
}

// Compile runs a drawing script and records its operations. width and
// height are the canvas size used until the script calls size().
func Compile(src string, width, height int) (*Drawing, error) {
	stmts, err := parseScript(src)
	if err != nil {
		return nil, err
	}

	in := &interp{
		d: &Drawing{Width: width, Height: height},
		env: map[string]value{
			"WIDTH":  {num: float64(width)},
			"HEIGHT": {num: float64(height)},
			"PI":     {num: math.Pi},
		},
		style: Style{Fill: color.NRGBA{A: 255}, StrokeWidth: 1},
	}

	for _, s := range stmts {
		if err := in.exec(s); err != nil {
			return nil, err
		}
	}

	if in.path != nil {
		return nil, errorf(in.path.line, "beginpath() without endpath()")
	}
	if err := checkSize(in.d.Width, in.d.Height); err != nil {
		return nil, err
	}
	return in.d, nil
}

func checkSize(w, h int) error {
	if w <= 0 || h <= 0 || w > config.MaxCanvasSize || h > config.MaxCanvasSize {
		return errorf(0, "invalid canvas size %dx%d", w, h)
	}
	return nil
}

func (in *interp) exec(s stmt) error {
	if s.assign != "" {
		if s.assign == "WIDTH" || s.assign == "HEIGHT" {
			return errorf(s.line, "cannot assign to %s", s.assign)
		}
		v, err := s.value.eval(in.env, s.line)
		if err != nil {
			return err
		}
		in.env[s.assign] = v
		return nil
	}

	args := make([]value, len(s.args))
	for i, a := range s.args {
		v, err := a.eval(in.env, s.line)
		if err != nil {
			return err
		}
		args[i] = v
	}

	if err := in.call(s.call, args, s.line); err != nil {
		if se, ok := err.(*ScriptError); ok {
			if se.Line == 0 {
				se.Line = s.line
			}
			return se
		}
		return errorf(s.line, "%s", err.Error())
	}
	return nil
}

func (in *interp) call(name string, args []value, line int) error {
	switch name {
	case "size":
		n, err := numbers(name, args, 2, 2)
		if err != nil {
			return err
		}
		if len(in.d.Ops) > 0 {
			return errorf(line, "size() must be called before drawing")
		}
		w, h := int(n[0]), int(n[1])
		if err := checkSize(w, h); err != nil {
			return err
		}
		in.d.Width, in.d.Height = w, h
		in.env["WIDTH"] = value{num: float64(w)}
		in.env["HEIGHT"] = value{num: float64(h)}

	case "background":
		c, err := colorFromArgs(args)
		if err != nil {
			return err
		}
		in.d.Background = c
	case "fill":
		c, err := colorFromArgs(args)
		if err != nil {
			return err
		}
		in.style.Fill = c
	case "nofill":
		if _, err := numbers(name, args, 0, 0); err != nil {
			return err
		}
		in.style.Fill = nil
	case "stroke":
		c, err := colorFromArgs(args)
		if err != nil {
			return err
		}
		in.style.Stroke = c
	case "nostroke":
		if _, err := numbers(name, args, 0, 0); err != nil {
			return err
		}
		in.style.Stroke = nil
	case "strokewidth":
		n, err := numbers(name, args, 1, 1)
		if err != nil {
			return err
		}
		if n[0] < 0 {
			return errorf(line, "strokewidth must not be negative")
		}
		in.style.StrokeWidth = n[0]

	case "rect":
		n, err := numbers(name, args, 4, 5)
		if err != nil {
			return err
		}
		radius := 0.0
		if len(n) == 5 {
			radius = math.Max(0, math.Min(1, n[4])) * math.Min(math.Abs(n[2]), math.Abs(n[3])) / 2
		}
		st := in.style
		in.emit(func(c Canvas) { c.Rect(n[0], n[1], n[2], n[3], radius, st) })
	case "ellipse", "oval":
		n, err := numbers(name, args, 4, 4)
		if err != nil {
			return err
		}
		st := in.style
		in.emit(func(c Canvas) { c.Ellipse(n[0], n[1], n[2], n[3], st) })
	case "line":
		n, err := numbers(name, args, 4, 4)
		if err != nil {
			return err
		}
		st := in.style
		in.emit(func(c Canvas) { c.Line(n[0], n[1], n[2], n[3], st) })
	case "text":
		if len(args) != 3 {
			return errorf(line, "text() takes 3 arguments, got %d", len(args))
		}
		n, err := numbers(name, args[1:], 2, 2)
		if err != nil {
			return err
		}
		s, st := args[0].String(), in.style
		in.emit(func(c Canvas) { c.Text(s, n[0], n[1], st) })

	case "beginpath":
		if in.path != nil {
			return errorf(line, "beginpath() inside an open path")
		}
		n, err := numbers(name, args, 0, 2)
		if err != nil {
			return err
		}
		in.path = &path{line: line}
		if len(n) == 2 {
			in.path.segs = append(in.path.segs, Segment{Kind: SegmentMove, Pts: [3]Point{{n[0], n[1]}}})
		} else if len(n) == 1 {
			return errorf(line, "beginpath() takes 0 or 2 arguments, got 1")
		}
	case "moveto", "lineto":
		if in.path == nil {
			return errorf(line, "%s() outside beginpath()", name)
		}
		n, err := numbers(name, args, 2, 2)
		if err != nil {
			return err
		}
		kind := SegmentLine
		if name == "moveto" {
			kind = SegmentMove
		}
		in.path.segs = append(in.path.segs, Segment{Kind: kind, Pts: [3]Point{{n[0], n[1]}}})
	case "curveto":
		if in.path == nil {
			return errorf(line, "curveto() outside beginpath()")
		}
		n, err := numbers(name, args, 6, 6)
		if err != nil {
			return err
		}
		in.path.segs = append(in.path.segs, Segment{
			Kind: SegmentCurve,
			Pts:  [3]Point{{n[0], n[1]}, {n[2], n[3]}, {n[4], n[5]}},
		})
	case "closepath":
		if in.path == nil {
			return errorf(line, "closepath() outside beginpath()")
		}
		in.path.segs = append(in.path.segs, Segment{Kind: SegmentClose})
	case "endpath":
		if in.path == nil {
			return errorf(line, "endpath() without beginpath()")
		}
		segs, st := in.path.segs, in.style
		in.path = nil
		in.emit(func(c Canvas) { c.Path(segs, st) })

	case "translate":
		n, err := numbers(name, args, 2, 2)
		if err != nil {
			return err
		}
		in.emit(func(c Canvas) { c.Translate(n[0], n[1]) })
	case "rotate":
		n, err := numbers(name, args, 1, 1)
		if err != nil {
			return err
		}
		in.emit(func(c Canvas) { c.Rotate(n[0]) })
	case "scale":
		n, err := numbers(name, args, 1, 2)
		if err != nil {
			return err
		}
		sx, sy := n[0], n[0]
		if len(n) == 2 {
			sy = n[1]
		}
		in.emit(func(c Canvas) { c.Scale(sx, sy) })
	case "push":
		in.depth++
		in.emit(func(c Canvas) { c.Push() })
	case "pop":
		if in.depth == 0 {
			return errorf(line, "pop() without push()")
		}
		in.depth--
		in.emit(func(c Canvas) { c.Pop() })

	case "ximport":
		lib := ""
		if len(args) > 0 {
			lib = args[0].String()
		}
		return errorf(line, "ximport(%q): library not available in the builtin engine", lib)
	default:
		return errorf(line, "unknown command %s()", name)
	}
	return nil
}

func (in *interp) emit(op Op) {
	in.d.Ops = append(in.d.Ops, op)
}

func numbers(name string, args []value, lo, hi int) ([]float64, error) {
	if len(args) < lo || len(args) > hi {
		if lo == hi {
			return nil, errorf(0, "%s() takes %d arguments, got %d", name, lo, len(args))
		}
		return nil, errorf(0, "%s() takes %d to %d arguments, got %d", name, lo, hi, len(args))
	}
	out := make([]float64, len(args))
	for i, a := range args {
		if a.isStr {
			return nil, errorf(0, "%s() argument %d must be a number", name, i+1)
		}
		out[i] = a.num
	}
	return out, nil
}
