package engine

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/conneroisu/sketchdoc/internal/config"
)

// Builtin interprets scripts in process.
type Builtin struct{}

// NewBuiltin returns the in-process engine.
func NewBuiltin() *Builtin { return &Builtin{} }

// Name implements Engine.
func (b *Builtin) Name() string { return config.EngineBuiltin }

// Render compiles job.Script and encodes it to dst in job.Format.
func (b *Builtin) Render(ctx context.Context, job *Job, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	drawing, err := Compile(job.Script, job.Width, job.Height)
	if err != nil {
		return err
	}

	var canvas Canvas
	switch job.Format {
	case config.FormatPNG:
		canvas = newRasterCanvas(drawing.Width, drawing.Height)
	case config.FormatSVG:
		canvas = newVectorCanvas(drawing.Width, drawing.Height)
	default:
		return fmt.Errorf("unsupported format %q", job.Format)
	}
	drawing.Replay(canvas)

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	w := bufio.NewWriter(f)
	if err := canvas.Encode(w); err != nil {
		_ = f.Close()
		return fmt.Errorf("encoding %s: %w", job.Format, err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return f.Close()
}
