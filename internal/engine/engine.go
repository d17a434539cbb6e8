// Package engine turns drawing scripts into image files.
//
// Two engines are provided. The builtin engine interprets a NodeBox style
// script in process and paints it with a raster (PNG) or vector (SVG)
// canvas. The command engine hands the script to an external program such
// as sbot and waits for it to write the output file.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/conneroisu/sketchdoc/internal/config"
)

// ErrEngineUnavailable is returned when the engine cannot run at all, for
// example because the external executable is not installed.
var ErrEngineUnavailable = errors.New("drawing engine unavailable")

// Job is one render request.
type Job struct {
	Script string
	Format string
	Width  int
	Height int
	// Dir is the working directory for the render, normally the directory
	// of the document holding the directive.
	Dir string
}

// Engine renders a Job into the file at dst.
type Engine interface {
	Name() string
	Render(ctx context.Context, job *Job, dst string) error
}

// New returns the engine selected by cfg.Engine.
func New(cfg config.RenderConfig) (Engine, error) {
	switch cfg.Engine {
	case config.EngineBuiltin:
		return NewBuiltin(), nil
	case config.EngineCommand:
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		return NewCommand(cfg.Command, cfg.CommandArgs, timeout), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.Engine)
	}
}
