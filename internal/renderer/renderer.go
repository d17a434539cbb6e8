// Package renderer turns drawing directives into image files.
//
// Every image is named by a hash of its script and render settings and is
// written once: when a file with the computed name already exists, it is
// reused and the engine is not invoked. Files are rendered to a temporary
// name in the image directory and renamed into place, so a reader never
// sees a partial image.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/conneroisu/sketchdoc/internal/config"
	"github.com/conneroisu/sketchdoc/internal/directive"
	"github.com/conneroisu/sketchdoc/internal/engine"
	sderrors "github.com/conneroisu/sketchdoc/internal/errors"
	"github.com/conneroisu/sketchdoc/internal/logging"
)

// Result describes the image produced for one directive.
type Result struct {
	// Name is the file name inside the image directory.
	Name    string
	OutPath string
	Format  string
	// Cached is set when an existing file was reused.
	Cached bool
	// Unavailable is set when the engine could not run. No file exists and
	// the caller shows the script instead.
	Unavailable bool
}

// Renderer renders directives into one image directory.
type Renderer struct {
	cfg     config.RenderConfig
	dir     string
	engine  engine.Engine
	session *Session
	logger  logging.Logger

	background string
	fill       string
}

// New returns a renderer writing into dir. The output format is checked
// here, before anything touches the filesystem.
func New(cfg config.RenderConfig, dir string, eng engine.Engine, session *Session, logger logging.Logger) (*Renderer, error) {
	if err := config.ValidateFormat(cfg.Format); err != nil {
		return nil, err
	}
	if eng == nil {
		return nil, sderrors.NewInternalError(sderrors.CodeInvalidConfig, "renderer requires an engine", nil)
	}
	if session == nil {
		session = NewSession()
	}
	if logger == nil {
		logger = logging.Discard()
	}

	r := &Renderer{
		cfg:     cfg,
		dir:     dir,
		engine:  eng,
		session: session,
		logger:  logger.WithComponent("renderer"),
	}

	bg, err := engine.ColorArgs(cfg.Background)
	if err != nil {
		return nil, sderrors.NewConfigError(sderrors.CodeInvalidConfig, fmt.Sprintf("render.background: %v", err))
	}
	r.background = bg

	if strings.TrimSpace(cfg.Fill) != "" {
		fill, err := engine.ColorArgs(cfg.Fill)
		if err != nil {
			return nil, sderrors.NewConfigError(sderrors.CodeInvalidConfig, fmt.Sprintf("render.fill: %v", err))
		}
		r.fill = fill
	}

	return r, nil
}

// Dir returns the image directory.
func (r *Renderer) Dir() string { return r.dir }

// Format returns the output format.
func (r *Renderer) Format() string { return r.cfg.Format }

// Session returns the build session the renderer reports to.
func (r *Renderer) Session() *Session { return r.session }

// Preamble returns the lines prepended to a script of the given size.
func (r *Renderer) Preamble(width, height int, ximports []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "size(%d, %d)\n", width, height)
	fmt.Fprintf(&b, "background(%s)\n", r.background)
	if r.fill != "" {
		fmt.Fprintf(&b, "fill(%s)\n", r.fill)
	}
	for _, lib := range ximports {
		fmt.Fprintf(&b, "ximport(%q)\n", lib)
	}
	return b.String()
}

func (r *Renderer) size(d *directive.Directive) (int, int) {
	if d.Options.HasSize {
		return d.Options.Width, d.Options.Height
	}
	return r.cfg.Size()
}

func (r *Renderer) inputs(d *directive.Directive) inputs {
	w, h := r.size(d)
	return inputs{
		format:   r.cfg.Format,
		engine:   r.engine.Name(),
		width:    w,
		height:   h,
		ximports: d.Options.XImports,
		preamble: r.Preamble(w, h, d.Options.XImports),
	}
}

// Key returns the content hash of d under the current settings.
func (r *Renderer) Key(d *directive.Directive) string {
	return hashKey(d.Code, r.inputs(d))
}

// Name returns the image file name for d. An explicit filename option is
// used as given, with its extension forced to the output format.
func (r *Renderer) Name(d *directive.Directive) (string, error) {
	if d.Options.Filename != "" {
		return directive.SanitizeFilename(d.Options.Filename, r.cfg.Format)
	}
	return fmt.Sprintf("%s-%s.%s", r.cfg.Prefix, r.Key(d), r.cfg.Format), nil
}

// Render produces the image for d, reusing an existing file when the name
// is content addressed.
func (r *Renderer) Render(ctx context.Context, d *directive.Directive) (*Result, error) {
	if d.Empty() {
		return nil, sderrors.NewContentError(sderrors.CodeEmptyContent,
			fmt.Sprintf("Ignoring %q directive without content.", d.Name)).
			WithLocation(d.DocName, d.Line)
	}

	name, err := r.Name(d)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Name:    name,
		OutPath: filepath.Join(r.dir, name),
		Format:  r.cfg.Format,
	}

	if d.Options.Filename != "" {
		if prev, ok := r.session.claimName(name, r.Key(d), d.Location()); !ok {
			r.session.count(func(s *Stats) { s.Failed++ })
			return nil, sderrors.NewContentError(sderrors.CodeInvalidOption,
				fmt.Sprintf("filename %q already used by %s", name, prev)).
				WithLocation(d.DocName, d.Line).WithDirective(d.Name)
		}
	} else if _, err := os.Stat(res.OutPath); err == nil {
		r.logger.Debug(ctx, "reusing cached image", "file", name, "doc", d.Location())
		res.Cached = true
		r.session.count(func(s *Stats) { s.Cached++ })
		return res, nil
	}

	if r.session.Unavailable(r.engine.Name()) {
		res.Unavailable = true
		r.session.count(func(s *Stats) { s.Unavailable++ })
		return res, nil
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, sderrors.NewIOError("MKDIR_FAILED", "creating image directory "+r.dir, err)
	}

	if err := r.renderAtomic(ctx, d, res.OutPath); err != nil {
		if errors.Is(err, engine.ErrEngineUnavailable) {
			if r.session.markUnavailable(r.engine.Name()) {
				r.logger.Warn(ctx, err, "drawing engine is not available, showing scripts instead of images",
					"engine", r.engine.Name())
			}
			res.Unavailable = true
			r.session.count(func(s *Stats) { s.Unavailable++ })
			return res, nil
		}

		r.session.count(func(s *Stats) { s.Failed++ })
		var se *sderrors.SketchError
		if !errors.As(err, &se) {
			se = sderrors.NewRenderError(sderrors.CodeRenderFailed,
				fmt.Sprintf("%s engine failed", r.engine.Name()), err)
		}
		return nil, se.WithLocation(d.DocName, d.Line).WithDirective(d.Name)
	}

	r.logger.Debug(ctx, "rendered image", "file", name, "doc", d.Location())
	r.session.count(func(s *Stats) { s.Rendered++ })
	return res, nil
}

func (r *Renderer) renderAtomic(ctx context.Context, d *directive.Directive, dst string) error {
	tmp, err := os.CreateTemp(r.dir, ".sketchdoc-*."+r.cfg.Format)
	if err != nil {
		return sderrors.NewIOError("TEMP_FAILED", "creating temporary image", err)
	}
	tmpName := tmp.Name()
	_ = tmp.Close()

	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	w, h := r.size(d)
	preamble := r.Preamble(w, h, d.Options.XImports)
	job := &engine.Job{
		Script: preamble + NormalizeScript(d.Code),
		Format: r.cfg.Format,
		Width:  w,
		Height: h,
		Dir:    d.DocDir,
	}
	if err := r.engine.Render(ctx, job, tmpName); err != nil {
		return scriptLines(err, strings.Count(preamble, "\n"))
	}

	info, err := os.Stat(tmpName)
	if err != nil || info.Size() == 0 {
		return sderrors.NewRenderError(sderrors.CodeNoOutput,
			fmt.Sprintf("%s engine did not produce an output file", r.engine.Name()), err)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		return sderrors.NewIOError("CHMOD_FAILED", "setting image permissions", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return sderrors.NewIOError("RENAME_FAILED", "moving image into place", err)
	}
	committed = true
	return nil
}

// scriptLines renumbers a script error so that line 1 is the first line of
// the directive body. Errors raised by the preamble lose their line.
func scriptLines(err error, preamble int) error {
	var se *engine.ScriptError
	if !errors.As(err, &se) {
		return err
	}
	if se.Line > preamble {
		se.Line -= preamble
	} else {
		se.Line = 0
	}
	return err
}
