// Package build turns a directory of Markdown documentation into HTML,
// plain text or man pages, rendering every drawing directive on the way.
//
// A Builder owns the state of a build: the render session that counts
// directive outcomes, the collector of build errors, and the page cache
// that lets watch and serve mode skip documents that did not change.
package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/conneroisu/sketchdoc/internal/config"
	"github.com/conneroisu/sketchdoc/internal/engine"
	sderrors "github.com/conneroisu/sketchdoc/internal/errors"
	"github.com/conneroisu/sketchdoc/internal/highlight"
	"github.com/conneroisu/sketchdoc/internal/logging"
	"github.com/conneroisu/sketchdoc/internal/markup"
	"github.com/conneroisu/sketchdoc/internal/renderer"
)

// HighlightCSS is the stylesheet name under the static directory.
const HighlightCSS = "highlight.css"

// Options tune a Builder for the command driving it.
type Options struct {
	// Incremental skips documents whose content and output are unchanged
	// since the last successful build of this Builder.
	Incremental bool
	// ReloadScript, when set, is the URL of a script every HTML page loads.
	ReloadScript string
}

// Report summarizes one build or rebuild.
type Report struct {
	// Documents is the number of documents converted and written.
	Documents int
	// Skipped documents were unchanged and kept their previous output.
	Skipped  int
	Removed  int
	Rendered int
	Cached   int
	// Failed counts error level problems, Warnings the rest.
	Failed      int
	Warnings    int
	Unavailable int
	Duration    time.Duration
}

// Builder builds the documentation tree described by a configuration.
type Builder struct {
	cfg         *config.Config
	opts        Options
	kind        markup.Kind
	engine      engine.Engine
	highlighter *highlight.Highlighter
	cache       *PageCache
	hasher      *HashProvider
	errors      *sderrors.ErrorCollector
	logger      logging.Logger

	mu      sync.Mutex
	cleaned bool
}

// New validates the output settings and prepares a Builder. Nothing is
// written until Build is called.
func New(cfg *config.Config, opts Options, logger logging.Logger) (*Builder, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	if err := config.ValidateFormat(cfg.Render.Format); err != nil {
		return nil, err
	}
	kind, err := markup.ParseKind(cfg.Build.Writer)
	if err != nil {
		return nil, sderrors.NewConfigError(sderrors.CodeInvalidConfig, err.Error())
	}
	eng, err := engine.New(cfg.Render)
	if err != nil {
		return nil, err
	}

	cache := NewPageCache(cfg.Build.CacheSize)
	return &Builder{
		cfg:         cfg,
		opts:        opts,
		kind:        kind,
		engine:      eng,
		highlighter: highlight.New(cfg.Highlight),
		cache:       cache,
		hasher:      NewHashProvider(cache),
		errors:      sderrors.NewErrorCollector(),
		logger:      logger.WithComponent("build"),
	}, nil
}

// Errors returns the problems recorded by the builds so far. A full build
// starts from an empty collector; a rebuild replaces the entries of the
// documents it touched.
func (b *Builder) Errors() *sderrors.ErrorCollector { return b.errors }

// Kind returns the output document kind.
func (b *Builder) Kind() markup.Kind { return b.kind }

// CacheStats returns the page cache counters.
func (b *Builder) CacheStats() CacheStats { return b.cache.Stats() }

// Build converts every document under the source directory.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.Build.Clean && !b.cleaned {
		if err := b.clean(ctx); err != nil {
			return nil, err
		}
		b.cleaned = true
	}

	docs, err := b.Documents()
	if err != nil {
		return nil, err
	}

	b.errors.Clear()
	return b.run(ctx, docs, nil)
}

// Rebuild converts only the given files, which may be absolute or relative
// to the working directory. Paths outside the source directory or without
// a document extension are ignored. Documents that no longer exist have
// their output removed.
func (b *Builder) Rebuild(ctx context.Context, paths []string) (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var docs, removed []string
	seen := make(map[string]bool)
	for _, p := range paths {
		rel, ok := b.relative(p)
		if !ok || seen[rel] {
			continue
		}
		seen[rel] = true

		if _, err := os.Stat(filepath.Join(b.cfg.Docs.SourceDir, rel)); errors.Is(err, fs.ErrNotExist) {
			removed = append(removed, rel)
			continue
		}
		docs = append(docs, rel)
	}

	for _, rel := range append(docs, removed...) {
		b.errors.ClearFile(filepath.ToSlash(rel))
	}
	return b.run(ctx, docs, removed)
}

func (b *Builder) run(ctx context.Context, docs, removed []string) (*Report, error) {
	perf := logging.StartOperation(b.logger, "build")
	start := time.Now()
	report := &Report{}

	session := renderer.NewSession()
	imageDir := filepath.Join(b.cfg.Docs.OutputDir, b.cfg.Docs.ImageDir)
	rend, err := renderer.New(b.cfg.Render, imageDir, b.engine, session, b.logger)
	if err != nil {
		return nil, err
	}
	conv := markup.New(markup.Options{
		Kind:        b.kind,
		Directive:   b.cfg.Render.Directive,
		FailOnError: b.cfg.Build.FailOnError,
		Renderer:    rend,
		Highlighter: b.highlighter,
		Errors:      b.errors,
		Logger:      b.logger,
	})

	if err := os.MkdirAll(b.cfg.Docs.OutputDir, 0755); err != nil {
		return nil, sderrors.NewIOError("OUTPUT_DIR", "failed to create output directory", err)
	}
	if b.kind == markup.KindHTML {
		if err := b.writeStatic(); err != nil {
			return nil, err
		}
	}

	for _, rel := range removed {
		if err := b.remove(rel); err != nil {
			return nil, err
		}
		report.Removed++
	}

	var failed []error
	for _, rel := range docs {
		if err := ctx.Err(); err != nil {
			perf.EndWithError(ctx, err)
			return nil, err
		}
		if err := b.document(ctx, conv, rel, report); err != nil {
			if ctx.Err() != nil {
				perf.EndWithError(ctx, err)
				return nil, err
			}
			failed = append(failed, err)
		}
	}

	stats := session.Stats()
	report.Rendered = stats.Rendered
	report.Cached = stats.Cached
	report.Unavailable = stats.Unavailable
	report.Duration = time.Since(start)

	if len(failed) > 0 {
		err := fmt.Errorf("%d of %d documents failed: %w", len(failed), len(docs), errors.Join(failed...))
		perf.EndWithError(ctx, err)
		return report, err
	}

	perf.End(ctx)
	b.logger.Info(ctx, "build finished",
		"documents", report.Documents,
		"skipped", report.Skipped,
		"rendered", report.Rendered,
		"cached", report.Cached,
		"warnings", report.Warnings,
	)
	return report, nil
}

// document converts one document given by its path relative to the
// source directory.
func (b *Builder) document(ctx context.Context, conv *markup.Converter, rel string, report *Report) error {
	src := filepath.Join(b.cfg.Docs.SourceDir, rel)
	out := b.OutputPath(rel)
	name := filepath.ToSlash(rel)

	if b.opts.Incremental {
		if hash, err := b.hasher.FileHash(src); err == nil {
			if prev, ok := b.cache.Fresh(name, hash); ok && fileExists(prev) {
				report.Skipped++
				return nil
			}
		}
	}

	content, err := os.ReadFile(src)
	if err != nil {
		return sderrors.NewIOError("READ_DOCUMENT", "failed to read "+name, err)
	}
	dir, err := filepath.Abs(filepath.Dir(src))
	if err != nil {
		return sderrors.NewIOError("READ_DOCUMENT", "failed to resolve "+name, err)
	}

	doc := &markup.Document{
		Name:      name,
		Dir:       dir,
		ImageBase: path.Join(rootPrefix(name), b.cfg.Docs.ImageDir),
		Source:    content,
	}

	body, err := conv.Convert(ctx, doc)
	b.tally(name, report)
	if err != nil {
		b.cache.Invalidate(name)
		return fmt.Errorf("%s: %w", name, err)
	}

	if b.kind == markup.KindHTML {
		body, err = b.page(ctx, doc, body)
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return sderrors.NewIOError("WRITE_DOCUMENT", "failed to create directory for "+name, err)
	}
	if err := os.WriteFile(out, body, 0644); err != nil {
		return sderrors.NewIOError("WRITE_DOCUMENT", "failed to write "+out, err)
	}
	report.Documents++

	if b.opts.Incremental {
		b.cache.Store(name, b.hasher.Sum(content), out)
	}
	b.logger.Debug(ctx, "document written", "doc", name, "output", out)
	return nil
}

func (b *Builder) tally(name string, report *Report) {
	for _, e := range b.errors.GetErrorsByFile(name) {
		if e.Severity >= sderrors.ErrorSeverityError {
			report.Failed++
		} else {
			report.Warnings++
		}
	}
}

// OutputPath returns where the document rel is written.
func (b *Builder) OutputPath(rel string) string {
	base := strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.Join(b.cfg.Docs.OutputDir, base+b.kind.Ext())
}

func (b *Builder) remove(rel string) error {
	name := filepath.ToSlash(rel)
	b.cache.Invalidate(name)
	if err := os.Remove(b.OutputPath(rel)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return sderrors.NewIOError("REMOVE_DOCUMENT", "failed to remove output of "+name, err)
	}
	b.logger.Info(context.Background(), "document removed", "doc", name)
	return nil
}

func (b *Builder) writeStatic() error {
	css, err := b.highlighter.CSS()
	if err != nil {
		return sderrors.NewInternalError("HIGHLIGHT_CSS", "failed to generate highlight stylesheet", err)
	}
	css += baseCSS

	dir := filepath.Join(b.cfg.Docs.OutputDir, b.cfg.Docs.StaticDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return sderrors.NewIOError("STATIC_DIR", "failed to create static directory", err)
	}
	if err := os.WriteFile(filepath.Join(dir, HighlightCSS), []byte(css), 0644); err != nil {
		return sderrors.NewIOError("STATIC_DIR", "failed to write stylesheet", err)
	}
	return nil
}

// clean removes the output directory, refusing to remove the sources.
func (b *Builder) clean(ctx context.Context) error {
	out, err := filepath.Abs(b.cfg.Docs.OutputDir)
	if err != nil {
		return sderrors.NewIOError("CLEAN", "failed to resolve output directory", err)
	}
	src, err := filepath.Abs(b.cfg.Docs.SourceDir)
	if err != nil {
		return sderrors.NewIOError("CLEAN", "failed to resolve source directory", err)
	}
	if out == src || strings.HasPrefix(src, out+string(filepath.Separator)) {
		return sderrors.NewConfigError(sderrors.CodeInvalidConfig, "refusing to clean an output directory that contains the sources")
	}

	if err := os.RemoveAll(out); err != nil {
		return sderrors.NewIOError("CLEAN", "failed to remove output directory", err)
	}
	b.cache.Clear()
	b.logger.Info(ctx, "output directory cleaned", "dir", b.cfg.Docs.OutputDir)
	return nil
}

// rootPrefix returns the relative path from the page of doc back to the
// output root: "" for top level pages, "../" one level down, and so on.
func rootPrefix(doc string) string {
	return strings.Repeat("../", strings.Count(doc, "/"))
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
