// Package markup converts Markdown documents that embed drawing directives
// into HTML, plain text or man pages.
//
// Parsing goes through goldmark with an extension that replaces directive
// blocks by Drawing nodes. The converter then renders each drawing's image
// and hands the tree to the writer for the configured Kind.
package markup

import (
	"context"
	"errors"
	"path"
	"time"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"github.com/conneroisu/sketchdoc/internal/directive"
	sderrors "github.com/conneroisu/sketchdoc/internal/errors"
	"github.com/conneroisu/sketchdoc/internal/highlight"
	"github.com/conneroisu/sketchdoc/internal/logging"
	"github.com/conneroisu/sketchdoc/internal/renderer"
)

// ImageRenderer produces the image file of a directive.
type ImageRenderer interface {
	Render(ctx context.Context, d *directive.Directive) (*renderer.Result, error)
}

// Options configure a Converter.
type Options struct {
	Kind      Kind
	Directive string
	// FailOnError aborts a document on the first directive error. When
	// false the directive is left out and a warning is logged.
	FailOnError bool
	Renderer    ImageRenderer
	Highlighter *highlight.Highlighter
	Errors      *sderrors.ErrorCollector
	Logger      logging.Logger
}

// Document is one source file to convert.
type Document struct {
	// Name is the slash separated path relative to the source directory.
	Name string
	// Dir is the absolute directory holding the document.
	Dir string
	// ImageBase is the URL of the image directory relative to the page.
	ImageBase string
	Source    []byte
}

// Converter turns documents into the output format of its Kind.
type Converter struct {
	opts   Options
	md     goldmark.Markdown
	logger logging.Logger
}

type parsed struct {
	root     ast.Node
	drawings []*Drawing
}

// New builds a converter.
func New(opts Options) *Converter {
	if opts.Errors == nil {
		opts.Errors = sderrors.NewErrorCollector()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	exts := []goldmark.Extender{
		extension.GFM,
		&Extension{Directive: opts.Directive, Highlighter: opts.Highlighter},
	}
	if opts.Highlighter != nil {
		exts = append(exts, highlighting.NewHighlighting(
			highlighting.WithStyle(opts.Highlighter.StyleName()),
			highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
		))
	}

	return &Converter{
		opts: opts,
		md: goldmark.New(
			goldmark.WithExtensions(exts...),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		logger: opts.Logger.WithComponent("markup"),
	}
}

// Kind returns the output format.
func (c *Converter) Kind() Kind { return c.opts.Kind }

// Convert parses doc, renders its drawings and writes the output document.
func (c *Converter) Convert(ctx context.Context, doc *Document) ([]byte, error) {
	p := c.parse(doc)

	for _, n := range p.drawings {
		if err := c.resolve(ctx, doc, n); err != nil {
			return nil, err
		}
	}

	return c.opts.Kind.writer()(c, doc, p)
}

func (c *Converter) parse(doc *Document) *parsed {
	root := c.md.Parser().Parse(text.NewReader(doc.Source))

	p := &parsed{root: root}
	_ = ast.Walk(root, func(node ast.Node, enter bool) (ast.WalkStatus, error) {
		if n, ok := node.(*Drawing); ok && enter {
			p.drawings = append(p.drawings, n)
		}
		return ast.WalkContinue, nil
	})
	return p
}

func (c *Converter) resolve(ctx context.Context, doc *Document, n *Drawing) error {
	if n.ParseErr != nil {
		return c.fail(ctx, doc, n, n.ParseErr)
	}

	d := n.Directive
	d.DocName = doc.Name
	d.DocDir = doc.Dir

	if d.Empty() {
		msg := emptyMessage(d.Name)
		c.opts.Errors.Add(sderrors.BuildError{
			Directive: d.Name,
			File:      doc.Name,
			Line:      d.Line,
			Message:   msg,
			Severity:  sderrors.ErrorSeverityWarning,
			Timestamp: time.Now(),
		})
		c.logger.Warn(ctx, nil, msg, "doc", d.Location())
		return nil
	}

	if !c.opts.Kind.RendersImages() || c.opts.Renderer == nil {
		return nil
	}

	res, err := c.opts.Renderer.Render(ctx, d)
	if err != nil {
		return c.fail(ctx, doc, n, err)
	}
	n.Result = res
	n.Src = path.Join(doc.ImageBase, res.Name)
	return nil
}

// fail records err and either aborts the document or marks the node as
// skipped.
func (c *Converter) fail(ctx context.Context, doc *Document, n *Drawing, err error) error {
	line := n.line
	var se *sderrors.SketchError
	if errors.As(err, &se) && se.FilePath == "" {
		se.WithLocation(doc.Name, line).WithDirective(c.opts.Directive)
	}

	c.opts.Errors.Add(sderrors.BuildError{
		Directive: c.opts.Directive,
		File:      doc.Name,
		Line:      line,
		Message:   err.Error(),
		Severity:  sderrors.ErrorSeverityError,
		Timestamp: time.Now(),
	})

	if c.opts.FailOnError {
		return err
	}
	c.logger.Warn(ctx, err, "skipping directive", "doc", doc.Name, "line", line)
	n.Skipped = true
	return nil
}
