package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/conneroisu/sketchdoc/internal/config"
)

type drawingRenderer struct {
	ext *Extension
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *drawingRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDrawing, r.render)
}

func (r *drawingRenderer) render(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*Drawing)

	switch {
	case n.Skipped || n.ParseErr != nil:
	case n.Empty():
		fmt.Fprintf(w, "<div class=\"admonition warning\">%s</div>\n",
			emptyMessage(string(util.EscapeHTML([]byte(n.Directive.Name)))))
	case n.Result == nil:
	case n.Result.Unavailable:
		_, _ = w.WriteString(`<pre class="shoebot-source">`)
		_, _ = w.Write(util.EscapeHTML([]byte(n.Directive.Code)))
		_, _ = w.WriteString("</pre>\n")
	default:
		if err := r.figure(w, n); err != nil {
			return ast.WalkStop, err
		}
	}
	return ast.WalkSkipChildren, nil
}

func (r *drawingRenderer) figure(w util.BufWriter, n *Drawing) error {
	opts := n.Directive.Options
	esc := func(s string) string { return string(util.EscapeHTML([]byte(s))) }

	alt := strings.TrimSpace(n.Directive.Code)
	if opts.HasAlt {
		alt = opts.Alt
	}

	if opts.Caption != "" {
		_, _ = w.WriteString(`<figure class="shoebot-figure">`)
	}
	if opts.Align != "" {
		fmt.Fprintf(w, `<div align="%s" class="align-%s">`, opts.Align, opts.Align)
	}

	_, _ = w.WriteString(`<div class="shoebot">`)
	if n.Result.Format == config.FormatSVG {
		fmt.Fprintf(w, "<object data=\"%s\" type=\"image/svg+xml\" class=\"shoebot\">\n", esc(n.Src))
		fmt.Fprintf(w, `<p class="warning">%s</p>`, esc(alt))
		_, _ = w.WriteString("</object>\n")
	} else {
		fmt.Fprintf(w, `<img src="%s" alt="%s" class="shoebot" />`, esc(n.Src), esc(alt))
	}

	if opts.Source && r.ext.Highlighter != nil {
		var listing bytes.Buffer
		if err := r.ext.Highlighter.Write(&listing, n.Directive.Code); err != nil {
			return fmt.Errorf("%s: %w", n.Directive.Location(), err)
		}
		_, _ = w.Write(listing.Bytes())
		_ = w.WriteByte('\n')
	}
	_, _ = w.WriteString("</div>\n")

	if opts.Align != "" {
		_, _ = w.WriteString("</div>\n")
	}
	if opts.Caption != "" {
		fmt.Fprintf(w, "<figcaption>%s</figcaption></figure>\n", esc(opts.Caption))
	}
	return nil
}

func emptyMessage(name string) string {
	return fmt.Sprintf(`Ignoring "%s" directive without content.`, name)
}

func writeHTML(c *Converter, doc *Document, p *parsed) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, doc.Source, p.root); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", doc.Name, err)
	}
	return buf.Bytes(), nil
}
