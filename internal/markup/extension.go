package markup

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/conneroisu/sketchdoc/internal/directive"
	"github.com/conneroisu/sketchdoc/internal/highlight"
)

// Extension turns fenced blocks tagged with Directive into Drawing nodes
// and renders them as HTML.
type Extension struct {
	Directive   string
	Highlighter *highlight.Highlighter
}

// Extend implements goldmark.Extender.
func (e *Extension) Extend(md goldmark.Markdown) {
	md.Parser().AddOptions(
		parser.WithASTTransformers(
			util.Prioritized(&transformer{name: e.Directive}, 100),
		),
	)
	md.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(&drawingRenderer{ext: e}, 100),
		),
	)
}

type transformer struct {
	name string
}

func (t *transformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	src := reader.Source()

	var blocks []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(node ast.Node, enter bool) (ast.WalkStatus, error) {
		if !enter {
			return ast.WalkContinue, nil
		}
		fb, ok := node.(*ast.FencedCodeBlock)
		if ok && fb.Info != nil && string(fb.Language(src)) == t.name {
			blocks = append(blocks, fb)
		}
		return ast.WalkContinue, nil
	})

	for _, fb := range blocks {
		n := &Drawing{}
		n.SetLines(fb.Lines())
		n.start, n.end = fenceRange(src, fb)
		n.line = bytes.Count(src[:n.start], []byte("\n")) + 1

		info := strings.TrimSpace(string(fb.Info.Segment.Value(src)))
		info = strings.TrimSpace(strings.TrimPrefix(info, t.name))

		var body bytes.Buffer
		lines := fb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			body.Write(seg.Value(src))
		}

		d, err := directive.Parse(t.name, info, body.String())
		if err != nil {
			n.ParseErr = err
		} else {
			d.Line = n.line
			n.Directive = d
		}

		if parent := fb.Parent(); parent != nil {
			parent.ReplaceChild(parent, fb, n)
		}
	}
}

// fenceRange returns the byte range of a fenced block from the start of
// the opening fence line to the end of the closing fence line.
func fenceRange(src []byte, fb *ast.FencedCodeBlock) (int, int) {
	start := fb.Info.Segment.Start
	for start > 0 && src[start-1] != '\n' {
		start--
	}

	end := fb.Info.Segment.Stop
	for end < len(src) && src[end] != '\n' {
		end++
	}
	if end < len(src) {
		end++
	}

	if lines := fb.Lines(); lines.Len() > 0 {
		if stop := lines.At(lines.Len() - 1).Stop; stop > end {
			end = stop
		}
		if end > 0 && end <= len(src) && src[end-1] != '\n' {
			for end < len(src) && src[end] != '\n' {
				end++
			}
			if end < len(src) {
				end++
			}
		}
	}

	// The closing fence, when present, is the next line.
	lineEnd := end
	for lineEnd < len(src) && src[lineEnd] != '\n' {
		lineEnd++
	}
	closing := strings.TrimLeft(string(src[end:lineEnd]), " \t>")
	if strings.HasPrefix(closing, "```") || strings.HasPrefix(closing, "~~~") {
		end = lineEnd
		if end < len(src) {
			end++
		}
	}
	return start, end
}
