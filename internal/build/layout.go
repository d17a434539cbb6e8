package build

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/conneroisu/sketchdoc/internal/markup"
)

const baseCSS = `
body { max-width: 52rem; margin: 2rem auto; padding: 0 1rem; font-family: sans-serif; line-height: 1.5; }
div.shoebot { margin: 1rem 0; }
div.shoebot img, div.shoebot object { display: block; max-width: 100%; }
div.align-center { text-align: center; }
div.align-center img, div.align-center object { margin: 0 auto; }
div.align-right { text-align: right; }
figure.shoebot-figure figcaption { font-style: italic; }
div.admonition.warning { border-left: 4px solid #e0a800; background: #fff8e1; padding: .5rem 1rem; }
pre.shoebot-source { background: #f6f8fa; padding: .5rem; overflow-x: auto; }
`

// pageData feeds the HTML layout.
type pageData struct {
	Title string
	// Root is the relative path from the page to the output root.
	Root         string
	StaticDir    string
	ReloadScript string
}

func (p pageData) stylesheet() string {
	return path.Join(p.Root, p.StaticDir, HighlightCSS)
}

// page renders the layout around an HTML body.
func (b *Builder) page(ctx context.Context, doc *markup.Document, body []byte) ([]byte, error) {
	title := extractTitle(body)
	if title == "" {
		title = strings.TrimSuffix(path.Base(doc.Name), path.Ext(doc.Name))
	}

	var buf bytes.Buffer
	err := layout(pageData{
		Title:        title,
		Root:         rootPrefix(doc.Name),
		StaticDir:    b.cfg.Docs.StaticDir,
		ReloadScript: b.opts.ReloadScript,
	}).Render(templ.WithChildren(ctx, templ.Raw(string(body))), &buf)
	if err != nil {
		return nil, fmt.Errorf("rendering layout for %s: %w", doc.Name, err)
	}
	return buf.Bytes(), nil
}

// extractTitle returns the text of the first h1 element of an HTML
// fragment, or "" when there is none.
func extractTitle(body []byte) string {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	h1 := findElement(root, atom.H1)
	if h1 == nil {
		return ""
	}

	var text strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(h1)
	return strings.Join(strings.Fields(text.String()), " ")
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
