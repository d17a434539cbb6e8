// Package highlight renders script listings as HTML with chroma.
package highlight

import (
	"bytes"
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/conneroisu/sketchdoc/internal/config"
)

// Highlighter formats source code as class-annotated HTML.
type Highlighter struct {
	lexer     chroma.Lexer
	style     *chroma.Style
	formatter *html.Formatter
}

// New returns a highlighter for the configured lexer and style. Unknown
// lexer names fall back to plain text; unknown styles to chroma's default.
func New(cfg config.HighlightConfig) *Highlighter {
	lexer := lexers.Get(cfg.Lexer)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return &Highlighter{
		lexer:     chroma.Coalesce(lexer),
		style:     styles.Get(cfg.Style),
		formatter: html.New(html.WithClasses(true), html.TabWidth(4)),
	}
}

// StyleName returns the resolved chroma style name.
func (h *Highlighter) StyleName() string { return h.style.Name }

// Write formats code into w.
func (h *Highlighter) Write(w io.Writer, code string) error {
	it, err := h.lexer.Tokenise(nil, code)
	if err != nil {
		return fmt.Errorf("tokenising listing: %w", err)
	}
	if err := h.formatter.Format(w, h.style, it); err != nil {
		return fmt.Errorf("formatting listing: %w", err)
	}
	return nil
}

// CSS returns the stylesheet for the class names Write emits.
func (h *Highlighter) CSS() (string, error) {
	var buf bytes.Buffer
	if err := h.formatter.WriteCSS(&buf, h.style); err != nil {
		return "", fmt.Errorf("writing highlight css: %w", err)
	}
	return buf.String(), nil
}
