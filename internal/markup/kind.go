package markup

import (
	"fmt"
	"strings"
)

// Kind selects the output document format.
type Kind int

const (
	KindHTML Kind = iota
	KindText
	KindMan
)

// ParseKind maps a writer name to its Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "html":
		return KindHTML, nil
	case "text", "txt":
		return KindText, nil
	case "man":
		return KindMan, nil
	default:
		return 0, fmt.Errorf("unknown writer %q, want html, text or man", name)
	}
}

func (k Kind) String() string {
	switch k {
	case KindHTML:
		return "html"
	case KindText:
		return "text"
	case KindMan:
		return "man"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Ext is the file extension of documents written in this format.
func (k Kind) Ext() string {
	switch k {
	case KindText:
		return ".txt"
	case KindMan:
		return ".7"
	default:
		return ".html"
	}
}

// RendersImages reports whether directives produce image files. Text and
// man pages only carry a placeholder.
func (k Kind) RendersImages() bool { return k == KindHTML }

// writeFunc produces the final document from a resolved tree.
type writeFunc func(c *Converter, doc *Document, res *parsed) ([]byte, error)

func (k Kind) writer() writeFunc {
	switch k {
	case KindText:
		return writeText
	case KindMan:
		return writeMan
	default:
		return writeHTML
	}
}
