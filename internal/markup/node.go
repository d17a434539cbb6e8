package markup

import (
	"fmt"

	"github.com/yuin/goldmark/ast"

	"github.com/conneroisu/sketchdoc/internal/directive"
	"github.com/conneroisu/sketchdoc/internal/renderer"
)

// KindDrawing is the node kind of a drawing directive.
var KindDrawing = ast.NewNodeKind("Drawing")

// Drawing replaces a fenced code block whose language is the directive
// name. It is filled in two steps: the parser sets Directive or ParseErr,
// and the converter sets Result and Src once the image exists.
type Drawing struct {
	ast.BaseBlock

	Directive *directive.Directive
	ParseErr  error

	Result *renderer.Result
	// Src is the image URL relative to the page.
	Src string
	// Skipped is set when an error was recorded and the build continued.
	Skipped bool

	// start and end delimit the whole fenced block in the source,
	// fence lines included.
	start, end int
	line       int
}

// Kind implements ast.Node.
func (n *Drawing) Kind() ast.NodeKind { return KindDrawing }

// IsRaw implements ast.Node.
func (n *Drawing) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *Drawing) Dump(source []byte, level int) {
	kv := map[string]string{
		"Range": fmt.Sprintf("%d-%d", n.start, n.end),
		"Line":  fmt.Sprint(n.line),
	}
	ast.DumpHelper(n, source, level, kv, nil)
}

// Empty reports whether the directive parsed but has no script.
func (n *Drawing) Empty() bool {
	return n.ParseErr == nil && n.Directive != nil && n.Directive.Empty()
}
