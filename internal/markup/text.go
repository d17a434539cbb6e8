package markup

import (
	"bytes"
	"fmt"
	"path"
	"sort"
	"strings"
)

// placeholder is the line standing in for a drawing in text output.
func placeholder(n *Drawing) string {
	switch {
	case n.Skipped || n.ParseErr != nil:
		return ""
	case n.Empty():
		return "WARNING: " + emptyMessage(n.Directive.Name) + "\n"
	case n.Directive.Options.HasAlt:
		return fmt.Sprintf("[%s: %s]\n", n.Directive.Name, n.Directive.Options.Alt)
	default:
		return fmt.Sprintf("[%s]\n", n.Directive.Name)
	}
}

// splice copies the source, replacing every drawing block by its
// placeholder.
func splice(src []byte, drawings []*Drawing) []byte {
	sorted := append([]*Drawing(nil), drawings...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	var out bytes.Buffer
	pos := 0
	for _, n := range sorted {
		if n.start < pos {
			continue
		}
		out.Write(src[pos:n.start])
		out.WriteString(placeholder(n))
		pos = n.end
	}
	out.Write(src[pos:])
	return out.Bytes()
}

func writeText(_ *Converter, doc *Document, p *parsed) ([]byte, error) {
	return splice(doc.Source, p.drawings), nil
}

func writeMan(_ *Converter, doc *Document, p *parsed) ([]byte, error) {
	body := splice(doc.Source, p.drawings)

	title := strings.TrimSuffix(path.Base(doc.Name), path.Ext(doc.Name))
	var out bytes.Buffer
	fmt.Fprintf(&out, ".TH \"%s\" 7\n", roffEscape(strings.ToUpper(title)))

	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	for _, line := range lines {
		line = roffEscape(line)
		if strings.HasPrefix(line, ".") || strings.HasPrefix(line, "'") {
			line = `\&` + line
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.Bytes(), nil
}

func roffEscape(s string) string {
	return strings.ReplaceAll(s, `\`, `\e`)
}
