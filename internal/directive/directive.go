// Package directive parses drawing directives embedded in documentation.
//
// A directive is a fenced code block whose language is the configured
// directive name (shoebot by default). Options can be given on the fence
// line after the name, or as field lines at the top of the body:
//
//	```shoebot size=200,200 alt="A red square"
//	:align: center
//	fill(1, 0, 0)
//	rect(50, 50, 100, 100)
//	```
//
// Field lines override fence options with the same key.
package directive

import (
	"fmt"
	"path/filepath"
	"strings"

	sderrors "github.com/conneroisu/sketchdoc/internal/errors"
)

// Directive is one occurrence of a drawing script in a document.
type Directive struct {
	// Name is the directive name the block was opened with.
	Name string
	// Code is the script body with option field lines removed.
	Code    string
	Options Options
	// DocName is the document path relative to the source directory.
	DocName string
	// DocDir is the absolute directory of the document. External engines
	// run there so relative paths inside scripts resolve.
	DocDir string
	// Line is the 1-based line of the opening fence.
	Line int
}

// Empty reports whether the directive has no script content.
func (d *Directive) Empty() bool {
	return strings.TrimSpace(d.Code) == ""
}

// Location returns "doc:line" for diagnostics.
func (d *Directive) Location() string {
	return fmt.Sprintf("%s:%d", d.DocName, d.Line)
}

// Parse builds a Directive from the text following the directive name on
// the fence line and the raw block body.
func Parse(name, info, body string) (*Directive, error) {
	opts := DefaultOptions()

	fenceOpts, err := splitInfo(info)
	if err != nil {
		return nil, err
	}
	for _, kv := range fenceOpts {
		if err := opts.Set(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}

	fields, code := splitFields(body)
	for _, kv := range fields {
		if err := opts.Set(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}

	return &Directive{
		Name:    name,
		Code:    code,
		Options: opts,
	}, nil
}

// splitFields strips leading ":key: value" lines from body. Blank lines
// directly after the fields are dropped too.
func splitFields(body string) ([][2]string, string) {
	var fields [][2]string
	rest := body

	for rest != "" {
		line, next, _ := strings.Cut(rest, "\n")
		trimmed := strings.TrimSpace(line)
		key, value, ok := fieldLine(trimmed)
		if !ok {
			break
		}
		fields = append(fields, [2]string{key, value})
		rest = next
	}

	if len(fields) > 0 {
		for rest != "" {
			line, next, _ := strings.Cut(rest, "\n")
			if strings.TrimSpace(line) != "" {
				break
			}
			rest = next
		}
	}

	return fields, rest
}

func fieldLine(line string) (string, string, bool) {
	if !strings.HasPrefix(line, ":") {
		return "", "", false
	}
	key, value, ok := strings.Cut(line[1:], ":")
	if !ok || key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return strings.ToLower(key), strings.TrimSpace(value), true
}

// splitInfo tokenizes `key=value key2="quoted value" key3=(a, b)` pairs. A
// bare key is read as "true".
func splitInfo(info string) ([][2]string, error) {
	var pairs [][2]string
	s := strings.TrimSpace(info)

	for s != "" {
		end := strings.IndexAny(s, "= \t")
		if end == -1 {
			pairs = append(pairs, [2]string{strings.ToLower(s), "true"})
			break
		}
		key := strings.ToLower(s[:end])
		if key == "" {
			return nil, invalidOption("malformed option list %q", info)
		}
		if s[end] != '=' {
			pairs = append(pairs, [2]string{key, "true"})
			s = strings.TrimSpace(s[end:])
			continue
		}

		s = s[end+1:]
		var value string
		if s != "" && (s[0] == '"' || s[0] == '\'') {
			quote := s[0]
			closing := strings.IndexByte(s[1:], quote)
			if closing == -1 {
				return nil, invalidOption("unterminated quote in option %q", key)
			}
			value = s[1 : closing+1]
			s = s[closing+2:]
		} else if s != "" && s[0] == '(' {
			closing := strings.IndexByte(s, ')')
			if closing == -1 {
				return nil, invalidOption("unterminated parenthesis in option %q", key)
			}
			value = s[:closing+1]
			s = s[closing+1:]
		} else {
			stop := strings.IndexAny(s, " \t")
			if stop == -1 {
				stop = len(s)
			}
			value = s[:stop]
			s = s[stop:]
		}
		pairs = append(pairs, [2]string{key, value})
		s = strings.TrimSpace(s)
	}

	return pairs, nil
}

// SanitizeFilename validates an explicit output file name and forces its
// extension to ext.
func SanitizeFilename(name, ext string) (string, error) {
	if name == "" {
		return "", invalidOption("filename must not be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", invalidOption("filename %q must be a plain file name", name)
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		return "", invalidOption("filename %q has no base name", name)
	}
	return base + "." + ext, nil
}

func invalidOption(format string, args ...interface{}) error {
	return sderrors.NewContentError(sderrors.CodeInvalidOption, fmt.Sprintf(format, args...))
}
