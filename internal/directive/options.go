package directive

import (
	"strconv"
	"strings"
)

// Options are the recognized directive options.
type Options struct {
	Width, Height int
	HasSize       bool
	Filename      string
	Alt           string
	HasAlt        bool
	Align         string
	XImports      []string
	// Source controls whether the highlighted script listing is emitted.
	Source  bool
	Caption string
}

// DefaultOptions returns the options of a directive that sets none.
func DefaultOptions() Options {
	return Options{Source: true}
}

// Set applies one option. Keys are case-insensitive.
func (o *Options) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "size":
		w, h, err := ParseSize(value)
		if err != nil {
			return err
		}
		o.Width, o.Height, o.HasSize = w, h, true
	case "filename":
		if strings.TrimSpace(value) == "" {
			return invalidOption("filename must not be empty")
		}
		o.Filename = strings.TrimSpace(value)
	case "alt":
		o.Alt = value
		o.HasAlt = true
	case "align":
		switch value {
		case "left", "center", "right":
			o.Align = value
		default:
			return invalidOption("align must be one of left, center, right, got %q", value)
		}
	case "ximports":
		o.XImports = ParseList(value)
	case "source":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		o.Source = b
	case "caption":
		o.Caption = value
	default:
		return invalidOption("unknown option %q", key)
	}
	return nil
}

// ParseSize decodes "W,H" or "(W,H)". Negative values parse; range checks
// belong to the drawing engine.
func ParseSize(value string) (int, int, error) {
	v := strings.TrimSpace(value)
	v = strings.TrimPrefix(v, "(")
	v = strings.TrimSuffix(v, ")")

	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return 0, 0, invalidOption("size must be two comma-separated integers, got %q", value)
	}

	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, invalidOption("size width %q is not an integer", parts[0])
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, invalidOption("size height %q is not an integer", parts[1])
	}
	return w, h, nil
}

// ParseList decodes a comma-separated list, optionally wrapped in
// parentheses. Empty entries are dropped.
func ParseList(value string) []string {
	v := strings.Trim(strings.TrimSpace(value), " ()")
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	default:
		return false, invalidOption("expected a boolean, got %q", value)
	}
}
