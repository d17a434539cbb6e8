package engine

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

var namedColors = map[string]color.NRGBA{
	"black":       {0, 0, 0, 255},
	"white":       {255, 255, 255, 255},
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"blue":        {0, 0, 255, 255},
	"yellow":      {255, 255, 0, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"orange":      {255, 165, 0, 255},
	"purple":      {128, 0, 128, 255},
	"transparent": {0, 0, 0, 0},
}

// colorFromArgs converts shoebot color arguments. Numbers are in the 0..1
// range: one is gray, two gray and alpha, three rgb, four rgba. A single
// string is a hex code or a color name.
func colorFromArgs(args []value) (color.NRGBA, error) {
	if len(args) == 1 && args[0].isStr {
		return parseColorString(args[0].str)
	}

	nums := make([]float64, len(args))
	for i, a := range args {
		if a.isStr {
			return color.NRGBA{}, fmt.Errorf("color components must be numbers")
		}
		nums[i] = a.num
	}

	switch len(nums) {
	case 1:
		g := unit(nums[0])
		return color.NRGBA{g, g, g, 255}, nil
	case 2:
		g := unit(nums[0])
		return color.NRGBA{g, g, g, unit(nums[1])}, nil
	case 3:
		return color.NRGBA{unit(nums[0]), unit(nums[1]), unit(nums[2]), 255}, nil
	case 4:
		return color.NRGBA{unit(nums[0]), unit(nums[1]), unit(nums[2]), unit(nums[3])}, nil
	default:
		return color.NRGBA{}, fmt.Errorf("a color takes 1 to 4 components, got %d", len(nums))
	}
}

func unit(v float64) uint8 {
	v = math.Max(0, math.Min(1, v))
	return uint8(math.Round(v * 255))
}

func parseColorString(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		return color.NRGBA{}, fmt.Errorf("unknown color %q", s)
	}

	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	return color.NRGBA{uint8(n >> 24), uint8(n >> 16), uint8(n >> 8), uint8(n)}, nil
}

// ColorArgs renders a configured color (for example "1", "0.2, 0.4, 0.6"
// or "#336699") as the argument list of a script call.
func ColorArgs(value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", fmt.Errorf("empty color")
	}

	_, named := namedColors[strings.ToLower(v)]
	if named || strings.HasPrefix(v, "#") {
		if _, err := parseColorString(v); err != nil {
			return "", err
		}
		return strconv.Quote(v), nil
	}

	parts := strings.Split(v, ",")
	if len(parts) > 4 {
		return "", fmt.Errorf("a color takes 1 to 4 components, got %d", len(parts))
	}
	out := make([]string, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return "", fmt.Errorf("invalid color component %q", p)
		}
		out[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(out, ", "), nil
}
