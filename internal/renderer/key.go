package renderer

import (
	"crypto/sha1" //nolint:gosec // content addressing, not security
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeScript makes the hash independent of platform line endings and
// Unicode composition.
func NormalizeScript(code string) string {
	code = strings.ReplaceAll(code, "\r\n", "\n")
	code = strings.ReplaceAll(code, "\r", "\n")
	return norm.NFC.String(code)
}

// hashKey returns the hex SHA-1 of the normalized script, a NUL separator
// and the canonical render inputs.
func hashKey(code string, in inputs) string {
	h := sha1.New()
	h.Write([]byte(NormalizeScript(code)))
	h.Write([]byte{0})
	h.Write([]byte(in.canonical()))
	return hex.EncodeToString(h.Sum(nil))
}

// inputs are the settings besides the script that change the output.
type inputs struct {
	format   string
	engine   string
	width    int
	height   int
	ximports []string
	preamble string
}

func (in inputs) canonical() string {
	return fmt.Sprintf("format=%s\nengine=%s\nsize=%dx%d\nximports=%s\npreamble=%s",
		in.format, in.engine, in.width, in.height, strings.Join(in.ximports, ","), in.preamble)
}
