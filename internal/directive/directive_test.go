package directive

import (
	"testing"

	sderrors "github.com/conneroisu/sketchdoc/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFenceOptions(t *testing.T) {
	d, err := Parse("shoebot", `size=200,150 alt="A red square" align=center source=no`, "rect(0, 0, 10, 10)\n")
	require.NoError(t, err)

	assert.Equal(t, "shoebot", d.Name)
	assert.Equal(t, "rect(0, 0, 10, 10)\n", d.Code)
	assert.True(t, d.Options.HasSize)
	assert.Equal(t, 200, d.Options.Width)
	assert.Equal(t, 150, d.Options.Height)
	assert.Equal(t, "A red square", d.Options.Alt)
	assert.True(t, d.Options.HasAlt)
	assert.Equal(t, "center", d.Options.Align)
	assert.False(t, d.Options.Source)
}

func TestParseFieldLinesOverrideFence(t *testing.T) {
	body := ":size: (300, 300)\n:ximports: (colors, sbaudio)\n:caption: Figure one\n\nbackground(0)\n"
	d, err := Parse("shoebot", "size=10,10", body)
	require.NoError(t, err)

	assert.Equal(t, 300, d.Options.Width)
	assert.Equal(t, 300, d.Options.Height)
	assert.Equal(t, []string{"colors", "sbaudio"}, d.Options.XImports)
	assert.Equal(t, "Figure one", d.Options.Caption)
	assert.Equal(t, "background(0)\n", d.Code)
}

func TestParseDefaults(t *testing.T) {
	d, err := Parse("shoebot", "", "line(0, 0, 10, 10)")
	require.NoError(t, err)

	assert.False(t, d.Options.HasSize)
	assert.False(t, d.Options.HasAlt)
	assert.True(t, d.Options.Source)
	assert.Empty(t, d.Options.Filename)
	assert.False(t, d.Empty())
}

func TestParseNegativeSizeIsAccepted(t *testing.T) {
	d, err := Parse("shoebot", "size=(-1,-1)", "rect(0,0,1,1)")
	require.NoError(t, err)
	assert.Equal(t, -1, d.Options.Width)
	assert.Equal(t, -1, d.Options.Height)
}

func TestParseParenthesizedFenceValues(t *testing.T) {
	d, err := Parse("shoebot", `size=(200, 150) ximports=( colors, math ) alt="x"`, "rect(0,0,1,1)")
	require.NoError(t, err)
	assert.Equal(t, 200, d.Options.Width)
	assert.Equal(t, 150, d.Options.Height)
	assert.Equal(t, []string{"colors", "math"}, d.Options.XImports)
	assert.Equal(t, "x", d.Options.Alt)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		info string
		body string
	}{
		{"unknown option", "colour=red", "x"},
		{"bad size", "size=10", "x"},
		{"non numeric size", "size=a,b", "x"},
		{"bad align", "align=middle", "x"},
		{"bad source", "source=maybe", "x"},
		{"unterminated quote", `alt="oops`, "x"},
		{"unterminated parenthesis", "size=(200, 200", "x"},
		{"bad field", "", ":size: big\nrect(0,0,1,1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("shoebot", tt.info, tt.body)
			require.Error(t, err)
			assert.True(t, sderrors.IsContentError(err))
		})
	}
}

func TestEmpty(t *testing.T) {
	d, err := Parse("shoebot", "", ":alt: nothing here\n\n   \n")
	require.NoError(t, err)
	assert.True(t, d.Empty())
}

func TestFieldLinesStopAtCode(t *testing.T) {
	body := "rect(0, 0, 5, 5)\n:alt: not an option\n"
	d, err := Parse("shoebot", "", body)
	require.NoError(t, err)
	assert.Equal(t, body, d.Code)
	assert.False(t, d.Options.HasAlt)
}

func TestSanitizeFilename(t *testing.T) {
	name, err := SanitizeFilename("logo.png", "svg")
	require.NoError(t, err)
	assert.Equal(t, "logo.svg", name)

	name, err = SanitizeFilename("diagram", "png")
	require.NoError(t, err)
	assert.Equal(t, "diagram.png", name)

	for _, bad := range []string{"", "../x.png", "a/b.png", `a\b`, ".png"} {
		_, err := SanitizeFilename(bad, "png")
		assert.Error(t, err, bad)
	}
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseList(" (a, ,b) "))
	assert.Nil(t, ParseList(""))
}

func TestLocation(t *testing.T) {
	d := &Directive{DocName: "guide/intro.md", Line: 12}
	assert.Equal(t, "guide/intro.md:12", d.Location())
}
