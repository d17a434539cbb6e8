package build

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderLayout(t *testing.T, p pageData, body string) string {
	t.Helper()
	var buf bytes.Buffer
	ctx := templ.WithChildren(context.Background(), templ.Raw(body))
	require.NoError(t, layout(p).Render(ctx, &buf))
	return buf.String()
}

func TestLayout(t *testing.T) {
	out := renderLayout(t, pageData{
		Title:     `Fish & <Chips>`,
		Root:      "../",
		StaticDir: "_static",
	}, `<h1>Fish</h1><img src="../_images/shoebot-1.png">`)

	assert.Contains(t, out, "<!doctype html>")
	assert.Contains(t, out, `<meta name="generator" content="sketchdoc `)
	assert.Contains(t, out, "<title>Fish &amp; &lt;Chips&gt;</title>")
	assert.Contains(t, out, `<link rel="stylesheet" href="../_static/highlight.css">`)
	assert.Contains(t, out, `<main><h1>Fish</h1><img src="../_images/shoebot-1.png"></main>`)
	assert.NotContains(t, out, "<script")
}

func TestLayoutReloadScript(t *testing.T) {
	out := renderLayout(t, pageData{Title: "x", StaticDir: "_static", ReloadScript: "/_sketchdoc/reload.js"}, "")

	assert.Contains(t, out, `</main><script src="/_sketchdoc/reload.js"></script></body>`)
	assert.Contains(t, out, `href="_static/highlight.css"`)
}

func TestLayoutWithoutBody(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, layout(pageData{Title: "empty"}).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "<main></main>")
}

func TestLayoutCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := layout(pageData{Title: "x"}).Render(ctx, &buf)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}
