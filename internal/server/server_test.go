package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sketchdoc/internal/config"
	"github.com/conneroisu/sketchdoc/internal/logging"
)

type fakeStatus struct{ overlay string }

func (f *fakeStatus) ErrorOverlay() string { return f.overlay }

func newTestServer(t *testing.T, status BuildStatus) (*Server, *httptest.Server) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "guide"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>Home</h1>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "guide", "paths.html"), []byte("<h1>Paths</h1>"), 0644))

	s := New(config.ServerConfig{Host: "localhost", Port: 8000}, root, status, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go s.RunHub(ctx)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return s, ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServesOutputDirectory(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, body := get(t, ts.URL+"/guide/paths.html")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<h1>Paths</h1>", body)
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	resp, body = get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<h1>Home</h1>", body)

	resp, _ = get(t, ts.URL+"/missing.html")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReloadScript(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, body := get(t, ts.URL+ReloadScriptPath)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "javascript")
	assert.Contains(t, body, `"/_sketchdoc/ws"`)
	assert.Contains(t, body, `"/_sketchdoc/overlay"`)
	assert.NotContains(t, body, "%!")
}

func TestOverlay(t *testing.T) {
	status := &fakeStatus{}
	_, ts := newTestServer(t, status)

	_, body := get(t, ts.URL+OverlayPath)
	assert.Empty(t, body)

	status.overlay = `<div id="sketchdoc-error-overlay">boom</div>`
	resp, body := get(t, ts.URL+OverlayPath)
	assert.Equal(t, status.overlay, body)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, &fakeStatus{overlay: "x"})

	resp, body := get(t, ts.URL+HealthPath)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, true, health["errors"])
	assert.Equal(t, float64(0), health["clients"])

	req, err := http.NewRequest(http.MethodPost, ts.URL+HealthPath, nil)
	require.NoError(t, err)
	postResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	postResp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, postResp.StatusCode)
}

func dial(ctx context.Context, ts *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	opts := &websocket.DialOptions{}
	if origin != "" {
		opts.HTTPHeader = http.Header{"Origin": []string{origin}}
	}
	return websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+WebSocketPath, opts)
}

func TestWebSocketReload(t *testing.T) {
	s, ts := newTestServer(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := dial(ctx, ts, ts.URL)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	s.NotifyReload()

	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)

	var msg UpdateMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "reload", msg.Type)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestWebSocketClientDisconnect(t *testing.T) {
	s, ts := newTestServer(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := dial(ctx, ts, ts.URL)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	assert.Eventually(t, func() bool { return s.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketRejectsForeignOrigins(t *testing.T) {
	_, ts := newTestServer(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tests := []struct {
		name   string
		origin string
	}{
		{"missing", ""},
		{"other host", "http://evil.example"},
		{"file scheme", "file:///tmp/index.html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := dial(ctx, ts, tt.origin)
			if conn != nil {
				conn.Close(websocket.StatusNormalClosure, "")
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestShutdownClosesClients(t *testing.T) {
	s, ts := newTestServer(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := dial(ctx, ts, ts.URL)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Shutdown(ctx))
	assert.Equal(t, 0, s.ClientCount())

	_, _, err = conn.Read(ctx)
	assert.Error(t, err)
}

func TestAddr(t *testing.T) {
	s := New(config.ServerConfig{Host: "127.0.0.1", Port: 9000}, t.TempDir(), nil, nil)
	assert.Equal(t, "127.0.0.1:9000", s.Addr())
}
