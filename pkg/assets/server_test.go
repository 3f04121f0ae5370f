package assets

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBundle(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"index.html":      "<!doctype html><title>quantvision</title>",
		"app.js":          "console.log('ready')",
		"style.css":       "body{}",
		"data/feeds.json": `{"feeds":[]}`,
		"logo.bin":        "\x00\x01",
		"VERSION":         "1.4.0",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func startTestServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(newTestBundle(t), 0, nil)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s
}

func get(t *testing.T, s *Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(s.URL() + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServeIndexAtRoot(t *testing.T) {
	s := startTestServer(t)

	resp := get(t, s, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "quantvision")
}

func TestServeAssetWithContentType(t *testing.T) {
	s := startTestServer(t)

	tests := []struct {
		path        string
		contentType string
	}{
		{"/app.js", "text/javascript"},
		{"/style.css", "text/css"},
		{"/data/feeds.json", "application/json"},
		{"/logo.bin", "application/octet-stream"},
	}

	for _, tt := range tests {
		resp := get(t, s, tt.path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, tt.path)
		assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"), tt.path)
	}
}

func TestMissingFileReturns404(t *testing.T) {
	s := startTestServer(t)

	resp := get(t, s, "/missing.js")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSPAFallbackForRoutes(t *testing.T) {
	s := startTestServer(t)

	for _, route := range []string{"/dashboard", "/portfolio/positions", "/backtests/42"} {
		resp := get(t, s, route)
		assert.Equal(t, http.StatusOK, resp.StatusCode, route)
		assert.Equal(t, "text/html", resp.Header.Get("Content-Type"), route)
	}
}

func TestExtensionlessExistingFileWins(t *testing.T) {
	s := startTestServer(t)

	// A real file takes priority over the SPA fallback even without an
	// extension.
	resp := get(t, s, "/VERSION")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "1.4.0", string(body))
}

func TestCORSHeaderPresent(t *testing.T) {
	s := startTestServer(t)

	resp := get(t, s, "/app.js")
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp = get(t, s, "/missing.js")
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestTraversalCannotEscapeRoot(t *testing.T) {
	root := newTestBundle(t)
	// Plant a file one level above the bundle root.
	secret := filepath.Join(filepath.Dir(root), "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("keep out"), 0o644))

	s := NewServer(root, 0, nil)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	req := httptest.NewRequest(http.MethodGet, "http://127.0.0.1/", nil)
	req.URL.Path = "/../secret.txt"
	rec := httptest.NewRecorder()
	s.handleAsset(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNonGetRejected(t *testing.T) {
	s := startTestServer(t)

	resp, err := http.Post(s.URL()+"/app.js", "text/plain", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewServer(newTestBundle(t), 0, nil)
	require.NoError(t, s.Start())

	assert.NoError(t, s.Stop(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}

func TestStopBeforeStart(t *testing.T) {
	s := NewServer(t.TempDir(), 0, nil)
	assert.NoError(t, s.Stop(context.Background()))
	assert.Empty(t, s.Addr())
}

func TestImmediateStopAfterStart(t *testing.T) {
	root := newTestBundle(t)

	// Stop racing the freshly spawned serve goroutine must never panic.
	for i := 0; i < 50; i++ {
		s := NewServer(root, 0, nil)
		require.NoError(t, s.Start())
		require.NoError(t, s.Stop(context.Background()))
	}
}

func TestStartTwiceKeepsFirstListener(t *testing.T) {
	s := startTestServer(t)

	addr := s.Addr()
	require.NoError(t, s.Start())
	assert.Equal(t, addr, s.Addr())
}

func TestBindConflictFails(t *testing.T) {
	first := startTestServer(t)

	_, portStr, err := net.SplitHostPort(first.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	second := NewServer(t.TempDir(), port, nil)
	assert.Error(t, second.Start())
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "text/javascript", ContentTypeFor("bundle.mjs"))
	assert.Equal(t, "font/woff2", ContentTypeFor("inter.woff2"))
	assert.Equal(t, "image/svg+xml", ContentTypeFor("chart.svg"))
	assert.Equal(t, "application/vnd.ms-fontobject", ContentTypeFor("legacy.eot"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("archive.tar.gz"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("noext"))
}
