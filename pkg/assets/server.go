// Package assets serves the packaged UI bundle over loopback HTTP.
//
// The server maps URL paths onto files beneath a single root directory,
// answers client-side routes with the SPA entry document, and refuses any
// path that would escape the root.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nexsan123/quantvision/pkg/shellerr"
)

// mimeTypes is the fixed extension table for bundle assets. Anything not
// listed is served as an opaque byte stream.
var mimeTypes = map[string]string{
	".html":  "text/html",
	".js":    "text/javascript",
	".mjs":   "text/javascript",
	".css":   "text/css",
	".json":  "application/json",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".eot":   "application/vnd.ms-fontobject",
}

// ContentTypeFor returns the content type for a bundle file path.
func ContentTypeFor(name string) string {
	if ct, ok := mimeTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Server serves the UI bundle on a loopback listener
type Server struct {
	root   string
	port   int
	logger *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	srv      *http.Server
}

// NewServer creates an asset server for the bundle rooted at root.
// Port 0 selects an ephemeral port; Addr reports the bound address.
func NewServer(root string, port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		root:   root,
		port:   port,
		logger: logger.With("component", "assets"),
	}
}

// Start binds the loopback listener and begins serving. A failure to bind
// is fatal for production startup; the caller surfaces it and quits.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return shellerr.ErrServerBindFailed(addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleAsset)

	s.listener = ln
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.srv = srv

	// The goroutine must not read s.srv: Stop may have nilled it before
	// the goroutine is scheduled.
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Asset server stopped unexpectedly", "error", err)
		}
	}()

	s.logger.Info("Asset server listening", "addr", ln.Addr().String(), "root", s.root)
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// URL returns the base URL of the running server, or "" before Start.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	return "http://" + addr
}

// Stop shuts the server down. Idempotent; safe to call before Start.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.listener = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	s.logger.Info("Asset server stopping")
	return srv.Shutdown(ctx)
}

// handleAsset resolves the request path to a bundle file. Extensionless
// paths are client-side routes and receive the SPA entry document; paths
// naming a concrete file 404 when the file is absent.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	reqPath := r.URL.Path
	if reqPath == "/" {
		reqPath = "/index.html"
	}

	clean := path.Clean(reqPath)
	fsPath := filepath.Join(s.root, filepath.FromSlash(clean))

	if !fileExists(fsPath) {
		if hasExtension(clean) {
			// Missing asset with an extension is a real 404, likely a
			// broken bundle reference.
			s.logger.Debug("Asset not found", "path", clean)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		// Extensionless paths are client-side routes; serve the entry
		// document so the router takes over.
		fsPath = filepath.Join(s.root, "index.html")
	}

	s.serveFile(w, r, fsPath)
}

func fileExists(fsPath string) bool {
	info, err := os.Stat(fsPath)
	return err == nil && !info.IsDir()
}

// hasExtension reports whether the final path segment names a file
// (contains a dot), as opposed to a client-side route.
func hasExtension(p string) bool {
	return strings.Contains(path.Base(p), ".")
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, fsPath string) {
	f, err := os.Open(fsPath)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("Asset not found", "path", fsPath)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.logger.Error("Asset read failed", "path", fsPath, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", ContentTypeFor(fsPath))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}

	if _, err := io.Copy(w, f); err != nil {
		s.logger.Warn("Asset write aborted", "path", fsPath, "error", err)
	}
}
