// Package gateway exposes the control surface the UI calls into.
//
// Requests arrive as JSON envelopes on a loopback HTTP listener, named by
// channel ("app:getInfo", "file:read", ...). Every response carries a
// success flag; handler failures become structured error payloads, never
// transport errors.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexsan123/quantvision/pkg/platform"
	"github.com/nexsan123/quantvision/pkg/shellerr"
	"github.com/nexsan123/quantvision/pkg/supervisor"
)

// Backend is the supervisor surface the gateway needs
type Backend interface {
	Status(ctx context.Context) supervisor.Status
	Restart(ctx context.Context) error
	DiagnosticTail() []string
}

// AppInfo answers the app:getInfo channel
type AppInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Platform string `json:"platform"`
	DataDir  string `json:"dataDir"`
	DevMode  bool   `json:"devMode"`
}

// Request is the inbound envelope
type Request struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the outbound envelope. Data is merged at the top level next
// to the success flag.
type Response struct {
	Success   bool        `json:"success"`
	RequestID string      `json:"requestId"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody describes a failed operation
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Handler processes one channel's payload
type Handler func(ctx context.Context, payload json.RawMessage) (interface{}, error)

// Gateway dispatches control-surface requests to channel handlers
type Gateway struct {
	info    AppInfo
	backend Backend
	files   *FileStore
	logger  *slog.Logger
	port    int

	handlers map[string]Handler

	mu       sync.Mutex
	listener net.Listener
	srv      *http.Server
}

// New creates a gateway bound to the given backend and app-data store.
func New(info AppInfo, backend Backend, files *FileStore, port int, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}

	g := &Gateway{
		info:    info,
		backend: backend,
		files:   files,
		logger:  logger.With("component", "gateway"),
		port:    port,
	}

	g.handlers = map[string]Handler{
		"app:getInfo":        g.handleGetInfo,
		"file:read":          g.handleFileRead,
		"file:write":         g.handleFileWrite,
		"shell:openExternal": g.handleOpenExternal,
		"backend:status":     g.handleBackendStatus,
		"backend:restart":    g.handleBackendRestart,
	}

	return g
}

// Start binds the loopback listener and begins serving /ipc.
func (g *Gateway) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.listener != nil {
		return nil
	}

	addr := fmt.Sprintf("127.0.0.1:%d", g.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return shellerr.ErrServerBindFailed(addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ipc", g.handleIPC)

	g.listener = ln
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.srv = srv

	// The goroutine must not read g.srv: Stop may have nilled it before
	// the goroutine is scheduled.
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("Gateway stopped unexpectedly", "error", err)
		}
	}()

	g.logger.Info("Control surface listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or "" before Start.
func (g *Gateway) Addr() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.listener == nil {
		return ""
	}
	return g.listener.Addr().String()
}

// Stop shuts the gateway down. Idempotent.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	srv := g.srv
	g.srv = nil
	g.listener = nil
	g.mu.Unlock()

	if srv == nil {
		return nil
	}

	g.logger.Info("Control surface stopping")
	return srv.Shutdown(ctx)
}

func (g *Gateway) handleIPC(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	if r.Method != http.MethodPost {
		g.writeResponse(w, Response{
			Success:   false,
			RequestID: requestID,
			Error:     &ErrorBody{Code: string(shellerr.ErrorCodeControlSurface), Message: "POST required"},
		})
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.writeResponse(w, Response{
			Success:   false,
			RequestID: requestID,
			Error:     &ErrorBody{Code: string(shellerr.ErrorCodeControlSurface), Message: "malformed request envelope"},
		})
		return
	}

	handler, ok := g.handlers[req.Channel]
	if !ok {
		g.logger.Warn("Unknown channel", "channel", req.Channel, "request_id", requestID)
		g.writeResponse(w, Response{
			Success:   false,
			RequestID: requestID,
			Error:     &ErrorBody{Code: string(shellerr.ErrorCodeControlSurface), Message: fmt.Sprintf("unknown channel: %s", req.Channel)},
		})
		return
	}

	start := time.Now()
	data, err := handler(r.Context(), req.Payload)
	if err != nil {
		g.logger.Warn("Channel handler failed",
			"channel", req.Channel, "request_id", requestID, "error", err)
		g.writeResponse(w, Response{
			Success:   false,
			RequestID: requestID,
			Error:     errorBodyFrom(err),
		})
		return
	}

	g.logger.Debug("Channel handled",
		"channel", req.Channel, "request_id", requestID, "duration", time.Since(start))
	g.writeResponse(w, Response{
		Success:   true,
		RequestID: requestID,
		Data:      data,
	})
}

func (g *Gateway) writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		g.logger.Error("Response write failed", "error", err)
	}
}

// errorBodyFrom keeps structured codes from shellerr and wraps everything
// else as an internal error.
func errorBodyFrom(err error) *ErrorBody {
	if code := shellerr.GetErrorCode(err); code != "" {
		return &ErrorBody{Code: string(code), Message: err.Error()}
	}
	return &ErrorBody{Code: string(shellerr.ErrorCodeInternalError), Message: err.Error()}
}

func (g *Gateway) handleGetInfo(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	return g.info, nil
}

type filePayload struct {
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
}

func (g *Gateway) handleFileRead(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var p filePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("malformed file:read payload: %w", err)
	}

	data, err := g.files.Read(p.Path)
	if err != nil {
		return nil, err
	}

	return map[string]string{"content": string(data)}, nil
}

func (g *Gateway) handleFileWrite(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var p filePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("malformed file:write payload: %w", err)
	}

	if err := g.files.Write(p.Path, []byte(p.Content)); err != nil {
		return nil, err
	}
	return map[string]string{"path": p.Path}, nil
}

type openExternalPayload struct {
	URL string `json:"url"`
}

func (g *Gateway) handleOpenExternal(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var p openExternalPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("malformed shell:openExternal payload: %w", err)
	}

	if err := platform.OpenExternal(p.URL); err != nil {
		return nil, err
	}
	return map[string]string{"url": p.URL}, nil
}

func (g *Gateway) handleBackendStatus(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	st := g.backend.Status(ctx)
	return map[string]interface{}{
		"running":     st.Running,
		"url":         st.URL,
		"pid":         st.PID,
		"uptime":      st.Uptime.String(),
		"diagnostics": g.backend.DiagnosticTail(),
	}, nil
}

func (g *Gateway) handleBackendRestart(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	if err := g.backend.Restart(ctx); err != nil {
		return nil, err
	}
	return map[string]bool{"restarted": true}, nil
}
