package rpcserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// HTTPServer exposes the same compile/identify/stop methods as TCPServer
// over plain HTTP: POST /compile, GET /status, POST /stop. It shares one
// Engine with any TCPServer running alongside it.
type HTTPServer struct {
	Engine *Engine
	Secret []byte

	// UnauthorizedDelay is slept before responding to an unauthorized stop
	// request, a timing-attack mitigation for failed auth attempts.
	UnauthorizedDelay time.Duration

	srv *http.Server
}

// NewHTTPServer returns an HTTPServer backed by engine, whose stop method
// is gated on secret.
func NewHTTPServer(engine *Engine, secret []byte) *HTTPServer {
	return &HTTPServer{Engine: engine, Secret: secret, UnauthorizedDelay: 2 * time.Second}
}

// Router builds the chi router backing the HTTP surface. Exported so a
// caller assembling a larger mux (or a test) can mount it directly.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/status", s.handleStatus)
	r.Post("/compile", s.handleCompile)
	r.Post("/stop", s.handleStop)
	return r
}

// ListenAndServe binds addr and serves the HTTP surface until Stop is
// called. It blocks; callers typically run it in its own goroutine.
func (s *HTTPServer) ListenAndServe(addr string) error {
	s.srv = &http.Server{Addr: addr, Handler: s.Router()}
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop closes the HTTP surface immediately, without waiting for in-flight
// requests to finish.
func (s *HTTPServer) Stop() {
	if s.srv != nil {
		s.srv.Close()
	}
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, req *http.Request) {
	name, version := s.Engine.Identify()
	renderJSON(w, http.StatusOK, identifyResult{Name: name, Version: version})
}

func (s *HTTPServer) handleCompile(w http.ResponseWriter, req *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)

	var body compileParams
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		renderJSON(w, http.StatusBadRequest, &RPCError{Code: CodeParseError, Message: err.Error()})
		return
	}
	if body.Grammar == "" {
		renderJSON(w, http.StatusBadRequest, &RPCError{Code: CodeInvalidParams, Message: "grammar is required"})
		return
	}

	result, err := s.Engine.Compile(body.Grammar, body.Text)
	if err != nil {
		renderJSON(w, http.StatusUnprocessableEntity, &RPCError{Code: CodeFatal, Message: err.Error()})
		return
	}
	renderJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleStop(w http.ResponseWriter, req *http.Request) {
	tok, err := bearerToken(req.Header.Get("Authorization"))
	if err == nil {
		err = verifyStopToken(tok, s.Secret)
	}
	if err != nil {
		time.Sleep(s.UnauthorizedDelay)
		renderJSON(w, http.StatusUnauthorized, &RPCError{Code: CodeUnauthorized, Message: "unauthorized"})
		return
	}
	renderJSON(w, http.StatusOK, map[string]bool{"stopped": true})
	go s.Stop()
}

// renderJSON writes v as a JSON body with the given status code.
func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
