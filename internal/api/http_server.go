package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/Mantelijo/waveportal/internal/wave"
)

func NewHttpServer(addr, port string, portal WavePortal) *httpServer {
	return &httpServer{
		addr:   addr,
		port:   port,
		portal: portal,
	}
}

type httpServer struct {
	addr string
	port string

	portal WavePortal

	// Guards l, which is set by Serve and read by Close
	mu sync.Mutex
	l  net.Listener
}

func (s *httpServer) Serve() error {
	router := http.NewServeMux()
	s.registerRoutes(router)
	return s.startServer(router)
}

func (s *httpServer) startServer(r *http.ServeMux) error {
	bindAddr := net.JoinHostPort(s.addr, s.port)

	l, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return err
	}
	port := strconv.Itoa(l.Addr().(*net.TCPAddr).Port)

	s.mu.Lock()
	s.l = l
	s.port = port
	s.mu.Unlock()

	slog.Info("starting http api server",
		slog.String("addr", s.addr),
		slog.String("port", port),
	)

	return http.Serve(l, r)
}

func (s *httpServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.l == nil {
		return nil
	}
	return s.l.Close()
}

// Addr returns the bound listener address, empty until Serve is listening.
func (s *httpServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.l == nil {
		return ""
	}
	return s.l.Addr().String()
}

func (s *httpServer) registerRoutes(r *http.ServeMux) {
	r.HandleFunc("GET /session", s.getSession)
	r.HandleFunc("POST /session", s.connect)
	r.HandleFunc("DELETE /session", s.disconnect)
	r.HandleFunc("GET /waves", s.getWaves)
	r.HandleFunc("POST /waves", s.submitWave)
	r.HandleFunc("GET /submission", s.getSubmission)
}

type SubmitWaveRequest struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error  string      `json:"error"`
	Reason wave.Reason `json:"reason"`
}

func (s *httpServer) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.portal.SessionState())
}

func (s *httpServer) connect(w http.ResponseWriter, r *http.Request) {
	st := s.portal.Connect(r.Context())
	status := http.StatusOK
	if st.Status == wave.StatusConnectFailed {
		status = statusForReason(st.Reason)
		slog.Warn("wallet connect failed", slog.String("reason", string(st.Reason)))
	}
	writeJSON(w, status, st)
}

func (s *httpServer) disconnect(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.portal.Disconnect())
}

func (s *httpServer) getWaves(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.portal.Waves())
}

func (s *httpServer) submitWave(w http.ResponseWriter, r *http.Request) {
	reqBytes, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("failed to read request body", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	req := &SubmitWaveRequest{}
	if err := json.Unmarshal(reqBytes, req); err != nil {
		slog.Error("failed to parse request", slog.Any("error", err))
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("failed to parse request"))
		return
	}

	// A signed wave is awaited even if the client goes away
	st, err := s.portal.Submit(context.WithoutCancel(r.Context()), req.Message)
	if err != nil {
		reason := wave.ReasonOf(err)
		slog.Error("wave submission failed",
			slog.String("reason", string(reason)),
			slog.Any("error", err),
		)
		writeJSON(w, statusForReason(reason), errorResponse{
			Error:  err.Error(),
			Reason: reason,
		})
		return
	}

	writeJSON(w, http.StatusOK, st)
}

func (s *httpServer) getSubmission(w http.ResponseWriter, r *http.Request) {
	st, ok := s.portal.CurrentSubmission()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func statusForReason(reason wave.Reason) int {
	switch reason {
	case wave.ReasonValidation:
		return http.StatusBadRequest
	case wave.ReasonSubmissionInProgress, wave.ReasonNotConnected:
		return http.StatusConflict
	case wave.ReasonUserRejected:
		return http.StatusForbidden
	case wave.ReasonProviderUnavailable:
		return http.StatusServiceUnavailable
	case wave.ReasonTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
