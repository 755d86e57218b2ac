package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bryanchriswhite/ScaleShot/internal/config"
	"github.com/bryanchriswhite/ScaleShot/internal/display"
	"github.com/bryanchriswhite/ScaleShot/internal/logger"
	"github.com/bryanchriswhite/ScaleShot/internal/output"
	"github.com/bryanchriswhite/ScaleShot/internal/screen"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// DisplayLister enumerates displays afresh on every call.
type DisplayLister func() ([]*screen.DisplayCapture, error)

// ChangeNotifier delivers display configuration change signals.
type ChangeNotifier interface {
	Subscribe() chan struct{}
	Unsubscribe(ch chan struct{})
}

// Server represents the HTTP API server
type Server struct {
	router    *mux.Router
	displays  DisplayLister
	configMgr *config.Manager
	changes   ChangeNotifier
	upgrader  websocket.Upgrader
}

// NewServer creates a new API server. changes may be nil, in which case the
// stream endpoint only sends the initial display list.
func NewServer(displays DisplayLister, configMgr *config.Manager, changes ChangeNotifier) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		displays:  displays,
		configMgr: configMgr,
		changes:   changes,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/displays", s.handleListDisplays).Methods("GET")
	api.HandleFunc("/displays/stream", s.handleDisplayStream)
	api.HandleFunc("/displays/{index:[0-9]+}", s.handleGetDisplay).Methods("GET")
	api.HandleFunc("/displays/{index:[0-9]+}/capture", s.handleCapture).Methods("GET")
	api.HandleFunc("/displays/{index:[0-9]+}/screenshot", s.handleScreenshot).Methods("POST")

	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start starts the HTTP server
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logger.WithComponent("api").Info().Str("addr", addr).Msg("Starting server")
	return http.ListenAndServe(addr, s.Handler())
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusFor maps capture error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, screen.ErrInvalidCaptureArea):
		return http.StatusBadRequest
	case errors.Is(err, screen.ErrCaptureAreaOutOfBounds):
		return http.StatusRequestedRangeNotSatisfiable
	case errors.Is(err, screen.ErrCaptureFailed):
		return http.StatusBadGateway
	case errors.Is(err, screen.ErrDisplayEnumerationFailed), errors.Is(err, screen.ErrInvalidDisplayGeometry):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	logger.WithComponent("api").Debug().Err(err).Int("status", status).Msg("Request failed")
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func describeAll(displays []*screen.DisplayCapture) []screen.Description {
	out := make([]screen.Description, 0, len(displays))
	for i, d := range displays {
		out = append(out, d.Describe(i))
	}
	return out
}

// lookup enumerates and returns the display at the {index} path variable.
func (s *Server) lookup(r *http.Request) (*screen.DisplayCapture, int, error) {
	displays, err := s.displays()
	if err != nil {
		return nil, 0, err
	}

	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || index < 0 || index >= len(displays) {
		return nil, 0, errDisplayNotFound
	}
	return displays[index], index, nil
}

var errDisplayNotFound = errors.New("display not found")

func (s *Server) handleListDisplays(w http.ResponseWriter, r *http.Request) {
	displays, err := s.displays()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, describeAll(displays))
}

func (s *Server) handleGetDisplay(w http.ResponseWriter, r *http.Request) {
	d, index, err := s.lookup(r)
	if errors.Is(err, errDisplayNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Describe(index))
}

// parseRequest reads x, y, width and height query parameters.
func parseRequest(r *http.Request) (screen.Request, error) {
	var req screen.Request
	q := r.URL.Query()
	fields := []struct {
		name string
		dst  *int
	}{
		{"x", &req.X},
		{"y", &req.Y},
		{"width", &req.Width},
		{"height", &req.Height},
	}
	for _, f := range fields {
		raw := q.Get(f.name)
		if raw == "" {
			return req, fmt.Errorf("%w: missing %s", screen.ErrInvalidCaptureArea, f.name)
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("%w: %s=%q is not an integer", screen.ErrInvalidCaptureArea, f.name, raw)
		}
		*f.dst = v
	}
	return req, nil
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	d, _, err := s.lookup(r)
	if errors.Is(err, errDisplayNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	format, err := output.NormalizeFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var res *screen.Result
	if r.URL.Query().Get("full") == "true" {
		res, err = d.CaptureFull()
	} else {
		var req screen.Request
		req, err = parseRequest(r)
		if err == nil {
			res, err = d.CaptureScaledArea(req.X, req.Y, req.Width, req.Height)
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", output.ContentType(format))
	w.Header().Set("X-Logical-Size", res.Logical.String())
	w.Header().Set("X-Physical-Rect", res.Physical.String())
	w.Header().Set("X-Total-Scale", d.Scaling().Percent())
	if err := output.Encode(w, res.Image, format, s.configMgr.Get().Output.JPEGQuality); err != nil {
		logger.WithComponent("api").Error().Err(err).Msg("Failed to encode capture")
	}
}

type screenshotRequest struct {
	screen.Request
	Full     bool   `json:"full"`
	BaseName string `json:"base_name"`
}

type screenshotResponse struct {
	Path     string       `json:"path"`
	Logical  display.Size `json:"logical_size"`
	Physical string       `json:"physical_rect"`
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	d, _, err := s.lookup(r)
	if errors.Is(err, errDisplayNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	var req screenshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var res *screen.Result
	if req.Full {
		res, err = d.CaptureFull()
	} else {
		res, err = d.CaptureScaledArea(req.X, req.Y, req.Width, req.Height)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	cfg := s.configMgr.Get()
	base := req.BaseName
	if base == "" {
		base = cfg.Output.BaseName
	}

	path, err := d.SaveScreenshot(res.Image, base, res.Logical, cfg.Output.Dir)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, screenshotResponse{
		Path:     path,
		Logical:  res.Logical,
		Physical: res.Physical.String(),
	})
}

func (s *Server) handleDisplayStream(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	send := func() error {
		displays, err := s.displays()
		if err != nil {
			return conn.WriteJSON(map[string]string{"error": err.Error()})
		}
		return conn.WriteJSON(describeAll(displays))
	}

	if err := send(); err != nil {
		log.Debug().Err(err).Msg("WebSocket write failed")
		return
	}

	// Reads only detect the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var updates chan struct{}
	if s.changes != nil {
		updates = s.changes.Subscribe()
		defer s.changes.Unsubscribe(updates)
	}

	for {
		select {
		case <-closed:
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			if err := send(); err != nil {
				log.Debug().Err(err).Msg("WebSocket write failed")
				return
			}
		}
	}
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.configMgr.Get())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
