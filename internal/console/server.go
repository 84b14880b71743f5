package console

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/itellico/joi-console/internal/model"
	"github.com/itellico/joi-console/internal/view"
)

type ServerConfig struct {
	Addr    string
	Console *Console
	Logger  *log.Logger
}

type Server struct {
	cfg    ServerConfig
	logger *log.Logger
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("console: missing addr")
	}
	if cfg.Console == nil {
		return nil, errors.New("console: missing console")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[console] ", log.LstdFlags)
	}
	return &Server{cfg: cfg, logger: cfg.Logger}, nil
}

func (s *Server) Addr() string {
	return strings.TrimSpace(s.cfg.Addr)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sections", s.handleSections)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/mutate", s.handleMutate)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var sel view.Selection
	switch q.Get("kind") {
	case "", "list":
		list, ok := model.ParseList(q.Get("list"))
		if !ok {
			httpError(w, http.StatusBadRequest, "unknown list bucket")
			return
		}
		sel = view.ListSelection(list)
	case "area":
		id := strings.TrimSpace(q.Get("areaId"))
		if id == "" {
			httpError(w, http.StatusBadRequest, "missing areaId")
			return
		}
		sel = view.AreaSelection(id)
	case "project":
		id := strings.TrimSpace(q.Get("projectId"))
		if id == "" {
			httpError(w, http.StatusBadRequest, "missing projectId")
			return
		}
		sel = view.ProjectSelection(id)
	case "logbook":
		sel = view.LogbookSelection()
	default:
		httpError(w, http.StatusBadRequest, "unknown selection kind")
		return
	}
	writeJSON(w, map[string]any{"sections": s.cfg.Console.Sections(sel)})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.cfg.Console.Search(r.URL.Query().Get("q")))
}

type mutateRequest struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func (s *Server) handleMutate(w http.ResponseWriter, r *http.Request) {
	var req mutateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := s.cfg.Console.Mutate(req.Kind, req.Payload); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Fire-and-forget: accepted means the local patch is applied; the remote
	// outcome arrives via reconciliation.
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
