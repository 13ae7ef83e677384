package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/domain"
	"github.com/scamdefender/sheriff/internal/biz/repo"
)

// Classifier is the part of the classification gateway exposed for debugging
type Classifier interface {
	ClassifyText(ctx context.Context, text string) domain.Verdict
	ClassifyUsername(ctx context.Context, username string) domain.Verdict
}

// Server provides the operator HTTP API
type Server struct {
	ledger     repo.LedgerRepo
	classifier Classifier
	logger     *zap.Logger

	server *http.Server
	addr   string
}

// OffenseResponse is the offense count of one user
type OffenseResponse struct {
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
}

// VerdictResponse mirrors domain.Verdict
type VerdictResponse struct {
	Safe   bool   `json:"safe"`
	Reason string `json:"reason"`
	Kind   string `json:"kind"`
}

// NewServer creates a new API server
func NewServer(ledger repo.LedgerRepo, classifier Classifier, addr string, logger *zap.Logger) *Server {
	return &Server{
		ledger:     ledger,
		classifier: classifier,
		addr:       addr,
		logger:     logger.Named("api"),
	}
}

// Handler builds the route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Offense ledger
	mux.HandleFunc("/api/offenses/", s.handleOffense)

	// Classification debugging
	mux.HandleFunc("/api/classify", s.handleClassify)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return mux
}

// Start listens and serves until Stop is called
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting HTTP server", zap.String("addr", ln.Addr().String()))
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// ============ Offense Handlers ============

func (s *Server) handleOffense(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimPrefix(r.URL.Path, "/api/offenses/")
	if userID == "" || strings.Contains(userID, "/") {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		count, err := s.ledger.Count(r.Context(), userID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, OffenseResponse{UserID: userID, Count: count})

	case http.MethodDelete:
		if err := s.ledger.Reset(r.Context(), userID); err != nil {
			s.writeError(w, err)
			return
		}
		s.logger.Info("offenses pardoned", zap.String("user_id", userID))
		s.writeJSON(w, OffenseResponse{UserID: userID, Count: 0})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ============ Classify Handlers ============

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Kind string `json:"kind"` // text (default) or username
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var v domain.Verdict
	switch req.Kind {
	case "", "text":
		v = s.classifier.ClassifyText(r.Context(), req.Text)
	case "username":
		v = s.classifier.ClassifyUsername(r.Context(), req.Text)
	default:
		http.Error(w, "kind must be text or username", http.StatusBadRequest)
		return
	}

	s.writeJSON(w, VerdictResponse{Safe: v.Safe, Reason: v.Reason, Kind: v.Kind.String()})
}

// ============ Helpers ============

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
