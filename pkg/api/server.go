// Package api exposes the calibration snapshot store over HTTP: snapshot
// ingest, latest-snapshot retrieval, and per-qubit/per-gate property queries.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vjranagit/qprops/pkg/calibration"
	"github.com/vjranagit/qprops/pkg/storage"
)

// Server implements the HTTP API server.
type Server struct {
	store   storage.Store
	addr    string
	server  *http.Server
	metrics *serverMetrics
}

type serverMetrics struct {
	registry *prometheus.Registry
	ingested prometheus.Counter
	queries  prometheus.Counter
	failures prometheus.Counter
}

func newServerMetrics() *serverMetrics {
	ingested := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qprops_snapshots_ingested_total",
		Help: "Snapshots accepted and written to the store.",
	})
	queries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qprops_property_queries_total",
		Help: "Property lookup requests served.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qprops_request_failures_total",
		Help: "Requests rejected with a client or server error.",
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(ingested, queries, failures)

	return &serverMetrics{
		registry: registry,
		ingested: ingested,
		queries:  queries,
		failures: failures,
	}
}

// NewServer creates a new API server.
func NewServer(addr string, store storage.Store) *Server {
	return &Server{
		store:   store,
		addr:    addr,
		metrics: newServerMetrics(),
	}
}

// Handler returns the server's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/snapshots", s.handleIngest)
	mux.HandleFunc("/api/v1/snapshots/latest", s.handleLatest)
	mux.HandleFunc("/api/v1/snapshots/versions", s.handleVersions)
	mux.HandleFunc("/api/v1/qubits/property", s.handleQubitProperty)
	mux.HandleFunc("/api/v1/gates/property", s.handleGateProperty)
	mux.HandleFunc("/api/v1/faulty", s.handleFaulty)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	return mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleIngest accepts a plain-form snapshot document, validates it by
// constructing the snapshot (which resolves every unit), and stores it.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.fail(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var plain map[string]any
	if err := json.NewDecoder(r.Body).Decode(&plain); err != nil {
		s.fail(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	props, err := calibration.FromPlain(plain)
	if err != nil {
		s.fail(w, fmt.Sprintf("Invalid snapshot: %v", err), http.StatusBadRequest)
		return
	}

	id, err := s.store.Put(r.Context(), props)
	if err != nil {
		s.fail(w, fmt.Sprintf("Write failed: %v", err), http.StatusInternalServerError)
		return
	}

	s.metrics.ingested.Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "success",
		"id":     id,
	})
}

// handleLatest returns the most recent snapshot for a backend in plain form.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	props, ok := s.latestSnapshot(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(props.ToPlain())
}

// handleVersions lists the stored update times for a backend.
func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	backend := r.URL.Query().Get("backend")
	if backend == "" {
		s.fail(w, "Missing backend parameter", http.StatusBadRequest)
		return
	}

	versions, err := s.store.Versions(r.Context(), backend)
	if err != nil {
		s.storeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"backend":  backend,
		"versions": versions,
	})
}

// handleQubitProperty serves qubit property lookups. With a name parameter
// it returns the single resolved value; without, every property recorded
// for the qubit.
func (s *Server) handleQubitProperty(w http.ResponseWriter, r *http.Request) {
	props, ok := s.latestSnapshot(w, r)
	if !ok {
		return
	}

	qubit, err := strconv.Atoi(r.URL.Query().Get("qubit"))
	if err != nil {
		s.fail(w, "Invalid qubit parameter", http.StatusBadRequest)
		return
	}

	s.metrics.queries.Inc()
	name := r.URL.Query().Get("name")
	if name != "" {
		prop, err := props.QubitProperty(qubit, name)
		if err != nil {
			s.lookupError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(prop)
		return
	}

	all, err := props.QubitPropertyMap(qubit)
	if err != nil {
		s.lookupError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(all)
}

// handleGateProperty serves gate property lookups for one gate and qubit
// tuple, optionally narrowed to a single named property.
func (s *Server) handleGateProperty(w http.ResponseWriter, r *http.Request) {
	props, ok := s.latestSnapshot(w, r)
	if !ok {
		return
	}

	gate := r.URL.Query().Get("gate")
	if gate == "" {
		s.fail(w, "Missing gate parameter", http.StatusBadRequest)
		return
	}
	qubits, err := parseQubits(r.URL.Query().Get("qubits"))
	if err != nil {
		s.fail(w, "Invalid qubits parameter", http.StatusBadRequest)
		return
	}

	s.metrics.queries.Inc()
	name := r.URL.Query().Get("name")
	if name != "" {
		prop, err := props.GateProperty(gate, qubits, name)
		if err != nil {
			s.lookupError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(prop)
		return
	}

	all, err := props.GatePropertyMap(gate, qubits)
	if err != nil {
		s.lookupError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(all)
}

// handleFaulty reports the non-operational qubits and gates of the latest
// snapshot.
func (s *Server) handleFaulty(w http.ResponseWriter, r *http.Request) {
	props, ok := s.latestSnapshot(w, r)
	if !ok {
		return
	}

	faultyGates := props.FaultyGates()
	gates := make([]map[string]any, len(faultyGates))
	for i, gate := range faultyGates {
		gates[i] = gate.ToPlain()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"qubits": props.FaultyQubits(),
		"gates":  gates,
	})
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}

// latestSnapshot resolves the backend query parameter to its most recent
// snapshot, writing the error response itself on failure.
func (s *Server) latestSnapshot(w http.ResponseWriter, r *http.Request) (*calibration.BackendProperties, bool) {
	backend := r.URL.Query().Get("backend")
	if backend == "" {
		s.fail(w, "Missing backend parameter", http.StatusBadRequest)
		return nil, false
	}

	props, err := s.store.Latest(r.Context(), backend)
	if err != nil {
		s.storeError(w, err)
		return nil, false
	}
	return props, true
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		s.fail(w, err.Error(), http.StatusNotFound)
		return
	}
	s.fail(w, fmt.Sprintf("Store failed: %v", err), http.StatusInternalServerError)
}

func (s *Server) lookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, calibration.ErrPropertyNotFound) {
		s.fail(w, err.Error(), http.StatusNotFound)
		return
	}
	s.fail(w, err.Error(), http.StatusBadRequest)
}

func (s *Server) fail(w http.ResponseWriter, msg string, code int) {
	s.metrics.failures.Inc()
	http.Error(w, msg, code)
}

// parseQubits parses a comma-separated qubit tuple, e.g. "0,1".
func parseQubits(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	qubits := make([]int, len(parts))
	for i, part := range parts {
		q, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		qubits[i] = q
	}
	return qubits, nil
}
