package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/musterhq/muster/pkg/journal"
	"github.com/musterhq/muster/pkg/log"
	"github.com/musterhq/muster/pkg/metrics"
	"github.com/musterhq/muster/pkg/proc"
	"github.com/musterhq/muster/pkg/types"
)

// MemberSource lists the registered workers.
type MemberSource interface {
	List() ([]types.WorkerAddress, error)
}

// RunSource reads recorded runs from the journal.
type RunSource interface {
	List() ([]*types.RunRecord, error)
	Get(id string) (*types.RunRecord, error)
}

// CollectorSource lists the collector handles tracked on this node.
type CollectorSource interface {
	Running() ([]proc.Handle, error)
}

// Server is the read-only HTTP status server. It reports membership, run
// history and collector state, and mounts the Prometheus and health
// endpoints. Every route is a GET; mutation stays on the CLI.
type Server struct {
	members    MemberSource
	runs       RunSource
	collectors CollectorSource
	router     *mux.Router
	log        zerolog.Logger
}

// NewServer wires the read sources into a routed server.
func NewServer(members MemberSource, runs RunSource, collectors CollectorSource) *Server {
	s := &Server{
		members:    members,
		runs:       runs,
		collectors: collectors,
		log:        log.WithComponent("api"),
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", metrics.HealthHandler()).Methods("GET").Name("healthz_get")
	router.HandleFunc("/readyz", metrics.ReadyHandler()).Methods("GET").Name("readyz_get")
	router.HandleFunc("/livez", metrics.LivenessHandler()).Methods("GET").Name("livez_get")
	router.Handle("/metrics", metrics.Handler()).Methods("GET").Name("metrics_get")
	router.HandleFunc("/v1/slaves", s.listSlaves).Methods("GET").Name("slaves_get")
	router.HandleFunc("/v1/runs", s.listRuns).Methods("GET").Name("runs_get")
	router.HandleFunc("/v1/runs/{id}", s.getRun).Methods("GET").Name("run_get")
	router.HandleFunc("/v1/collectors", s.listCollectors).Methods("GET").Name("collectors_get")
	router.Use(s.logRequest)
	router.NotFoundHandler = s.logRequest(http.HandlerFunc(notFound))

	s.router = router
	return s
}

// Handler exposes the router for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	chStopped := make(chan struct{})
	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down status server")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			s.log.Warn().Err(err).Msg("failed to stop status server")
		}
		close(chStopped)
	}()

	s.log.Info().Str("address", addr).Msg("status server listening")

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	// Wait for graceful shutdown of existing connections
	select {
	case <-chStopped:
	case <-time.After(6 * time.Second):
		s.log.Info().Msg("timeout waiting for status server to stop")
	}
	return nil
}

// SlaveList is the /v1/slaves response body.
type SlaveList struct {
	Slaves []types.WorkerAddress `json:"slaves"`
	Count  int                   `json:"count"`
}

// RunList is the /v1/runs response body, newest first.
type RunList struct {
	Runs  []*types.RunRecord `json:"runs"`
	Count int                `json:"count"`
}

// CollectorList is the /v1/collectors response body.
type CollectorList struct {
	Collectors []proc.Handle `json:"collectors"`
	Count      int           `json:"count"`
}

func (s *Server) listSlaves(w http.ResponseWriter, r *http.Request) {
	slaves, err := s.members.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if slaves == nil {
		slaves = []types.WorkerAddress{}
	}
	writeJSON(w, http.StatusOK, SlaveList{Slaves: slaves, Count: len(slaves)})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runs.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []*types.RunRecord{}
	}
	writeJSON(w, http.StatusOK, RunList{Runs: runs, Count: len(runs)})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := s.runs.Get(id)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) listCollectors(w http.ResponseWriter, r *http.Request) {
	handles, err := s.collectors.Running()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if handles == nil {
		handles = []proc.Handle{}
	}
	writeJSON(w, http.StatusOK, CollectorList{Collectors: handles, Count: len(handles)})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, errors.New("not found"))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) logRequest(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		handler.ServeHTTP(w, req)

		routeName := req.URL.Path
		if route := mux.CurrentRoute(req); route != nil && route.GetName() != "" {
			routeName = route.GetName()
		}

		s.log.Debug().
			Str("route", routeName).
			Str("path", req.URL.Path).
			Str("method", req.Method).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
