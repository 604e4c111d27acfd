package metrics

import (
	"context"
	"log"
	"net/http"
	"time"

	"tradewise/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for batch jobs.
type Metrics struct {
	RunsTotal      *prometheus.CounterVec   // labels: job, status
	SymbolsTotal   *prometheus.CounterVec   // labels: job, result
	SignalsCreated *prometheus.CounterVec   // labels: job
	LTHOutcomes    *prometheus.CounterVec   // labels: outcome
	RunDuration    *prometheus.HistogramVec // labels: job
	LastSuccess    *prometheus.GaugeVec     // labels: job
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradewise_batch_runs_total",
			Help: "Batch runs by job and final status",
		}, []string{"job", "status"}),
		SymbolsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradewise_symbols_total",
			Help: "Symbols handled by batch jobs, split into ok and error",
		}, []string{"job", "result"}),
		SignalsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradewise_signals_created_total",
			Help: "Signals written to the store",
		}, []string{"job"}),
		LTHOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradewise_lth_updates_total",
			Help: "LTH updates by outcome",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradewise_batch_run_duration_seconds",
			Help:    "Wall time of batch runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"job"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tradewise_batch_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}, []string{"job"}),
	}
	reg.MustRegister(m.RunsTotal, m.SymbolsTotal, m.SignalsCreated, m.LTHOutcomes, m.RunDuration, m.LastSuccess)
	return m
}

// ObserveRun records one finished run. err is the run-level failure, if any.
func (m *Metrics) ObserveRun(run model.RunRecord, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.RunsTotal.WithLabelValues(run.Job, status).Inc()
	m.RunDuration.WithLabelValues(run.Job).Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())

	st := run.Stats
	// Errors also counts unreadable universe lists, which process no symbol.
	ok := st.Processed - st.Errors
	if ok < 0 {
		ok = 0
	}
	m.SymbolsTotal.WithLabelValues(run.Job, "ok").Add(float64(ok))
	m.SymbolsTotal.WithLabelValues(run.Job, "error").Add(float64(st.Errors))

	if run.Job == model.JobLTH {
		m.LTHOutcomes.WithLabelValues(model.OutcomeCreated.String()).Add(float64(st.Created))
		m.LTHOutcomes.WithLabelValues(model.OutcomeUpdated.String()).Add(float64(st.Updated))
		m.LTHOutcomes.WithLabelValues(model.OutcomeUnchanged.String()).Add(float64(st.Unchanged))
	} else {
		m.SignalsCreated.WithLabelValues(run.Job).Add(float64(st.Created))
	}
	if err == nil {
		m.LastSuccess.WithLabelValues(run.Job).Set(float64(run.FinishedAt.Unix()))
	}
}

// Server exposes /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics server over gatherer.
func NewServer(addr string, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler returns the server's mux.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[INFO] metrics server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[ERROR] metrics server: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
