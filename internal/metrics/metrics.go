package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the Prometheus collectors for analysis runs.
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal    *prometheus.CounterVec // labels: result=ok|error
	FetchErrorsTotal *prometheus.CounterVec // labels: source
	AnalysisDuration prometheus.Histogram
	LastRSI          *prometheus.GaugeVec // labels: symbol
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trendlens_analyses_total",
			Help: "Completed symbol analyses by result",
		}, []string{"result"}),
		FetchErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trendlens_fetch_errors_total",
			Help: "Price history fetch failures by data source",
		}, []string{"source"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trendlens_analysis_duration_seconds",
			Help:    "Fetch plus indicator computation latency per symbol",
			Buckets: prometheus.DefBuckets,
		}),
		LastRSI: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trendlens_last_rsi",
			Help: "Most recent defined RSI per symbol",
		}, []string{"symbol"}),
	}
	m.registry.MustRegister(
		m.AnalysesTotal,
		m.FetchErrorsTotal,
		m.AnalysisDuration,
		m.LastRSI,
	)
	return m
}

// ObserveAnalysis records one finished analysis. rsi is skipped when undefined.
func (m *Metrics) ObserveAnalysis(symbol string, d time.Duration, rsi float64, rsiOK bool, err error) {
	if m == nil {
		return
	}
	m.AnalysisDuration.Observe(d.Seconds())
	if err != nil {
		m.AnalysesTotal.WithLabelValues("error").Inc()
		return
	}
	m.AnalysesTotal.WithLabelValues("ok").Inc()
	if rsiOK {
		m.LastRSI.WithLabelValues(symbol).Set(rsi)
	}
}

// FetchFailed counts a data source failure.
func (m *Metrics) FetchFailed(source string) {
	if m == nil {
		return
	}
	m.FetchErrorsTotal.WithLabelValues(source).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
	log  *zap.Logger
}

// NewServer creates a metrics server for m.
func NewServer(addr string, m *Metrics, logger *zap.Logger) *Server {
	started := time.Now()
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok uptime=" + time.Since(started).Round(time.Second).String()))
	})

	return &Server{
		addr: addr,
		log:  logger,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("metrics server listening", zap.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
