package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Run metrics
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "muster_runs_total",
			Help: "Total number of orchestrated runs by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	RunState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "muster_run_state",
			Help: "Current orchestrator state (1 = active state, 0 otherwise)",
		},
		[]string{"state"},
	)

	// Telemetry metrics
	TelemetryStartFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "muster_telemetry_start_failures_total",
			Help: "Collector start failures by scope (local or worker)",
		},
		[]string{"scope"},
	)

	TelemetryStopFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "muster_telemetry_stop_failures_total",
			Help: "Collector stop failures by scope (local or worker)",
		},
		[]string{"scope"},
	)

	CollectorsRunning = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "muster_collectors_running",
			Help: "Collectors currently tracked by a handle, by role",
		},
		[]string{"role"},
	)

	// Remote command metrics
	RemoteCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "muster_remote_commands_total",
			Help: "Remote commands issued to workers by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	RemoteCommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "muster_remote_command_duration_seconds",
			Help:    "Remote command duration in seconds by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// Membership metrics
	WorkersRegistered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "muster_workers_registered",
			Help: "Workers currently listed in the membership file",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(RunState)
	prometheus.MustRegister(TelemetryStartFailures)
	prometheus.MustRegister(TelemetryStopFailures)
	prometheus.MustRegister(CollectorsRunning)
	prometheus.MustRegister(RemoteCommands)
	prometheus.MustRegister(RemoteCommandDuration)
	prometheus.MustRegister(WorkersRegistered)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
