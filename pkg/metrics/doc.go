/*
Package metrics provides Prometheus metrics and health endpoints for muster.

The metrics package defines and registers all muster metrics using the
Prometheus client library, covering run orchestration, telemetry collector
lifecycle, remote command fan-out, and membership. Metrics are exposed via
HTTP endpoint for scraping by Prometheus servers. The package also carries
the component health checker backing /healthz, /readyz, and /livez.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                           │
	│  ┌────────────────────────────────────────────┐           │
	│  │          Prometheus Registry               │           │
	│  │  - Global DefaultRegistry                  │           │
	│  │  - MustRegister at package init            │           │
	│  │  - Automatic Go runtime metrics            │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │           Metric Categories                │           │
	│  │                                            │           │
	│  │  Runs: Count, state machine position       │           │
	│  │  Telemetry: Start/stop failures, running   │           │
	│  │  Remote: Command count, duration           │           │
	│  │  Membership: Registered worker count       │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │          Gauge Refresher                   │           │
	│  │  - Polls handle store and membership file  │           │
	│  │  - Collectors and workers live on disk,    │           │
	│  │    so their gauges have to be re-sampled   │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │          HTTP Metrics Endpoint             │           │
	│  │  - Path: /metrics                          │           │
	│  │  - Format: Prometheus text exposition      │           │
	│  │  - Handler: promhttp.Handler()             │           │
	│  └────────────────────────────────────────────┘           │
	└───────────────────────────────────────────────────────────┘

# Metrics Catalog

Run Metrics:

muster_runs_total{mode, outcome}:
  - Type: Counter
  - Description: Orchestrated runs by mode (local/cluster) and outcome (succeeded/failed)
  - Example: muster_runs_total{mode="cluster",outcome="succeeded"} 12

muster_run_state{state}:
  - Type: Gauge
  - Description: Orchestrator state machine position (1 = active state, 0 otherwise)
  - Labels: state (idle, telemetry_starting, running, cooling_down, telemetry_stopping, failed)

Telemetry Metrics:

muster_telemetry_start_failures_total{scope}:
  - Type: Counter
  - Description: Collector start failures by scope (local or worker)

muster_telemetry_stop_failures_total{scope}:
  - Type: Counter
  - Description: Collector stop failures by scope (local or worker)

muster_collectors_running{role}:
  - Type: Gauge
  - Description: Collectors currently tracked by a handle, by role
  - Example: muster_collectors_running{role="cpu-sampler"} 1

Remote Command Metrics:

muster_remote_commands_total{op, outcome}:
  - Type: Counter
  - Description: Remote commands issued to workers by operation and outcome
  - Example: muster_remote_commands_total{op="telemetry_start",outcome="success"} 4

muster_remote_command_duration_seconds{op}:
  - Type: Histogram
  - Description: Remote command duration in seconds by operation
  - Buckets: Default Prometheus buckets

Membership Metrics:

muster_workers_registered:
  - Type: Gauge
  - Description: Workers currently listed in the membership file
  - Example: muster_workers_registered 4

# Health Endpoints

The package tracks per-component health via a global checker:

  - RegisterComponent/UpdateComponent record a component's state
  - GetHealth aggregates all components (any unhealthy -> unhealthy)
  - GetReadiness checks the critical components (journal, membership)
  - HealthHandler, ReadyHandler, LivenessHandler serve /healthz, /readyz, /livez

Readiness and health both return 503 when not satisfied, so load balancers
and probes can act on status codes without parsing the JSON body.

# Usage

Updating metrics:

	import "github.com/musterhq/muster/pkg/metrics"

	// Count a finished run
	metrics.RunsTotal.WithLabelValues("cluster", "succeeded").Inc()

	// Record a remote command
	metrics.RemoteCommands.WithLabelValues("telemetry_start", "success").Inc()
	metrics.RemoteCommandDuration.WithLabelValues("telemetry_start").Observe(0.85)

Refreshing polled gauges:

	refresher := metrics.NewRefresher(procManager, registry, 15*time.Second)
	refresher.Start()
	defer refresher.Stop()

Exposing endpoints:

	http.Handle("/metrics", metrics.Handler())
	http.HandleFunc("/healthz", metrics.HealthHandler())
	http.HandleFunc("/readyz", metrics.ReadyHandler())

# Integration Points

This package integrates with:

  - pkg/orchestrator: Counts runs, mirrors the state machine, records fan-out
  - pkg/proc: Supplies collector handles for the running gauge
  - pkg/membership: Supplies the registered worker count
  - pkg/api: Mounts /metrics, /healthz, /readyz, /livez
  - Prometheus: Scrapes the /metrics endpoint

# Design Patterns

Package Init Registration:
  - All metrics registered in init() function
  - MustRegister panics on duplicate registration
  - Ensures metrics available before main()

Counter vs Gauge Split:
  - Events visible at a call site (runs, remote commands) bump counters inline
  - State that lives on disk (handles, membership) is polled by the Refresher,
    so gauges stay correct even when another process mutates the files

Label Discipline:
  - Use WithLabelValues for cardinality-bounded labels
  - Worker addresses and run tokens stay out of labels (unbounded); they
    belong in logs and the run journal

# Monitoring

Prometheus Queries (PromQL):

Run Health:
  - Failure rate: rate(muster_runs_total{outcome="failed"}[15m])
  - Active state: muster_run_state == 1
  - Stuck run: muster_run_state{state="running"} == 1 for > expected duration

Telemetry Health:
  - Missing collector: muster_collectors_running < 1 during a run
  - Worker fan-out failures: rate(muster_telemetry_start_failures_total{scope="worker"}[15m])

Remote Command Performance:
  - p95 latency: histogram_quantile(0.95, muster_remote_command_duration_seconds_bucket)
  - Unreachable workers: rate(muster_remote_commands_total{outcome="unreachable"}[15m])

# See Also

  - Prometheus client library: https://github.com/prometheus/client_golang
  - Histogram best practices: https://prometheus.io/docs/practices/histograms/
  - pkg/api: HTTP server mounting these endpoints
  - pkg/orchestrator: Primary metric producer
*/
package metrics
