/*
Package api provides the read-only HTTP status server for muster.

The status server answers operator questions (what workers are registered,
what runs happened, what collectors are live on this node) and exposes the
Prometheus and health endpoints. It never mutates state: membership changes,
run submission and collector control all go through the CLI, which talks to
the filesystem and the remote channel directly.

# Architecture

	┌────────────────────── STATUS SERVER ─────────────────────┐
	│                                                           │
	│  ┌────────────────────────────────────────────┐           │
	│  │            gorilla/mux Router              │           │
	│  │  - GET-only routes, named for logging      │           │
	│  │  - Request logging middleware (zerolog)    │           │
	│  │  - JSON 404 for unknown paths              │           │
	│  └─────────┬──────────────┬───────────────────┘           │
	│            │              │                               │
	│  ┌─────────▼─────────┐  ┌─▼──────────────────────┐        │
	│  │  Domain Routes    │  │  Ambient Routes        │        │
	│  │  /v1/slaves       │  │  /healthz  /readyz     │        │
	│  │  /v1/runs         │  │  /livez    /metrics    │        │
	│  │  /v1/runs/{id}    │  │  (pkg/metrics)         │        │
	│  │  /v1/collectors   │  └────────────────────────┘        │
	│  └─────────┬─────────┘                                    │
	│            │                                              │
	│  ┌─────────▼──────────────────────────────────┐           │
	│  │            Read Sources                    │           │
	│  │  MemberSource    -> membership registry    │           │
	│  │  RunSource       -> run journal            │           │
	│  │  CollectorSource -> proc handle store      │           │
	│  └────────────────────────────────────────────┘           │
	└───────────────────────────────────────────────────────────┘

# Endpoints

	GET /v1/slaves         Registered worker addresses
	GET /v1/runs           Recorded runs, newest first
	GET /v1/runs/{id}      One run record by journal ID (404 if unknown)
	GET /v1/collectors     Collector handles tracked on this node
	GET /healthz           Aggregate component health (503 when unhealthy)
	GET /readyz            Critical component readiness (503 when not ready)
	GET /livez             Process liveness
	GET /metrics           Prometheus text exposition

All domain responses are JSON. List bodies carry a count and serialize empty
collections as [] rather than null. Errors come back as {"error": "..."} with
a matching status code. Non-GET methods are rejected with 405.

# Usage

	server := api.NewServer(registry, journal, procManager)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := server.Run(ctx, ":8380"); err != nil {
		return err
	}

Run blocks until the context is cancelled, then drains in-flight requests
before returning.

# Integration Points

This package integrates with:

  - pkg/membership: Registry satisfies MemberSource
  - pkg/journal: Journal satisfies RunSource
  - pkg/proc: Manager satisfies CollectorSource
  - pkg/metrics: Health and Prometheus handlers are mounted here
  - cmd/muster: `muster serve` wires and runs the server

# See Also

  - pkg/metrics: Metric definitions and the gauge refresher
  - pkg/client: HTTP client for these endpoints
  - pkg/journal: Run record persistence
*/
package api
