/*
Package log provides structured logging for Muster built on zerolog.

The log package wraps rs/zerolog behind a small surface: a global Logger,
one-time initialization from configuration, and helpers that attach the
fields every Muster component shares. All packages log through child loggers
created here so that output is uniformly structured and filterable.

# Architecture

	┌──────────────────── LOGGING PIPELINE ─────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐           │
	│  │              Global Logger                  │           │
	│  │  - Initialized once from config             │           │
	│  │  - JSON output for machines                 │           │
	│  │  - Console output for operators             │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │            Child Loggers                    │           │
	│  │                                             │           │
	│  │  WithComponent("membership")                │           │
	│  │  WithRunID("20260825-143000")               │           │
	│  │  WithWorker("10.0.0.7")                     │           │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────────┘

# Field Conventions

component:
  - Which subsystem emitted the line (membership, telemetry, orchestrator...)

run_id:
  - The timestamp token correlating one job run across all nodes

worker:
  - The worker address a remote operation targeted

Worker-scoped telemetry failures are logged at warn level with both run_id
and worker set; they never abort a run, so warn (not error) is the correct
severity for them.

# Usage

Initialization (once, in main):

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: false,
	})

Component loggers:

	logger := log.WithComponent("exports")
	logger.Info().Str("worker", addr.String()).Msg("export rule added")

Run-scoped logging:

	logger := log.WithRunID(token)
	logger.Warn().
		Str("worker", addr.String()).
		Err(err).
		Msg("telemetry start failed on worker")

# See Also

  - pkg/config for the knobs that feed Init
*/
package log
