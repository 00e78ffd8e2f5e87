// Package journal persists one record per orchestrated run in a BoltDB
// file.
//
// The run token in each record is the join key for everything a run leaves
// on disk: master-<token>/ and slave-<addr>-<token>/ telemetry directories
// and the job-<token>.log engine output. The journal makes that join
// practical after the fact; `muster run list` and the status server read it.
//
// A record is written with status `running` the moment the run starts and
// upserted with the final status, exit code and per-worker telemetry
// outcomes when it ends. A record stuck in `running` therefore means the
// orchestrator died mid-run, which is itself worth knowing.
//
// # Layout
//
//	runs.db
//	└── bucket "runs"
//	    └── <uuid> → JSON types.RunRecord
//
// Records are keyed by the run's UUID, not its token: tokens have second
// resolution and the journal must not lose a record to a token collision it
// otherwise tolerates.
//
// # Usage
//
//	j, err := journal.Open(cfg.JournalPath)
//	if err != nil {
//	    return err
//	}
//	defer j.Close()
//
//	records, err := j.List() // newest first
//
// # See Also
//
//   - pkg/orchestrator: writes the records.
//   - pkg/api: serves them at /v1/runs.
package journal
