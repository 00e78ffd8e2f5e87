/*
Package types defines the shared domain types for Muster's cluster state.

The types package is the dependency-free core shared by every other package:
worker addresses, collector roles, run modes and the run record persisted to
the journal. Keeping them here avoids import cycles between the registry,
telemetry, orchestrator and journal packages.

# Core Types

WorkerAddress:
  - Validated hostname or IPv4 literal identifying one worker node
  - The same token is written to the membership file, the export table
    and telemetry directory names, so validation rejects characters
    that are unsafe in any of those contexts

CollectorRole:
  - Tags one background collector process ("cpu-sampler", "disk-sampler")
  - At most one live process exists per role per node; the proc package
    enforces that invariant

RunMode / RunStatus:
  - local: job on the coordinator only, budget derived from host RAM
  - cluster: job against the engine endpoint, telemetry on all workers

RunRecord:
  - Journal entry for one orchestrated run
  - Token correlates the coordinator's and every worker's telemetry
    output directories for the run

# Directory Naming

For run token T and data root R:

	coordinator:  R/master-T
	worker W:     R/slave-W-T

Output from all nodes can therefore share one network volume and still be
joined post-hoc by token equality.
*/
package types
