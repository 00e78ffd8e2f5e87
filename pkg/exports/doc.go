// Package exports keeps the NFS export table in step with cluster
// membership.
//
// Workers read shared training data and write collector output over NFS, so
// every registered worker needs exactly one access rule for the shared path
// and deregistered workers must lose theirs. The package owns only the rules
// it writes; everything else in the table (comments, hand-maintained
// entries, multi-client lines from other tooling) passes through untouched.
//
// # Architecture
//
//	┌──────────────┐   desired state    ┌──────────────┐
//	│  membership  │ ─────────────────▶ │ Synchronizer │
//	│   registry   │  Sync(addr, ...)   └──────┬───────┘
//	└──────────────┘                           │ load / save lines
//	                                           ▼
//	                                    ┌──────────────┐
//	                                    │    Store     │  /etc/exports
//	                                    └──────┬───────┘
//	                                           │ only after a mutation
//	                                           ▼
//	                                    ┌──────────────┐
//	                                    │   Reloader   │  exportfs -ra
//	                                    └──────────────┘
//
// # Idempotence
//
// Sync converges rather than appends. It scans the current table for the
// worker's rule, and only when the table differs from the desired state does
// it rewrite the file and reload the NFS server. Calling Sync twice with the
// same arguments performs no second write and no second reload, which keeps
// repeated slave-add commands from growing the table and keeps exportfs
// churn off the hot path.
//
// # Table format
//
// Rules are written one per line as
//
//	<path>\t<address>(<options>)
//
// with a single client per line. Lines in any other shape are treated as
// foreign and preserved byte for byte. Saves go through a temp file and
// rename so a crash cannot leave a truncated table behind.
//
// # Usage
//
//	store := exports.NewFileStore("/etc/exports")
//	reloader := exports.ExecReloader{Runner: proc.ExecRunner{}}
//	sync := exports.NewSynchronizer("/srv/muster/data", "rw,sync,no_subtree_check", store, reloader)
//
//	if err := sync.Sync(ctx, addr, exports.Present); err != nil {
//	    return err
//	}
//
// # See Also
//
//   - pkg/membership: drives Sync when workers join and leave.
//   - pkg/proc: supplies the Runner used to invoke exportfs.
package exports
