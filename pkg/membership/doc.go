// Package membership tracks which workers belong to the cluster.
//
// The membership file (one address per line, conventionally
// /etc/muster/slaves) is the single source of truth. Everything else that
// depends on membership derives from it at the moment of use: the run
// orchestrator snapshots it when a run starts, the export synchronizer is
// converged against it on every mutation, and the status server reads it on
// request. There is no cached copy to go stale.
//
// # Registration ordering
//
// Add runs its steps in a fixed order and mutates the registry last:
//
//	validate address → establish trust → converge export rule → append
//
// Remove mirrors it:
//
//	membership check → revoke export rule → delete
//
// The invariant either way: an address present in the membership file always
// has trust established and an export rule in place. A crash between steps
// leaves at worst an orphaned rule or probe, never a half-registered member,
// and retrying the same command completes the job. Re-adding an existing
// member is accepted and still re-runs the probe and the rule sync, which
// makes `muster slave add` the repair tool for drift.
//
// Remove of an unknown address fails with ErrNotMember before any side
// effect runs.
//
// # Trust
//
// Trust is deliberately thin: ChannelTrust runs the shell no-op `true` over
// the SSH channel and reports the error. Distributing keys to workers is an
// operator task; Muster only refuses to register a worker it cannot reach
// with the credentials it has, because every run would fail against that
// worker anyway.
//
// # Usage
//
//	reg := membership.NewRegistry(
//	    membership.NewFileStore(cfg.MembershipFile),
//	    membership.ChannelTrust{Channel: sshChannel},
//	    exportSync,
//	    broker,
//	)
//
//	addr, err := reg.Add(ctx, "10.0.0.5")
//	if err != nil {
//	    return err
//	}
//
// # See Also
//
//   - pkg/exports: the rule synchronizer Add and Remove drive.
//   - pkg/remote: the channel behind ChannelTrust.
//   - pkg/orchestrator: snapshots List() once per run.
package membership
