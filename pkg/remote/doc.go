// Package remote executes commands on worker nodes over SSH.
//
// The coordinator needs workers for exactly three things: a reachability
// probe when a worker registers, and starting and stopping telemetry
// collectors during a run. All three are one-shot shell commands, so the
// channel opens a fresh connection per command instead of pooling; there is
// no per-worker state to tear down when membership changes.
//
// # Errors
//
// Callers need to tell "the worker is gone" apart from "the command failed":
//
//   - UnreachableError: dial, auth or handshake failed, or the deadline
//     passed. The command never ran, or its outcome is unknown.
//   - RemoteError: the command ran to completion and exited non-zero. The
//     remote exit code and combined output are attached.
//
// Both are matched with errors.As. Membership registration treats any error
// as a veto; the run orchestrator records either kind against the worker and
// keeps going.
//
// # Timeouts
//
// Every Execute call is bounded by the channel timeout (default 30s)
// layered onto the caller's context. A worker that wedges mid-command
// cannot stall a cluster-wide fan-out indefinitely; the channel closes the
// connection and reports the worker unreachable.
//
// # Usage
//
//	ch, err := remote.NewSSHChannel(remote.Config{
//	    User:    "root",
//	    KeyFile: "/root/.ssh/id_rsa",
//	})
//	if err != nil {
//	    return err
//	}
//	out, err := ch.Execute(ctx, addr, "muster metrics start /srv/muster/data/slave-10.0.0.5-20260825-120000")
//
// # See Also
//
//   - pkg/membership: uses the channel as its reachability probe.
//   - pkg/orchestrator: fans collector start/stop commands out to workers.
package remote
