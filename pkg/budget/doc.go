/*
Package budget computes safe memory allocations from total host RAM.

Two profiles exist because the same host is budgeted differently depending
on how a job runs. Both are pure functions: same inputs, same outputs, no
side effects. The derived numbers are written into the engine configuration
at the call site and never persisted independently.

# Cluster Profile

Used by `muster engine config-memory` for the permanent daemon/executor/
driver split:

	executor = driver = (total - osReserve - 2*daemonReserve) / 2

	┌──────────────────── 32768 MB host ────────────────────┐
	│ OS + cache 8192 │ daemons 2×1024 │ executor 11264      │
	│                 │                │ driver   11264      │
	└────────────────────────────────────────────────────────┘

A non-positive remainder is an InsufficientMemoryError: the host simply
cannot run the engine with those reserves, and the caller aborts before
launching anything.

# Local Profile

Used by single-node runs, where one JVM hosts everything and only two
ceilings matter:

	driver    = total * driverFraction   (default 0.7)
	maxResult = driver * resultFraction  (default 0.5)

# Host Memory

HostMemoryMB reads MemTotal from /proc/meminfo, the same way the worker
heartbeat samplers read host state. The parser is separated from the file
read so it can be tested against captured meminfo content.
*/
package budget
