/*
Package events provides an in-memory event broker for Muster's pub/sub messaging.

The events package implements a lightweight event bus for broadcasting run
and membership events to interested subscribers. It supports asynchronous
event delivery with non-blocking publish, enabling loose coupling between
the orchestrator, the CLI progress printer, and tests that assert on
lifecycle ordering.

# Architecture

Muster's event system provides non-blocking pub/sub messaging with buffered
channels:

	┌──────────────────── EVENT BROKER ────────────────────────┐
	│                                                           │
	│  ┌────────────────────────────────────────────┐           │
	│  │              Event Broker                  │           │
	│  │  - In-memory message bus                   │           │
	│  │  - Topic-agnostic (all events broadcast)   │           │
	│  │  - Non-blocking publish                    │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │          Event Distribution                │           │
	│  │                                            │           │
	│  │  Publisher → Event Channel (buffer: 100)   │           │
	│  │       ↓                                    │           │
	│  │  Broadcast Loop                            │           │
	│  │       ↓                                    │           │
	│  │  Subscriber Channels (buffer: 50 each)     │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │           Event Types                      │           │
	│  │                                            │           │
	│  │  Run Events:                               │           │
	│  │    - run.started                           │           │
	│  │    - run.telemetry_started                 │           │
	│  │    - run.worker_telemetry_started          │           │
	│  │    - run.worker_telemetry_failed           │           │
	│  │    - run.job_exited                        │           │
	│  │    - run.cooldown                          │           │
	│  │    - run.telemetry_stopped                 │           │
	│  │    - run.worker_telemetry_stopped          │           │
	│  │    - run.finished                          │           │
	│  │                                            │           │
	│  │  Membership Events:                        │           │
	│  │    - slave.added                           │           │
	│  │    - slave.removed                         │           │
	│  │                                            │           │
	│  │  Engine Events:                            │           │
	│  │    - cluster.started                       │           │
	│  │    - cluster.stopped                       │           │
	│  └────────────────────────────────────────────┘           │
	│                                                           │
	│  ┌────────────────────────────────────────────┐           │
	│  │            Subscribers                     │           │
	│  │                                            │           │
	│  │  run command: print progress lines         │           │
	│  │  tests: assert lifecycle ordering          │           │
	│  └────────────────────────────────────────────┘           │
	└───────────────────────────────────────────────────────────┘

# Core Components

Event Broker:
  - Central message bus for event distribution
  - Manages subscriber lifecycle
  - Non-blocking publish (buffered channel)
  - Graceful shutdown via stop channel

Event:
  - Type: Event type (run.started, slave.added, etc.)
  - Timestamp: When the event occurred
  - RunID: Journal record ID, set on run-scoped events
  - Worker: Worker address, set on worker-scoped events
  - Message: Human-readable description

Subscriber:
  - Channel that receives Event pointers
  - Buffered (50 events) to handle bursts
  - Created via broker.Subscribe()
  - Closed via broker.Unsubscribe()

# Event Flow

Publish Flow:
 1. Publisher calls broker.Publish(event)
 2. Event added to main event channel (non-blocking)
 3. Broadcast loop receives event
 4. Event sent to all subscriber channels
 5. Subscribers receive event asynchronously
 6. Full subscriber buffers skip (no blocking)

A run emits its events in a fixed order: run.started, then telemetry
events, run.job_exited, run.cooldown, telemetry stop events, and finally
run.finished. Worker-scoped events carry the worker address; a failed
worker produces run.worker_telemetry_failed instead of the started/stopped
variant but never changes the order of the coordinator-scoped events.

# Usage

Creating and Starting Broker:

	import "github.com/musterhq/muster/pkg/events"

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

Subscribing to Events:

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			fmt.Printf("[%s] %s %s\n",
				event.Timestamp.Format("15:04:05"),
				event.Type,
				event.Message)
		}
	}()

Publishing Events:

	broker.Publish(&events.Event{
		Type:    events.EventWorkerTelemetryFailed,
		RunID:   record.ID,
		Worker:  addr,
		Message: "collector start failed: worker unreachable",
	})

# Design Patterns

Non-Blocking Publish:
  - Publish sends to buffered channel
  - Returns immediately (no waiting)
  - Events may be dropped if a subscriber buffer is full
  - Trade-off: a slow progress printer can never stall a run

Fire-and-Forget:
  - No acknowledgment from subscribers
  - No retry on delivery failure
  - Suitable for progress reporting, not critical operations; the journal,
    not the event stream, is the durable record of a run

# Limitations

Current Limitations:
  - In-memory only (no persistence)
  - No event replay or history
  - No guaranteed delivery (best effort)
  - No topic-based filtering (all events broadcast)

Workarounds:
  - Durable record: read the run journal, which outlives the process
  - Filtering: filter at subscriber side by event type

# See Also

  - pkg/orchestrator for run lifecycle events
  - pkg/membership for slave.added / slave.removed
  - pkg/journal for the durable run record
*/
package events
