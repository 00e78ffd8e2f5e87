/*
Package client provides a Go client for the muster status API.

The client package wraps the status server's HTTP endpoints with typed
methods. It shares response types with pkg/api, so payloads decode into the
same structs the server encodes. The whole surface is read-only; anything
that mutates the cluster runs through the CLI on the coordinator itself.

# Architecture

	┌──────────────────── APPLICATION CODE ────────────────────┐
	│                                                           │
	│  import "github.com/musterhq/muster/pkg/client"           │
	│                                                           │
	│  c := client.NewClient("coordinator:8380")                │
	│  slaves, err := c.ListSlaves(ctx)                         │
	│                                                           │
	└──────────────────┬────────────────────────────────────────┘
	                   │
	┌──────────────────▼──── pkg/client ────────────────────────┐
	│                                                           │
	│  ┌──────────────────────────────────────────────┐         │
	│  │           Client Wrapper                     │         │
	│  │  - Typed methods per endpoint                │         │
	│  │  - JSON decoding into pkg/api types          │         │
	│  │  - 10s request timeout                       │         │
	│  └──────────────────┬───────────────────────────┘         │
	└─────────────────────┼─────────────────────────────────────┘
	                      │ HTTP GET
	                      ▼
	            muster status server (pkg/api)

# Usage

	c := client.NewClient("10.0.0.1:8380")

	slaves, err := c.ListSlaves(ctx)
	if err != nil {
		return err
	}

	runs, err := c.ListRuns(ctx)
	if err != nil {
		return err
	}
	for _, run := range runs {
		fmt.Printf("%s %s %s exit=%d\n", run.Token, run.Mode, run.Status, run.ExitCode)
	}

Health is special-cased: a 503 from /healthz still carries a valid status
body, so Health decodes it instead of returning an error. Callers inspect
health.Status to distinguish healthy from unhealthy.

# Error Handling

Transport failures are wrapped with "failed to reach status server" so CLI
output distinguishes a down server from a server-side error. Non-2xx
responses surface the server's {"error": "..."} message with the HTTP
status.

# See Also

  - pkg/api: Server implementation and response types
  - cmd/muster: `muster status` builds its output from this client
*/
package client
