package e2e

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/musterhq/muster/pkg/membership"
	"github.com/musterhq/muster/test/framework"
)

// TestMembershipFormation walks a coordinator cell through the full worker
// lifecycle: registration with trust probes and export rules, idempotent
// re-adds, rejection of untrusted nodes, and removal with access revocation.
func TestMembershipFormation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping membership formation test in short mode")
	}

	cell := framework.NewCell(t, framework.CellConfig{})
	assert := framework.NewAssertions(t)
	waiter := framework.DefaultWaiter()
	ctx := context.Background()

	t.Run("RegisterWorkers", func(t *testing.T) {
		cell.AddWorkers(ctx, "10.0.0.11", "10.0.0.12")

		assert.MemberListed("10.0.0.11", cell.Registry)
		assert.MemberListed("10.0.0.12", cell.Registry)
		t.Log("✓ Both workers listed in the membership file")

		assert.ExportRulePresent("10.0.0.11", cell)
		assert.ExportRulePresent("10.0.0.12", cell)
		t.Log("✓ Export rules written for both workers")

		probes := cell.Channel.CommandsMatching("true")
		if len(probes) != 2 {
			t.Fatalf("Expected 2 trust probes, got %d", len(probes))
		}
		t.Log("✓ Each worker was probed before admission")

		if got := cell.Reloader.Reloads(); got != 2 {
			t.Fatalf("Expected 2 export table reloads, got %d", got)
		}
	})

	t.Run("ReAddIsIdempotent", func(t *testing.T) {
		if _, err := cell.Registry.Add(ctx, "10.0.0.11"); err != nil {
			t.Fatalf("Re-adding an existing worker failed: %v", err)
		}

		members, err := cell.Registry.List()
		if err != nil {
			t.Fatalf("Failed to list members: %v", err)
		}
		if len(members) != 2 {
			t.Fatalf("Expected 2 members after re-add, got %d", len(members))
		}

		// The rule already exists, so the table must not be rewritten.
		if got := cell.Reloader.Reloads(); got != 2 {
			t.Fatalf("Re-add churned the export table: %d reloads", got)
		}
		t.Log("✓ Re-add left membership and export table untouched")
	})

	t.Run("InvalidAddressRejected", func(t *testing.T) {
		before := len(cell.Channel.Commands())

		_, err := cell.Registry.Add(ctx, "10.0.0.13:22")
		if err == nil {
			t.Fatal("Expected an address with a port to be rejected")
		}

		// Validation runs before any side effect.
		if after := len(cell.Channel.Commands()); after != before {
			t.Fatalf("Invalid address reached the channel: %d new commands", after-before)
		}
		assert.MemberAbsent("10.0.0.13:22", cell.Registry)
		t.Log("✓ Malformed address rejected before any probe")
	})

	t.Run("UntrustedWorkerRejected", func(t *testing.T) {
		cell.Channel.FailWith("10.0.0.14", fmt.Errorf("ssh: handshake failed: no supported methods remain"))

		_, err := cell.Registry.Add(ctx, "10.0.0.14")
		if err == nil {
			t.Fatal("Expected registration of an untrusted worker to fail")
		}
		t.Logf("Registration rejected: %v", err)

		assert.MemberAbsent("10.0.0.14", cell.Registry)
		assert.ExportRuleAbsent("10.0.0.14", cell)
		t.Log("✓ Untrusted worker left no membership entry and no export rule")
	})

	t.Run("RemoveRevokesAccess", func(t *testing.T) {
		if _, err := cell.Registry.Remove(ctx, "10.0.0.12"); err != nil {
			t.Fatalf("Failed to remove worker: %v", err)
		}

		assert.MemberAbsent("10.0.0.12", cell.Registry)
		assert.ExportRuleAbsent("10.0.0.12", cell)
		t.Log("✓ Removed worker lost its export rule")

		// The other worker's access must survive the removal.
		assert.MemberListed("10.0.0.11", cell.Registry)
		assert.ExportRulePresent("10.0.0.11", cell)
		t.Log("✓ Remaining worker unaffected")

		if got := cell.Reloader.Reloads(); got != 3 {
			t.Fatalf("Expected 3 export table reloads, got %d", got)
		}
	})

	t.Run("RemoveUnknownWorker", func(t *testing.T) {
		_, err := cell.Registry.Remove(ctx, "10.0.0.99")
		if !errors.Is(err, membership.ErrNotMember) {
			t.Fatalf("Expected ErrNotMember, got %v", err)
		}
		t.Log("✓ Removing an unknown worker reports ErrNotMember")
	})

	t.Run("StatusServerSeesMembership", func(t *testing.T) {
		client := cell.StartStatusServer()

		if err := client.WaitForHealthy(ctx); err != nil {
			t.Fatalf("Status server never became healthy: %v", err)
		}

		if err := waiter.WaitForWorkerCount(ctx, client, 1); err != nil {
			t.Fatalf("Status server worker count: %v", err)
		}

		workers, err := client.ListSlaves(ctx)
		if err != nil {
			t.Fatalf("Failed to list workers over HTTP: %v", err)
		}
		if workers[0].String() != "10.0.0.11" {
			t.Fatalf("Expected 10.0.0.11, got %s", workers[0])
		}
		t.Log("✓ Status server reports the surviving worker")
	})
}
