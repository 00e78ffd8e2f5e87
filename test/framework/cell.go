package framework

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	"github.com/musterhq/muster/pkg/api"
	"github.com/musterhq/muster/pkg/engine"
	"github.com/musterhq/muster/pkg/events"
	"github.com/musterhq/muster/pkg/exports"
	"github.com/musterhq/muster/pkg/journal"
	"github.com/musterhq/muster/pkg/membership"
	"github.com/musterhq/muster/pkg/metrics"
	"github.com/musterhq/muster/pkg/orchestrator"
	"github.com/musterhq/muster/pkg/proc"
	"github.com/musterhq/muster/pkg/telemetry"
)

// Cell is one coordinator assembled from the real packages over a temporary
// directory, with fakes only at the system boundary: the SSH channel, the
// process supervisor, the local command runner and the export reloader.
// Everything between them - file stores, registry, synchronizer, journal,
// orchestrator, status server - is production code.
type Cell struct {
	Config CellConfig

	DataRoot       string
	MembershipFile string
	PIDDir         string
	JournalPath    string
	ExportsTable   string
	EngineDir      string

	Channel    *FakeChannel
	Supervisor *FakeSupervisor
	Runner     *FakeRunner
	Reloader   *FakeReloader

	Journal  *journal.Journal
	Broker   *events.Broker
	Registry *membership.Registry
	Exports  *exports.Synchronizer
	Procs    *proc.Manager

	t TestingT
}

// NewCell assembles a coordinator cell. Cleanup is registered on t; tests
// never tear the cell down themselves.
func NewCell(t TestingT, cfg CellConfig) *Cell {
	t.Helper()

	if cfg.HostMemoryMB == 0 {
		cfg.HostMemoryMB = 16384
	}
	if cfg.ExportOptions == "" {
		cfg.ExportOptions = "rw,sync,no_subtree_check"
	}

	root := t.TempDir()
	c := &Cell{
		Config:         cfg,
		DataRoot:       filepath.Join(root, "data"),
		MembershipFile: filepath.Join(root, "slaves"),
		PIDDir:         filepath.Join(root, "pids"),
		JournalPath:    filepath.Join(root, "runs.db"),
		ExportsTable:   filepath.Join(root, "exports"),
		EngineDir:      CreateEngineInstall(t, filepath.Join(root, "engine")),
		Channel:        NewFakeChannel(),
		Supervisor:     NewFakeSupervisor(),
		Runner:         NewFakeRunner(),
		Reloader:       &FakeReloader{},
		t:              t,
	}

	if err := os.MkdirAll(c.DataRoot, 0o755); err != nil {
		t.Fatalf("Failed to create data root: %v", err)
	}

	jnl, err := journal.Open(c.JournalPath)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	t.Cleanup(func() { _ = jnl.Close() })
	c.Journal = jnl

	c.Broker = events.NewBroker()
	c.Broker.Start()
	t.Cleanup(c.Broker.Stop)

	c.Exports = exports.NewSynchronizer(c.DataRoot, cfg.ExportOptions,
		exports.NewFileStore(c.ExportsTable), c.Reloader)
	c.Registry = membership.NewRegistry(
		membership.NewFileStore(c.MembershipFile),
		membership.ChannelTrust{Channel: c.Channel},
		c.Exports,
		c.Broker,
	)
	c.Procs = proc.NewManager(proc.NewFileStore(c.PIDDir), c.Supervisor)

	return c
}

// AddWorkers registers the addresses through the full add flow: trust probe,
// export rule, membership file.
func (c *Cell) AddWorkers(ctx context.Context, addrs ...string) {
	c.t.Helper()
	for _, addr := range addrs {
		if _, err := c.Registry.Add(ctx, addr); err != nil {
			c.t.Fatalf("Failed to register worker %s: %v", addr, err)
		}
	}
}

// Telemetry returns a collector controller over the cell's process manager
// and fake supervisor.
func (c *Cell) Telemetry() *telemetry.Controller {
	return telemetry.NewController(c.Procs, c.Supervisor, telemetry.Config{
		CPUInterval:  time.Second,
		DiskInterval: 5 * time.Second,
		SelfPath:     "muster",
	})
}

// Submitter returns a job submitter over the cell's engine install and fake
// runner.
func (c *Cell) Submitter() *engine.Submitter {
	return engine.NewSubmitter(c.install(), c.Runner, c.engineConfig())
}

// Lifecycle returns the engine daemon lifecycle over the cell's fake runner.
func (c *Cell) Lifecycle() *engine.Lifecycle {
	return engine.NewLifecycle(c.install(), c.Runner, c.engineConfig(), c.Broker)
}

// Orchestrator wires a run orchestrator over the cell's parts.
func (c *Cell) Orchestrator() *orchestrator.Orchestrator {
	return orchestrator.New(
		c.Telemetry(),
		c.Submitter(),
		c.Registry,
		c.Channel,
		c.Journal,
		c.Broker,
		orchestrator.Config{
			DataRoot:            c.DataRoot,
			RemoteBinary:        "muster",
			Cooldown:            c.Config.Cooldown,
			LocalDriverFraction: 0.7,
			LocalResultFraction: 0.5,
			HostMemory:          func() (int, error) { return c.Config.HostMemoryMB, nil },
		},
	)
}

// JobSpec returns a job against the cell's fixture paths.
func (c *Cell) JobSpec() engine.JobSpec {
	return engine.JobSpec{
		TrainDir:    filepath.Join(c.DataRoot, "train"),
		TargetDir:   filepath.Join(c.DataRoot, "target"),
		Topics:      20,
		Iterations:  100,
		Algorithm:   "em",
		ArtifactJar: "/opt/muster/analytics.jar",
		MainClass:   "analytics.TopicModelJob",
	}
}

// StartStatusServer mounts the status API over the cell's state and returns
// a client against it, with the health components registered the way the
// serve command registers them.
func (c *Cell) StartStatusServer() *Client {
	metrics.RegisterComponent("journal", true, "journal open")
	metrics.RegisterComponent("membership", true, "membership file readable")

	srv := httptest.NewServer(api.NewServer(c.Registry, c.Journal, c.Procs).Handler())
	c.t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func (c *Cell) install() *engine.Install {
	c.t.Helper()
	install, err := engine.OpenInstall(c.EngineDir)
	if err != nil {
		c.t.Fatalf("Failed to open engine install: %v", err)
	}
	return install
}

func (c *Cell) engineConfig() engine.Config {
	return engine.Config{
		Interface:   "eth0",
		ServicePort: 7077,
		SettleDelay: time.Millisecond,
		Resolve:     func(string) (string, error) { return "10.0.0.100", nil },
	}
}
