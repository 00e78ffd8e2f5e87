package main

import (
	"os"

	"github.com/musterhq/muster/pkg/engine"
	"github.com/musterhq/muster/pkg/exports"
	"github.com/musterhq/muster/pkg/journal"
	"github.com/musterhq/muster/pkg/membership"
	"github.com/musterhq/muster/pkg/proc"
	"github.com/musterhq/muster/pkg/remote"
	"github.com/musterhq/muster/pkg/telemetry"
	"github.com/musterhq/muster/pkg/types"
)

// memberSource adapts the membership file to the List interface shared by
// the orchestrator, the status server and the gauge refresher. Listing does
// not need trust or export wiring, so it skips the full registry.
type memberSource struct {
	store *membership.FileStore
}

func (m memberSource) List() ([]types.WorkerAddress, error) {
	return m.store.Load()
}

func newMemberSource() memberSource {
	return memberSource{store: membership.NewFileStore(cfg.MembershipFile)}
}

func openJournal() (*journal.Journal, error) {
	return journal.Open(cfg.JournalPath)
}

func newChannel() (*remote.SSHChannel, error) {
	return remote.NewSSHChannel(remote.Config{
		User:           cfg.SSH.User,
		KeyFile:        cfg.SSH.KeyFile,
		Port:           cfg.SSH.Port,
		Timeout:        cfg.SSH.Timeout.Std(),
		KnownHostsFile: cfg.SSH.KnownHostsFile,
	})
}

func newRegistry(channel remote.Channel) *membership.Registry {
	sync := exports.NewSynchronizer(
		cfg.Exports.SharedPath,
		cfg.Exports.Options,
		exports.NewFileStore(cfg.Exports.Table),
		exports.ExecReloader{Runner: proc.ExecRunner{}},
	)
	return membership.NewRegistry(
		membership.NewFileStore(cfg.MembershipFile),
		membership.ChannelTrust{Channel: channel},
		sync,
		nil,
	)
}

func newProcManager() *proc.Manager {
	return proc.NewManager(proc.NewFileStore(cfg.PIDDir), proc.ExecSupervisor{})
}

func newTelemetryController() *telemetry.Controller {
	return telemetry.NewController(newProcManager(), proc.ExecSupervisor{}, telemetry.Config{
		CPUInterval:  cfg.Telemetry.CPUInterval.Std(),
		DiskInterval: cfg.Telemetry.DiskInterval.Std(),
		SelfPath:     selfPath(),
	})
}

// selfPath locates the running binary so the disk sampler can be launched as
// a detached re-invocation of it.
func selfPath() string {
	if exe, err := os.Executable(); err == nil {
		return exe
	}
	return os.Args[0]
}

func engineConfig() engine.Config {
	return engine.Config{
		Interface:   cfg.Engine.Interface,
		ServicePort: cfg.Engine.ServicePort,
		SettleDelay: cfg.Engine.SettleDelay.Std(),
	}
}
