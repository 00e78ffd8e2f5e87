package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/musterhq/muster/pkg/events"
	"github.com/musterhq/muster/pkg/log"
	"github.com/musterhq/muster/pkg/network"
	"github.com/musterhq/muster/pkg/proc"
	"github.com/rs/zerolog"
	"github.com/tilinna/clock"
)

// AddressResolver maps a NIC name to its IPv4 address.
type AddressResolver func(iface string) (string, error)

// Config carries the daemon endpoint parameters shared by the lifecycle and
// the submitter.
type Config struct {
	// Interface is the NIC whose IPv4 address the master binds and
	// advertises.
	Interface string
	// ServicePort is the master's cluster port.
	ServicePort int
	// SettleDelay is how long the master gets to bind before the worker
	// daemon dials it.
	SettleDelay time.Duration
	// Resolve overrides NIC address resolution. Nil uses the real NIC.
	Resolve AddressResolver
}

func (c Config) resolver() AddressResolver {
	if c.Resolve != nil {
		return c.Resolve
	}
	return func(iface string) (string, error) {
		ip, err := network.InterfaceIPv4(iface)
		if err != nil {
			return "", err
		}
		return ip.String(), nil
	}
}

// masterURL renders the engine endpoint workers and submissions connect to.
func masterURL(ip string, port int) string {
	return fmt.Sprintf("spark://%s:%d", ip, port)
}

// Lifecycle starts and stops the engine daemon pair on the coordinator.
type Lifecycle struct {
	install *Install
	runner  proc.Runner
	cfg     Config
	broker  *events.Broker
	log     zerolog.Logger
}

// NewLifecycle wires a lifecycle over a validated install.
func NewLifecycle(install *Install, runner proc.Runner, cfg Config, broker *events.Broker) *Lifecycle {
	return &Lifecycle{
		install: install,
		runner:  runner,
		cfg:     cfg,
		broker:  broker,
		log:     log.WithComponent("engine"),
	}
}

// StartCluster starts the master daemon bound to the configured NIC, waits
// for it to settle, then starts the worker daemon pointed at it. The settle
// delay exists because the worker registers on startup; dialing a master
// that has not bound yet fails the whole start.
func (l *Lifecycle) StartCluster(ctx context.Context) error {
	ip, err := l.cfg.resolver()(l.cfg.Interface)
	if err != nil {
		return err
	}

	out, err := l.runner.Run(ctx, l.install.Script("start-master.sh"),
		"--host", ip, "--port", strconv.Itoa(l.cfg.ServicePort))
	if err != nil {
		return fmt.Errorf("start master: %w (output: %s)", err, out)
	}
	l.log.Info().Str("host", ip).Int("port", l.cfg.ServicePort).Msg("master daemon started")

	if err := l.settle(ctx); err != nil {
		return err
	}

	url := masterURL(ip, l.cfg.ServicePort)
	out, err = l.runner.Run(ctx, l.install.Script("start-slave.sh"), url)
	if err != nil {
		return fmt.Errorf("start worker: %w (output: %s)", err, out)
	}
	l.log.Info().Str("master", url).Msg("worker daemon started")

	l.publish(events.EventClusterStarted, "engine daemons started at "+url)
	return nil
}

// StopCluster stops the worker daemon first, then the master. The worker
// holds a reference to its master; stopping the master first would leave the
// worker retrying a vanished endpoint.
func (l *Lifecycle) StopCluster(ctx context.Context) error {
	out, err := l.runner.Run(ctx, l.install.Script("stop-slave.sh"))
	if err != nil {
		return fmt.Errorf("stop worker: %w (output: %s)", err, out)
	}
	l.log.Info().Msg("worker daemon stopped")

	out, err = l.runner.Run(ctx, l.install.Script("stop-master.sh"))
	if err != nil {
		return fmt.Errorf("stop master: %w (output: %s)", err, out)
	}
	l.log.Info().Msg("master daemon stopped")

	l.publish(events.EventClusterStopped, "engine daemons stopped")
	return nil
}

func (l *Lifecycle) settle(ctx context.Context) error {
	clck := clock.FromContext(ctx)
	timer := clck.NewTimer(l.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *Lifecycle) publish(t events.EventType, msg string) {
	if l.broker == nil {
		return
	}
	l.broker.Publish(&events.Event{Type: t, Message: msg})
}
