package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/musterhq/muster/pkg/log"
	"github.com/musterhq/muster/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// UnreachableError reports that a worker could not be reached at all: dial,
// auth, handshake or timeout failures. The command never ran.
type UnreachableError struct {
	Addr types.WorkerAddress
	Err  error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("worker %s unreachable: %v", e.Addr, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// RemoteError reports that a command ran on the worker and exited non-zero.
type RemoteError struct {
	Addr     types.WorkerAddress
	ExitCode int
	Output   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("worker %s: command exited %d: %s", e.Addr, e.ExitCode, e.Output)
}

// Channel executes a shell command on a worker and returns its combined
// output. Implementations must honor ctx cancellation.
type Channel interface {
	Execute(ctx context.Context, addr types.WorkerAddress, command string) (string, error)
}

// Config carries the credentials and limits for an SSH channel.
type Config struct {
	// User is the remote account commands run as.
	User string
	// KeyFile is the path to an unencrypted private key.
	KeyFile string
	// Port is the SSH port on every worker. Zero means 22.
	Port int
	// Timeout bounds each Execute call end to end, dial included.
	// Zero means 30 seconds.
	Timeout time.Duration
	// KnownHostsFile pins worker host keys. Empty accepts any host key,
	// the usual posture for a closed lab network.
	KnownHostsFile string
}

// SSHChannel executes commands over SSH with public-key auth. One channel is
// shared across all workers; connections are per-command, which keeps the
// channel free of per-worker connection state to invalidate on membership
// changes.
type SSHChannel struct {
	user     string
	port     int
	timeout  time.Duration
	auth     []ssh.AuthMethod
	hostKeys ssh.HostKeyCallback
	log      zerolog.Logger
}

// NewSSHChannel loads the key material and returns a ready channel.
func NewSSHChannel(cfg Config) (*SSHChannel, error) {
	key, err := os.ReadFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("read ssh key %s: %w", cfg.KeyFile, err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parse ssh key %s: %w", cfg.KeyFile, err)
	}

	hostKeys := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHostsFile != "" {
		hostKeys, err = knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("load known hosts %s: %w", cfg.KnownHostsFile, err)
		}
	}

	port := cfg.Port
	if port == 0 {
		port = 22
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &SSHChannel{
		user:     cfg.User,
		port:     port,
		timeout:  timeout,
		auth:     []ssh.AuthMethod{ssh.PublicKeys(signer)},
		hostKeys: hostKeys,
		log:      log.WithComponent("remote"),
	}, nil
}

// Execute runs command on the worker and returns its combined output with
// surrounding whitespace trimmed. The channel's timeout applies on top of
// whatever deadline ctx already carries.
func (c *SSHChannel) Execute(ctx context.Context, addr types.WorkerAddress, command string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := net.JoinHostPort(addr.String(), strconv.Itoa(c.port))
	c.log.Debug().Str("worker", addr.String()).Str("command", command).Msg("executing remote command")

	client, err := c.dial(ctx, target)
	if err != nil {
		return "", &UnreachableError{Addr: addr, Err: err}
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", &UnreachableError{Addr: addr, Err: err}
	}
	defer session.Close()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := session.CombinedOutput(command)
		done <- result{out, err}
	}()

	select {
	case <-ctx.Done():
		// Closing the client unblocks CombinedOutput in the goroutine.
		client.Close()
		return "", &UnreachableError{Addr: addr, Err: ctx.Err()}
	case res := <-done:
		output := strings.TrimSpace(string(res.out))
		if res.err == nil {
			return output, nil
		}
		var exitErr *ssh.ExitError
		if errors.As(res.err, &exitErr) {
			return output, &RemoteError{Addr: addr, ExitCode: exitErr.ExitStatus(), Output: output}
		}
		// Sessions that die without an exit status (connection torn down
		// mid-command) count as unreachable: the outcome is unknown.
		return output, &UnreachableError{Addr: addr, Err: res.err}
	}
}

// dial establishes the TCP connection under ctx, then completes the SSH
// handshake. ssh.Dial does its own dialing without context support, so the
// two steps are split here.
func (c *SSHChannel) dial(ctx context.Context, target string) (*ssh.Client, error) {
	clientCfg := &ssh.ClientConfig{
		User:            c.user,
		Auth:            c.auth,
		HostKeyCallback: c.hostKeys,
		Timeout:         c.timeout,
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", target)
	if err != nil {
		return nil, err
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, target, clientCfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}
