package remote

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func writeTestKey(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

func TestNewSSHChannelDefaults(t *testing.T) {
	ch, err := NewSSHChannel(Config{User: "root", KeyFile: writeTestKey(t)})
	require.NoError(t, err)
	assert.Equal(t, 22, ch.port)
	assert.Equal(t, 30*time.Second, ch.timeout)
}

func TestNewSSHChannelMissingKey(t *testing.T) {
	_, err := NewSSHChannel(Config{User: "root", KeyFile: "/nonexistent/key"})
	require.Error(t, err)
}

func TestNewSSHChannelGarbageKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("not a key"), 0o600))
	_, err := NewSSHChannel(Config{User: "root", KeyFile: path})
	require.Error(t, err)
}

func TestExecuteRefusedConnectionIsUnreachable(t *testing.T) {
	// Grab a port that is certainly closed by listening and releasing it.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	ch, err := NewSSHChannel(Config{
		User:    "root",
		KeyFile: writeTestKey(t),
		Port:    port,
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)

	_, err = ch.Execute(context.Background(), "127.0.0.1", "true")
	var unreachable *UnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, "127.0.0.1", unreachable.Addr.String())
}

func TestExecuteHandshakeFailureIsUnreachable(t *testing.T) {
	// A listener that accepts and immediately hangs up never completes an
	// SSH handshake.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	ch, err := NewSSHChannel(Config{
		User:    "root",
		KeyFile: writeTestKey(t),
		Port:    l.Addr().(*net.TCPAddr).Port,
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)

	_, err = ch.Execute(context.Background(), "127.0.0.1", "true")
	var unreachable *UnreachableError
	require.ErrorAs(t, err, &unreachable)
}

func TestUnreachableErrorUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: no route to host")
	err := &UnreachableError{Addr: "10.0.0.5", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "10.0.0.5")
}

func TestRemoteErrorMessage(t *testing.T) {
	err := &RemoteError{Addr: "10.0.0.5", ExitCode: 3, Output: "mkdir: permission denied"}
	assert.Contains(t, err.Error(), "exited 3")
	assert.Contains(t, err.Error(), "permission denied")
}
