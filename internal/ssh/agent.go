package ssh

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// sharedAgent holds a lazily-initialized, process-wide SSH agent
// connection. All hosts in a dispatch run authenticate through this
// one socket — there is exactly one agent, shared by every worker.
// A mutex (rather than sync.Once) lets a failed dial be retried, since
// the agent socket may not be present yet at process start.
var sharedAgent struct {
	mu     sync.Mutex
	conn   net.Conn
	client agent.ExtendedAgent
}

// ErrNoAgent is returned when SSH_AUTH_SOCK is unset or unreachable.
var ErrNoAgent = fmt.Errorf("ssh agent unavailable: SSH_AUTH_SOCK not set or unreachable")

// DialAgent establishes (or reuses) the shared agent connection,
// failing fast if none is reachable. Call this once at dispatcher
// startup so a missing agent is reported before any host is dialed,
// rather than surfacing as a per-host auth failure.
func DialAgent() error {
	sharedAgent.mu.Lock()
	defer sharedAgent.mu.Unlock()
	return dialAgentLocked()
}

func dialAgentLocked() error {
	if sharedAgent.client != nil {
		if _, err := sharedAgent.client.List(); err == nil {
			return nil
		}
		sharedAgent.conn.Close()
		sharedAgent.client = nil
		sharedAgent.conn = nil
	}

	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return ErrNoAgent
	}

	conn, err := net.Dial("unix", sock)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoAgent, err)
	}

	client := agent.NewClient(conn)
	if _, err := client.List(); err != nil {
		conn.Close()
		return fmt.Errorf("%w: %v", ErrNoAgent, err)
	}

	sharedAgent.conn = conn
	sharedAgent.client = client
	return nil
}

// CloseAgent closes the shared SSH agent connection, if any.
func CloseAgent() {
	sharedAgent.mu.Lock()
	defer sharedAgent.mu.Unlock()
	if sharedAgent.conn != nil {
		sharedAgent.conn.Close()
		sharedAgent.client = nil
		sharedAgent.conn = nil
	}
}

// AgentAuthMethod returns an ssh.AuthMethod that authenticates through
// the shared agent. x/crypto/ssh folds the TCP handshake and user auth
// into one blocking NewClientConn call, so there is no separate point
// to gate around the auth step alone. pool gates the Signers callback,
// which lists the agent's keys while holding a pool permit (and the
// shared-agent mutex, so these listings run one at a time). The
// signature requests that the returned agent-backed signers send to
// the agent later in the handshake are made outside the pool and the
// mutex.
func AgentAuthMethod(ctx context.Context, pool *Pool) ssh.AuthMethod {
	return ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
		if err := pool.Acquire(ctx); err != nil {
			return nil, fmt.Errorf("acquire agent pool: %w", err)
		}
		defer pool.Release()

		sharedAgent.mu.Lock()
		defer sharedAgent.mu.Unlock()

		if err := dialAgentLocked(); err != nil {
			return nil, err
		}
		return sharedAgent.client.Signers()
	})
}
