package dispatch

import (
	"fmt"
	"time"

	"github.com/parallelssh/pssh/internal/module"
)

const (
	// DefaultTimeoutSocket is the reachability probe's deadline.
	DefaultTimeoutSocket = 200 * time.Millisecond
	// DefaultTimeoutSSH bounds every blocking SSH step (dial,
	// handshake, auth, exec, stdout drain).
	DefaultTimeoutSSH = 120 * time.Second
	// DefaultTcpConnectionsPool is the default TcpPool size.
	DefaultTcpConnectionsPool = 100
	// DefaultAgentConnectionsPool is the default AgentPool size.
	DefaultAgentConnectionsPool = 3
	// DefaultUser is the remote SSH username used when none is set.
	// The system this pipeline descends from always authenticated as
	// a single fixed service account; pssh keeps that as the default
	// while letting a caller override it per dispatch.
	DefaultUser = "scan"
)

// Config holds the resolved, immutable settings for one Dispatcher.
// Construct it through Builder, not directly.
type Config struct {
	TcpConnectionsPool   int
	AgentConnectionsPool int
	TimeoutSocket        time.Duration
	TimeoutSSH           time.Duration
	User                 string
	ModuleTree           *module.Registry
}

// Builder assembles a Config. Fields start unset; Build reports a
// descriptive error naming the first missing required field rather
// than silently defaulting, so callers that want the documented
// defaults must ask for them explicitly via NewDefaultBuilder.
type Builder struct {
	tcpConnectionsPool   *int
	agentConnectionsPool *int
	timeoutSocket        *time.Duration
	timeoutSSH           *time.Duration
	user                 *string
	moduleTree           *module.Registry
}

// NewBuilder returns an empty Builder; every required field must be
// set explicitly before Build succeeds.
func NewBuilder() *Builder {
	return &Builder{}
}

// NewDefaultBuilder returns a Builder pre-populated with this
// package's documented defaults, ready to Build immediately or to
// have individual fields overridden first.
func NewDefaultBuilder() *Builder {
	return NewBuilder().
		TcpConnectionsPool(DefaultTcpConnectionsPool).
		AgentConnectionsPool(DefaultAgentConnectionsPool).
		TimeoutSocket(DefaultTimeoutSocket).
		TimeoutSSH(DefaultTimeoutSSH).
		User(DefaultUser)
}

// TcpConnectionsPool sets the number of TcpPool permits, which also
// fixes the Worker thread count.
func (b *Builder) TcpConnectionsPool(n int) *Builder {
	b.tcpConnectionsPool = &n
	return b
}

// AgentConnectionsPool sets the number of AgentPool permits.
func (b *Builder) AgentConnectionsPool(n int) *Builder {
	b.agentConnectionsPool = &n
	return b
}

// TimeoutSocket sets the reachability probe deadline.
func (b *Builder) TimeoutSocket(d time.Duration) *Builder {
	b.timeoutSocket = &d
	return b
}

// TimeoutSSH sets the deadline for every blocking SSH step.
func (b *Builder) TimeoutSSH(d time.Duration) *Builder {
	b.timeoutSSH = &d
	return b
}

// User sets the remote SSH username.
func (b *Builder) User(u string) *Builder {
	b.user = &u
	return b
}

// ModuleTree attaches a module registry, enabling
// Dispatcher.ParallelModuleEvaluation. Optional — command-mode
// dispatch never consults it.
func (b *Builder) ModuleTree(r *module.Registry) *Builder {
	b.moduleTree = r
	return b
}

// Build validates that every required field is set and returns the
// resulting Config.
func (b *Builder) Build() (Config, error) {
	if b.tcpConnectionsPool == nil {
		return Config{}, fmt.Errorf("dispatch: tcp_connections_pool is required")
	}
	if b.agentConnectionsPool == nil {
		return Config{}, fmt.Errorf("dispatch: agent_connections_pool is required")
	}
	if b.timeoutSocket == nil {
		return Config{}, fmt.Errorf("dispatch: timeout_socket is required")
	}
	if b.timeoutSSH == nil {
		return Config{}, fmt.Errorf("dispatch: timeout_ssh is required")
	}
	if *b.tcpConnectionsPool <= 0 {
		return Config{}, fmt.Errorf("dispatch: tcp_connections_pool must be positive, got %d", *b.tcpConnectionsPool)
	}
	if *b.agentConnectionsPool <= 0 {
		return Config{}, fmt.Errorf("dispatch: agent_connections_pool must be positive, got %d", *b.agentConnectionsPool)
	}

	user := DefaultUser
	if b.user != nil {
		user = *b.user
	}

	return Config{
		TcpConnectionsPool:   *b.tcpConnectionsPool,
		AgentConnectionsPool: *b.agentConnectionsPool,
		TimeoutSocket:        *b.timeoutSocket,
		TimeoutSSH:           *b.timeoutSSH,
		User:                 user,
		ModuleTree:           b.moduleTree,
	}, nil
}
