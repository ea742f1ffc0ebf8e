package dispatch

import (
	"testing"
	"time"
)

func TestBuilderRequiresAllFields(t *testing.T) {
	_, err := NewBuilder().Build()
	if err == nil {
		t.Fatal("expected error from an empty Builder")
	}

	_, err = NewBuilder().TcpConnectionsPool(10).Build()
	if err == nil {
		t.Fatal("expected error when only tcp_connections_pool is set")
	}
}

func TestBuilderSucceedsWithAllFields(t *testing.T) {
	cfg, err := NewBuilder().
		TcpConnectionsPool(100).
		AgentConnectionsPool(3).
		TimeoutSocket(200 * time.Millisecond).
		TimeoutSSH(120 * time.Second).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg.TcpConnectionsPool != 100 || cfg.AgentConnectionsPool != 3 {
		t.Fatalf("unexpected pool sizes: %+v", cfg)
	}
	if cfg.User != DefaultUser {
		t.Fatalf("User = %q, want default %q", cfg.User, DefaultUser)
	}
}

func TestDefaultBuilder(t *testing.T) {
	cfg, err := NewDefaultBuilder().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg.TcpConnectionsPool != DefaultTcpConnectionsPool {
		t.Fatalf("TcpConnectionsPool = %d, want %d", cfg.TcpConnectionsPool, DefaultTcpConnectionsPool)
	}
	if cfg.AgentConnectionsPool != DefaultAgentConnectionsPool {
		t.Fatalf("AgentConnectionsPool = %d, want %d", cfg.AgentConnectionsPool, DefaultAgentConnectionsPool)
	}
	if cfg.TimeoutSocket != DefaultTimeoutSocket {
		t.Fatalf("TimeoutSocket = %v, want %v", cfg.TimeoutSocket, DefaultTimeoutSocket)
	}
	if cfg.TimeoutSSH != DefaultTimeoutSSH {
		t.Fatalf("TimeoutSSH = %v, want %v", cfg.TimeoutSSH, DefaultTimeoutSSH)
	}
}

func TestBuilderRejectsNonPositivePools(t *testing.T) {
	_, err := NewBuilder().
		TcpConnectionsPool(0).
		AgentConnectionsPool(3).
		TimeoutSocket(time.Second).
		TimeoutSSH(time.Minute).
		Build()
	if err == nil {
		t.Fatal("expected error for zero tcp_connections_pool")
	}
}
