package sshtest

import (
	"crypto/x509"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/ssh/agent"
)

// StartAgent launches an in-process ssh-agent protocol server backed
// by the private key at keyPath (as produced by GenerateKey), so
// tests can exercise the real agent-auth code path — including
// AgentPool gating — without depending on a real ssh-agent process or
// SSH_AUTH_SOCK from the environment. Returns the UNIX socket path;
// the server stops when the test ends.
func StartAgent(t *testing.T, keyPath string) string {
	t.Helper()

	pemBytes, err := os.ReadFile(keyPath)
	if err != nil {
		t.Fatalf("read key file: %v", err)
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		t.Fatalf("decode PEM from %s: no block found", keyPath)
	}
	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		t.Fatalf("parse private key: %v", err)
	}

	keyring := agent.NewKeyring()
	if err := keyring.Add(agent.AddedKey{PrivateKey: priv}); err != nil {
		t.Fatalf("add key to agent keyring: %v", err)
	}

	sockPath := filepath.Join(t.TempDir(), "agent.sock")
	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen on agent socket: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go agent.ServeAgent(keyring, conn)
		}
	}()

	t.Cleanup(func() {
		listener.Close()
		<-done
	})

	return sockPath
}
