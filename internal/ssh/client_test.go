package ssh

import (
	"context"
	"os"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/parallelssh/pssh/internal/sshtest"
)

// fixedSigners is an ssh.AuthMethod that hands back a fixed signer set,
// standing in for AgentAuthMethod in tests that don't want to depend
// on a real ssh-agent socket.
func fixedSigners(signers ...ssh.Signer) ssh.AuthMethod {
	return ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
		return signers, nil
	})
}

func signerFromKeyFile(t *testing.T, path string) ssh.Signer {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read key file: %v", err)
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		t.Fatalf("parse private key: %v", err)
	}
	return signer
}

func TestDialRunCommand(t *testing.T) {
	pub, keyPath := sshtest.GenerateKey(t)
	addr, cleanup := sshtest.Start(t,
		sshtest.WithPublicKey(pub),
		sshtest.WithCmdHandler(func(cmd string) (string, string, int) {
			return "hello from " + cmd, "", 0
		}),
	)
	defer cleanup()

	signer := signerFromKeyFile(t, keyPath)
	conf := ClientConfig{User: "tester", AcceptUnknownHosts: true}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, addr, conf, fixedSigners(signer))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	stdout, _, exitCode, err := client.RunCommand(ctx, "uptime")
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if exitCode != 0 {
		t.Fatalf("exitCode = %d, want 0", exitCode)
	}
	if string(stdout) != "hello from uptime" {
		t.Fatalf("stdout = %q, want %q", stdout, "hello from uptime")
	}
}

func TestDialRejectsUnknownKey(t *testing.T) {
	pub, _ := sshtest.GenerateKey(t)
	addr, cleanup := sshtest.Start(t, sshtest.WithPublicKey(pub))
	defer cleanup()

	_, otherKeyPath := sshtest.GenerateKey(t)
	otherSigner := signerFromKeyFile(t, otherKeyPath)
	conf := ClientConfig{User: "tester", AcceptUnknownHosts: true}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Dial(ctx, addr, conf, fixedSigners(otherSigner))
	if err == nil {
		t.Fatal("expected Dial to fail for an unrecognized key")
	}
}

func TestDialNonZeroExit(t *testing.T) {
	pub, keyPath := sshtest.GenerateKey(t)
	addr, cleanup := sshtest.Start(t,
		sshtest.WithPublicKey(pub),
		sshtest.WithCmdHandler(func(cmd string) (string, string, int) {
			return "", "boom", 1
		}),
	)
	defer cleanup()

	signer := signerFromKeyFile(t, keyPath)
	conf := ClientConfig{User: "tester", AcceptUnknownHosts: true}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, addr, conf, fixedSigners(signer))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	_, stderr, exitCode, err := client.RunCommand(ctx, "false")
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if exitCode != 1 {
		t.Fatalf("exitCode = %d, want 1", exitCode)
	}
	if string(stderr) != "boom" {
		t.Fatalf("stderr = %q, want %q", stderr, "boom")
	}
}

func TestDialRequiresHostKeyPolicy(t *testing.T) {
	pub, keyPath := sshtest.GenerateKey(t)
	addr, cleanup := sshtest.Start(t, sshtest.WithPublicKey(pub))
	defer cleanup()

	signer := signerFromKeyFile(t, keyPath)
	conf := ClientConfig{User: "tester"} // AcceptUnknownHosts unset, no callback

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Dial(ctx, addr, conf, fixedSigners(signer))
	if err == nil {
		t.Fatal("expected Dial to fail closed without a host key policy")
	}
}
