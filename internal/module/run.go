package module

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/pkg/sftp"

	"github.com/parallelssh/pssh/internal/ssh"
)

// remoteDir is where modules are staged on the target host before
// execution. /tmp is writable by any authenticated user on every
// POSIX target pssh cares about, and nothing here needs to survive
// past the single exec.
const remoteDir = "/tmp"

// Run uploads d's script to the host via SFTP, marks it executable,
// executes it through the interpreter d.ExecType implies, and removes
// it afterward. It never reuses the upload across hosts or calls —
// each Run is a fresh push-exec-cleanup cycle on the given client.
func Run(ctx context.Context, client *ssh.Client, d Descriptor) (stdout, stderr []byte, exitCode int, err error) {
	remotePath := path.Join(remoteDir, fmt.Sprintf("pssh-module-%s-%d", path.Base(d.ExecPath), time.Now().UnixNano()))

	if err := push(client, d.ExecPath, remotePath); err != nil {
		return nil, nil, -1, fmt.Errorf("push module %s: %w", d.Name, err)
	}
	defer removeRemote(client, remotePath)

	cmd := buildCommand(d.ExecType, remotePath)
	stdout, stderr, exitCode, err = client.RunCommand(ctx, cmd)
	if err != nil {
		return stdout, stderr, exitCode, fmt.Errorf("run module %s: %w", d.Name, err)
	}
	return stdout, stderr, exitCode, nil
}

// buildCommand renders the remote command line for a module type.
// Bash/python modules are invoked through their interpreter; bin
// modules are chmod'd executable and invoked directly.
func buildCommand(t Type, remotePath string) string {
	switch t {
	case TypeBash:
		return fmt.Sprintf("bash %s", remotePath)
	case TypePython:
		return fmt.Sprintf("python3 %s", remotePath)
	default:
		return fmt.Sprintf("chmod +x %s && %s", remotePath, remotePath)
	}
}

func push(client *ssh.Client, localPath, remotePath string) error {
	sc, err := sftp.NewClient(client.Underlying())
	if err != nil {
		return fmt.Errorf("open sftp session: %w", err)
	}
	defer sc.Close()

	local, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local file %s: %w", localPath, err)
	}
	defer local.Close()

	remote, err := sc.Create(remotePath)
	if err != nil {
		return fmt.Errorf("create remote file %s: %w", remotePath, err)
	}
	defer remote.Close()

	if _, err := remote.ReadFrom(local); err != nil {
		return fmt.Errorf("write remote file %s: %w", remotePath, err)
	}
	if err := sc.Chmod(remotePath, 0755); err != nil {
		return fmt.Errorf("chmod remote file %s: %w", remotePath, err)
	}
	return nil
}

func removeRemote(client *ssh.Client, remotePath string) {
	sc, err := sftp.NewClient(client.Underlying())
	if err != nil {
		return
	}
	defer sc.Close()
	sc.Remove(remotePath)
}
