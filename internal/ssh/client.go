package ssh

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/crypto/ssh"
)

// ClientConfig holds options for creating an SSH client. Unlike a
// general-purpose SSH client, pssh only ever authenticates via the
// local key agent — there is no password prompt, no identity-file
// search, and no jump-host chaining. A host is either reachable and
// reachable, authenticates and runs, or it fails; there is no
// interactive fallback.
type ClientConfig struct {
	// User is the remote SSH username. Required.
	User string

	// AcceptUnknownHosts skips host-key verification entirely. pssh
	// targets fleets of hosts that were never individually "ssh"'d to
	// from this machine, so the dispatcher sets this true. Left false
	// (the zero value), host keys are checked only through
	// HostKeyCallback.
	AcceptUnknownHosts bool

	// HostKeyCallback overrides host-key verification. If nil and
	// AcceptUnknownHosts is false, Dial fails closed.
	HostKeyCallback ssh.HostKeyCallback

	// HandshakeTimeout is not read by Dial. The TCP connect and the
	// SSH handshake+auth are bounded only by the context passed to
	// Dial, and the agent pool's Acquire waits on that same context.
	HandshakeTimeout int
}

// Client wraps a single, non-reusable SSH connection to one host.
type Client struct {
	host      string
	sshClient *ssh.Client
}

// Dial establishes a single-hop SSH connection to addr (host:port),
// authenticating with authMethod (normally AgentAuthMethod). The TCP
// dial and the SSH handshake+auth both respect ctx cancellation; Dial
// does not itself acquire or release any permit pool — that is the
// caller's job, since the caller decides what the permit bounds.
func Dial(ctx context.Context, addr string, conf ClientConfig, authMethod ssh.AuthMethod) (*Client, error) {
	hostKeyCallback, err := resolveHostKeyCallback(conf)
	if err != nil {
		return nil, fmt.Errorf("host key callback: %w", err)
	}

	sshConf := &ssh.ClientConfig{
		User:            conf.User,
		Auth:            []ssh.AuthMethod{authMethod},
		HostKeyCallback: hostKeyCallback,
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := newClientConn(ctx, conn, addr, sshConf)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}

	return &Client{
		host:      addr,
		sshClient: ssh.NewClient(sshConn, chans, reqs),
	}, nil
}

// RunCommand executes a command on the connected host and returns
// stdout, stderr, exit code, and any protocol-level error.
func (c *Client) RunCommand(ctx context.Context, command string) (stdout, stderr []byte, exitCode int, err error) {
	session, err := c.sshClient.NewSession()
	if err != nil {
		return nil, nil, -1, fmt.Errorf("new session: %w", err)
	}
	defer session.Close()

	var outBuf, errBuf safeBuffer
	session.Stdout = &outBuf
	session.Stderr = &errBuf

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		session.Close()
		return outBuf.Bytes(), errBuf.Bytes(), -1, ctx.Err()
	case runErr := <-done:
		if runErr != nil {
			if exitErr, ok := runErr.(*ssh.ExitError); ok {
				return outBuf.Bytes(), errBuf.Bytes(), exitErr.ExitStatus(), nil
			}
			return outBuf.Bytes(), errBuf.Bytes(), -1, runErr
		}
		return outBuf.Bytes(), errBuf.Bytes(), 0, nil
	}
}

// Close closes the underlying SSH connection. pssh never pools or
// reuses a Client across hosts, so Close is always the last call a
// caller makes on a Client.
func (c *Client) Close() error {
	if c.sshClient == nil {
		return nil
	}
	return c.sshClient.Close()
}

// Host returns the address this client is connected to.
func (c *Client) Host() string {
	return c.host
}

// Underlying exposes the raw *ssh.Client, for callers (module upload
// via SFTP) that need it directly rather than through Client's
// narrower surface.
func (c *Client) Underlying() *ssh.Client {
	return c.sshClient
}

// resolveHostKeyCallback builds the host key callback from conf.
func resolveHostKeyCallback(conf ClientConfig) (ssh.HostKeyCallback, error) {
	if conf.HostKeyCallback != nil {
		return conf.HostKeyCallback, nil
	}
	if conf.AcceptUnknownHosts {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	return nil, fmt.Errorf("no host key callback configured and AcceptUnknownHosts is false")
}

// newClientConn performs the SSH handshake+auth with context
// cancellation. golang.org/x/crypto/ssh has no API to split the TCP
// handshake from user authentication the way libssh2 does — both
// happen inside this one blocking call. The agent pool's bound is
// enforced one layer down, around the auth method's Signers callback
// (see AgentAuthMethod), not around this call as a whole.
func newClientConn(ctx context.Context, conn net.Conn, addr string, config *ssh.ClientConfig) (ssh.Conn, <-chan ssh.NewChannel, <-chan *ssh.Request, error) {
	type result struct {
		conn  ssh.Conn
		chans <-chan ssh.NewChannel
		reqs  <-chan *ssh.Request
		err   error
	}

	done := make(chan result, 1)
	go func() {
		c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
		done <- result{c, chans, reqs, err}
	}()

	select {
	case <-ctx.Done():
		conn.Close()
		return nil, nil, nil, ctx.Err()
	case r := <-done:
		return r.conn, r.chans, r.reqs, r.err
	}
}
