// Package probe provides a cheap reachability check to run before
// committing a worker slot to a full SSH dial. It races a TCP connect
// attempt against a short timer and discards the connection either
// way — it never authenticates and never holds a permit pool, by
// design: the whole point is to weed out dead hosts before they
// compete for the bounded resources the dispatcher cares about.
package probe

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// DefaultTimeout is the default reachability timeout. It intentionally
// sits well below typical SSH handshake latency: a live sshd answers
// a bare TCP SYN/ACK in single-digit milliseconds on any reasonable
// network, so a host that hasn't answered within this window is
// treated as unreachable rather than merely slow.
const DefaultTimeout = 200 * time.Millisecond

// Result reports whether a host answered on its SSH port within the
// timeout.
type Result struct {
	Addr      string
	Reachable bool
	Err       error
}

// Probe dials addr with a short timeout and immediately closes the
// connection. It never returns an error that the caller needs to
// distinguish from "unreachable" — Result.Err carries the underlying
// cause (for logging) but Result.Reachable is the only field the
// dispatcher branches on.
func Probe(ctx context.Context, addr string, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(cctx, "tcp", addr)
	if err != nil {
		return Result{Addr: addr, Reachable: false, Err: err}
	}
	conn.Close()
	return Result{Addr: addr, Reachable: true}
}

// Run probes every address in addrs concurrently, with no limit on
// fan-out beyond what the caller's context allows — reachability
// probing is cheap enough (bare TCP connect-and-discard) that it does
// not need to share the dispatcher's TCP or agent pools. Results are
// delivered in completion order, not input order, matching the
// dispatcher's no-ordering-guarantee contract.
func Run(ctx context.Context, addrs []string, timeout time.Duration) <-chan Result {
	out := make(chan Result, len(addrs))
	var wg sync.WaitGroup
	for _, addr := range addrs {
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			out <- Probe(ctx, addr, timeout)
		}(addr)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// NormalizeAddr ensures host carries an explicit port, defaulting to
// 22 when none is present. Accepts both "host" and "host:port" forms;
// IPv6 literals must already be bracketed ("[::1]:22") per net.JoinHostPort
// convention.
func NormalizeAddr(host string, defaultPort int) (string, error) {
	if host == "" {
		return "", fmt.Errorf("empty host")
	}
	if defaultPort <= 0 {
		defaultPort = 22
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host, nil
	}
	return net.JoinHostPort(host, fmt.Sprintf("%d", defaultPort)), nil
}
