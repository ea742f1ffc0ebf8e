// Package dispatch is the orchestrating façade: it owns the two
// permit pools, runs the reachability prober and the per-host worker
// pipeline, and hands back the channel of Responses.
package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/parallelssh/pssh/internal/module"
	"github.com/parallelssh/pssh/internal/probe"
	sshpkg "github.com/parallelssh/pssh/internal/ssh"
)

// Dispatcher is the entry point for running a command or module
// across a set of hosts. One Dispatcher's pools are sized once, at
// construction, and shared across every dispatch call made through
// it — build a new Dispatcher if you need different pool sizes.
type Dispatcher struct {
	cfg       Config
	tcpPool   *sshpkg.Pool
	agentPool *sshpkg.Pool
}

// New builds a Dispatcher from a validated Config.
func New(cfg Config) *Dispatcher {
	return &Dispatcher{
		cfg:       cfg,
		tcpPool:   sshpkg.NewPool(cfg.TcpConnectionsPool),
		agentPool: sshpkg.NewPool(cfg.AgentConnectionsPool),
	}
}

// TcpPool exposes the TCP permit pool, for tests and instrumentation
// that want to observe the concurrency bound directly.
func (d *Dispatcher) TcpPool() *sshpkg.Pool { return d.tcpPool }

// AgentPool exposes the agent permit pool.
func (d *Dispatcher) AgentPool() *sshpkg.Pool { return d.agentPool }

// ParallelCommandEvaluation runs a per-host command: hosts maps an
// address to the command that specific host should run. It returns
// immediately; the caller drains the returned channel, which is
// closed once every host in hosts has produced exactly one Response.
func (d *Dispatcher) ParallelCommandEvaluation(ctx context.Context, hosts map[string]string) <-chan Response {
	reqs := make([]HostRequest, 0, len(hosts))
	for addr, cmd := range hosts {
		reqs = append(reqs, HostRequest{Addr: addr, Kind: KindCommand, Command: cmd})
	}
	return d.run(ctx, reqs)
}

// ParallelModuleEvaluation runs the named module on every host in
// hostList. moduleName is looked up in cfg.ModuleTree once per host
// (not once for the whole batch), so a missing module produces a
// per-host failure Response rather than aborting the dispatch.
func (d *Dispatcher) ParallelModuleEvaluation(ctx context.Context, hostList []string, moduleName string) <-chan Response {
	reqs := make([]HostRequest, 0, len(hostList))
	for _, addr := range hostList {
		reqs = append(reqs, HostRequest{Addr: addr, Kind: KindModule, ModuleName: moduleName})
	}
	return d.run(ctx, reqs)
}

// probeOutcome is what the prober hands the worker stage: either a
// successful probe.Result or an earlier normalization error.
type probeOutcome struct {
	req     HostRequest
	result  probe.Result
	normErr error
}

// run spawns the prober goroutine and the worker fan-out, wiring them
// through a bounded handoff channel. The fan-out loop starts one
// goroutine per outcome as soon as it arrives, and each goroutine waits
// for its TcpPool permit inside processHost, so the handoff channel
// drains at once and does not hold the prober back to the workers' pace.
func (d *Dispatcher) run(ctx context.Context, reqs []HostRequest) <-chan Response {
	// Channels can't be literally unbounded in Go; sizing the result
	// channel to the full batch is exact (every host yields exactly
	// one Response) rather than an approximation of "unbounded".
	out := make(chan Response, len(reqs))
	if len(reqs) == 0 {
		close(out)
		return out
	}

	handoffCap := 2 * d.cfg.TcpConnectionsPool
	if handoffCap > len(reqs) {
		handoffCap = len(reqs)
	}
	if handoffCap < 1 {
		handoffCap = 1
	}
	handoff := make(chan probeOutcome, handoffCap)

	go d.probeAll(ctx, reqs, handoff)

	go func() {
		var wg sync.WaitGroup
		for outcome := range handoff {
			wg.Add(1)
			go func(o probeOutcome) {
				defer wg.Done()
				d.processHost(ctx, o, out)
			}(outcome)
		}
		wg.Wait()
		close(out)
	}()

	return out
}

// probeAll normalizes every request's address, then reachability-checks
// all of them concurrently via probe.Run, emitting each outcome onto
// handoff as it completes (completion order, not input order — matching
// probe.Run's own no-ordering contract). Probing does not consume a
// TcpPool permit — it is intentionally cheaper and faster than the
// worker pipeline so workers are never left idle.
func (d *Dispatcher) probeAll(ctx context.Context, reqs []HostRequest, handoff chan<- probeOutcome) {
	defer close(handoff)

	byAddr := make(map[string]HostRequest, len(reqs))
	addrs := make([]string, 0, len(reqs))
	for _, req := range reqs {
		addr, err := probe.NormalizeAddr(req.Addr, 22)
		if err != nil {
			select {
			case handoff <- probeOutcome{req: req, normErr: err}:
			case <-ctx.Done():
				return
			}
			continue
		}
		req.Addr = addr
		byAddr[addr] = req
		addrs = append(addrs, addr)
	}

	for result := range probe.Run(ctx, addrs, d.cfg.TimeoutSocket) {
		select {
		case handoff <- probeOutcome{req: byAddr[result.Addr], result: result}:
		case <-ctx.Done():
			return
		}
	}
}

// processHost runs steps 2-9 of the per-host pipeline for one already
// reachability-probed request, emitting exactly one Response onto out.
func (d *Dispatcher) processHost(ctx context.Context, o probeOutcome, out chan<- Response) {
	start := time.Now()
	req := o.req

	if o.normErr != nil {
		out <- Response{Hostname: req.Addr, Result: unreachableError(o.normErr), ProcessTime: time.Since(start), Status: false}
		return
	}
	if !o.result.Reachable {
		out <- Response{Hostname: req.Addr, Result: unreachableError(o.result.Err), ProcessTime: time.Since(start), Status: false}
		return
	}

	if err := d.tcpPool.Acquire(ctx); err != nil {
		out <- Response{Hostname: req.Addr, Result: unreachableError(err), ProcessTime: time.Since(start), Status: false}
		return
	}
	defer d.tcpPool.Release()

	sshCtx, cancel := context.WithTimeout(ctx, d.cfg.TimeoutSSH)
	defer cancel()

	authMethod := sshpkg.AgentAuthMethod(sshCtx, d.agentPool)
	clientConf := sshpkg.ClientConfig{User: d.cfg.User, AcceptUnknownHosts: true}

	client, err := sshpkg.Dial(sshCtx, req.Addr, clientConf, authMethod)
	if err != nil {
		out <- Response{Hostname: req.Addr, Result: classifyDialError(err), ProcessTime: time.Since(start), Status: false}
		return
	}
	defer client.Close()

	stdout, _, _, runErr := d.runPayload(sshCtx, client, req)
	if runErr != nil {
		out <- Response{Hostname: req.Addr, Result: classifyExecError(runErr), ProcessTime: time.Since(start), Status: false}
		return
	}

	// A nonzero remote exit status is not a pipeline failure: the
	// command ran, stdout was fully read, and that's what status
	// reports on. Callers that care about exit codes parse Result.
	out <- Response{Hostname: req.Addr, Result: string(stdout), ProcessTime: time.Since(start), Status: true}
}

func (d *Dispatcher) runPayload(ctx context.Context, client *sshpkg.Client, req HostRequest) (stdout, stderr []byte, exitCode int, err error) {
	if req.Kind != KindModule {
		return client.RunCommand(ctx, req.Command)
	}

	if d.cfg.ModuleTree == nil {
		return nil, nil, -1, errModuleNotFound{name: req.ModuleName}
	}
	desc, ok := d.cfg.ModuleTree.ByName(req.ModuleName)
	if !ok {
		return nil, nil, -1, errModuleNotFound{name: req.ModuleName}
	}
	stdout, stderr, exitCode, err := module.Run(ctx, client, desc)
	if err != nil {
		return stdout, stderr, exitCode, errModuleFailure{err: err}
	}
	return stdout, stderr, exitCode, nil
}

type errModuleNotFound struct{ name string }

func (e errModuleNotFound) Error() string { return "module not found: " + e.name }

type errModuleFailure struct{ err error }

func (e errModuleFailure) Error() string { return e.err.Error() }
func (e errModuleFailure) Unwrap() error { return e.err }

// classifyDialError maps a Dial failure onto the bracket-coded error
// taxonomy. x/crypto/ssh folds TCP connect, handshake, and auth into
// one call, so classification has to inspect the error chain rather
// than branch on which pipeline step failed.
func classifyDialError(err error) string {
	if errors.Is(err, sshpkg.ErrNoAgent) {
		return agentError(err)
	}

	var authErr *ssh.ServerAuthError
	if errors.As(err, &authErr) {
		return authRejectedError(err)
	}

	msg := err.Error()
	if strings.Contains(msg, "unable to authenticate") || strings.Contains(msg, "no supported methods remain") {
		return authRejectedError(err)
	}
	if sshpkg.IsConnectionRefused(err) || sshpkg.IsDNSError(err) || sshpkg.IsTimeout(err) {
		return unreachableError(err)
	}
	return handshakeError(err)
}

// classifyExecError maps a post-handshake execution failure onto the
// taxonomy. A context deadline mid-exec means stdout was cut off
// before it finished draining — an IO failure, not a channel failure.
func classifyExecError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ioError(err)
	}
	var notFound errModuleNotFound
	if errors.As(err, &notFound) {
		return moduleError(err)
	}
	var failure errModuleFailure
	if errors.As(err, &failure) {
		return moduleError(err)
	}
	return channelError(err)
}
