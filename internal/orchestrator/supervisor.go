// internal/orchestrator/supervisor.go
// Supervisor spawns the master process (FORWARDER) and W worker processes
// (SERVER), maintains the shared WorkersList, restarts whichever of them
// exits, and on SIGINT/SIGTERM gives children 10s to exit before SIGKILL.
//
// Rather than shipping two separate binaries, this orchestrator re-execs the
// single groupcast binary with hidden role/index/bind flags (os.Executable),
// following the same ordered-start / ctx.Done-tears-down-in-a-goroutine /
// single-owner-of-every-child's-lifecycle shape as a typical process
// supervisor loop.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/groupcast/groupcast/internal/bind"
	"github.com/groupcast/groupcast/internal/logging"
	"github.com/groupcast/groupcast/internal/metrics"
)

// Hidden re-exec flags the spawned child reads to decide its role; cmd/groupcast
// registers these on the root command but hides them from --help.
const (
	FlagRole  = "groupcast-internal-role"
	FlagIndex = "groupcast-internal-index"
	FlagBind  = "groupcast-internal-bind"
)

// RetryInterval is how long the supervision loop sleeps when every slot
// (master + W workers) is currently running, before re-scanning.
const RetryInterval = 2 * time.Second

// ShutdownGrace is how long stopAll waits for children to exit on their own
// after SIGTERM before escalating to SIGKILL.
const ShutdownGrace = 10 * time.Second

// Config parameterizes a Supervisor.
type Config struct {
	// BareAddress is the unnamespaced RPC bind address (e.g.
	// "unix:/tmp/rpc.socket"); the master binds it directly and each
	// worker_i binds its namespaced derivative.
	BareAddress string
	// Workers is W, the number of SERVER-role worker processes.
	Workers int
	// SelfExe overrides os.Executable(), for tests.
	SelfExe string
	// ExtraArgs is appended to every spawned child's argv (e.g. --config).
	ExtraArgs []string
	// InlineForwarder, when true, means the caller runs the FORWARDER RPC
	// plane itself in this same process (sharing the Supervisor's
	// WorkersList directly) instead of Run spawning a separate master
	// child. This is the default single-host topology, since the
	// in-memory WorkersList has no cross-process visibility; set this to
	// false only when workers is a Redis-backed WorkersList shared with a
	// separately-deployed master.
	InlineForwarder bool
}

type procHandle struct {
	ns   string
	cmd  *exec.Cmd
	done chan struct{}
}

// Supervisor owns the master and worker process pool.
type Supervisor struct {
	cfg     Config
	workers WorkersList

	mu    sync.Mutex
	procs map[string]*procHandle // namespace -> handle; absent means not running
}

// New constructs a Supervisor. workers is typically
// orchestrator.NewInMemWorkersList() unless the deployment splits the
// forwarder onto its own host.
func New(cfg Config, workers WorkersList) *Supervisor {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Supervisor{cfg: cfg, workers: workers, procs: make(map[string]*procHandle)}
}

// Run blocks executing the supervision loop until ctx is cancelled, then
// stops every child and returns.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.stopAll()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !s.cfg.InlineForwarder && !s.isRunning(bind.MasterNamespace) {
			s.spawn(ctx, bind.MasterNamespace, -1)
			continue
		}

		foundIdle := false
		for i := 0; i < s.cfg.Workers; i++ {
			ns := bind.WorkerNamespace(i)
			if !s.isRunning(ns) {
				s.spawn(ctx, ns, i)
				foundIdle = true
				break
			}
		}
		if foundIdle {
			continue
		}

		select {
		case <-time.After(RetryInterval):
		case <-ctx.Done():
			return nil
		}
		s.reconcileWorkersList()
	}
}

func (s *Supervisor) isRunning(ns string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.procs[ns]
	return ok
}

// spawn re-execs the binary for namespace ns (master when workerIndex < 0,
// worker_i otherwise), wires its exit to remove it from procs/WorkersList,
// and appends ns to the shared list once the child process has started.
func (s *Supervisor) spawn(ctx context.Context, ns string, workerIndex int) {
	exe := s.cfg.SelfExe
	if exe == "" {
		var err error
		exe, err = os.Executable()
		if err != nil {
			logging.Logger().Error("orchestrator: cannot resolve self executable", zap.Error(err))
			return
		}
	}

	role := "worker"
	if ns == bind.MasterNamespace {
		role = "master"
	}

	args := []string{
		"serve",
		"--" + FlagRole, role,
		"--" + FlagIndex, fmt.Sprintf("%d", workerIndex),
		"--" + FlagBind, s.cfg.BareAddress,
	}
	args = append(args, s.cfg.ExtraArgs...)

	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }

	if err := cmd.Start(); err != nil {
		logging.Logger().Error("orchestrator: failed to start child", zap.String("ns", ns), zap.Error(err))
		metrics.WorkerRestartsTotal.Inc()
		return
	}

	handle := &procHandle{ns: ns, cmd: cmd, done: make(chan struct{})}
	s.mu.Lock()
	s.procs[ns] = handle
	s.mu.Unlock()

	s.workers.Add(ns)
	metrics.LiveWorkers.Set(float64(len(s.workers.Snapshot())))
	logging.Logger().Info("orchestrator: child started", zap.String("ns", ns), zap.Int("pid", cmd.Process.Pid))

	go func() {
		err := cmd.Wait()
		close(handle.done)

		s.mu.Lock()
		delete(s.procs, ns)
		s.mu.Unlock()

		s.workers.Remove(ns)
		metrics.LiveWorkers.Set(float64(len(s.workers.Snapshot())))
		metrics.WorkerRestartsTotal.Inc()

		if err != nil {
			logging.Logger().Warn("orchestrator: child exited", zap.String("ns", ns), zap.Error(err))
		} else {
			logging.Logger().Info("orchestrator: child exited cleanly", zap.String("ns", ns))
		}
	}()
}

// reconcileWorkersList refreshes the shared list to match the currently
// live set, dropping any namespace whose process has since exited without
// the spawn goroutine's removal having been observed yet by a reader.
func (s *Supervisor) reconcileWorkersList() {
	s.mu.Lock()
	live := make(map[string]struct{}, len(s.procs))
	for ns := range s.procs {
		live[ns] = struct{}{}
	}
	s.mu.Unlock()

	for _, ns := range s.workers.Snapshot() {
		if _, ok := live[ns]; !ok {
			s.workers.Remove(ns)
		}
	}
}

// stopAll sends SIGTERM to every running child, waits up to ShutdownGrace
// for children to become reapable, then SIGKILLs survivors.
func (s *Supervisor) stopAll() {
	s.mu.Lock()
	handles := make([]*procHandle, 0, len(s.procs))
	for _, h := range s.procs {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	for _, h := range handles {
		_ = h.cmd.Process.Signal(syscall.SIGTERM)
	}

	deadline := time.After(ShutdownGrace)
	for _, h := range handles {
		select {
		case <-h.done:
		case <-deadline:
			_ = h.cmd.Process.Kill()
			<-h.done
		}
	}
}
