// cmd/groupcast/serve.go
// Implements `groupcast serve`, the process orchestrator entry point.
// Invoked bare, it is the supervisor: it runs the FORWARDER RPC plane
// inline (default single-host topology, since the in-memory WorkersList has
// no cross-process visibility) and re-execs itself once per worker slot as a
// SERVER-role child. Invoked with the hidden --groupcast-internal-* flags
// (set by the supervisor itself when spawning a child), it instead becomes
// that one worker process.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/groupcast/groupcast/internal/bind"
	"github.com/groupcast/groupcast/internal/groupbackend"
	"github.com/groupcast/groupcast/internal/logging"
	"github.com/groupcast/groupcast/internal/metrics"
	"github.com/groupcast/groupcast/internal/opsalerts"
	"github.com/groupcast/groupcast/internal/opsalerts/sinks"
	"github.com/groupcast/groupcast/internal/orchestrator"
	"github.com/groupcast/groupcast/internal/transport"
)

func newServeCmd() *cobra.Command {
	var (
		bindAddr string
		workers  int

		role         string
		workerIndex  int
		internalBind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the worker pool and RPC plane",
		Long:  `Bare invocation starts the supervisor: W worker processes plus an inline forwarder. The --groupcast-internal-* flags are set by the supervisor itself when re-execing a child and should not be passed by hand.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			metrics.Register()

			if role == "" {
				return runSupervisor(ctx, bindAddr, workers)
			}
			switch role {
			case "worker":
				return runWorker(ctx, internalBind, workerIndex)
			default:
				return fmt.Errorf("serve: unsupported internal role %q", role)
			}
		},
	}

	cmd.Flags().StringVarP(&bindAddr, "bind", "b", "unix:/tmp/rpc.socket", "RPC plane bind address (unix:/abs/path.socket or host:port)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "number of worker processes")

	cmd.Flags().StringVar(&role, orchestrator.FlagRole, "", "internal: re-exec role")
	cmd.Flags().IntVar(&workerIndex, orchestrator.FlagIndex, -1, "internal: re-exec worker index")
	cmd.Flags().StringVar(&internalBind, orchestrator.FlagBind, "", "internal: re-exec bare bind address")
	for _, f := range []string{orchestrator.FlagRole, orchestrator.FlagIndex, orchestrator.FlagBind} {
		_ = cmd.Flags().MarkHidden(f)
	}

	return cmd
}

// runSupervisor is the top-level `groupcast serve` path: it owns the worker
// process pool and runs the FORWARDER side of the RPC plane in this same
// process.
func runSupervisor(ctx context.Context, bindAddr string, workers int) error {
	workersList := orchestrator.NewInMemWorkersList()

	fwd := transport.NewForwarder(transport.Config{Address: bindAddr}, workersList)
	go func() {
		if err := fwd.Run(ctx); err != nil && ctx.Err() == nil {
			logging.Logger().Error("serve: forwarder RPC server exited", zap.Error(err))
		}
	}()

	startOpsAlerts(ctx, workers)

	sup := orchestrator.New(orchestrator.Config{
		BareAddress:     bindAddr,
		Workers:         workers,
		ExtraArgs:       passthroughFlags(),
		InlineForwarder: true,
	}, workersList)

	return sup.Run(ctx)
}

// runWorker is a re-exec'd child: it binds its own namespaced address and
// serves the SERVER side of the RPC plane, delegating group_send straight
// into a local groupbackend.Backend.
func runWorker(ctx context.Context, bareBind string, index int) error {
	base, err := bind.Parse(bareBind)
	if err != nil {
		return fmt.Errorf("serve: parse bind address: %w", err)
	}
	ns := bind.WorkerNamespace(index)
	addr := bind.ForNamespace(base, ns, index)

	backend := groupbackend.New(groupbackend.Config{})
	listenAddr := addr.String()
	if addr.Kind == bind.KindUnix {
		listenAddr = "unix:" + addr.Path // the form bind.Parse accepts
	}
	layer := transport.NewServer(transport.Config{Address: listenAddr}, backend)

	logging.Logger().Info("serve: worker starting", zap.String("namespace", ns), zap.String("addr", addr.String()))
	return layer.Run(ctx)
}

// passthroughFlags forwards the global --config/--log-json flags to every
// re-exec'd child so they observe the same configuration the supervisor was
// started with.
func passthroughFlags() []string {
	var out []string
	if cfgFile != "" {
		out = append(out, "--config", cfgFile)
	}
	if logJSON {
		out = append(out, "--log-json")
	}
	return out
}

// startOpsAlerts wires a minimal operational alert: fewer live workers than
// configured means the pool hasn't fully converged (or a worker is stuck
// restarting). Sinks are resolved from viper so operators can point
// "alerts.webhook_url" / "alerts.slack_webhook_url" / "alerts.jira_base_url"
// at a real endpoint without a code change; the log sink is always active.
func startOpsAlerts(ctx context.Context, wantWorkers int) {
	engineSinks := []opsalerts.Sink{sinks.NewLogSink()}
	if url := viper.GetString("alerts.webhook_url"); url != "" {
		engineSinks = append(engineSinks, sinks.NewWebhookSink(url))
	}
	if url := viper.GetString("alerts.slack_webhook_url"); url != "" {
		engineSinks = append(engineSinks, sinks.NewSlackSink(url))
	}
	if baseURL := viper.GetString("alerts.jira_base_url"); baseURL != "" {
		project := viper.GetString("alerts.jira_project")
		email := viper.GetString("alerts.jira_email")
		token := viper.GetString("alerts.jira_api_token")
		engineSinks = append(engineSinks, sinks.NewJiraSink(baseURL, project, email, token))
	}

	engine := opsalerts.NewEngine(opsalerts.DefaultSource(), engineSinks...)
	rule, err := opsalerts.NewRule("worker-pool-below-target", fmt.Sprintf("live_workers < %d", wantWorkers))
	if err != nil {
		logging.Logger().Warn("serve: failed to compile worker-pool-below-target rule", zap.Error(err))
		return
	}
	engine.AddRule(rule)

	go engine.Run(ctx, 10*time.Second)
}
