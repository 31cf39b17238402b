package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/overlord/internal/adapters/http"
	"github.com/aretw0/overlord/internal/config"
	"github.com/aretw0/overlord/internal/logging"
	"github.com/aretw0/overlord/internal/metrics"
	"github.com/aretw0/overlord/pkg/adapters/process"
	"github.com/aretw0/overlord/pkg/adapters/redis"
	"github.com/aretw0/overlord/pkg/domain"
	"github.com/aretw0/overlord/pkg/supervisor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownGrace = 5 * time.Second

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [commands-file]",
	Short: "Supervise a list of commands (default)",
	Long: `Starts every command of the list and keeps it running until a shutdown
is requested by signal or through the control server.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSupervisor,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd.Flags())

	// 'run' is the default when no command is given.
	addRunFlags(rootCmd.Flags())
	rootCmd.RunE = runCmd.RunE
}

func runSupervisor(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)
	slog.SetDefault(logger)

	specs, err := loadCommands(cmd.InOrStdin(), cfg, args)
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		logger.Warn("no commands to supervise")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	hooks := []domain.LifecycleHooks{metrics.New(reg).Hooks()}

	if cfg.RedisAddr != "" {
		pub := redis.New(cfg.RedisAddr, "", 0,
			redis.WithChannel(cfg.RedisChannel),
			redis.WithLogger(logger),
		)
		defer pub.Close()
		if err := pub.Ping(ctx); err != nil {
			return fmt.Errorf("event publisher: %w", err)
		}
		logger.Info("publishing lifecycle events", "addr", cfg.RedisAddr, "channel", cfg.RedisChannel, "run_id", pub.RunID())
		hooks = append(hooks, pub.Hooks())
	}

	launcher := process.NewLauncher(
		process.WithShell(cfg.Shell, cfg.ShellFlag),
		process.WithDir(cfg.Dir),
		process.WithEnv(cfg.Env...),
		process.WithStderr(cmd.ErrOrStderr()),
	)
	sup := supervisor.New(specs,
		supervisor.WithLogger(logger),
		supervisor.WithLauncher(launcher),
		supervisor.WithOutput(cmd.OutOrStdout()),
		supervisor.WithSpawnBackoff(cfg.SpawnBackoff),
		supervisor.WithLifecycleHooks(domain.ChainHooks(hooks...)),
	)

	if cfg.Listen != "" {
		stop, err := serveControl(cfg.Listen, sup, reg, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	signals := supervisor.NewSignalManager(sup, supervisor.WithSignalLogger(logger))
	signals.Start()
	defer signals.Stop()

	return sup.Run(ctx)
}

func newLogger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	// Both values were checked by cfg.Validate.
	level, _ := logging.ParseLevel(cfg.LogLevel)
	format, _ := logging.ParseFormat(cfg.LogFormat)
	return logging.NewWithFormat(cmd.ErrOrStderr(), level, format)
}

// serveControl starts the HTTP control server and returns its shutdown func.
func serveControl(addr string, sup *supervisor.Supervisor, reg *prometheus.Registry, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("control server: %w", err)
	}

	srv := &http.Server{
		Handler:           httpAdapter.NewHandler(sup, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("control server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("control server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("control server did not stop in time", "error", err)
			_ = srv.Close()
		}
	}, nil
}
