package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/overlord/internal/config"
	"github.com/aretw0/overlord/pkg/adapters/process"
	"github.com/aretw0/overlord/pkg/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addRunFlags registers the supervision flags. They live on both the root
// command and "run" so that "overlord file" and "overlord run file" agree.
func addRunFlags(fs *pflag.FlagSet) {
	fs.String("shell", "", "Shell used to run each command (default /bin/sh)")
	fs.String("shell-flag", "", "Flag passing the command to the shell (default -c)")
	fs.String("dir", "", "Working directory for the commands")
	fs.StringSlice("env", nil, "Extra KEY=VALUE environment for the commands")
	fs.Duration("spawn-backoff", 0, "Delay before retrying a command that failed to start (default 1s)")
	fs.String("listen", "", "Address of the HTTP control server, e.g. 127.0.0.1:9090")
	fs.String("redis-addr", "", "Publish lifecycle events to this Redis server")
	fs.String("redis-channel", "", "Redis channel for lifecycle events (default "+config.DefaultRedisChannel+")")
}

// loadSettings reads --config over the defaults and applies every flag the
// user set explicitly.
func loadSettings(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	flags := cmd.Flags()

	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	override := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	override("shell", &cfg.Shell)
	override("shell-flag", &cfg.ShellFlag)
	override("dir", &cfg.Dir)
	override("log-level", &cfg.LogLevel)
	override("log-format", &cfg.LogFormat)
	override("listen", &cfg.Listen)
	override("redis-addr", &cfg.RedisAddr)
	override("redis-channel", &cfg.RedisChannel)

	if flags.Changed("env") {
		extra, _ := flags.GetStringSlice("env")
		cfg.Env = append(cfg.Env, extra...)
	}
	if flags.Changed("spawn-backoff") {
		cfg.SpawnBackoff, _ = flags.GetDuration("spawn-backoff")
	}

	return cfg, cfg.Validate()
}

// loadCommands picks the command list: a file argument ("-" means stdin),
// then the settings file, then stdin.
func loadCommands(stdin io.Reader, cfg config.Config, args []string) ([]domain.CommandSpec, error) {
	switch {
	case len(args) > 0 && args[0] != "-":
		return process.LoadCommands(args[0])
	case len(args) == 0 && len(cfg.Commands) > 0:
		return process.CommandsFromLines(cfg.Commands), nil
	}

	if stdin == nil {
		stdin = os.Stdin
	}
	specs, err := process.ParseCommands(stdin)
	if err != nil {
		return nil, fmt.Errorf("reading commands from stdin: %w", err)
	}
	return specs, nil
}
