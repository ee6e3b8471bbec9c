package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lite-lake/zonesync/internal/application/orchestrator"
	"github.com/lite-lake/zonesync/internal/infrastructure/lock"
	"github.com/lite-lake/zonesync/internal/infrastructure/logger"
)

var Version = "dev"

func NewRootCommand() *cobra.Command {
	opts := NewOptions()

	cmd := &cobra.Command{
		Use:   "zonesync <conf> <vars>",
		Short: "Reconcile a dynv6 zone against templated records",
		Long: `Zonesync resolves record templates against a variable store and
brings the records of a dynv6 zone in line with them, retrying for a
bounded number of rounds.`,
		Version:       Version,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), opts, args[0], args[1])
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&opts.Updates, "update", "u", nil, "Update a variable before syncing (key=value, repeatable)")
	flags.BoolVar(&opts.NoSync, "nosync", false, "Only update and save variables")
	flags.StringVar(&opts.LockFile, "lock-file", "", "File to lock for the run (default: the executable)")
	flags.StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")

	pflags := cmd.PersistentFlags()
	pflags.StringVarP(&opts.LogLevel, "log-level", "l", opts.LogLevel, "Log level (debug, info, warn, error)")
	pflags.StringVarP(&opts.LogFormat, "log-format", "L", opts.LogFormat, "Log format (text, json)")

	cmd.AddCommand(
		newPlanCommand(),
		newVarsCommand(),
		newRecordsCommand(),
	)

	return cmd
}

func initLogger(opts *Options) error {
	level, err := logger.ParseLevel(opts.LogLevel)
	if err != nil {
		return err
	}
	logger.Init(&logger.Config{
		Level:     level,
		Format:    opts.LogFormat,
		Output:    os.Stderr,
		AddSource: os.Getenv("ZONESYNC_DEBUG") != "",
	})
	return nil
}

func runSync(ctx context.Context, opts *Options, confPath, varsPath string) (err error) {
	ctx = logger.WithRun(ctx)
	log := logger.FromContext(ctx)

	if opts.MetricsFile != "" {
		defer func() {
			if werr := logger.WriteMetrics(opts.MetricsFile); werr != nil {
				log.Warn("failed to write metrics", "path", opts.MetricsFile, "error", werr)
			}
		}()
	}

	updates, err := orchestrator.ParseVariableUpdates(opts.Updates)
	if err != nil {
		return err
	}

	lockPath := opts.LockFile
	if lockPath == "" {
		if lockPath, err = lock.DefaultPath(); err != nil {
			return err
		}
	}
	runLock, err := lock.Acquire(ctx, lockPath, lock.DefaultRetryDelay)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := runLock.Release(); rerr != nil {
			log.Warn("failed to release lock", "path", lockPath, "error", rerr)
		}
	}()

	wf := orchestrator.NewWorkflow(varsPath)
	result, err := wf.Run(ctx, orchestrator.RunOptions{
		ConfigPath: confPath,
		Updates:    updates,
		NoSync:     opts.NoSync,
	})
	if err != nil {
		return err
	}
	if result != nil {
		log.Info("sync finished", "rounds", result.Rounds, "converged", result.Converged)
	}
	return nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		logger.Error("zonesync failed", "error", err)
		stop()
		os.Exit(1)
	}
}
