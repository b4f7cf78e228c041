package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/steam-claimer/internal/usecase"
	"github.com/user/steam-claimer/pkg/config"
	"github.com/user/steam-claimer/pkg/logger"
	"github.com/user/steam-claimer/pkg/metrics"
)

// rootOptions holds flags shared by all commands.
type rootOptions struct {
	envFile string
	dryRun  bool
}

func newRootCommand(code *int) *cobra.Command {
	opts := &rootOptions{}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Log in to Steam and claim the currently free games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClaim(cmd, opts, code)
		},
	}
	runCmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "find the claim button without pressing it (overrides DRYRUN)")

	cmd := &cobra.Command{
		Use:           "claimer",
		Short:         "Claim free Steam games and keep a ledger of the results",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         runCmd.RunE,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "dotenv file with configuration")
	cmd.Flags().AddFlagSet(runCmd.Flags())

	cmd.AddCommand(runCmd)
	cmd.AddCommand(newLedgerCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	return cmd
}

func setup(opts *rootOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create logger: %w", err)
	}
	return cfg, log, nil
}

func runClaim(cmd *cobra.Command, opts *rootOptions, code *int) error {
	cfg, log, err := setup(opts)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = opts.dryRun
	}

	exit := &usecase.ExitStatus{}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	stop := interruptOnSignal(ctx, exit, cancel, log)
	defer stop()

	*code = runApp(ctx, cfg, exit, log)
	return nil
}

// interruptOnSignal records the interrupted code before cancelling the run,
// so failures caused by the cancellation do not overwrite it.
func interruptOnSignal(ctx context.Context, exit *usecase.ExitStatus, cancel context.CancelFunc, log *zap.Logger) func() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	stop := watchInterrupt(ctx, quit, exit, cancel, log)
	return func() {
		signal.Stop(quit)
		stop()
	}
}

// watchInterrupt handles the first signal received on quit.
func watchInterrupt(ctx context.Context, quit <-chan os.Signal, exit *usecase.ExitStatus, cancel context.CancelFunc, log *zap.Logger) func() {
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-quit:
			log.Warn("interrupted, finishing up", zap.String("signal", sig.String()))
			exit.SetIfUnset(usecase.ExitInterrupted)
			cancel()
		case <-ctx.Done():
		case <-done:
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func newLedgerCommand(opts *rootOptions) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "ledger <user>",
		Short: "Print the ledger entries of a user as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(opts)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx := cmd.Context()
			store, closeStore, err := openLedgerStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			doc, err := store.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load ledger: %w", err)
			}
			entries, ok := doc[args[0]]
			if !ok {
				return fmt.Errorf("no ledger entries for user %q", args[0])
			}
			if status != "" {
				for id, e := range entries {
					if e == nil || string(e.Status) != status {
						delete(entries, id)
					}
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only print entries with this status (existed, claimed, failed)")
	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health, ledger and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(opts)
			if err != nil {
				return err
			}
			defer log.Sync()

			if addr != "" {
				cfg.StatusAddr = addr
			}
			if cfg.StatusAddr == "" {
				cfg.StatusAddr = ":8080"
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := openLedgerStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			reg := newRegistry()
			server := newStatusServer(cfg.StatusAddr, store, metrics.New(reg), reg, log)
			errCh := make(chan error, 1)
			go func() {
				log.Info("status server started", zap.String("addr", cfg.StatusAddr))
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("could not listen on %s: %w", cfg.StatusAddr, err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down status server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides STATUS_ADDR, default :8080)")
	return cmd
}
