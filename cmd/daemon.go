package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quickspell/core/cli"
	"github.com/quickspell/core/internal/daemon/pidfile"
	"github.com/quickspell/core/logging"
	"github.com/quickspell/core/pkg/paths"
	"github.com/quickspell/core/server"
	"github.com/quickspell/core/spell"
	"github.com/quickspell/core/watch"
)

// NewDaemonCmd returns the daemon command with subcommands.
func NewDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Palette daemon",
		Long: `Runs the palette session behind a unix socket so hosts (keybinding
daemons, bars, editor plugins) can drive it without owning a terminal.`,
	}

	cmd.AddCommand(newDaemonStartCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())

	return cmd
}

func newDaemonStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in foreground mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("daemon")

			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			logging.Configure(cfg.Logging)

			pidPath := paths.PidFilePath()
			if err := pidfile.Acquire(pidPath); err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			defer func() {
				if err := pidfile.Release(pidPath); err != nil {
					logger.Errorf("Failed to release pidfile: %v", err)
				}
			}()

			sess, err := buildSession(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if err := sess.Start(ctx); err != nil {
				return err
			}

			srv := server.New(sess)

			if cfg.Watch.Enabled {
				watcher, err := watch.NewSpellWatcher(cfg.SpellsDir, cfg.Watch.DebounceMS, func() {
					reg, err := spell.LoadDir(cfg.SpellsDir)
					if err != nil {
						logger.WithError(err).Error("Spell reload failed")
						return
					}
					for _, le := range reg.Errors() {
						logger.WithField("file", le.Path).WithError(le.Err).Warn("Skipping invalid spell")
					}
					sess.ReplaceRegistry(ctx, reg)
				})
				if err != nil {
					logger.WithError(err).Warn("Spell watching disabled")
				} else {
					defer watcher.Close()
					go watcher.Start(ctx)
				}
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-stop
				logger.Info("Received stop signal")
				cancel()

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Errorf("Server shutdown error: %v", err)
				}

				_ = pidfile.Release(pidPath)
				os.Exit(0)
			}()

			logger.WithField("pid", os.Getpid()).Info("Starting daemon")
			if err := srv.ListenAndServe(cfg.Server.Socket); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidPath := paths.PidFilePath()

			running, pid, err := pidfile.IsRunning(pidPath)
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}
			if !running {
				fmt.Println("Daemon is not running")
				return nil
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("failed to find process %d: %w", pid, err)
			}
			if err := process.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("failed to send stop signal: %w", err)
			}

			fmt.Printf("Sent SIGTERM to process %d\n", pid)
			return nil
		},
	}
}

func newDaemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidPath := paths.PidFilePath()
			running, pid, err := pidfile.IsRunning(pidPath)
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}

			if running {
				fmt.Printf("Running (PID: %d)\nSocket: %s\n", pid, paths.SocketPath())
			} else {
				fmt.Println("Stopped")
				os.Exit(1)
			}
			return nil
		},
	}
}
