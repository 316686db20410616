package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/krau/remdit/client"
	"github.com/krau/remdit/client/ssh"
	"github.com/krau/remdit/config"
	"github.com/krau/remdit/fileutil"
	"github.com/spf13/cobra"
)

var errNoFile = errors.New("requires exactly one file argument")

type runOptions struct {
	out       io.Writer
	rng       *rand.Rand
	interrupt func(ctx context.Context) <-chan struct{}
}

var rootCmd = newRootCmd(runOptions{
	out:       os.Stdout,
	rng:       client.NewRand(),
	interrupt: notifyInterrupt,
})

func newRootCmd(opts runOptions) *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:           "remdit [flags] <file>",
		Short:         "A collaborative text editor for remote files",
		Example:       "remdit file.json",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			logger := log.Default()
			logger.SetTimeFormat("")
			logger.SetReportTimestamp(false)
			logger.SetReportCaller(false)
			if cmd.Flags().Changed("verbose") {
				logger.SetLevel(log.DebugLevel)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(log.WithContext(ctx, logger))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("version") {
				fmt.Fprintln(cmd.OutOrStdout(), "Remdit Version:", config.Version)
				fmt.Fprintln(cmd.OutOrStdout(), "Commit:", config.Commit)
				return nil
			}
			if len(args) != 1 {
				return errNoFile
			}
			cmd.SilenceUsage = true

			absFp, err := fileutil.ResolveTarget(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := config.LoadConfig(ctx, configFile); err != nil {
				return err
			}
			return run(ctx, config.C.Servers, absFp, opts)
		},
	}
	cmd.Flags().BoolP("verbose", "v", false, "enable verbose output")
	cmd.Flags().BoolP("version", "V", false, "print version information")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (default searches /etc/remdit, ~/.remdit and .)")
	cmd.AddCommand(newVersionCmd(), newUpgradeCmd())
	return cmd
}

func newTransport(ctx context.Context, server config.Server, fp string) client.Transport {
	if ssh.IsSSHAddr(server.Addr) {
		return ssh.NewClient(ctx, server, fp)
	}
	return client.NewClient(ctx, server, fp)
}

func run(ctx context.Context, servers []config.Server, fp string, opts runOptions) error {
	logger := log.FromContext(ctx)
	selectedServer, err := client.SelectServer(servers, opts.rng)
	if err != nil {
		return err
	}
	logger.Debug("selected server", "addr", selectedServer.Addr)

	t := newTransport(ctx, selectedServer, fp)
	sess, err := t.CreateSession(ctx)
	if err != nil {
		_ = t.Close(client.CloseGoingAway, err.Error())
		return fmt.Errorf("failed to create session on %s: %w", selectedServer.Addr, err)
	}
	logger.Debug("file uploaded successfully", "filepath", fp, "session", sess.ID)

	if err := t.Connect(ctx); err != nil {
		_ = t.Close(client.CloseGoingAway, err.Error())
		return fmt.Errorf("failed to connect to server %s: %w", selectedServer.Addr, err)
	}
	logger.Debug("connected to server", "addr", selectedServer.Addr)

	fmt.Fprintf(opts.out, "Edit URL for file %s: %s\nDO NOT SHARE TO STRANGERS!\n", filepath.Base(fp), sess.EditURL)

	logger.Debug("listening for server events")
	return client.Serve(ctx, t, opts.interrupt(ctx))
}

// notifyInterrupt delivers at most one notification when the process is interrupted.
func notifyInterrupt(ctx context.Context) <-chan struct{} {
	interrupt := make(chan struct{}, 1)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			interrupt <- struct{}{}
		case <-ctx.Done():
		}
	}()
	return interrupt
}

func Execute() error {
	ctx := log.WithContext(context.Background(), log.Default())
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.FromContext(ctx).Error(err)
		return err
	}
	return nil
}
