//go:build !tinygo

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"cbos/app"
	"cbos/hal"
	"cbos/internal/buildinfo"
	"cbos/internal/config"
)

type runFlags struct {
	configPath string
	headless   bool
	hz         int
	ticks      uint64
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	var f runFlags
	run := func(cmd *cobra.Command, _ []string) error {
		return runSystem(cmd, f)
	}

	root := &cobra.Command{
		Use:           "cbos",
		Short:         "Interrupt-driven cooperative kernel on a simulated PC",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.PersistentFlags().StringVar(&f.configPath, "config", "", "TOML configuration file")
	root.PersistentFlags().BoolVar(&f.headless, "headless", false, "run in the terminal instead of a window")
	root.PersistentFlags().IntVar(&f.hz, "hz", 0, "timer interrupt rate (overrides kernel.tick_hz)")
	root.PersistentFlags().Uint64Var(&f.ticks, "ticks", 0, "stop after N frames in headless mode (0 = run until exit)")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "log level (overrides log.level)")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Boot the kernel (default)",
		Args:  cobra.NoArgs,
		RunE:  run,
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the build",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cbos %s (commit %s, built %s)\n", buildinfo.Short(), buildinfo.Commit, buildinfo.Date)
		},
	})
	return root
}

func runSystem(cmd *cobra.Command, f runFlags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if f.hz != 0 {
		cfg.Kernel.TickHz = f.hz
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	host := hal.HostConfig{PITHz: cfg.Kernel.TickHz, Log: cmd.ErrOrStderr()}
	if !f.headless {
		host.Serial = cmd.OutOrStdout()
		return hal.RunWindow(app.Factory(cfg), hal.WindowConfig{
			Host:  host,
			Scale: cfg.Host.Scale,
			TPS:   cfg.Host.FrameHz,
		})
	}

	var opts []app.Option
	if isTerminal(os.Stdout) {
		opts = append(opts, app.WithMirror(os.Stdout), app.WithoutFramebuffer())
		if isTerminal(os.Stderr) {
			// Log lines would tear the mirrored screen; they still reach the
			// kernel area.
			host.Log = io.Discard
		}
	} else {
		opts = append(opts, app.WithTee(os.Stdout), app.WithoutFramebuffer())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return hal.RunHeadless(ctx, app.Factory(cfg, opts...), hal.HeadlessConfig{
		Host:  host,
		Hz:    cfg.Host.FrameHz,
		Ticks: f.ticks,
		Input: os.Stdin,
	})
}

// exitCode maps a run result to the process status, printing the errors that
// are not a clean power off.
func exitCode(err error) int {
	var off *hal.ShutdownError
	switch {
	case errors.As(err, &off):
		return off.Code
	case errors.Is(err, hal.ErrHostQuit), errors.Is(err, context.Canceled):
		return 0
	}
	msg := color.New(color.FgRed, color.Bold)
	if !isTerminal(os.Stderr) {
		msg.DisableColor()
	}
	msg.Fprintln(os.Stderr, "cbos:", err)
	if errors.Is(err, hal.ErrHalted) {
		return 2
	}
	return 1
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
