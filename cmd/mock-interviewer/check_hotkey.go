package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chaz8081/mock-interviewer/internal/hotkey"
)

var checkHotkeyCmd = &cobra.Command{
	Use:   "check-hotkey",
	Short: "Print a line for every push-to-talk hotkey press",
	Long:  "Listen for the configured hotkey and report presses, to confirm the global key hook works. Press Ctrl+C to exit.",
	Args:  cobra.NoArgs,
	RunE:  runCheckHotkey,
}

func init() {
	rootCmd.AddCommand(checkHotkeyCmd)
}

func runCheckHotkey(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener := hotkey.NewListener(cfg.Hotkey.Keys, log)
	fmt.Fprintf(cmd.OutOrStdout(), "Listening for %s. Press Ctrl+C to exit.\n", strings.Join(cfg.Hotkey.Keys, "+"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return listener.Run(gctx) })
	g.Go(func() error {
		n := 0
		return hotkey.Trigger(gctx, listener.Presses(), func(context.Context) {
			n++
			fmt.Fprintf(cmd.OutOrStdout(), ">>> press %d\n", n)
		})
	})
	return g.Wait()
}
