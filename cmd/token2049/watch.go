package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/intent"
	"github.com/derek2403/token2049/relay"
)

var watchWallet string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print payment requests addressed to a wallet as they arrive",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchWallet, "wallet", "w", "", "wallet address to watch")
	_ = watchCmd.MarkFlagRequired("wallet")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !intent.IsAddress(watchWallet) {
		return errors.Wrapf(core.ErrValidation, "invalid wallet address %q", watchWallet)
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	defer a.Close()
	r, err := a.newRelay(ctx, cfg.Store)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Watching payment requests for %s (Ctrl-C to stop)\n", watchWallet)
	w := relay.NewWatcher(r,
		relay.WithInterval(cfg.PollInterval),
		relay.WithWatcherLogger(logger))
	w.Watch(ctx, watchWallet, func(rec core.NotificationRecord) {
		fmt.Fprintln(out, formatRequest(rec))
	})
	return nil
}

func formatRequest(rec core.NotificationRecord) string {
	from := rec.From
	if rec.FromName != "" {
		from = fmt.Sprintf("%s (%s)", rec.FromName, rec.From)
	}
	line := fmt.Sprintf("[%s] %s requests %s %s", rec.ID, from, rec.Amount, rec.TokenSymbol)
	if rec.Description != "" {
		line += " for " + rec.Description
	}
	return line
}
