package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/relay"
	"github.com/derek2403/token2049/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat API and the notification websocket",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	opts := []server.Option{
		server.WithPollInterval(cfg.PollInterval),
		server.WithLogger(logger),
	}
	if a.balances != nil {
		opts = append(opts, server.WithBalances(a.balances))
	}
	srv := server.New(a.engine, opts...)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, addr)
	})
	if a.signer != nil {
		// Requests addressed to the signing wallet are logged as they arrive.
		g.Go(func() error {
			watchOperator(ctx, a.relay, a.signer.Address())
			return nil
		})
	}
	return g.Wait()
}

func watchOperator(ctx context.Context, r *relay.Relay, wallet string) {
	w := relay.NewWatcher(r,
		relay.WithInterval(cfg.PollInterval),
		relay.WithWatcherLogger(logger))
	w.Watch(ctx, wallet, func(rec core.NotificationRecord) {
		logger.Info("payment request received",
			zap.String("id", rec.ID),
			zap.String("from", rec.From),
			zap.String("amount", rec.Amount),
			zap.String("token", string(rec.TokenSymbol)))
	})
}
