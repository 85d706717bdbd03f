package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"sleipnir/internal/book"
	"sleipnir/internal/common"
	"sleipnir/internal/config"
	"sleipnir/internal/engine"
	"sleipnir/internal/metrics"
	sleipnirnet "sleipnir/internal/net"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the matching engine's TCP server and metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "sleipnir.yaml", "path to configuration file")
	return cmd
}

func runServe(configPath string) error {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	bookCfgs := make([]book.Config, 0, len(cfg.Books))
	books := make(map[string]*book.Book, len(cfg.Books))
	for _, bc := range cfg.Books {
		bookCfgs = append(bookCfgs, bc.Book())
	}

	collectors := metrics.NewCollectors(prometheus.DefaultRegisterer)
	reporter := metrics.NewReporter(collectors)

	eng := engine.New(bookCfgs, common.SystemClock{}, reporter)
	for _, symbol := range eng.Symbols() {
		b, _ := eng.Book(symbol)
		books[symbol] = b
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	depthStop := make(chan struct{})
	go metrics.RunDepthSampler(collectors, books, 2*time.Second, depthStop)
	defer close(depthStop)

	srv := sleipnirnet.New(cfg.Server.Address, cfg.Server.Port, cfg.Metrics.Address, eng)

	log.Info().Strs("symbols", eng.Symbols()).Msg("starting sleipnir")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		srv.Shutdown()
		return <-errCh
	case err := <-errCh:
		return err
	}
}
