package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marblesim/marble-game/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func serveCmd(opts *options) *cobra.Command {
	cfg := server.DefaultConfig()
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulation API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("log-level") && !opts.debug {
				opts.logLevel = "INFO"
			}
			logger, err := opts.logger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(cfg, logger)
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Start(ctx)
			})
			if metricsAddr != "" {
				g.Go(func() error {
					return serveMetrics(ctx, metricsAddr, srv.Metrics().Handler(), logger)
				})
			}

			err = g.Wait()
			logger.Info("server stopped")
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	f.StringVar(&metricsAddr, "metrics-addr", "", "Also expose /metrics on a separate listener")
	f.Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "Requests per second per client IP (0 disables)")
	f.IntVar(&cfg.RateBurst, "rate-burst", cfg.RateBurst, "Rate limiter burst size")
	f.IntVar(&cfg.MaxSimulations, "max-simulations", cfg.MaxSimulations, "Largest Monte Carlo request accepted")
	f.IntVar(&cfg.MaxDraws, "max-draws", cfg.MaxDraws, "Largest draw count accepted")
	f.IntVar(&cfg.MaxBuckets, "max-buckets", cfg.MaxBuckets, "Largest histogram bucket count accepted")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "Monte Carlo games run concurrently per request")
	f.StringSliceVar(&cfg.AllowedOrigins, "allowed-origins", cfg.AllowedOrigins, "WebSocket origins allowed to connect")
	return cmd
}

// serveMetrics runs a standalone metrics listener until ctx is done.
func serveMetrics(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
