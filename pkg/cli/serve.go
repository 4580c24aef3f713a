package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/robert-radu/tablecmd/internal/api"
	"github.com/robert-radu/tablecmd/internal/command"
	"github.com/robert-radu/tablecmd/internal/fspath"
	"github.com/robert-radu/tablecmd/internal/metastore"
	"github.com/robert-radu/tablecmd/internal/middleware"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP statement API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.ListenAddr = listenAddr
			}
			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			}))

			store, err := metastore.Open(cfg.MetastorePath, metastore.Options{
				DefaultDatabase: cfg.DefaultDatabase,
				WarehouseDir:    cfg.WarehouseDir,
			})
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			resolver, err := fspath.New(cfg.DefaultFS)
			if err != nil {
				return err
			}
			executor := command.NewExecutor(store, resolver, logger)

			var limiter *middleware.RateLimiter
			if cfg.RateLimitRPS > 0 {
				limiter = middleware.NewRateLimiter(cfg)
				defer limiter.Close()
			}
			router := api.NewRouter(api.NewHandler(executor, logger), limiter)

			server := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info("HTTP API listening", "addr", cfg.ListenAddr)
				if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				logger.Info("shutting down")
				return server.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides config)")
	return cmd
}
