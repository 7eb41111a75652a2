package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"HedgeRatio/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen, source string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the hedge ratio JSON API",
		Long: `Serve the calculator over HTTP.

Routes:
  GET /api/v1/hedge?spot=&futures=&start=&end=[&position_value=&futures_price=&contract_size=]
  GET /api/v1/hedge/plot.svg (same query)
  GET /api/v1/runs?limit=
  GET /healthz
  GET /metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if listen != "" {
				cfg.Server.Listen = listen
			}
			a, err := newApp(cfg, source, watchSymbols(cfg)...)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := &http.Server{
				Addr:              cfg.Server.Listen,
				Handler:           server.New(a.service, a.recorder, a.metrics).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("listen", srv.Addr).Msg("http server started")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			log.Info().Msg("shutdown signal received, stopping...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&source, "source", sourceAuto, "Data source: yahoo, vstrader or mock")
	return cmd
}
