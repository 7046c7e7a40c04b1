package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"submix/internal/httpapi"
	"submix/internal/logger"
	"submix/internal/metrics"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the conversion HTTP API",
	Long: `Starts an HTTP server exposing:

  GET  /healthz
  GET  /metrics
  GET  /convert?link=...&sub=...&mode=whitelist|blacklist&detail=full|simple
  POST /convert   (body: links or a base64 subscription)`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if serveListen != "" {
			cfg.Server.Listen = serveListen
		}

		decorate := cfg.GeoIP.Enabled && initGeoIP(cfg)
		m := metrics.New()

		handler := httpapi.NewHandler(httpapi.Options{
			Generator:        newGenerator(cfg),
			Fetcher:          newFetcher(cfg),
			Metrics:          m,
			Dedupe:           cfg.Generator.Dedupe,
			Decorate:         decorate,
			MaxBodyBytes:     cfg.Server.MaxBodyBytes,
			MaxSubscriptions: cfg.Server.MaxSubscriptions,
			ConvertTimeout:   cfg.Server.WriteTimeout,
		})

		srv := &http.Server{
			Addr:         cfg.Server.Listen,
			Handler:      handler,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Log.Infof("🚀 Listening on %s", cfg.Server.Listen)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Log.Fatalf("Server failed: %v", err)
			}
			return
		case <-ctx.Done():
		}

		logger.Log.Info("🛑 Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Errorf("Shutdown failed: %v", err)
		}
		if verbose {
			m.PrintReport(os.Stderr)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}
