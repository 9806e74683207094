package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pdfrag/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload, query and clear endpoints over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		svc, err := newService(cfg, logger)
		if err != nil {
			return err
		}
		srv := api.NewServer(svc, logger, api.Options{
			MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
			APIKey:         cfg.Server.APIKey,
		})
		httpServer := &http.Server{
			Addr:        cfg.Server.Addr,
			Handler:     srv,
			ReadTimeout: 60 * time.Second,
			// Answers stream for as long as the model runs.
			WriteTimeout: time.Duration(cfg.LLM.TimeoutSecs)*time.Second + time.Minute,
			IdleTimeout:  60 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting pdfrag", "addr", cfg.Server.Addr, "model", cfg.LLM.Model)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", "error", err)
		}
		return srv.Close(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config)")
	_ = v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}
