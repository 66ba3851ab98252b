package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shareustc/shareustc"
	shttp "github.com/shareustc/shareustc/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the shareustc HTTP API. SIGINT or SIGTERM drains in-flight requests before exit.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port (env: SHAREUSTC_SERVER_PORT)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	codec, err := shareustc.NewTokenCodec(a.cfg.Auth.TokenConfig(), shareustc.SystemClock{})
	if err != nil {
		return fmt.Errorf("create token codec: %w", err)
	}

	handler := shttp.NewHandler(&shttp.HandlerConfig{
		Authenticator: shareustc.NewAuthenticator(codec, nil),
		Tokens:        codec,
		Bucket: shttp.BucketInfo{
			Bucket:   a.client.Bucket(),
			Region:   a.client.Region(),
			Endpoint: a.client.Endpoint(),
		},
		CORS: a.cfg.CORS,
	}, a.service)

	addr := fmt.Sprintf(":%d", a.cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server",
		"addr", addr,
		"bucket", a.client.Bucket(),
		"region", a.client.Region(),
		"access_ttl", a.cfg.Auth.AccessTTL,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
