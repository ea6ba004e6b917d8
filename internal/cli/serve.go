package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/terriblecrypt/terrible/internal/config"
	"github.com/terriblecrypt/terrible/internal/errors"
	"github.com/terriblecrypt/terrible/internal/server"
)

// runServe starts the HTTP API and blocks until shutdown.
func runServe() error {
	cfg := config.Get()

	ring, err := openRing()
	if err != nil {
		return err
	}
	defer ring.Close()

	srv := server.New(cfg, ring)

	log.Info().
		Str("addr", cfg.GetServeAddr()).
		Bool("h2c", cfg.IsH2CEnabled()).
		Str("data_dir", dataDir()).
		Msg("Configuration loaded")

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Received shutdown signal")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Error during shutdown")
		}
	}()

	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		return errors.NewInternalWithCause("server error", err)
	}
	return nil
}
