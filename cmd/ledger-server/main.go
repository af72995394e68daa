// Command ledger-server runs the optional, read-only HTTP API over
// whatever storage backend is configured. It never accepts deposit,
// withdrawal, dispute, resolve or chargeback requests over the network;
// those only ever arrive through the cmd/ledger CSV-processing path.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledgerengine/internal/app"
	"ledgerengine/internal/config"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	container, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ledger-server: initialize application: %v\n", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:           cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:        container.Router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	container.Logger.Info("starting http server", map[string]interface{}{"address": server.Addr})
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("server failed", err, nil)
			os.Exit(1)
		}
	}()

	waitForShutdown(container, server)
}

func waitForShutdown(container *app.Container, server *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("shutting down server", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		container.Logger.Error("server forced to shutdown", err, nil)
	}
	if err := container.Shutdown(ctx); err != nil {
		container.Logger.Error("application shutdown failed", err, nil)
	}
	container.Logger.Info("server shutdown complete", nil)
}
