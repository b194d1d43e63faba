// Command a11yscan starts the accessibility scanning API server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avelines/a11yscan/internal/app"
	"github.com/avelines/a11yscan/internal/cli"
	"github.com/avelines/a11yscan/internal/logging"
	"github.com/avelines/a11yscan/internal/server"
)

func main() {
	logger := logging.NewStdoutLogger("a11yscan")

	args, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		logger.Error("parsing arguments", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(2)
	}

	appCfg := app.DefaultConfig()
	if args.Storage != "" {
		appCfg.StorageRoot = args.Storage
	}
	appCfg.CaptureScreenshots = args.Screenshots

	srv, err := server.NewServer(server.Config{
		ListenAddr: args.Listen,
		AppConfig:  appCfg,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("starting server", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}

	httpSrv := srv.HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", logging.Field{Key: "addr", Value: args.Listen})
		errCh <- httpSrv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("server stopped", logging.Field{Key: "error", Value: err.Error()})
		srv.Close()
		os.Exit(1)
	case sig := <-sigCh:
		logger.Info("shutting down", logging.Field{Key: "signal", Value: sig.String()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", logging.Field{Key: "error", Value: err.Error()})
	}

	// Waits for in-flight scans before closing the database.
	srv.Close()
}
