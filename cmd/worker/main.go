// Command worker serves sampling requests to remote bayesgrid clients over
// socket.io.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vk/bayesgrid/internal/ctxlog"
	"github.com/vk/bayesgrid/internal/socketworker"
	"github.com/vk/bayesgrid/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Args[1:], nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run serves until ctx is done. When ready is non-nil the bound address is
// sent on it once the listener is up.
func run(ctx context.Context, outW io.Writer, args []string, ready chan<- string) error {
	flagSet := flag.NewFlagSet("bayesgrid-worker", flag.ContinueOnError)
	flagSet.SetOutput(outW)
	listenFlag := flagSet.String("listen", ":8080", "Address to listen on.")
	poolFlag := flagSet.Int("pool", 4, "Number of sampling goroutines.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevelFlag)); err != nil {
		return fmt.Errorf("invalid log-level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	var logger *slog.Logger
	if *logFormatFlag == "json" {
		logger = slog.New(slog.NewJSONHandler(outW, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(outW, opts))
	}
	ctx = ctxlog.WithLogger(ctx, logger)

	pool := worker.NewLocal(ctx, *poolFlag)
	defer pool.Close()
	srv := socketworker.NewServer(ctx, pool)
	defer srv.Close()

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", srv.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})

	ln, err := net.Listen("tcp", *listenFlag)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", *listenFlag, err)
	}
	httpServer := &http.Server{Handler: mux}
	logger.Info("Sampling worker listening.", "address", ln.Addr().String(), "pool", *poolFlag)
	if ready != nil {
		ready <- ln.Addr().String()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("worker server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down sampling worker...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
