package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/bayesgrid/internal/app"
	"github.com/vk/bayesgrid/internal/cli"
	"github.com/vk/bayesgrid/internal/config"
	"github.com/vk/bayesgrid/internal/hcl_adapter"
	"github.com/vk/bayesgrid/internal/yamlconfig"
)

// main is the entrypoint for the bayesgrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The real main function handles errors and exit codes.
	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLoader wires the network file formats into one loader.
func newLoader() config.Loader {
	yamlLoader := yamlconfig.NewLoader()
	loaders := map[string]config.Loader{hcl_adapter.Extension: hcl_adapter.NewLoader()}
	for _, ext := range yamlconfig.Extensions {
		loaders[ext] = yamlLoader
	}
	return config.NewMultiLoader(loaders)
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical startup errors, so we recover here to provide
	// a clean error to the caller.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	bayesApp := app.NewApp(outW, appConfig, newLoader())
	defer func() {
		err = errors.Join(err, bayesApp.Close())
	}()

	_, err = bayesApp.Run(ctx)
	return err
}
