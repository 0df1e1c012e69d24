package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/vk/bayesgrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// urlList collects a repeatable string flag.
type urlList []string

func (l *urlList) String() string { return strings.Join(*l, ",") }

func (l *urlList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// seedFlag is an optional uint64 flag.
type seedFlag struct {
	value *uint64
}

func (s *seedFlag) String() string {
	if s.value == nil {
		return ""
	}
	return strconv.FormatUint(*s.value, 10)
}

func (s *seedFlag) Set(v string) error {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return errors.New("must be an unsigned integer")
	}
	s.value = &n
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("bayesgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
bayesgrid - Likelihood-weighted sampling over discrete Bayesian networks.

Usage:
  bayesgrid [options] [NETWORK_PATH]

Arguments:
  NETWORK_PATH
    Path to a .hcl/.yaml network file or a directory containing them.

Options:
`)
		flagSet.PrintDefaults()
	}

	networkFlag := flagSet.String("network", "", "Path to the network file or directory.")
	nFlag := flagSet.String("n", "", "Path to the network file or directory (shorthand).")
	drawsFlag := flagSet.Int("draws", 0, fmt.Sprintf("Number of draws. 0 uses the network file's sampling block or %d.", app.DefaultDraws))
	workersFlag := flagSet.Int("workers", 0, fmt.Sprintf("Shards for parallel and offload modes. 0 uses the network file or %d.", app.DefaultWorkers))
	modeFlag := flagSet.String("mode", app.ModeLocal, "Sampling mode: "+strings.Join(app.Modes, ", ")+".")
	var workerURLs urlList
	flagSet.Var(&workerURLs, "worker-url", "socket.io worker URL for remote mode. Repeatable.")
	samplesCSVFlag := flagSet.String("samples-csv", "", "Write every draw to this CSV file.")
	saveSamplesFlag := flagSet.Bool("save-samples", false, "Retain every draw in memory.")
	dbFlag := flagSet.String("db", "", "SQLite file recording runs. Empty keeps them in memory.")
	var seed seedFlag
	flagSet.Var(&seed, "seed", "Seed for reproducible sampling.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *networkFlag != "" {
		path = *networkFlag
	} else if *nFlag != "" {
		path = *nFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Network path determined.", "path", path)

	if path == "" {
		slog.Debug("No network path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		NetworkPath:     path,
		Draws:           *drawsFlag,
		Workers:         *workersFlag,
		Mode:            strings.ToLower(*modeFlag),
		WorkerURLs:      workerURLs,
		SaveSamples:     *saveSamplesFlag,
		SamplesCSV:      *samplesCSVFlag,
		Seed:            seed.value,
		DBPath:          *dbFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
