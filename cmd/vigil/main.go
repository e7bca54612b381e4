// Command vigil is a terminal viewer for a books library file. It re-reads
// the file on an interval, validates it and prints the library whenever it
// changes.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/zoobzio/capitan"

	"github.com/zoobzio/vigil"
)

var version = "dev"

// CLI is the command line of vigil. Every flag can also be set through the
// environment or a .env file in the working directory.
type CLI struct {
	Verbose bool `short:"v" help:"Enable verbose logging" env:"VIGIL_VERBOSE"`

	Watch   WatchCmd `cmd:"" help:"Watch a books file and print it whenever it changes"`
	Check   CheckCmd `cmd:"" help:"Parse and validate a books file once"`
	Version struct{} `cmd:"" help:"Print the version"`
}

// WatchCmd holds the flags of "vigil watch".
type WatchCmd struct {
	File         string        `short:"f" required:"" help:"Books file to watch (.json or .yaml)" env:"VIGIL_FILE"`
	Format       string        `enum:"auto,json,yaml" default:"auto" help:"File format; auto picks it from the extension" env:"VIGIL_FORMAT"`
	Interval     time.Duration `short:"i" default:"2s" help:"Polling interval" env:"VIGIL_INTERVAL"`
	AutoPromote  bool          `help:"Accept valid changes as soon as they are read" env:"VIGIL_AUTO_PROMOTE"`
	MetricsAddr  string        `help:"Serve Prometheus metrics on this address, e.g. :9090" env:"VIGIL_METRICS_ADDR"`
	NoWatch      bool          `help:"Only poll; do not reload immediately on file system events" env:"VIGIL_NO_WATCH"`
	Retries      int           `default:"3" help:"Parse attempts per cycle before reporting a failure" env:"VIGIL_RETRIES"`
	ParseTimeout time.Duration `default:"5s" help:"Upper bound for reading one file version; 0 disables it" env:"VIGIL_PARSE_TIMEOUT"`
}

// CheckCmd holds the flags of "vigil check".
type CheckCmd struct {
	File   string `short:"f" required:"" help:"Books file to check" env:"VIGIL_FILE"`
	Format string `enum:"auto,json,yaml" default:"auto" help:"File format; auto picks it from the extension" env:"VIGIL_FORMAT"`
}

func main() {
	// A missing .env is fine; variables already set in the environment win.
	_ = godotenv.Load()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("vigil"),
		kong.Description("Periodically re-read, validate and display a books library file."),
		kong.UsageOnError(),
	)

	logger := newLogger(os.Stderr, cli.Verbose)
	slog.SetDefault(logger)
	hookSignals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, kctx.Command(), &cli, os.Stdout)
	stop()
	capitan.Shutdown()

	if err != nil {
		slog.Error("vigil failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, cli *CLI, out io.Writer) error {
	switch command {
	case "watch":
		return runWatch(ctx, cli.Watch, out)
	case "check":
		return runCheck(ctx, cli.Check, out)
	case "version":
		_, err := fmt.Fprintf(out, "vigil %s\n", version)
		return err
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// codecFor maps the --format flag to a codec. "auto" leaves the choice to
// the file extension.
func codecFor(format string) (vigil.Codec, error) {
	if format == "" || format == "auto" {
		return nil, nil
	}
	return vigil.CodecFor(format)
}
