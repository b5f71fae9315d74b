// wasset packs a directory of assets into a WebAssembly module's custom
// section and inspects modules that carry one.
//
// Usage:
//
//	wasset [--config FILE] [--verbose] [--log-format console|json] COMMAND [flags]
//
// Commands:
//
//	encode   build the asset section and write it to a file
//	embed    build the asset section and splice it into a module
//	gen      generate Go identifiers for every asset
//	list     list the assets embedded in a module
//	cat      write one embedded asset to stdout
//	strip    remove the asset section from a module
//	browse   interactively browse embedded assets
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasset/config"
	"github.com/wippyai/wasset/encoder"
	"github.com/wippyai/wasset/engine"
	"github.com/wippyai/wasset/manifest"
	"github.com/wippyai/wasset/schema"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries state shared by every command.
type app struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
	log    *zap.Logger
}

type command struct {
	run     func(ctx context.Context, a *app, args []string) error
	summary string
}

var commands = map[string]command{
	"encode": {runEncode, "build the asset section and write it to a file"},
	"embed":  {runEmbed, "build the asset section and splice it into a module"},
	"gen":    {runGen, "generate Go identifiers for every asset"},
	"list":   {runList, "list the assets embedded in a module"},
	"cat":    {runCat, "write one embedded asset to stdout"},
	"strip":  {runStrip, "remove the asset section from a module"},
	"browse": {runBrowse, "interactively browse embedded assets"},
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		configPath string
		verbose    bool
		logFormat  string
	)
	flags := pflag.NewFlagSet("wasset", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.SetInterspersed(false)
	flags.StringVar(&configPath, "config", "", "config file (default: $"+config.EnvVar+")")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log debug output")
	flags.StringVar(&logFormat, "log-format", "console", "log format: console or json")
	flags.Usage = func() { printUsage(stderr, flags) }

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	rest := flags.Args()
	if len(rest) == 0 || rest[0] == "help" {
		printUsage(stderr, flags)
		if len(rest) == 0 {
			return fmt.Errorf("no command given")
		}
		return nil
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", rest[0])
	}

	log, err := newLogger(stderr, logFormat, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	manifest.SetLogger(log.Named("manifest"))
	encoder.SetLogger(log.Named("encoder"))
	engine.SetLogger(log.Named("engine"))

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	a := &app{stdout: stdout, stderr: stderr, cfg: cfg, log: log}
	return cmd.run(ctx, a, rest[1:])
}

func newLogger(w io.Writer, format string, verbose bool) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	}

	var enc zapcore.Encoder
	switch format {
	case "json":
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "console":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q (want console or json)", format)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level)), nil
}

func printUsage(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: wasset [global flags] COMMAND [flags]\n\nCommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, "\nGlobal flags:\n")
	flags.PrintDefaults()
}

// newFlagSet returns a sub-command flag set printing usage to a.stderr.
func (a *app) newFlagSet(name, usage string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: wasset %s %s\n\nFlags:\n", name, usage)
		fs.PrintDefaults()
	}
	return fs
}

// parse parses args and reports whether the command should continue.
func parse(fs *pflag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// adapter returns the reference schema adapter configured from a.cfg.
func (a *app) adapter() (schema.Adapter, error) {
	comp, err := schema.ParseCompression(a.cfg.Compression)
	if err != nil {
		return schema.Adapter{}, err
	}
	exts := make([]string, len(a.cfg.Extensions))
	for i, e := range a.cfg.Extensions {
		exts[i] = strings.ToLower(strings.TrimPrefix(e, "."))
	}
	return schema.Adapter{Extensions: exts, Compression: comp}, nil
}
