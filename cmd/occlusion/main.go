package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/kacperjurak/goocclusion/internal/cli"
	"github.com/kacperjurak/goocclusion/internal/logging"
	"github.com/kacperjurak/goocclusion/pkg/config"
)

var version = "0.1.0"

// CLI defines the command-line interface
type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version information"`

	Root      string  `short:"r" type:"path" default:"${root}" help:"Data directory holding reference/, measurements/ and occlusion_data/"`
	FreqLow   float64 `default:"${freq_low}" help:"Lower bound of the analysed band in Hz"`
	FreqHigh  float64 `default:"${freq_high}" help:"Upper bound of the analysed band in Hz"`
	Reference string  `default:"${reference}" help:"Reference file by 1-based number or name (prompted when ambiguous)"`
	LogFormat string  `enum:"console,json" default:"${log_format}" help:"Log output format"`
	Debug     bool    `help:"Enable debug logging"`
	Quiet     bool    `short:"q" help:"Only log warnings and errors"`

	Simulate SimulateCmd `cmd:"" default:"1" help:"Simulate transfer functions and render figures"`
	Fit      FitCmd      `cmd:"" help:"Fit earmuff geometry lengths to each measurement campaign"`
	Serve    ServeCmd    `cmd:"" help:"Serve the simulation HTTP API"`
}

// app is handed to every command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func vars(cfg *config.Config, srv *config.ServerConfig) kong.Vars {
	return kong.Vars{
		"version":    version,
		"root":       cfg.Root,
		"freq_low":   strconv.FormatFloat(cfg.FreqLow, 'g', -1, 64),
		"freq_high":  strconv.FormatFloat(cfg.FreqHigh, 'g', -1, 64),
		"reference":  cfg.Reference,
		"log_format": cfg.LogFormat,
		"figures":    cfg.FiguresFile,
		"out":        cfg.OutDir,
		"format":     cfg.Format,
		"webhook":    cfg.WebhookURL,
		"fractions":  strconv.Itoa(cfg.Fractions),
		"method":     cfg.OptimMethod,
		"port":       srv.Port,
		"workers":    strconv.Itoa(srv.WorkerCount),
		"pprof_port": srv.ProfilingPort,
	}
}

func main() {
	// Environment overrides the defaults, flags override both.
	cfg := config.DefaultConfig()
	cfg.ApplyEnv()
	srv := config.DefaultServerConfig()
	srv.ApplyEnv()

	cliArgs := &CLI{}
	kctx := kong.Parse(cliArgs,
		kong.Name("occlusion"),
		kong.Description("Ear canal occlusion effect modeller"),
		kong.UsageOnError(),
		vars(cfg, srv),
	)

	cfg.Root = cliArgs.Root
	cfg.FreqLow, cfg.FreqHigh = cliArgs.FreqLow, cliArgs.FreqHigh
	cfg.Reference = cliArgs.Reference
	cfg.LogFormat = cliArgs.LogFormat
	cfg.Debug, cfg.Quiet = cliArgs.Debug, cliArgs.Quiet

	logger := logging.New(
		logging.WithFormat(cfg.LogFormat),
		logging.WithQuiet(cfg.Quiet),
		logging.WithDebug(cfg.Debug),
	)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, logger: logger}
	kctx.BindTo(ctx, (*context.Context)(nil))
	if err := kctx.Run(a, srv); err != nil {
		cli.PrintError(err.Error())
		logger.Sync()
		os.Exit(1)
	}
}
