// ddr computes delivery ratio, end-to-end delay and per-node resource
// averages from a Cooja test log.
package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/pion/logging"
	"github.com/urfave/cli/v2"

	"github.com/lars-sto/wsn-trace-stats/internal/config"
	"github.com/lars-sto/wsn-trace-stats/internal/report"
	"github.com/lars-sto/wsn-trace-stats/internal/stats"
	"github.com/lars-sto/wsn-trace-stats/internal/trace"
)

var (
	flagLog        = "log"
	flagConfig     = "config"
	flagRuns       = "runs"
	flagMaxDelay   = "max-delay"
	flagMatch      = "match"
	flagFormat     = "format"
	flagSummaryCSV = "summary-csv"
	flagProm       = "prom"
	flagVerbose    = "verbose"

	app = &cli.App{
		Name:   "ddr",
		Usage:  "compute delivery ratio, delay and resource averages from a Cooja test log",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagLog,
				Aliases: []string{"l"},
				Usage:   "trace file to analyze",
				Value:   trace.DefaultPath,
			},
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "optional YAML config; flags override it",
			},
			&cli.IntFlag{
				Name:  flagRuns,
				Usage: "number of simulation runs the per-run averages are divided by",
				Value: stats.DefaultRuns,
			},
			&cli.Int64Flag{
				Name:  flagMaxDelay,
				Usage: "exclusive upper bound on an accepted end-to-end delay",
				Value: stats.DefaultMaxDelay,
			},
			&cli.StringFlag{
				Name:  flagMatch,
				Usage: "receive matching: substring (RecvData <dest> anywhere in the line) or field",
				Value: string(stats.MatchSubstring),
			},
			&cli.StringFlag{
				Name:  flagFormat,
				Usage: "stdout format: text, yaml or json",
				Value: string(report.FormatText),
			},
			&cli.StringFlag{
				Name:  flagSummaryCSV,
				Usage: "also write a summary CSV to this path",
			},
			&cli.StringFlag{
				Name:  flagProm,
				Usage: "also write a Prometheus textfile to this path",
			},
			&cli.BoolFlag{
				Name:    flagVerbose,
				Aliases: []string{"v"},
				Usage:   "debug logging on stderr",
			},
		},
	}
)

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ddr:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) (err error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	lf := logging.NewDefaultLoggerFactory()
	lf.Writer = os.Stderr
	lf.DefaultLogLevel = logging.LogLevelWarn
	if cfg.Verbose {
		lf.DefaultLogLevel = logging.LogLevelDebug
	}
	log := lf.NewLogger("ddr")

	src, err := trace.OpenFile(cfg.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	opt := cfg.StatsOptions()
	opt.Logger = lf.NewLogger("stats")

	log.Debugf("analyzing %s (runs=%d max-delay=%d match=%s)", cfg.Log, opt.Runs, opt.MaxDelay, opt.Match)
	res, err := stats.Analyze(ctx, src, opt)
	if err != nil {
		return err
	}

	// Output files are only created once the analysis succeeded.
	sink, err := buildSink(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			log.Errorf("closing outputs: %v", cerr)
			if err == nil {
				err = cerr
			}
		}
	}()
	return sink.OnResult(res)
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}

	// Flags win over the file, but only when given explicitly.
	if c.IsSet(flagLog) || c.String(flagConfig) == "" {
		cfg.Log = c.String(flagLog)
	}
	if c.IsSet(flagRuns) {
		cfg.Runs = c.Int(flagRuns)
	}
	if c.IsSet(flagMaxDelay) {
		cfg.MaxDelay = c.Int64(flagMaxDelay)
	}
	if c.IsSet(flagMatch) {
		cfg.Match = c.String(flagMatch)
	}
	if c.IsSet(flagFormat) {
		cfg.Format = c.String(flagFormat)
	}
	if c.IsSet(flagSummaryCSV) {
		cfg.SummaryCSV = c.String(flagSummaryCSV)
	}
	if c.IsSet(flagProm) {
		cfg.Prom = c.String(flagProm)
	}
	if c.IsSet(flagVerbose) {
		cfg.Verbose = c.Bool(flagVerbose)
	}
	return cfg, nil
}

func buildSink(cfg config.Config) (report.Sink, error) {
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	sinks := []report.Sink{report.NewWriterSink(os.Stdout, format)}

	if cfg.SummaryCSV != "" {
		w, err := report.NewSummaryCSVWriter(cfg.SummaryCSV)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, w)
	}
	if cfg.Prom != "" {
		sinks = append(sinks, report.NewPromExporter(cfg.Prom))
	}
	return report.Multi(sinks...), nil
}
