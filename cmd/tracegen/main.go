// tracegen writes a synthetic Cooja test log for exercising ddr.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pion/logging"
	"github.com/urfave/cli/v2"

	"github.com/lars-sto/wsn-trace-stats/internal/sim"
	"github.com/lars-sto/wsn-trace-stats/internal/trace"
)

var (
	flagOut      = "out"
	flagNodes    = "nodes"
	flagDuration = "duration"
	flagRate     = "rate"
	flagLoss     = "loss"
	flagBurst    = "burst"
	flagDelay    = "delay"
	flagJitter   = "jitter"
	flagCapacity = "capacity"
	flagMaxQueue = "max-queue"
	flagSeed     = "seed"
	flagNodesCSV = "nodes-csv"
	flagVerbose  = "verbose"

	app = &cli.App{
		Name:   "tracegen",
		Usage:  "generate a synthetic Cooja test log from a packet-level link model",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagOut, Aliases: []string{"o"}, Usage: "output trace path", Value: trace.DefaultPath},
			&cli.IntFlag{Name: flagNodes, Usage: "number of sending motes", Value: 5},
			&cli.DurationFlag{Name: flagDuration, Usage: "simulated time", Value: 60 * time.Second},
			&cli.Float64Flag{Name: flagRate, Usage: "packets per second per mote", Value: 1},
			&cli.Float64Flag{Name: flagLoss, Usage: "Bernoulli loss probability", Value: 0.05},
			&cli.BoolFlag{Name: flagBurst, Usage: "use Gilbert-Elliott burst loss instead of Bernoulli"},
			&cli.DurationFlag{Name: flagDelay, Usage: "base one-way delay", Value: 40 * time.Millisecond},
			&cli.DurationFlag{Name: flagJitter, Usage: "max jitter around the base delay", Value: 10 * time.Millisecond},
			&cli.Float64Flag{Name: flagCapacity, Usage: "shared link capacity in bit/s", Value: 250_000},
			&cli.DurationFlag{Name: flagMaxQueue, Usage: "queue delay above which packets are dropped", Value: 500 * time.Millisecond},
			&cli.Int64Flag{Name: flagSeed, Usage: "random seed", Value: 1},
			&cli.StringFlag{Name: flagNodesCSV, Usage: "also write per-node ground truth to this CSV"},
			&cli.BoolFlag{Name: flagVerbose, Aliases: []string{"v"}, Usage: "debug logging on stderr"},
		},
	}
)

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "tracegen:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	lf := logging.NewDefaultLoggerFactory()
	lf.Writer = os.Stderr
	lf.DefaultLogLevel = logging.LogLevelInfo
	if c.Bool(flagVerbose) {
		lf.DefaultLogLevel = logging.LogLevelDebug
	}
	log := lf.NewLogger("tracegen")

	seed := c.Int64(flagSeed)
	sc := scenarioFromFlags(c, seed)

	out := c.String(flagOut)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}

	res, err := sim.Generate(f, sc, sim.GenerateOptions{Seed: seed, Logger: lf.NewLogger("sim")})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if path := c.String(flagNodesCSV); path != "" {
		if err := sim.WriteNodesCSV(path, res); err != nil {
			return err
		}
	}

	log.Infof("%s: scenario=%s sent=%d delivered=%d queue_drops=%d wire_drops=%d",
		out, res.Scenario, res.Sent, res.Delivered, res.QueueDrops, res.WireDrops)
	return nil
}

func scenarioFromFlags(c *cli.Context, seed int64) sim.Scenario {
	sc := sim.DefaultScenario(seed)
	if c.Bool(flagBurst) {
		sc = sim.BurstyScenario(seed)
	} else {
		sc.Link.Loss = sim.NewScheduledBernoulliLoss("bernoulli", seed, sim.ConstSchedule(c.Float64(flagLoss)))
	}

	sc.Nodes = c.Int(flagNodes)
	sc.Duration = c.Duration(flagDuration)
	sc.Sender.PacketRateHz = c.Float64(flagRate)
	sc.Link.BaseOneWayDelay = c.Duration(flagDelay)
	sc.Link.Jitter = c.Duration(flagJitter)
	sc.Link.CapacityBps = sim.ConstSchedule(c.Float64(flagCapacity))
	sc.Link.MaxQueueDelay = c.Duration(flagMaxQueue)
	return sc
}
