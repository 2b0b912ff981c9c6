package stats

import (
	"encoding/json"
	"fmt"

	"github.com/pion/logging"
)

const (
	// DefaultMaxDelay is the exclusive upper bound on an accepted delay, in
	// trace time units.
	DefaultMaxDelay int64 = 10000

	// DefaultRuns normalizes the per-run averages (ten simulation runs per
	// concatenated trace).
	DefaultRuns = 10
)

// MatchMode selects how a receive line is tied to a send destination.
type MatchMode string

const (
	// MatchSubstring accepts any line containing "RecvData <dest>", so
	// "RecvData 1" also matches a line with "RecvData 17".
	MatchSubstring MatchMode = "substring"
	// MatchField requires the field right after a "RecvData" field to equal
	// dest exactly.
	MatchField MatchMode = "field"
)

func ParseMatchMode(s string) (MatchMode, error) {
	switch m := MatchMode(s); m {
	case MatchSubstring, MatchField:
		return m, nil
	case "":
		return MatchSubstring, nil
	default:
		return "", fmt.Errorf("%w: %q", errBadMatchMode, s)
	}
}

type Options struct {
	MaxDelay int64
	Runs     int
	Match    MatchMode
	Logger   logging.LeveledLogger
}

func DefaultOptions() Options {
	return Options{
		MaxDelay: DefaultMaxDelay,
		Runs:     DefaultRuns,
		Match:    MatchSubstring,
	}
}

func (o Options) validate() error {
	if o.Runs <= 0 {
		return errBadRuns
	}
	if o.MaxDelay <= 0 {
		return errBadMaxDelay
	}
	if _, err := ParseMatchMode(string(o.Match)); err != nil {
		return err
	}
	return nil
}

func (o Options) logger() logging.LeveledLogger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.NewDefaultLoggerFactory().NewLogger("stats")
}

// Mean is an average that may be undefined because nothing was counted.
type Mean struct {
	Value float64
	Valid bool
}

func meanOf(sum float64, n int64) Mean {
	if n <= 0 {
		return Mean{}
	}
	return Mean{Value: sum / float64(n), Valid: true}
}

// Float returns the value or ErrNoData.
func (m Mean) Float() (float64, error) {
	if !m.Valid {
		return 0, ErrNoData
	}
	return m.Value, nil
}

// Div scales a valid mean; an invalid mean stays invalid.
func (m Mean) Div(d float64) Mean {
	if !m.Valid || d == 0 {
		return Mean{}
	}
	return Mean{Value: m.Value / d, Valid: true}
}

func (m Mean) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m Mean) MarshalYAML() (any, error) {
	if !m.Valid {
		return nil, nil
	}
	return m.Value, nil
}

// Counter is a running sum over report lines of one kind.
type Counter struct {
	Sum     int64 `json:"sum" yaml:"sum"`
	Reports int64 `json:"reports" yaml:"reports"`
}

func (c *Counter) Add(v int64) {
	c.Sum += v
	c.Reports++
}

func (c Counter) Mean() Mean { return meanOf(float64(c.Sum), c.Reports) }

// Delivery is the outcome of matching send events to receive events.
type Delivery struct {
	Sent       int64
	Received   int64
	Lost       int64
	TotalDelay int64

	Ratio     Mean
	MeanDelay Mean

	DelayP50 Mean
	DelayP95 Mean
	DelayP99 Mean
}

// Resources holds the per-kind report sums.
type Resources struct {
	QueueLoss    Counter
	DutyCycle    Counter
	ICMP         Counter
	ParentChange Counter
}

// Result is everything one analysis produces.
type Result struct {
	Trace string `json:"trace" yaml:"trace"`

	Sent       int64 `json:"sent" yaml:"sent"`
	Received   int64 `json:"received" yaml:"received"`
	Lost       int64 `json:"lost" yaml:"lost"`
	TotalDelay int64 `json:"total_delay" yaml:"total_delay"`

	DeliveryRatio Mean `json:"delivery_ratio" yaml:"delivery_ratio"`
	MeanDelay     Mean `json:"mean_delay" yaml:"mean_delay"`
	DelayP50      Mean `json:"delay_p50" yaml:"delay_p50"`
	DelayP95      Mean `json:"delay_p95" yaml:"delay_p95"`
	DelayP99      Mean `json:"delay_p99" yaml:"delay_p99"`

	QueueLoss    Counter `json:"queue_loss" yaml:"queue_loss"`
	DutyCycle    Counter `json:"duty_cycle" yaml:"duty_cycle"`
	ICMP         Counter `json:"icmp_packets" yaml:"icmp_packets"`
	ParentChange Counter `json:"parent_change" yaml:"parent_change"`

	AvgQueueLoss    Mean `json:"avg_queue_loss" yaml:"avg_queue_loss"`
	AvgDutyCycle    Mean `json:"avg_duty_cycle" yaml:"avg_duty_cycle"`
	AvgICMP         Mean `json:"avg_icmp_packets" yaml:"avg_icmp_packets"`
	AvgParentChange Mean `json:"avg_parent_change" yaml:"avg_parent_change"` // not in the console report

	Runs       int  `json:"runs" yaml:"runs"`
	RecvPerRun Mean `json:"recv_per_run" yaml:"recv_per_run"`
	LossPerRun Mean `json:"loss_per_run" yaml:"loss_per_run"`
	ICMPPerRun Mean `json:"icmp_per_run" yaml:"icmp_per_run"`
}
