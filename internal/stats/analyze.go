package stats

import (
	"context"
	"time"

	"github.com/lars-sto/wsn-trace-stats/internal/trace"
)

// Analyze runs the delivery pass and then the resource pass over src and
// derives the averages. Any error aborts the run; no partial result is
// returned.
func Analyze(ctx context.Context, src trace.Source, opt Options) (Result, error) {
	if err := opt.validate(); err != nil {
		return Result{}, err
	}
	log := opt.logger()

	start := time.Now()
	d, err := AnalyzeDelivery(ctx, src, opt)
	if err != nil {
		return Result{}, err
	}
	log.Debugf("delivery pass over %s took %s", src.Name(), time.Since(start))

	start = time.Now()
	res, err := AggregateResources(ctx, src)
	if err != nil {
		return Result{}, err
	}
	log.Debugf("resource pass over %s took %s", src.Name(), time.Since(start))

	return Combine(src.Name(), d, res, opt.Runs), nil
}

// Combine builds a Result from the two pass outcomes.
func Combine(name string, d Delivery, res Resources, runs int) Result {
	r := Result{
		Trace:      name,
		Sent:       d.Sent,
		Received:   d.Received,
		Lost:       d.Lost,
		TotalDelay: d.TotalDelay,

		DeliveryRatio: d.Ratio,
		MeanDelay:     d.MeanDelay,
		DelayP50:      d.DelayP50,
		DelayP95:      d.DelayP95,
		DelayP99:      d.DelayP99,

		QueueLoss:    res.QueueLoss,
		DutyCycle:    res.DutyCycle,
		ICMP:         res.ICMP,
		ParentChange: res.ParentChange,

		AvgQueueLoss:    res.QueueLoss.Mean(),
		AvgDutyCycle:    res.DutyCycle.Mean(),
		AvgICMP:         res.ICMP.Mean(),
		AvgParentChange: res.ParentChange.Mean(),

		Runs: runs,
	}
	if runs > 0 {
		r.RecvPerRun = Mean{Value: float64(d.Received) / float64(runs), Valid: true}
		r.LossPerRun = Mean{Value: float64(d.Lost) / float64(runs), Valid: true}
	}
	r.ICMPPerRun = r.AvgICMP.Div(float64(runs))
	return r
}
