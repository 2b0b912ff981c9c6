package stats

import (
	"context"

	"github.com/lars-sto/wsn-trace-stats/internal/trace"
)

// resourceMarkers lists, per report kind, the marker substring and the field
// index holding the reported value. Markers are not exclusive: a line carrying
// two markers feeds both counters.
var resourceMarkers = []struct {
	marker string
	field  int
	pick   func(*Resources) *Counter
}{
	{trace.MarkerDrops, 3, func(r *Resources) *Counter { return &r.QueueLoss }},
	{trace.MarkerDutyCycle, 4, func(r *Resources) *Counter { return &r.DutyCycle }},
	{trace.MarkerICMP, 3, func(r *Resources) *Counter { return &r.ICMP }},
	{trace.MarkerParentChange, 3, func(r *Resources) *Counter { return &r.ParentChange }},
}

// AggregateResources sums the per-node drop, duty cycle, ICMP and parent
// change reports of a trace.
func AggregateResources(ctx context.Context, src trace.Source) (Resources, error) {
	var res Resources
	err := src.Each(ctx, func(l trace.Line) error {
		for _, m := range resourceMarkers {
			if !l.Contains(m.marker) {
				continue
			}
			v, err := trace.IntField(l, m.field)
			if err != nil {
				return err
			}
			m.pick(&res).Add(v)
		}
		return nil
	})
	if err != nil {
		return Resources{}, err
	}
	return res, nil
}
