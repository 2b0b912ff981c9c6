package report

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lars-sto/wsn-trace-stats/internal/stats"
)

const promNamespace = "wsn"

// PromExporter publishes a result as gauges in a private registry and writes
// them to a node_exporter textfile on Close.
type PromExporter struct {
	path string
	reg  *prometheus.Registry

	packets   *prometheus.GaugeVec
	ratio     prometheus.Gauge
	delay     *prometheus.GaugeVec
	reports   *prometheus.GaugeVec
	average   *prometheus.GaugeVec
	perRun    *prometheus.GaugeVec
	populated bool
}

func NewPromExporter(path string) *PromExporter {
	e := &PromExporter{
		path: path,
		reg:  prometheus.NewRegistry(),
		packets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: promNamespace,
			Name:      "packets",
			Help:      "Data packets by outcome (sent, received, lost).",
		}, []string{"outcome"}),
		ratio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: promNamespace,
			Name:      "delivery_ratio",
			Help:      "Received over sent data packets.",
		}),
		delay: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: promNamespace,
			Name:      "e2e_delay",
			Help:      "End-to-end delay in trace time units.",
		}, []string{"stat"}),
		reports: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: promNamespace,
			Name:      "node_reports",
			Help:      "Per-node report lines seen, by kind.",
		}, []string{"kind"}),
		average: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: promNamespace,
			Name:      "node_report_average",
			Help:      "Average reported value across report lines, by kind.",
		}, []string{"kind"}),
		perRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: promNamespace,
			Name:      "per_run",
			Help:      "Values normalized by the number of simulation runs.",
		}, []string{"metric"}),
	}
	e.reg.MustRegister(e.packets, e.ratio, e.delay, e.reports, e.average, e.perRun)
	return e
}

// Registry exposes the gauges for callers that serve or gather them directly.
func (e *PromExporter) Registry() *prometheus.Registry { return e.reg }

func (e *PromExporter) OnResult(r stats.Result) error {
	e.packets.WithLabelValues("sent").Set(float64(r.Sent))
	e.packets.WithLabelValues("received").Set(float64(r.Received))
	e.packets.WithLabelValues("lost").Set(float64(r.Lost))
	e.ratio.Set(gaugeValue(r.DeliveryRatio))

	e.delay.WithLabelValues("mean").Set(gaugeValue(r.MeanDelay))
	e.delay.WithLabelValues("p50").Set(gaugeValue(r.DelayP50))
	e.delay.WithLabelValues("p95").Set(gaugeValue(r.DelayP95))
	e.delay.WithLabelValues("p99").Set(gaugeValue(r.DelayP99))

	kinds := []struct {
		kind string
		c    stats.Counter
		avg  stats.Mean
	}{
		{"queue_loss", r.QueueLoss, r.AvgQueueLoss},
		{"duty_cycle", r.DutyCycle, r.AvgDutyCycle},
		{"icmp_packets", r.ICMP, r.AvgICMP},
		{"parent_change", r.ParentChange, r.AvgParentChange},
	}
	for _, k := range kinds {
		e.reports.WithLabelValues(k.kind).Set(float64(k.c.Reports))
		e.average.WithLabelValues(k.kind).Set(gaugeValue(k.avg))
	}

	e.perRun.WithLabelValues("received").Set(gaugeValue(r.RecvPerRun))
	e.perRun.WithLabelValues("lost").Set(gaugeValue(r.LossPerRun))
	e.perRun.WithLabelValues("icmp_packets").Set(gaugeValue(r.ICMPPerRun))

	e.populated = true
	return nil
}

// Close writes the textfile. Nothing is written if no result arrived.
func (e *PromExporter) Close() error {
	if !e.populated || e.path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(e.path, e.reg)
}

// gaugeValue maps NoData to NaN, which the text format carries as "NaN".
func gaugeValue(m stats.Mean) float64 {
	if !m.Valid {
		return math.NaN()
	}
	return m.Value
}
