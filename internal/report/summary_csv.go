package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lars-sto/wsn-trace-stats/internal/stats"
)

type SummaryCSVWriter struct {
	f *os.File
	w *csv.Writer
}

var summaryHeader = []string{
	"trace",
	"sent",
	"received",
	"lost",
	"delivery_ratio",
	"mean_e2e_delay",
	"e2e_delay_p50",
	"e2e_delay_p95",
	"e2e_delay_p99",
	"queue_loss_sum",
	"queue_loss_reports",
	"avg_queue_loss",
	"duty_cycle_sum",
	"duty_cycle_reports",
	"avg_duty_cycle",
	"icmp_sum",
	"icmp_reports",
	"avg_icmp_packets",
	"parent_change_sum",
	"parent_change_reports",
	"avg_parent_change",
	"runs",
	"recv_per_run",
	"loss_per_run",
	"icmp_per_run",
}

func NewSummaryCSVWriter(path string) (*SummaryCSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)

	if err := w.Write(summaryHeader); err != nil {
		_ = f.Close()
		return nil, err
	}
	w.Flush()
	return &SummaryCSVWriter{f: f, w: w}, nil
}

func (s *SummaryCSVWriter) OnResult(r stats.Result) error {
	row := []string{
		r.Trace,
		strconv.FormatInt(r.Sent, 10),
		strconv.FormatInt(r.Received, 10),
		strconv.FormatInt(r.Lost, 10),
		fm(r.DeliveryRatio),
		fm(r.MeanDelay),
		fm(r.DelayP50),
		fm(r.DelayP95),
		fm(r.DelayP99),

		strconv.FormatInt(r.QueueLoss.Sum, 10),
		strconv.FormatInt(r.QueueLoss.Reports, 10),
		fm(r.AvgQueueLoss),
		strconv.FormatInt(r.DutyCycle.Sum, 10),
		strconv.FormatInt(r.DutyCycle.Reports, 10),
		fm(r.AvgDutyCycle),
		strconv.FormatInt(r.ICMP.Sum, 10),
		strconv.FormatInt(r.ICMP.Reports, 10),
		fm(r.AvgICMP),
		strconv.FormatInt(r.ParentChange.Sum, 10),
		strconv.FormatInt(r.ParentChange.Reports, 10),
		fm(r.AvgParentChange),

		strconv.Itoa(r.Runs),
		fm(r.RecvPerRun),
		fm(r.LossPerRun),
		fm(r.ICMPPerRun),
	}
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *SummaryCSVWriter) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		_ = s.f.Close()
		return err
	}
	return s.f.Close()
}

// fm leaves undefined averages as empty cells.
func fm(m stats.Mean) string {
	if !m.Valid {
		return ""
	}
	return fmt.Sprintf("%.6f", m.Value)
}
