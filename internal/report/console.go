// Package report renders analysis results: the fixed console report, CSV
// summaries, YAML/JSON documents and Prometheus textfiles.
package report

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/lars-sto/wsn-trace-stats/internal/stats"
)

// NoData is printed in place of an undefined average.
const NoData = "NoData"

// WriteConsole prints the report in its historical layout. Labels, spacing
// and line order are fixed.
func WriteConsole(w io.Writer, r stats.Result) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Sent Number = %d \n\n", r.Sent)
	fmt.Fprintf(bw, "loss= %d \n\n", r.Lost)
	fmt.Fprintf(bw, "Recv Number = %d \n\n", r.Received)
	fmt.Fprintf(bw, "Delivery Ratio = %s \n\n", FormatMean(r.DeliveryRatio))
	fmt.Fprintf(bw, "Average E2E Delay =  %s \n\n", FormatMean(r.MeanDelay))

	fmt.Fprintf(bw, "Average Queue Loss =  %s\n", FormatMean(r.AvgQueueLoss))
	fmt.Fprintf(bw, "Average Duty Cycle =  %s\n", FormatMean(r.AvgDutyCycle))
	fmt.Fprintf(bw, "Average Icmp Packets =  %s\n", FormatMean(r.AvgICMP))

	fmt.Fprintf(bw, "Average Recv=  %s\n", FormatMean(r.RecvPerRun))
	fmt.Fprintf(bw, "Average Loss=  %s\n", FormatMean(r.LossPerRun))
	fmt.Fprintf(bw, "Average E2E Delay =  %s \n\n", FormatMean(r.MeanDelay))
	fmt.Fprintf(bw, "Avg_icmp =  %s \n\n", FormatMean(r.ICMPPerRun))
	fmt.Fprintf(bw, "Delivery Ratio = %s \n\n", FormatMean(r.DeliveryRatio))
	fmt.Fprintf(bw, "Average Duty Cycle =  %s\n", FormatMean(r.AvgDutyCycle))

	return bw.Flush()
}

func FormatMean(m stats.Mean) string {
	if !m.Valid {
		return NoData
	}
	return FormatFloat(m.Value)
}

// FormatFloat renders v as the shortest decimal that round-trips, keeping a
// trailing ".0" on integral values and switching to exponent form outside
// [1e-4, 1e16).
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
