package stats

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lars-sto/wsn-trace-stats/internal/trace"
)

func lines(ls ...string) trace.Text { return trace.Text(strings.Join(ls, "\n") + "\n") }

func delivery(t *testing.T, src trace.Source, opt Options) Delivery {
	t.Helper()
	d, err := AnalyzeDelivery(context.Background(), src, opt)
	if err != nil {
		t.Fatalf("AnalyzeDelivery: %v", err)
	}
	return d
}

func TestDeliverySingleMatch(t *testing.T) {
	d := delivery(t, lines(
		"100 ID:5 SendData node3",
		"150 RecvData node3",
	), DefaultOptions())

	if d.Sent != 1 || d.Received != 1 || d.Lost != 0 {
		t.Fatalf("sent/recv/lost = %d/%d/%d, want 1/1/0", d.Sent, d.Received, d.Lost)
	}
	if d.TotalDelay != 50 {
		t.Fatalf("total delay = %d, want 50", d.TotalDelay)
	}
	if got, _ := d.MeanDelay.Float(); got != 50 {
		t.Fatalf("mean delay = %v, want 50", got)
	}
}

func TestDeliveryRatio(t *testing.T) {
	d := delivery(t, lines(
		"10 ID:2 SendData 1",
		"20 ID:3 SendData 2",
		"30 ID:4 SendData 3",
		"40 ID:5 SendData 4",
		"50 ID:1 RecvData 1",
		"60 ID:1 RecvData 3",
		"70 ID:1 RecvData 4",
	), DefaultOptions())

	if d.Sent != 4 || d.Received != 3 || d.Lost != 1 {
		t.Fatalf("sent/recv/lost = %d/%d/%d, want 4/3/1", d.Sent, d.Received, d.Lost)
	}
	if got, _ := d.Ratio.Float(); got != 0.75 {
		t.Fatalf("ratio = %v, want 0.75", got)
	}
	// 40 + 30 + 30
	if d.TotalDelay != 100 {
		t.Fatalf("total delay = %d, want 100", d.TotalDelay)
	}
}

func TestDeliveryRejects(t *testing.T) {
	tests := []struct {
		name string
		src  trace.Text
	}{
		{"delay at threshold", lines("0 ID:2 SendData 7", "10000 ID:1 RecvData 7")},
		{"delay above threshold", lines("0 ID:2 SendData 7", "25000 ID:1 RecvData 7")},
		{"receive before send", lines("50 ID:1 RecvData 7", "100 ID:2 SendData 7")},
		{"receive at send time", lines("100 ID:2 SendData 7", "100 ID:1 RecvData 7")},
		{"no receive", lines("100 ID:2 SendData 7", "120 ID:1 RecvData 8")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := delivery(t, tt.src, DefaultOptions())
			if d.Received != 0 || d.Lost != 1 {
				t.Fatalf("recv/lost = %d/%d, want 0/1", d.Received, d.Lost)
			}
			if d.MeanDelay.Valid {
				t.Fatalf("mean delay should be NoData, got %v", d.MeanDelay.Value)
			}
		})
	}
}

func TestDeliveryJustBelowThreshold(t *testing.T) {
	d := delivery(t, lines("0 ID:2 SendData 7", "9999 ID:1 RecvData 7"), DefaultOptions())
	if d.Received != 1 || d.TotalDelay != 9999 {
		t.Fatalf("recv/delay = %d/%d, want 1/9999", d.Received, d.TotalDelay)
	}
}

func TestDeliveryFirstQualifyingMatchOnly(t *testing.T) {
	d := delivery(t, lines(
		"5 ID:1 RecvData 9", // too early, skipped
		"100 ID:2 SendData 9",
		"130 ID:1 RecvData 9",
		"170 ID:1 RecvData 9",
	), DefaultOptions())

	if d.Received != 1 || d.TotalDelay != 30 {
		t.Fatalf("recv/delay = %d/%d, want 1/30", d.Received, d.TotalDelay)
	}
}

func TestDeliveryLateMatchSkippedThenLaterQualifies(t *testing.T) {
	// A receive line can serve several send events for the same token.
	d := delivery(t, lines(
		"100 ID:2 SendData 4",
		"200 ID:3 SendData 4",
		"300 ID:1 RecvData 4",
	), DefaultOptions())
	if d.Received != 2 || d.TotalDelay != 300 {
		t.Fatalf("recv/delay = %d/%d, want 2/300", d.Received, d.TotalDelay)
	}
}

func TestDeliveryCollateralSubstringMatch(t *testing.T) {
	src := lines(
		"100 ID:2 SendData 1",
		"140 ID:1 RecvData 17",
	)

	d := delivery(t, src, DefaultOptions())
	if d.Received != 1 || d.TotalDelay != 40 {
		t.Fatalf("substring: recv/delay = %d/%d, want 1/40", d.Received, d.TotalDelay)
	}

	opt := DefaultOptions()
	opt.Match = MatchField
	d = delivery(t, src, opt)
	if d.Received != 0 {
		t.Fatalf("field: recv = %d, want 0", d.Received)
	}
}

func TestDeliveryMarkerInsideLongerToken(t *testing.T) {
	src := lines(
		"100 ID:2 SendData 3",
		"120 ID:1 xRecvData 3 extra",
	)
	if d := delivery(t, src, DefaultOptions()); d.Received != 1 {
		t.Fatalf("substring: recv = %d, want 1", d.Received)
	}
	opt := DefaultOptions()
	opt.Match = MatchField
	if d := delivery(t, src, opt); d.Received != 0 {
		t.Fatalf("field: recv = %d, want 0", d.Received)
	}
}

func TestDeliveryCustomMaxDelay(t *testing.T) {
	opt := DefaultOptions()
	opt.MaxDelay = 20
	d := delivery(t, lines("0 ID:2 SendData 1", "25 ID:1 RecvData 1"), opt)
	if d.Received != 0 {
		t.Fatalf("recv = %d, want 0", d.Received)
	}
}

func TestDeliveryNoSends(t *testing.T) {
	d := delivery(t, lines("10 ID:1 RecvData 1"), DefaultOptions())
	if d.Sent != 0 || d.Ratio.Valid {
		t.Fatalf("sent = %d ratio valid = %v, want 0/false", d.Sent, d.Ratio.Valid)
	}
	if _, err := d.Ratio.Float(); !errors.Is(err, ErrNoData) {
		t.Fatalf("ratio err = %v, want ErrNoData", err)
	}
}

func TestDeliveryPercentiles(t *testing.T) {
	d := delivery(t, lines(
		"0 ID:2 SendData 1",
		"0 ID:2 SendData 2",
		"0 ID:2 SendData 3",
		"10 ID:1 RecvData 1",
		"20 ID:1 RecvData 2",
		"30 ID:1 RecvData 3",
	), DefaultOptions())
	if !d.DelayP50.Valid || d.DelayP50.Value < 10 || d.DelayP50.Value > 30 {
		t.Fatalf("p50 = %+v, want within [10, 30]", d.DelayP50)
	}
	if !d.DelayP99.Valid || d.DelayP99.Value < d.DelayP50.Value {
		t.Fatalf("p99 = %+v below p50 %+v", d.DelayP99, d.DelayP50)
	}
}

func TestDeliveryMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  trace.Text
		line int
	}{
		{"short send", lines("100 ID:2 SendData"), 1},
		{"bad send timestamp", lines("abc ID:2 SendData 1"), 1},
		{"bad matched receive timestamp", lines("100 ID:2 SendData 1", "x ID:1 RecvData 1"), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AnalyzeDelivery(context.Background(), tt.src, DefaultOptions())
			var mle *trace.MalformedLineError
			if !errors.As(err, &mle) {
				t.Fatalf("err = %v, want MalformedLineError", err)
			}
			if mle.Line != tt.line {
				t.Fatalf("line = %d, want %d", mle.Line, tt.line)
			}
		})
	}
}

func TestDeliveryUnexaminedReceiveNotParsed(t *testing.T) {
	// The bad line follows the accepted match and is never looked at.
	d := delivery(t, lines(
		"100 ID:2 SendData 1",
		"110 ID:1 RecvData 1",
		"bad ID:1 RecvData 1",
	), DefaultOptions())
	if d.Received != 1 {
		t.Fatalf("recv = %d, want 1", d.Received)
	}
}

func TestRecvKeys(t *testing.T) {
	l := trace.Line{No: 1, Text: "5 RecvData 12 RecvData ab\tRecvData  x"}
	got := recvKeys(l, MatchSubstring)
	want := []string{"12", "ab"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("substring keys = %q, want %q", got, want)
	}

	got = recvKeys(l, MatchField)
	want = []string{"12", "ab", "x"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("field keys = %q, want %q", got, want)
	}
}

func TestPrefixes(t *testing.T) {
	got := prefixes("1234", 3)
	if strings.Join(got, ",") != "1,12,123" {
		t.Fatalf("prefixes = %q", got)
	}
}
