package sim

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lars-sto/wsn-trace-stats/internal/stats"
	"github.com/lars-sto/wsn-trace-stats/internal/trace"
)

func generate(t *testing.T, sc Scenario, seed int64) (string, Result) {
	t.Helper()
	var buf bytes.Buffer
	res, err := Generate(&buf, sc, GenerateOptions{Seed: seed})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return buf.String(), res
}

func TestGenerateDeterministic(t *testing.T) {
	a, ra := generate(t, BurstyScenario(7), 7)
	b, rb := generate(t, BurstyScenario(7), 7)
	if a != b {
		t.Fatal("same seed produced different traces")
	}
	if ra.Delivered != rb.Delivered || ra.TotalDelayMs != rb.TotalDelayMs {
		t.Fatalf("results differ: %+v vs %+v", ra, rb)
	}

	c, _ := generate(t, BurstyScenario(8), 8)
	if a == c {
		t.Fatal("different seeds produced identical traces")
	}
}

func TestGenerateCounts(t *testing.T) {
	sc := DefaultScenario(1)
	_, res := generate(t, sc, 1)

	// five senders at 1 Hz over 60 s, sends at t=0 and t=60s inclusive for
	// the first node only
	if res.Sent < 300 || res.Sent > 305 {
		t.Fatalf("sent = %d, want about 300", res.Sent)
	}
	if res.Delivered+res.QueueDrops+res.WireDrops != res.Sent {
		t.Fatalf("delivered %d + drops %d/%d != sent %d", res.Delivered, res.QueueDrops, res.WireDrops, res.Sent)
	}
	if len(res.Nodes) != sc.Nodes {
		t.Fatalf("nodes = %d, want %d", len(res.Nodes), sc.Nodes)
	}
	for _, n := range res.Nodes {
		// 60/8 DIOs + 60/60 DAOs
		if n.ICMPPackets != 8+n.ParentChanges {
			t.Errorf("node %d icmp = %d, want %d", n.Node, n.ICMPPackets, 8+n.ParentChanges)
		}
		if n.DutyPermille < sc.RPL.ListenPermille {
			t.Errorf("node %d duty = %d below listen floor", n.Node, n.DutyPermille)
		}
	}
}

func TestGenerateReportsFollowLateDeliveries(t *testing.T) {
	sc := DefaultScenario(5)
	sc.Link.BaseOneWayDelay = 2 * time.Second
	sc.Link.Loss = NewScheduledBernoulliLoss("none", 5, ConstSchedule(0))
	out, res := generate(t, sc, 5)
	if res.Delivered != res.Sent {
		t.Fatalf("delivered %d of %d on a lossless link", res.Delivered, res.Sent)
	}

	var lastRecv, firstReport int64 = -1, -1
	last := int64(-1)
	err := trace.Text(out).Each(context.Background(), func(l trace.Line) error {
		ts, err := trace.Timestamp(l)
		if err != nil {
			return err
		}
		if ts < last {
			t.Fatalf("line %d goes back in time: %d < %d", l.No, ts, last)
		}
		last = ts
		switch {
		case l.Contains(trace.MarkerRecv):
			lastRecv = ts
		case l.Contains(trace.MarkerDrops) && firstReport < 0:
			firstReport = ts
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if lastRecv <= sc.Duration.Milliseconds() {
		t.Fatalf("last delivery at %d, expected one after the %d ms run", lastRecv, sc.Duration.Milliseconds())
	}
	if firstReport != lastRecv {
		t.Fatalf("reports stamped %d, want %d (last delivery)", firstReport, lastRecv)
	}
}

func TestGenerateTraceIsTimeOrdered(t *testing.T) {
	out, _ := generate(t, DefaultScenario(3), 3)

	last := int64(-1)
	err := trace.Text(out).Each(context.Background(), func(l trace.Line) error {
		ts, err := trace.Timestamp(l)
		if err != nil {
			return err
		}
		if ts < last {
			t.Fatalf("line %d goes back in time: %d < %d", l.No, ts, last)
		}
		last = ts
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestGenerateRoundTrip(t *testing.T) {
	sc := BurstyScenario(11)
	out, res := generate(t, sc, 11)

	opt := stats.DefaultOptions()
	opt.Match = stats.MatchField
	got, err := stats.Analyze(context.Background(), trace.Text(out), opt)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if got.Sent != res.Sent || got.Received != res.Delivered || got.Lost != res.Lost() {
		t.Fatalf("analyzed %d/%d/%d, generated %d/%d/%d",
			got.Sent, got.Received, got.Lost, res.Sent, res.Delivered, res.Lost())
	}
	if got.TotalDelay != res.TotalDelayMs {
		t.Fatalf("total delay = %d, want %d", got.TotalDelay, res.TotalDelayMs)
	}
	if got.QueueLoss.Sum != res.QueueDrops || got.QueueLoss.Reports != int64(sc.Nodes) {
		t.Fatalf("queue loss = %+v, want sum %d over %d nodes", got.QueueLoss, res.QueueDrops, sc.Nodes)
	}
	if got.ICMP.Reports != int64(sc.Nodes) || got.DutyCycle.Reports != int64(sc.Nodes) {
		t.Fatalf("icmp/duty reports = %d/%d, want %d", got.ICMP.Reports, got.DutyCycle.Reports, sc.Nodes)
	}

	var pc int64
	for _, n := range res.Nodes {
		pc += n.ParentChanges
	}
	if got.ParentChange.Sum != pc {
		t.Fatalf("parent changes = %d, want %d", got.ParentChange.Sum, pc)
	}

	// Substring matching can only add receives through collateral matches.
	loose, err := stats.Analyze(context.Background(), trace.Text(out), stats.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if loose.Received < got.Received {
		t.Fatalf("substring received %d < field received %d", loose.Received, got.Received)
	}
}

func TestGenerateQueueDrops(t *testing.T) {
	sc := DefaultScenario(5)
	sc.Sender.PacketRateHz = 50
	sc.Sender.PayloadBytes = 100
	sc.Link.CapacityBps = ConstSchedule(20_000)
	sc.Link.MaxQueueDelay = 100 * time.Millisecond
	sc.Link.Loss = nil
	sc.Duration = 5 * time.Second

	out, res := generate(t, sc, 5)
	if res.QueueDrops == 0 {
		t.Fatal("expected queue drops on an overloaded link")
	}
	if res.WireDrops != 0 {
		t.Fatalf("wire drops = %d without a loss model", res.WireDrops)
	}
	if !strings.Contains(out, " drops ") {
		t.Fatal("trace has no drops report")
	}
}

func TestGenerateRejectsBadScenario(t *testing.T) {
	sc := DefaultScenario(1)
	sc.Nodes = 0
	if _, err := Generate(&bytes.Buffer{}, sc, GenerateOptions{}); err == nil {
		t.Fatal("expected error for zero nodes")
	}
	sc = DefaultScenario(1)
	sc.Sender.PacketRateHz = 0
	if _, err := Generate(&bytes.Buffer{}, sc, GenerateOptions{}); err == nil {
		t.Fatal("expected error for zero rate")
	}
}
