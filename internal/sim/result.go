package sim

import "time"

// NodeResult is what one sender did during a run, and what it reports in its
// final trace lines.
type NodeResult struct {
	Node uint32

	Sent       int64
	Delivered  int64
	QueueDrops int64
	WireDrops  int64

	Airtime       time.Duration
	ParentChanges int64
	ICMPPackets   int64
	DutyPermille  int64
}

type Result struct {
	Scenario string
	Seed     int64
	Duration time.Duration

	Sent       int64
	Delivered  int64
	QueueDrops int64
	WireDrops  int64

	// TotalDelayMs sums receive minus send timestamps as written to the trace.
	TotalDelayMs int64

	Nodes []NodeResult
}

func (r Result) Lost() int64 { return r.Sent - r.Delivered }
