package sim

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pion/logging"
	"github.com/pion/rtp"

	"github.com/lars-sto/wsn-trace-stats/internal/trace"
)

const (
	rtpVersion     = 2
	rtpPayloadType = 96

	// rtpClockRate ticks per second of the synthetic RTP timestamp.
	rtpClockRate = 8000
)

type GenerateOptions struct {
	Seed   int64
	Logger logging.LeveledLogger
}

type nodeState struct {
	res      NodeResult
	nextSend time.Time
	seq      uint16
	lossRun  int
}

// Generate runs sc in virtual time and writes a Cooja-style test log to w.
//
// Senders emit "<ms> ID:<node> SendData <id>", the sink logs
// "<ms> ID:1 RecvData <id>" when the packet arrives, and every node prints its
// drops, dutycycle, icmpPackets and parentChange counters at the end. Packet
// ids are unique across nodes.
func Generate(w io.Writer, sc Scenario, opt GenerateOptions) (Result, error) {
	res := Result{
		Scenario: sc.Name,
		Seed:     opt.Seed,
		Duration: sc.Duration,
	}
	if sc.Nodes <= 0 {
		return res, errors.New("scenario needs at least one sender")
	}
	if sc.Duration <= 0 {
		return res, errors.New("scenario duration must be positive")
	}
	interval := sc.Sender.Interval()
	if interval <= 0 {
		return res, errors.New("sender packet rate must be positive")
	}

	log := opt.Logger
	if log == nil {
		log = logging.NewDefaultLoggerFactory().NewLogger("sim")
	}

	linkSpec := sc.Link
	linkSpec.Seed = opt.Seed
	linkSpec.Loss = reseedLossModel(sc.Link.Loss, opt.Seed)

	start := time.Unix(0, 0)
	end := start.Add(sc.Duration)
	link := NewLink(linkSpec, start)

	// Stagger first transmissions across one interval.
	nodes := make([]*nodeState, sc.Nodes)
	for i := range nodes {
		nodes[i] = &nodeState{
			res:      NodeResult{Node: SinkNode + 1 + uint32(i)},
			nextSend: start.Add(interval * time.Duration(i) / time.Duration(sc.Nodes)),
		}
	}

	bw := bufio.NewWriter(w)
	ms := func(t time.Time) int64 { return t.Sub(start).Milliseconds() }
	sentMs := make(map[uint32]int64)
	var lastMs int64

	var nextID uint32 = 1

	deliver := func() {
		dp, _ := link.Next()
		n := nodes[dp.Pkt.SSRC-SinkNode-1]
		n.res.Delivered++
		res.Delivered++

		at := ms(dp.Arrives)
		lastMs = max(lastMs, at)
		res.TotalDelayMs += at - sentMs[dp.ID]
		delete(sentMs, dp.ID)
		fmt.Fprintf(bw, "%d ID:%d %s %d\n", at, SinkNode, trace.MarkerRecv, dp.ID)
	}

	// Main event loop: next delivery or next send, deliveries first on ties.
	for {
		tDel, hasDel := link.Peek()

		var sender *nodeState
		for _, n := range nodes {
			if n.nextSend.After(end) {
				continue
			}
			if sender == nil || n.nextSend.Before(sender.nextSend) {
				sender = n
			}
		}

		if hasDel && (sender == nil || !sender.nextSend.Before(tDel)) {
			deliver()
			continue
		}
		if sender == nil {
			break
		}

		now := sender.nextSend
		id := nextID
		nextID++

		h := rtp.Header{
			Version:        rtpVersion,
			PayloadType:    rtpPayloadType,
			SequenceNumber: sender.seq,
			Timestamp:      uint32(now.Sub(start) * rtpClockRate / time.Second),
			SSRC:           sender.res.Node,
		}
		pkt := rtp.Packet{Header: h, Payload: makePayload(opt.Seed, sender.res.Node, id, sc.Sender.PayloadBytes)}
		sender.seq++

		lastMs = max(lastMs, ms(now))
		fmt.Fprintf(bw, "%d ID:%d %s %d\n", ms(now), sender.res.Node, trace.MarkerSend, id)
		sender.res.Sent++
		res.Sent++

		out := link.Send(pkt, id, now)
		sender.res.Airtime += out.Airtime
		if out.Dropped {
			switch out.Reason {
			case DropQueue:
				sender.res.QueueDrops++
				res.QueueDrops++
			case DropWireLoss, DropZeroCap:
				sender.res.WireDrops++
				res.WireDrops++
			}
			sender.lossRun++
			if sc.RPL.ParentSwitchLosses > 0 && sender.lossRun >= sc.RPL.ParentSwitchLosses {
				sender.res.ParentChanges++
				sender.lossRun = 0
			}
		} else {
			sentMs[id] = ms(now)
			sender.lossRun = 0
		}

		sender.nextSend = sender.nextSend.Add(interval)
	}

	// Reports follow the last drained delivery.
	reportAt := max(ms(end), lastMs)
	for _, n := range nodes {
		n.res.ICMPPackets = icmpPackets(sc.RPL, sc.Duration, n.res.ParentChanges)
		n.res.DutyPermille = sc.RPL.ListenPermille + int64(n.res.Airtime*1000/sc.Duration)

		fmt.Fprintf(bw, "%d ID:%d %s %d\n", reportAt, n.res.Node, trace.MarkerDrops, n.res.QueueDrops)
		fmt.Fprintf(bw, "%d ID:%d %s on %d\n", reportAt, n.res.Node, trace.MarkerDutyCycle, n.res.DutyPermille)
		fmt.Fprintf(bw, "%d ID:%d %s %d\n", reportAt, n.res.Node, trace.MarkerICMP, n.res.ICMPPackets)
		fmt.Fprintf(bw, "%d ID:%d %s %d\n", reportAt, n.res.Node, trace.MarkerParentChange, n.res.ParentChanges)

		log.Debugf("node %d: sent=%d delivered=%d queue_drops=%d wire_drops=%d parent_changes=%d",
			n.res.Node, n.res.Sent, n.res.Delivered, n.res.QueueDrops, n.res.WireDrops, n.res.ParentChanges)
		res.Nodes = append(res.Nodes, n.res)
	}

	if err := bw.Flush(); err != nil {
		return res, fmt.Errorf("write trace: %w", err)
	}
	return res, nil
}

// icmpPackets estimates RPL control traffic: periodic DIOs and DAOs, plus one
// DAO for every parent switch.
func icmpPackets(rpl RPLSpec, d time.Duration, parentChanges int64) int64 {
	var n int64
	if rpl.DIOInterval > 0 {
		n += int64(d / rpl.DIOInterval)
	}
	if rpl.DAOInterval > 0 {
		n += int64(d / rpl.DAOInterval)
	}
	return n + parentChanges
}

func makePayload(seed int64, node, id uint32, size int) []byte {
	if size <= 0 {
		return nil
	}
	out := make([]byte, size)
	// deterministic xorshift64*
	x := uint64(seed) ^ (uint64(node)<<32|uint64(id))*0x9e3779b97f4a7c15
	if x == 0 {
		x = 0xdeadbeefcafebabe
	}
	for i := 0; i < size; i++ {
		x ^= x >> 12
		x ^= x << 25
		x ^= x >> 27
		y := x * 2685821657736338717
		out[i] = byte(y >> 56)
	}
	return out
}
