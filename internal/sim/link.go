package sim

import (
	"container/heap"
	"math"
	"time"

	"github.com/pion/rtp"
)

type DropReason string

const (
	DropNone     DropReason = ""
	DropQueue    DropReason = "queue_overflow"
	DropWireLoss DropReason = "wire_loss"
	DropZeroCap  DropReason = "zero_capacity"
)

// Link is a single bottleneck toward the sink: packets are serialized at the
// scheduled capacity, wait in a FIFO bounded by MaxQueueDelay, then travel
// for the base delay plus jitter.
type Link struct {
	spec  LinkSpec
	start time.Time

	nextAvail time.Time
	pq        eventHeap
}

type SendOutcome struct {
	Dropped    bool
	Reason     DropReason
	ArrivalAt  time.Time
	QueueDelay time.Duration
	Airtime    time.Duration
	SizeBytes  int
}

type DeliveredPacket struct {
	Pkt       rtp.Packet
	ID        uint32
	Arrives   time.Time
	SentAt    time.Time
	SizeBytes int
}

func NewLink(spec LinkSpec, start time.Time) *Link {
	l := &Link{spec: spec, start: start, nextAvail: start}
	heap.Init(&l.pq)
	return l
}

// Send offers pkt to the link at sentAt. id is the application packet id the
// trace reports; the RTP sequence number is only its low 16 bits.
func (l *Link) Send(pkt rtp.Packet, id uint32, sentAt time.Time) SendOutcome {
	sizeBytes := pkt.MarshalSize()
	if sizeBytes <= 0 {
		sizeBytes = 12 + len(pkt.Payload)
	}

	capBps := math.Inf(1)
	if l.spec.CapacityBps != nil {
		capBps = l.spec.CapacityBps.At(sentAt.Sub(l.start))
	}
	if capBps == 0 {
		return SendOutcome{Dropped: true, Reason: DropZeroCap, SizeBytes: sizeBytes}
	}
	if capBps < 0 {
		capBps = 0
	}

	startTx := sentAt
	if l.nextAvail.After(startTx) {
		startTx = l.nextAvail
	}
	qDelay := startTx.Sub(sentAt)
	if l.spec.MaxQueueDelay > 0 && qDelay > l.spec.MaxQueueDelay {
		return SendOutcome{Dropped: true, Reason: DropQueue, QueueDelay: qDelay, SizeBytes: sizeBytes}
	}

	serSec := (float64(sizeBytes) * 8.0) / capBps
	if serSec < 0 {
		serSec = 0
	}
	ser := time.Duration(serSec * float64(time.Second))
	if ser == 0 && !math.IsInf(capBps, 1) {
		ser = time.Nanosecond
	}

	finishTx := startTx.Add(ser)
	l.nextAvail = finishTx

	arrival := finishTx.Add(l.spec.BaseOneWayDelay)
	if l.spec.Jitter > 0 {
		arrival = arrival.Add(l.jitterFor(pkt.SSRC, id))
	}

	if l.spec.Loss != nil {
		meta := PacketMeta{
			At:        sentAt.Sub(l.start),
			Node:      pkt.SSRC,
			ID:        id,
			SizeBytes: sizeBytes,
		}
		if l.spec.Loss.Drop(meta) {
			return SendOutcome{Dropped: true, Reason: DropWireLoss, QueueDelay: qDelay, Airtime: ser, SizeBytes: sizeBytes}
		}
	}

	heap.Push(&l.pq, &deliveryEvent{
		at:        arrival,
		sentAt:    sentAt,
		pkt:       pkt,
		id:        id,
		sizeBytes: sizeBytes,
	})

	return SendOutcome{ArrivalAt: arrival, QueueDelay: qDelay, Airtime: ser, SizeBytes: sizeBytes}
}

// Peek returns the arrival time of the next delivery.
func (l *Link) Peek() (time.Time, bool) {
	if l.pq.Len() == 0 {
		return time.Time{}, false
	}
	return l.pq[0].at, true
}

func (l *Link) Next() (DeliveredPacket, bool) {
	if l.pq.Len() == 0 {
		return DeliveredPacket{}, false
	}
	ev := heap.Pop(&l.pq).(*deliveryEvent)
	return DeliveredPacket{Pkt: ev.pkt, ID: ev.id, Arrives: ev.at, SentAt: ev.sentAt, SizeBytes: ev.sizeBytes}, true
}

// jitterFor is uniform in [-Jitter, +Jitter) and never pulls an arrival
// before the end of transmission plus half the base delay.
func (l *Link) jitterFor(node uint32, id uint32) time.Duration {
	u := u01(l.spec.Seed, node, id)
	x := (u * 2) - 1
	j := time.Duration(x * float64(l.spec.Jitter))
	if floor := -l.spec.BaseOneWayDelay / 2; j < floor {
		j = floor
	}
	return j
}

type deliveryEvent struct {
	at        time.Time
	sentAt    time.Time
	pkt       rtp.Packet
	id        uint32
	sizeBytes int
}

type eventHeap []*deliveryEvent

func (h eventHeap) Len() int { return len(h) }

// Less breaks arrival ties by id so the trace order is deterministic.
func (h eventHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].id < h[j].id
	}
	return h[i].at.Before(h[j].at)
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*deliveryEvent)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
