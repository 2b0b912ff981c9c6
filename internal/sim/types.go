package sim

import "time"

// SinkNode is the Cooja mote id of the RPL root that logs RecvData.
const SinkNode uint32 = 1

type SenderSpec struct {
	PacketRateHz float64
	PayloadBytes int
}

func (s SenderSpec) Interval() time.Duration {
	if s.PacketRateHz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / s.PacketRateHz)
}

// LinkSpec describes the shared path from the senders to the sink.
type LinkSpec struct {
	BaseOneWayDelay time.Duration
	Jitter          time.Duration
	MaxQueueDelay   time.Duration
	CapacityBps     *FloatSchedule
	Loss            LossModel
	Seed            int64
}

// RPLSpec drives the control-plane counters each node reports at the end of
// a run.
type RPLSpec struct {
	DIOInterval time.Duration
	DAOInterval time.Duration

	// ParentSwitchLosses consecutive losses make a node switch parent.
	ParentSwitchLosses int

	// ListenPermille is the idle-listening share of the radio duty cycle.
	ListenPermille int64
}

type Scenario struct {
	Name     string
	Duration time.Duration

	// Nodes is the number of senders; they get mote ids 2..Nodes+1.
	Nodes  int
	Sender SenderSpec
	Link   LinkSpec
	RPL    RPLSpec

	Seed int64
}

type FloatSchedule struct {
	Points  []FloatPoint
	Default float64
}

type FloatPoint struct {
	At    time.Duration
	Value float64
}

// At returns the value of the last point at or before t, or the first point's
// value before the schedule starts.
func (s *FloatSchedule) At(t time.Duration) float64 {
	if s == nil {
		return 0
	}
	if len(s.Points) == 0 {
		return s.Default
	}
	v := s.Points[0].Value
	for _, p := range s.Points {
		if t < p.At {
			break
		}
		v = p.Value
	}
	return v
}
