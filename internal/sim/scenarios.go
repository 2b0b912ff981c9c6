package sim

import "time"

// DefaultScenario is a small Contiki/RPL-like collection network: a handful of
// motes sending one reading per second to the root over a 250 kbit/s shared
// radio with 5% random loss.
func DefaultScenario(seed int64) Scenario {
	return Scenario{
		Name:     "collect_bernoulli_5pct",
		Duration: 60 * time.Second,
		Nodes:    5,
		Sender: SenderSpec{
			PacketRateHz: 1,
			PayloadBytes: 32,
		},
		Link: LinkSpec{
			BaseOneWayDelay: 40 * time.Millisecond,
			Jitter:          10 * time.Millisecond,
			MaxQueueDelay:   500 * time.Millisecond,
			CapacityBps:     ConstSchedule(250_000),
			Loss:            NewScheduledBernoulliLoss("bernoulli", seed, ConstSchedule(0.05)),
		},
		RPL: RPLSpec{
			DIOInterval:        8 * time.Second,
			DAOInterval:        60 * time.Second,
			ParentSwitchLosses: 3,
			ListenPermille:     10,
		},
		Seed: seed,
	}
}

// BurstyScenario swaps the random loss for a Gilbert-Elliott channel, which
// produces loss runs and therefore parent changes.
func BurstyScenario(seed int64) Scenario {
	sc := DefaultScenario(seed)
	sc.Name = "collect_gilbert"
	sc.Link.Loss = NewGilbertElliottLoss("gilbert", seed, 0.05, 0.3, 0.01, 0.6)
	return sc
}
