package sim

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
)

// WriteNodesCSV stores the per-node ground truth of a run next to its trace,
// one row per sender.
func WriteNodesCSV(path string, res Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)

	hdr := []string{
		"scenario",
		"seed",
		"node",
		"sent",
		"delivered",
		"queue_drops",
		"wire_drops",
		"airtime_ms",
		"duty_permille",
		"icmp_packets",
		"parent_changes",
	}
	if err := w.Write(hdr); err != nil {
		_ = f.Close()
		return err
	}

	for _, n := range res.Nodes {
		row := []string{
			res.Scenario,
			strconv.FormatInt(res.Seed, 10),
			strconv.FormatUint(uint64(n.Node), 10),
			strconv.FormatInt(n.Sent, 10),
			strconv.FormatInt(n.Delivered, 10),
			strconv.FormatInt(n.QueueDrops, 10),
			strconv.FormatInt(n.WireDrops, 10),
			strconv.FormatInt(n.Airtime.Milliseconds(), 10),
			strconv.FormatInt(n.DutyPermille, 10),
			strconv.FormatInt(n.ICMPPackets, 10),
			strconv.FormatInt(n.ParentChanges, 10),
		}
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
