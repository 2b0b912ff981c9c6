package stats

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/influxdata/tdigest"
	"github.com/lars-sto/wsn-trace-stats/internal/trace"
)

const digestCompression = 100

// recvLine is a line that may satisfy one or more receive targets. Its
// timestamp is parsed only when a send event actually examines it.
type recvLine struct {
	line trace.Line
	keys []string
}

// recvIndex maps a destination token to the lines matching it, in file order.
type recvIndex map[string][]trace.Line

// AnalyzeDelivery pairs every send event with the first receive event for its
// destination that arrives strictly later and within opt.MaxDelay.
//
// All lines are read once. Receive lines are indexed by every destination they
// would satisfy, so a lookup visits the same lines, in the same order, as a
// full re-scan of the trace for "RecvData <dest>" would.
func AnalyzeDelivery(ctx context.Context, src trace.Source, opt Options) (Delivery, error) {
	if err := opt.validate(); err != nil {
		return Delivery{}, err
	}
	log := opt.logger()

	var (
		sends []trace.Send
		recvs []recvLine
	)
	err := src.Each(ctx, func(l trace.Line) error {
		if l.Contains(trace.MarkerSend) {
			s, err := trace.ParseSend(l)
			if err != nil {
				return err
			}
			sends = append(sends, s)
		}
		if keys := recvKeys(l, opt.Match); len(keys) > 0 {
			recvs = append(recvs, recvLine{line: l, keys: keys})
		}
		return nil
	})
	if err != nil {
		return Delivery{}, err
	}

	idx := buildIndex(sends, recvs, opt.Match)
	log.Debugf("delivery: %d send events, %d receive lines, %d destinations indexed", len(sends), len(recvs), len(idx))

	var (
		d  Delivery
		td = tdigest.NewWithCompression(digestCompression)
	)
	for _, s := range sends {
		d.Sent++
		delay, ok, err := firstDelivery(s, idx[s.Dest], opt.MaxDelay)
		if err != nil {
			return Delivery{}, err
		}
		if !ok {
			log.Tracef("send line %d (node %s, dest %s) not delivered", s.Line, s.Node, s.Dest)
			continue
		}
		d.Received++
		d.TotalDelay += delay
		td.Add(float64(delay), 1)
	}

	d.Lost = d.Sent - d.Received
	d.Ratio = meanOf(float64(d.Received), d.Sent)
	d.MeanDelay = meanOf(float64(d.TotalDelay), d.Received)
	if d.Received > 0 {
		d.DelayP50 = Mean{Value: td.Quantile(0.50), Valid: true}
		d.DelayP95 = Mean{Value: td.Quantile(0.95), Valid: true}
		d.DelayP99 = Mean{Value: td.Quantile(0.99), Valid: true}
	}
	return d, nil
}

// firstDelivery walks candidates in file order and returns the delay of the
// first one that qualifies. Later candidates are never examined.
func firstDelivery(s trace.Send, cands []trace.Line, maxDelay int64) (int64, bool, error) {
	for _, c := range cands {
		recvAt, err := trace.Timestamp(c)
		if err != nil {
			return 0, false, err
		}
		if recvAt <= s.Timestamp {
			continue
		}
		if delay := recvAt - s.Timestamp; delay < maxDelay {
			return delay, true, nil
		}
	}
	return 0, false, nil
}

// recvKeys returns what follows each receive marker in l.
//
// In substring mode that is the run of non-space characters after every
// occurrence of "RecvData " anywhere in the text; any non-empty prefix of a
// run is a destination the line satisfies. In field mode it is the field after
// each field equal to "RecvData".
func recvKeys(l trace.Line, mode MatchMode) []string {
	if mode == MatchField {
		if !l.Contains(trace.MarkerRecv) {
			return nil
		}
		f := l.Fields()
		var keys []string
		for i := 0; i+1 < len(f); i++ {
			if f[i] == trace.MarkerRecv {
				keys = append(keys, f[i+1])
			}
		}
		return keys
	}

	target := trace.RecvTarget("")
	text := l.Text
	var keys []string
	for off := 0; ; {
		i := strings.Index(text[off:], target)
		if i < 0 {
			break
		}
		start := off + i + len(target)
		if run := leadingToken(text[start:]); run != "" {
			keys = append(keys, run)
		}
		off += i + 1
	}
	return keys
}

func leadingToken(s string) string {
	for i, r := range s {
		if unicode.IsSpace(r) {
			return s[:i]
		}
	}
	return s
}

func buildIndex(sends []trace.Send, recvs []recvLine, mode MatchMode) recvIndex {
	dests := make(map[string]struct{}, len(sends))
	maxLen := 0
	for _, s := range sends {
		dests[s.Dest] = struct{}{}
		if len(s.Dest) > maxLen {
			maxLen = len(s.Dest)
		}
	}

	idx := make(recvIndex, len(dests))
	seen := make(map[string]struct{})
	for _, r := range recvs {
		clear(seen)
		add := func(dest string) {
			if _, ok := dests[dest]; !ok {
				return
			}
			if _, dup := seen[dest]; dup {
				return
			}
			seen[dest] = struct{}{}
			idx[dest] = append(idx[dest], r.line)
		}
		for _, k := range r.keys {
			if mode == MatchField {
				add(k)
				continue
			}
			for _, p := range prefixes(k, maxLen) {
				add(p)
			}
		}
	}
	return idx
}

// prefixes returns the non-empty prefixes of s that end on a rune boundary,
// no longer than maxLen bytes.
func prefixes(s string, maxLen int) []string {
	var out []string
	for i := 0; i < len(s) && i < maxLen; {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if i > maxLen {
			break
		}
		out = append(out, s[:i])
	}
	return out
}
