package trace

import (
	"strconv"
	"strings"
)

// Event markers as printed by the Contiki applications under Cooja.
const (
	MarkerSend         = "SendData"
	MarkerRecv         = "RecvData"
	MarkerDrops        = "drops"
	MarkerDutyCycle    = "dutycycle"
	MarkerICMP         = "icmpPackets"
	MarkerParentChange = "parentChange"
)

const (
	sendNodeField = 1
	sendDestField = 3
)

// Send is a parsed "<ts> ID:<node> SendData <dest>" line.
type Send struct {
	Line      int
	Timestamp int64
	Node      string
	Dest      string
}

// RecvTarget is the substring a receive line must contain to match dest.
func RecvTarget(dest string) string { return MarkerRecv + " " + dest }

// ParseSend extracts the timestamp, sender node and destination token.
func ParseSend(l Line) (Send, error) {
	f := l.Fields()
	if len(f) <= sendDestField {
		return Send{}, &MalformedLineError{
			Line:   l.No,
			Field:  sendDestField,
			Text:   l.Text,
			Reason: "send event needs a destination field",
		}
	}
	ts, err := parseInt(l, f, 0)
	if err != nil {
		return Send{}, err
	}
	return Send{
		Line:      l.No,
		Timestamp: ts,
		Node:      strings.ReplaceAll(f[sendNodeField], "ID:", ""),
		Dest:      f[sendDestField],
	}, nil
}

// Timestamp parses field 0.
func Timestamp(l Line) (int64, error) {
	return IntField(l, 0)
}

// IntField parses the idx-th whitespace-delimited field as a base-10 integer.
func IntField(l Line, idx int) (int64, error) {
	return parseInt(l, l.Fields(), idx)
}

func parseInt(l Line, f []string, idx int) (int64, error) {
	if idx >= len(f) {
		return 0, &MalformedLineError{
			Line:   l.No,
			Field:  idx,
			Text:   l.Text,
			Reason: "missing field (line has " + strconv.Itoa(len(f)) + ")",
		}
	}
	v, err := strconv.ParseInt(f[idx], 10, 64)
	if err != nil {
		return 0, &MalformedLineError{
			Line:   l.No,
			Field:  idx,
			Text:   l.Text,
			Reason: "not an integer",
			Err:    err,
		}
	}
	return v, nil
}
