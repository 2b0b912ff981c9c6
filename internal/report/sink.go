package report

import (
	"fmt"
	"io"

	"github.com/lars-sto/wsn-trace-stats/internal/stats"
)

// Sink consumes analysis results.
type Sink interface {
	OnResult(r stats.Result) error
	Close() error
}

// Format selects how the stdout sink renders a result.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatYAML, FormatJSON:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

type writerSink struct {
	w      io.Writer
	format Format
}

// NewWriterSink renders every result to w in the given format.
func NewWriterSink(w io.Writer, f Format) Sink {
	return &writerSink{w: w, format: f}
}

func (s *writerSink) OnResult(r stats.Result) error {
	switch s.format {
	case FormatYAML:
		return WriteYAML(s.w, r)
	case FormatJSON:
		return WriteJSON(s.w, r)
	default:
		return WriteConsole(s.w, r)
	}
}

func (s *writerSink) Close() error { return nil }

// multiSink fans results out to several sinks.
type multiSink struct {
	ss []Sink
}

// Multi creates a Sink that forwards OnResult/Close to every non-nil sink.
// OnResult stops at the first failing sink; Close closes all of them and
// returns the first error.
func Multi(ss ...Sink) Sink {
	out := &multiSink{ss: make([]Sink, 0, len(ss))}
	for _, s := range ss {
		if s != nil {
			out.ss = append(out.ss, s)
		}
	}
	return out
}

func (m *multiSink) OnResult(r stats.Result) error {
	for _, s := range m.ss {
		if err := s.OnResult(r); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiSink) Close() error {
	var firstErr error
	for _, s := range m.ss {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
