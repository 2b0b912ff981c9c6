// Package trace reads Cooja simulation logs line by line.
//
// A trace line is whitespace-delimited text whose first field is an integer
// timestamp. Lines are kept opaque; callers tokenize them on demand.
package trace

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultPath is the file name Cooja's script runner writes the test log to.
const DefaultPath = "cooja.testlog"

// ctxCheckEvery is how many lines are scanned between context checks.
const ctxCheckEvery = 1024

type Line struct {
	No   int // 1-based
	Text string
}

func (l Line) Fields() []string { return strings.Fields(l.Text) }

func (l Line) Contains(marker string) bool { return strings.Contains(l.Text, marker) }

// Source yields the lines of one trace, in file order, every time Each is
// called. Each call is an independent read from the beginning.
type Source interface {
	Name() string
	Each(ctx context.Context, fn func(Line) error) error
}

// File is a trace on disk. It is re-opened for every pass.
type File struct {
	Path string
}

// OpenFile checks that path names a readable regular file.
func OpenFile(path string) (File, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("open trace %q: %w", path, err)
	}
	if fi.IsDir() {
		return File{}, fmt.Errorf("open trace %q: is a directory", path)
	}
	return File{Path: path}, nil
}

func (f File) Name() string { return f.Path }

func (f File) Each(ctx context.Context, fn func(Line) error) error {
	fh, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("open trace %q: %w", f.Path, err)
	}
	defer func() { _ = fh.Close() }()

	if err := Scan(ctx, fh, fn); err != nil {
		return fmt.Errorf("read trace %q: %w", f.Path, err)
	}
	return nil
}

// Text is an in-memory trace, mostly useful for tests and generated logs.
type Text string

func (t Text) Name() string { return "<memory>" }

func (t Text) Each(ctx context.Context, fn func(Line) error) error {
	return Scan(ctx, strings.NewReader(string(t)), fn)
}

// Scan calls fn for every line of r. Line terminators (\n, \r\n) are stripped
// and lines may be of any length.
// The first error returned by fn stops the scan and is returned unchanged.
func Scan(ctx context.Context, r io.Reader, fn func(Line) error) error {
	br := bufio.NewReaderSize(r, 64*1024)

	no := 0
	for {
		text, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if text == "" && err != nil {
			break
		}
		no++
		if no%ctxCheckEvery == 0 {
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
		}
		text = strings.TrimSuffix(text, "\n")
		text = strings.TrimSuffix(text, "\r")
		if ferr := fn(Line{No: no, Text: text}); ferr != nil {
			return ferr
		}
		if err != nil {
			break
		}
	}
	return ctx.Err()
}
