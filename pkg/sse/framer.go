package sse

import (
	"bytes"
	"strings"
)

const (
	prefixData          = "data:"
	prefixEvent         = "event:"
	prefixDone          = "event: done"
	prefixError         = "event: error"
	prefixMissingAPIKey = "event: missing_api_key"
)

// Framer turns decoded text into frames. It owns an append-only buffer of
// text that has not yet been terminated by a newline.
//
// An "event: error" or "event: missing_api_key" line is held back until the
// data line carrying its payload arrives, so the result does not depend on
// where the transport happened to split the stream. Blank lines and unknown
// lines in between are skipped; another event line, or Flush, releases the
// held event without a payload.
//
// A Framer is not safe for concurrent use.
type Framer struct {
	buf     []byte
	pending *Frame
	out     []Frame
}

// NewFramer returns an empty Framer.
func NewFramer() *Framer {
	return &Framer{}
}

// Feed appends text to the buffer and returns every frame completed by it.
func (f *Framer) Feed(text string) []Frame {
	f.buf = append(f.buf, text...)

	off := 0
	for {
		i := bytes.IndexByte(f.buf[off:], '\n')
		if i < 0 {
			break
		}
		f.line(string(f.buf[off : off+i]))
		off += i + 1
	}

	// Compact so the buffer only ever holds the unterminated tail.
	if off > 0 {
		f.buf = append(f.buf[:0], f.buf[off:]...)
	}

	return f.drain()
}

// Flush frames whatever is left once the source is exhausted: a trailing
// line without a newline is framed like any other, and a held event is
// released without a payload. The Framer is empty afterwards.
func (f *Framer) Flush() []Frame {
	if len(f.buf) > 0 {
		f.line(string(f.buf))
		f.buf = f.buf[:0]
	}

	if f.pending != nil {
		f.out = append(f.out, *f.pending)
		f.pending = nil
	}

	return f.drain()
}

// Buffered returns the number of bytes waiting for a newline.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

func (f *Framer) line(raw string) {
	line := strings.TrimSpace(raw)

	if f.pending != nil {
		switch {
		case strings.HasPrefix(line, prefixData):
			ev := *f.pending
			ev.Data = strings.TrimSpace(line[len(prefixData):])
			ev.HasData = true
			f.out = append(f.out, ev)
			f.pending = nil
			return

		case strings.HasPrefix(line, prefixEvent):
			f.out = append(f.out, *f.pending)
			f.pending = nil

		default:
			return
		}
	}

	switch {
	case strings.HasPrefix(line, prefixData):
		f.out = append(f.out, Frame{
			Kind:    FrameData,
			Data:    strings.TrimSpace(line[len(prefixData):]),
			HasData: true,
		})

	case strings.HasPrefix(line, prefixDone):
		f.out = append(f.out, Frame{Kind: FrameDone})

	case strings.HasPrefix(line, prefixError):
		f.pending = &Frame{Kind: FrameError}

	case strings.HasPrefix(line, prefixMissingAPIKey):
		f.pending = &Frame{Kind: FrameMissingAPIKey}
	}
}

func (f *Framer) drain() []Frame {
	if len(f.out) == 0 {
		return nil
	}
	frames := f.out
	f.out = nil
	return frames
}
