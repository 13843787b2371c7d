package sse

import (
	"io"

	"golang.org/x/text/encoding/unicode"
)

const readChunkSize = 32 * 1024

// Reader pulls frames from a byte stream. Bytes are decoded as UTF-8 with a
// stateful decoder, so a multi-byte rune split across reads is reassembled
// instead of being replaced; only bytes still incomplete at end of input turn
// into U+FFFD. A leading byte order mark is dropped.
//
// Each call to Next performs at most one read on the source once the queue of
// already framed lines is empty, so a slow consumer throttles the read rate.
type Reader struct {
	src    io.Reader
	framer *Framer
	buf    []byte
	queue  []Frame
	done   bool
}

// NewReader returns a Reader framing src.
func NewReader(src io.Reader) *Reader {
	return &Reader{
		src:    unicode.UTF8BOM.NewDecoder().Reader(src),
		framer: NewFramer(),
		buf:    make([]byte, readChunkSize),
	}
}

// Next returns the next frame. It blocks until one is available.
// Next returns nil, nil once the source is exhausted and every buffered line
// has been framed. Read errors other than io.EOF are returned as is; the
// Reader should not be used after that.
func (r *Reader) Next() (*Frame, error) {
	for {
		if len(r.queue) > 0 {
			frame := r.queue[0]
			r.queue = r.queue[1:]
			return &frame, nil
		}

		if r.done {
			return nil, nil
		}

		n, err := r.src.Read(r.buf)
		if n > 0 {
			r.queue = append(r.queue, r.framer.Feed(string(r.buf[:n]))...)
		}

		if err == io.EOF {
			r.queue = append(r.queue, r.framer.Flush()...)
			r.done = true
			continue
		}
		if err != nil {
			return nil, err
		}
	}
}
