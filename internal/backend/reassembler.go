// internal/backend/reassembler.go
package backend

import (
	"bytes"
	"errors"
)

// Delimiter terminates every record on the wire.
var Delimiter = []byte("\r\n")

// DefaultBufferSize is the maximum number of unparsed bytes held between reads.
const DefaultBufferSize = 4096

// ErrOverflow is returned when buffered data plus a new chunk exceeds capacity.
var ErrOverflow = errors.New("backend: rx buffer overflow")

// Reassembler turns arbitrarily chunked reads into complete records.
// The buffer never grows beyond its capacity.
type Reassembler struct {
	buf []byte // len = fill, cap = capacity

	bytesReceived uint64
	peakFill      int
	overflows     uint32
}

// NewReassembler allocates a buffer of the given capacity (DefaultBufferSize when <= 0).
func NewReassembler(capacity int) *Reassembler {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &Reassembler{buf: make([]byte, 0, capacity)}
}

// Append adds chunk to the buffer and returns every record completed by it,
// in order and without delimiters. The bytes after the last delimiter stay
// buffered for the next call.
//
// On overflow the buffer is emptied (the chunk is dropped with it) and
// ErrOverflow is returned.
func (r *Reassembler) Append(chunk []byte) ([][]byte, error) {
	r.bytesReceived += uint64(len(chunk))

	fill := len(r.buf) + len(chunk)
	if fill > cap(r.buf) {
		r.buf = r.buf[:0]
		r.overflows++
		return nil, ErrOverflow
	}
	if fill > r.peakFill {
		r.peakFill = fill
	}

	r.buf = append(r.buf, chunk...)

	last := bytes.LastIndex(r.buf, Delimiter)
	if last < 0 {
		return nil, nil
	}

	var records [][]byte
	for _, rec := range bytes.Split(r.buf[:last], Delimiter) {
		records = append(records, bytes.Clone(rec))
	}

	// keep the partial tail, in place
	n := copy(r.buf, r.buf[last+len(Delimiter):])
	r.buf = r.buf[:n]

	return records, nil
}

// Reset drops buffered data and statistics.
func (r *Reassembler) Reset() {
	r.buf = r.buf[:0]
	r.bytesReceived = 0
	r.peakFill = 0
	r.overflows = 0
}

// Buffered is the current fill length.
func (r *Reassembler) Buffered() int { return len(r.buf) }

// Capacity is the fixed buffer size.
func (r *Reassembler) Capacity() int { return cap(r.buf) }

func (r *Reassembler) BytesReceived() uint64 { return r.bytesReceived }

func (r *Reassembler) PeakFill() int { return r.peakFill }

func (r *Reassembler) Overflows() uint32 { return r.overflows }
