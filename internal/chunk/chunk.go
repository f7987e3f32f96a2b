// Package chunk implements the 8-byte chunk framing shared by every
// Standard MIDI File structure: a 4-byte ASCII ID followed by a big-endian
// uint32 length, followed by exactly that many payload bytes.
package chunk

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ID is a 4-byte chunk identifier, e.g. "MThd" or "MTrk".
type ID [4]byte

func (id ID) String() string { return string(id[:]) }

var (
	MThd = ID{'M', 'T', 'h', 'd'}
	MTrk = ID{'M', 'T', 'r', 'k'}
)

// Chunk is a single framed chunk as read from or to be written to a stream.
type Chunk struct {
	ID      ID
	Payload []byte
}

// Reader reads a sequence of chunks from a byte stream.
type Reader struct {
	r      io.Reader
	offset int64
}

// NewReader creates a chunk reader over r.
func NewReader(r io.Reader) *Reader { return &Reader{r: r} }

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 { return r.offset }

// ReadChunk reads the next chunk header and its full payload window.
// io.EOF is returned only if the stream ends before any header bytes are
// read; a short header or short payload is io.ErrUnexpectedEOF.
func (r *Reader) ReadChunk() (Chunk, error) {
	var header [8]byte
	n, err := io.ReadFull(r.r, header[:])
	if err != nil {
		if err == io.EOF && n == 0 {
			return Chunk{}, io.EOF
		}
		return Chunk{}, fmt.Errorf("chunk: reading header: %w", io.ErrUnexpectedEOF)
	}
	r.offset += 8

	var id ID
	copy(id[:], header[0:4])
	length := binary.BigEndian.Uint32(header[4:8])

	payload := make([]byte, length)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return Chunk{}, fmt.Errorf("chunk: reading %s payload (%d bytes): %w", id, length, io.ErrUnexpectedEOF)
	}
	r.offset += int64(length)

	return Chunk{ID: id, Payload: payload}, nil
}

// SkipUnknown reads and discards chunks until one whose ID is in want is
// found, or the stream is exhausted. It is used to tolerate auxiliary
// chunks interleaved between MTrk chunks.
func (r *Reader) SkipUnknown(want ...ID) (Chunk, error) {
	for {
		c, err := r.ReadChunk()
		if err != nil {
			return Chunk{}, err
		}
		for _, w := range want {
			if c.ID == w {
				return c, nil
			}
		}
		// Unknown chunk ID: tolerated, keep scanning.
	}
}

// Writer writes a sequence of chunks to a byte stream.
type Writer struct {
	w io.Writer
}

// NewWriter creates a chunk writer over w.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// WriteChunk emits a chunk's 8-byte header followed by its payload. The
// length field is computed from len(payload) directly: callers encode
// their payload to a scratch buffer first (the two-pass discipline used
// throughout this codec), so there is nothing to predict here.
func (w *Writer) WriteChunk(id ID, payload []byte) error {
	var header [8]byte
	copy(header[0:4], id[:])
	binary.BigEndian.PutUint32(header[4:8], uint32(len(payload)))
	if _, err := w.w.Write(header[:]); err != nil {
		return fmt.Errorf("chunk: writing %s header: %w", id, err)
	}
	if _, err := w.w.Write(payload); err != nil {
		return fmt.Errorf("chunk: writing %s payload: %w", id, err)
	}
	return nil
}
