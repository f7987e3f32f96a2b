// Package midihdr decodes and encodes the 6-byte payload of a Standard
// MIDI File MThd chunk: format, track count, and division.
package midihdr

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Format identifies the SMF structural format (0, 1, or 2).
type Format uint16

const (
	Format0 Format = 0
	Format1 Format = 1
	Format2 Format = 2
)

// Errors returned by Decode. Kept as sentinels so the smf package can map
// them onto its own DecodeError taxonomy without string matching.
var (
	ErrPayloadTooShort  = errors.New("midihdr: payload shorter than 6 bytes")
	ErrUnknownFormat    = errors.New("midihdr: format outside 0..2")
	ErrFormatTrackCount = errors.New("midihdr: format 0 requires exactly one track")
	ErrUnknownSmpteRate = errors.New("midihdr: smpte frame rate not in {24,25,29,30}")
)

// Division distinguishes the two division encodings SMF supports.
type Division struct {
	SMPTE bool

	// Valid when !SMPTE: ticks per quarter note, 1..32767.
	TicksPerQuarter uint16

	// Valid when SMPTE: frame rate (24, 25, 29 for 29.97 drop-frame, or 30)
	// and subdivisions of a frame.
	FramesPerSecond int8
	TicksPerFrame   uint8
}

// Header holds the decoded fields of an MThd payload.
type Header struct {
	Format    Format
	NumTracks uint16
	Division  Division
}

// Decode parses a 6+-byte MThd payload. Bytes beyond the first 6 are
// ignored, matching real-world files that pad the header for forward
// compatibility.
func Decode(payload []byte) (Header, error) {
	if len(payload) < 6 {
		return Header{}, ErrPayloadTooShort
	}

	format := Format(binary.BigEndian.Uint16(payload[0:2]))
	if format > Format2 {
		return Header{}, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}

	ntrks := binary.BigEndian.Uint16(payload[2:4])
	if format == Format0 && ntrks != 1 {
		return Header{}, ErrFormatTrackCount
	}

	div, err := decodeDivision(binary.BigEndian.Uint16(payload[4:6]))
	if err != nil {
		return Header{}, err
	}

	return Header{Format: format, NumTracks: ntrks, Division: div}, nil
}

func decodeDivision(raw uint16) (Division, error) {
	if raw&0x8000 == 0 {
		ticks := raw & 0x7FFF
		if ticks == 0 {
			// The SMF spec forbids zero PPQ; clamp to 1 rather than reject,
			// to tolerate real-world files that encode it anyway.
			ticks = 1
		}
		return Division{TicksPerQuarter: ticks}, nil
	}

	// SMPTE: the high byte (bits 15..8) is a signed two's-complement byte
	// (the negative frame rate), bits 7..0 are ticks-per-frame.
	rateByte := int8(byte(raw >> 8))
	rate := -rateByte
	switch rate {
	case 24, 25, 29, 30:
	default:
		return Division{}, fmt.Errorf("%w: %d", ErrUnknownSmpteRate, rate)
	}
	return Division{
		SMPTE:           true,
		FramesPerSecond: int8(rate),
		TicksPerFrame:   uint8(raw),
	}, nil
}

// Encode serialises h to a 6-byte MThd payload.
func Encode(h Header) []byte {
	payload := make([]byte, 6)
	binary.BigEndian.PutUint16(payload[0:2], uint16(h.Format))
	binary.BigEndian.PutUint16(payload[2:4], h.NumTracks)
	binary.BigEndian.PutUint16(payload[4:6], encodeDivision(h.Division))
	return payload
}

func encodeDivision(d Division) uint16 {
	if !d.SMPTE {
		return d.TicksPerQuarter & 0x7FFF
	}
	rateByte := byte(int8(-d.FramesPerSecond))
	return 0x8000 | uint16(rateByte)<<8 | uint16(d.TicksPerFrame)
}
