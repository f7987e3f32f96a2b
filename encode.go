package smf

import (
	"fmt"
	"io"

	"github.com/wsharkey/go-smf/internal/chunk"
	"github.com/wsharkey/go-smf/internal/midihdr"
	"github.com/wsharkey/go-smf/internal/vlq"
)

// Encode writes f to w as a complete Standard MIDI File.
func Encode(w io.Writer, f *MidiFile, opts ...EncodeOption) error {
	cfg := resolveEncodeConfig(opts)

	if f.Format == Format0 && len(f.Tracks) != 1 {
		return newEncodeError(ErrInvalidModel, -1,
			fmt.Sprintf("format 0 requires exactly one track, got %d", len(f.Tracks)), nil)
	}

	hdr := midihdr.Header{
		Format:    midihdr.Format(f.Format),
		NumTracks: uint16(len(f.Tracks)),
		Division:  revertDivision(f.Division),
	}

	cw := chunk.NewWriter(w)
	if err := cw.WriteChunk(chunk.MThd, midihdr.Encode(hdr)); err != nil {
		return newEncodeError(ErrInvalidModel, -1, "writing MThd", err)
	}

	for i, track := range f.Tracks {
		payload, err := encodeTrack(track, i, cfg)
		if err != nil {
			return err
		}
		if err := cw.WriteChunk(chunk.MTrk, payload); err != nil {
			return newEncodeError(ErrInvalidModel, i, "writing MTrk", err)
		}
	}

	return nil
}

func revertDivision(d Division) midihdr.Division {
	if d.SMPTE {
		return midihdr.Division{SMPTE: true, FramesPerSecond: int8(d.FramesPerSecond), TicksPerFrame: d.TicksPerFrame}
	}
	return midihdr.Division{TicksPerQuarter: d.TicksPerQuarter}
}

// encodeTrack serialises one track's events, enforcing that the track ends
// with exactly one EndOfTrack: callers are expected to have already
// appended it (via Track.EndTrack), so none is synthesized here.
func encodeTrack(t Track, trackIdx int, cfg encodeConfig) ([]byte, error) {
	if n := len(t); n == 0 {
		return nil, newEncodeError(ErrInvalidModel, trackIdx, "track has no events, EndOfTrack required", nil)
	}
	for i, te := range t {
		if isEndOfTrack(te.Event) && i != len(t)-1 {
			return nil, newEncodeError(ErrInvalidModel, trackIdx,
				fmt.Sprintf("EndOfTrack at index %d is not the last event", i), nil)
		}
	}
	if !isEndOfTrack(t[len(t)-1].Event) {
		return nil, newEncodeError(ErrInvalidModel, trackIdx, "track does not end with EndOfTrack", nil)
	}

	var out []byte
	var runningStatus byte
	hasRunning := false

	for _, te := range t {
		enc, err := vlq.Encode(te.Delta)
		if err != nil {
			return nil, newEncodeError(ErrVLQTooLarge, trackIdx, fmt.Sprintf("delta %d", te.Delta), err)
		}
		out = append(out, enc...)

		switch ev := te.Event.(type) {
		case ChannelEvent:
			status, payload, err := encodeChannelMessage(ev, trackIdx)
			if err != nil {
				return nil, err
			}
			if cfg.useRunningStatus && hasRunning && runningStatus == status {
				out = append(out, payload...)
			} else {
				out = append(out, status)
				out = append(out, payload...)
			}
			runningStatus = status
			hasRunning = true

		case MetaEventWrapper:
			hasRunning = false
			encoded, err := encodeMeta(ev.Event, trackIdx)
			if err != nil {
				return nil, err
			}
			out = append(out, encoded...)

		case SysExEventWrapper:
			hasRunning = false
			encoded, err := encodeSysEx(ev.Event, trackIdx)
			if err != nil {
				return nil, err
			}
			out = append(out, encoded...)

		default:
			return nil, newEncodeError(ErrInvalidModel, trackIdx, fmt.Sprintf("unknown event type %T", te.Event), nil)
		}
	}

	return out, nil
}

func isEndOfTrack(e Event) bool {
	w, ok := e.(MetaEventWrapper)
	if !ok {
		return false
	}
	_, ok = w.Event.(EndOfTrack)
	return ok
}

func encodeChannelMessage(ce ChannelEvent, trackIdx int) (status byte, payload []byte, err error) {
	if ce.Channel > 0x0F {
		return 0, nil, newEncodeError(ErrInvalidModel, trackIdx, fmt.Sprintf("channel %d out of range", ce.Channel), nil)
	}

	switch m := ce.Message.(type) {
	case NoteOff:
		return 0x80 | ce.Channel, []byte{m.Note & 0x7F, m.Velocity & 0x7F}, nil
	case NoteOn:
		return 0x90 | ce.Channel, []byte{m.Note & 0x7F, m.Velocity & 0x7F}, nil
	case NoteAftertouch:
		return 0xA0 | ce.Channel, []byte{m.Note & 0x7F, m.Pressure & 0x7F}, nil
	case Controller:
		return 0xB0 | ce.Channel, []byte{m.Number & 0x7F, m.Value & 0x7F}, nil
	case ProgramChange:
		return 0xC0 | ce.Channel, []byte{m.Program & 0x7F}, nil
	case ChannelAftertouch:
		return 0xD0 | ce.Channel, []byte{m.Pressure & 0x7F}, nil
	case PitchBend:
		if m.Value > 0x3FFF {
			return 0, nil, newEncodeError(ErrInvalidModel, trackIdx, fmt.Sprintf("pitch bend value %d out of range", m.Value), nil)
		}
		lsb := byte(m.Value & 0x7F)
		msb := byte((m.Value >> 7) & 0x7F)
		return 0xE0 | ce.Channel, []byte{lsb, msb}, nil
	default:
		return 0, nil, newEncodeError(ErrInvalidModel, trackIdx, fmt.Sprintf("unknown channel message type %T", m), nil)
	}
}

func appendMeta(typeByte byte, data []byte) ([]byte, error) {
	lenEnc, err := vlq.Encode(uint32(len(data)))
	if err != nil {
		return nil, err
	}
	out := []byte{0xFF, typeByte}
	out = append(out, lenEnc...)
	out = append(out, data...)
	return out, nil
}

func encodeMeta(me MetaEvent, trackIdx int) ([]byte, error) {
	var typeByte byte
	var data []byte

	switch m := me.(type) {
	case SequenceNumber:
		typeByte, data = 0x00, []byte{byte(m.Number >> 8), byte(m.Number)}
	case Text:
		typeByte, data = 0x01, m.Data
	case Copyright:
		typeByte, data = 0x02, m.Data
	case TrackName:
		typeByte, data = 0x03, m.Data
	case InstrumentName:
		typeByte, data = 0x04, m.Data
	case Lyric:
		typeByte, data = 0x05, m.Data
	case Marker:
		typeByte, data = 0x06, m.Data
	case CuePoint:
		typeByte, data = 0x07, m.Data
	case ChannelPrefix:
		typeByte, data = 0x20, []byte{m.Channel}
	case EndOfTrack:
		typeByte, data = 0x2F, nil
	case SetTempo:
		typeByte, data = 0x51, []byte{byte(m.MicrosecondsPerQuarter >> 16), byte(m.MicrosecondsPerQuarter >> 8), byte(m.MicrosecondsPerQuarter)}
	case SmpteOffset:
		var rateCode byte
		switch m.Rate {
		case Smpte24:
			rateCode = 0
		case Smpte25:
			rateCode = 1
		case Smpte29:
			rateCode = 2
		case Smpte30:
			rateCode = 3
		default:
			return nil, newEncodeError(ErrInvalidModel, trackIdx, fmt.Sprintf("invalid smpte rate %d", m.Rate), nil)
		}
		hourByte := (rateCode << 5) | (m.Hour & 0x1F)
		typeByte, data = 0x54, []byte{hourByte, m.Min, m.Sec, m.Frame, m.Subframe}
	case TimeSignature:
		typeByte, data = 0x58, []byte{m.Numerator, m.DenominatorPow2, m.ClocksPerClick, m.ThirtySecondsPerQuarter}
	case KeySignature:
		typeByte, data = 0x59, []byte{byte(m.Sharps), byte(m.Mode)}
	case SequencerSpecific:
		typeByte, data = 0x7F, m.Data
	case UnknownMeta:
		typeByte, data = m.TypeByte, m.Data
	default:
		return nil, newEncodeError(ErrInvalidModel, trackIdx, fmt.Sprintf("unknown meta event type %T", m), nil)
	}

	enc, err := appendMeta(typeByte, data)
	if err != nil {
		return nil, newEncodeError(ErrVLQTooLarge, trackIdx, "meta event length", err)
	}
	return enc, nil
}

func encodeSysEx(se SysExEvent, trackIdx int) ([]byte, error) {
	var prefix byte
	var data []byte
	var terminated bool

	switch s := se.(type) {
	case NormalSysEx:
		prefix, data, terminated = 0xF0, s.Data, s.Terminated
	case ContinuationSysEx:
		prefix, data, terminated = 0xF7, s.Data, s.Terminated
	case AuthorizationSysEx:
		prefix, data, terminated = 0xF7, s.Data, s.Terminated
	default:
		return nil, newEncodeError(ErrInvalidModel, trackIdx, fmt.Sprintf("unknown sysex event type %T", s), nil)
	}

	payload := data
	if terminated {
		payload = append(append([]byte(nil), data...), 0xF7)
	}

	lenEnc, err := vlq.Encode(uint32(len(payload)))
	if err != nil {
		return nil, newEncodeError(ErrVLQTooLarge, trackIdx, "sysex length", err)
	}
	out := []byte{prefix}
	out = append(out, lenEnc...)
	out = append(out, payload...)
	return out, nil
}
