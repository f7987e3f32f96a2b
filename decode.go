package smf

import (
	"errors"
	"fmt"
	"io"

	"github.com/wsharkey/go-smf/internal/chunk"
	"github.com/wsharkey/go-smf/internal/midihdr"
	"github.com/wsharkey/go-smf/internal/vlq"
)

// Decode reads a complete Standard MIDI File from r.
func Decode(r io.Reader, opts ...DecodeOption) (*MidiFile, error) {
	cfg := resolveDecodeConfig(opts)

	cr := chunk.NewReader(r)
	hdrChunk, err := cr.ReadChunk()
	if err != nil {
		return nil, wrapDecodeErr(err, -1)
	}
	if hdrChunk.ID != chunk.MThd {
		return nil, newDecodeError(ErrBadChunkID, -1, fmt.Sprintf("expected MThd, got %s", hdrChunk.ID), nil)
	}

	hdr, err := midihdr.Decode(hdrChunk.Payload)
	if err != nil {
		return nil, mapHeaderErr(err)
	}

	f := &MidiFile{Format: Format(hdr.Format), Division: convertDivision(hdr.Division)}

	for i := 0; i < int(hdr.NumTracks); i++ {
		trkChunk, err := cr.SkipUnknown(chunk.MTrk)
		if err != nil {
			return nil, wrapDecodeErr(err, i)
		}
		track, err := decodeTrack(trkChunk.Payload, i, cfg)
		if err != nil {
			return nil, err
		}
		f.Tracks = append(f.Tracks, track)
	}

	if len(f.Tracks) != int(hdr.NumTracks) {
		return nil, newDecodeError(ErrTrackCountMismatch, -1,
			fmt.Sprintf("header declares %d tracks, decoded %d", hdr.NumTracks, len(f.Tracks)), nil)
	}

	return f, nil
}

func wrapDecodeErr(err error, track int) error {
	if errors.Is(err, io.EOF) {
		return newDecodeError(ErrUnexpectedEOF, track, "", err)
	}
	return newDecodeError(ErrUnexpectedEOF, track, err.Error(), err)
}

func mapHeaderErr(err error) error {
	switch {
	case errors.Is(err, midihdr.ErrPayloadTooShort):
		return newDecodeError(ErrUnexpectedEOF, -1, "MThd payload too short", err)
	case errors.Is(err, midihdr.ErrUnknownFormat):
		return newDecodeError(ErrUnknownFormat, -1, err.Error(), err)
	case errors.Is(err, midihdr.ErrFormatTrackCount):
		return newDecodeError(ErrFormatTrackMismatch, -1, "", err)
	case errors.Is(err, midihdr.ErrUnknownSmpteRate):
		return newDecodeError(ErrUnknownSMPTERate, -1, err.Error(), err)
	default:
		return newDecodeError(ErrUnexpectedEOF, -1, err.Error(), err)
	}
}

func convertDivision(d midihdr.Division) Division {
	if d.SMPTE {
		return NewSMPTEDivision(SmpteRate(d.FramesPerSecond), d.TicksPerFrame)
	}
	return Division{TicksPerQuarter: d.TicksPerQuarter}
}

// trackDecoder holds the state threaded through one track's decode: the
// running-status register and the divided-SysEx pending flag. Neither
// leaks beyond a single decodeTrack call: a new trackDecoder is built fresh
// for every track, so running status and a pending SysEx division never
// carry over from one track to the next.
type trackDecoder struct {
	payload        []byte
	pos            int
	trackIdx       int
	cfg            decodeConfig
	runningStatus  byte
	hasRunning     bool
	sysexPending   bool // true after a non-terminated Normal SysEx
}

func decodeTrack(payload []byte, trackIdx int, cfg decodeConfig) (Track, error) {
	d := &trackDecoder{payload: payload, trackIdx: trackIdx, cfg: cfg}
	var track Track

	for d.pos < len(d.payload) {
		delta, err := d.readVLQ()
		if err != nil {
			return nil, err
		}

		ev, isEOT, err := d.decodeEvent()
		if err != nil {
			return nil, err
		}

		track = append(track, TrackEvent{Delta: delta, Event: ev})

		if isEOT {
			if d.pos != len(d.payload) {
				return nil, newDecodeError(ErrDataAfterEndOfTrack, trackIdx,
					fmt.Sprintf("%d bytes remain after EndOfTrack", len(d.payload)-d.pos), nil)
			}
			return track, nil
		}
	}

	return nil, newDecodeError(ErrMissingEndOfTrack, trackIdx, "", nil)
}

func (d *trackDecoder) readVLQ() (uint32, error) {
	v, n, err := vlq.DecodeBytes(d.payload[d.pos:])
	if err != nil {
		if err == vlq.ErrOverflow {
			return 0, newDecodeError(ErrVLQOverflow, d.trackIdx, "", err)
		}
		return 0, newDecodeError(ErrUnexpectedEOF, d.trackIdx, "truncated delta-time", err)
	}
	d.pos += n
	return v, nil
}

func (d *trackDecoder) peekByte() (byte, error) {
	if d.pos >= len(d.payload) {
		return 0, newDecodeError(ErrUnexpectedEOF, d.trackIdx, "expected event, found end of track chunk", nil)
	}
	return d.payload[d.pos], nil
}

func (d *trackDecoder) readByte() (byte, error) {
	b, err := d.peekByte()
	if err != nil {
		return 0, err
	}
	d.pos++
	return b, nil
}

func (d *trackDecoder) readBytes(n int) ([]byte, error) {
	if d.pos+n > len(d.payload) {
		return nil, newDecodeError(ErrUnexpectedEOF, d.trackIdx, "truncated event payload", nil)
	}
	out := make([]byte, n)
	copy(out, d.payload[d.pos:d.pos+n])
	d.pos += n
	return out, nil
}

// decodeEvent dispatches on the next byte: FF starts a meta event, F0/F7
// start a SysEx event, a status byte (high bit set) starts a channel
// message, and a bare data byte reuses the running status if one is set.
func (d *trackDecoder) decodeEvent() (Event, bool, error) {
	b, err := d.peekByte()
	if err != nil {
		return nil, false, err
	}

	switch {
	case b == 0xFF:
		d.pos++
		d.hasRunning = false
		me, isEOT, err := d.decodeMeta()
		if err != nil {
			return nil, false, err
		}
		return MetaEventWrapper{Event: me}, isEOT, nil

	case b == 0xF0:
		if d.sysexPending {
			return nil, false, newDecodeError(ErrDividedSysExInterleaved, d.trackIdx,
				"Normal SysEx opened while a previous division is still pending", nil)
		}
		d.pos++
		d.hasRunning = false
		sx, err := d.decodeNormalSysEx()
		if err != nil {
			return nil, false, err
		}
		return SysExEventWrapper{Event: sx}, false, nil

	case b == 0xF7:
		d.pos++
		d.hasRunning = false
		sx, err := d.decodeF7SysEx()
		if err != nil {
			return nil, false, err
		}
		return SysExEventWrapper{Event: sx}, false, nil

	case b >= 0x80:
		d.pos++
		d.runningStatus = b
		d.hasRunning = true
		ce, err := d.decodeChannelMessage(b)
		if err != nil {
			return nil, false, err
		}
		return ce, false, nil

	default:
		if !d.hasRunning {
			if d.cfg.lenientRunningStatus && d.recoverRunningStatus() {
				return d.decodeEvent()
			}
			return nil, false, newDecodeError(ErrUnexpectedDataByte, d.trackIdx,
				fmt.Sprintf("data byte 0x%02X with no running status", b), nil)
		}
		ce, err := d.decodeChannelMessage(d.runningStatus)
		if err != nil {
			return nil, false, err
		}
		return ce, false, nil
	}
}

func (d *trackDecoder) decodeChannelMessage(status byte) (ChannelEvent, error) {
	channel := status & 0x0F
	kind := status >> 4

	dataByte := func() (byte, error) {
		b, err := d.readByte()
		if err != nil {
			return 0, err
		}
		if b&0x80 != 0 {
			return 0, newDecodeError(ErrUnexpectedStatusByte, d.trackIdx,
				fmt.Sprintf("expected data byte, found status byte 0x%02X", b), nil)
		}
		return b, nil
	}

	var msg ChannelMessage
	switch kind {
	case 0x8:
		note, err := dataByte()
		if err != nil {
			return ChannelEvent{}, err
		}
		vel, err := dataByte()
		if err != nil {
			return ChannelEvent{}, err
		}
		msg = NoteOff{Note: note, Velocity: vel}
	case 0x9:
		note, err := dataByte()
		if err != nil {
			return ChannelEvent{}, err
		}
		vel, err := dataByte()
		if err != nil {
			return ChannelEvent{}, err
		}
		msg = NoteOn{Note: note, Velocity: vel}
	case 0xA:
		note, err := dataByte()
		if err != nil {
			return ChannelEvent{}, err
		}
		pressure, err := dataByte()
		if err != nil {
			return ChannelEvent{}, err
		}
		msg = NoteAftertouch{Note: note, Pressure: pressure}
	case 0xB:
		num, err := dataByte()
		if err != nil {
			return ChannelEvent{}, err
		}
		val, err := dataByte()
		if err != nil {
			return ChannelEvent{}, err
		}
		msg = Controller{Number: num, Value: val}
	case 0xC:
		program, err := dataByte()
		if err != nil {
			return ChannelEvent{}, err
		}
		msg = ProgramChange{Program: program}
	case 0xD:
		pressure, err := dataByte()
		if err != nil {
			return ChannelEvent{}, err
		}
		msg = ChannelAftertouch{Pressure: pressure}
	case 0xE:
		lsb, err := dataByte()
		if err != nil {
			return ChannelEvent{}, err
		}
		msb, err := dataByte()
		if err != nil {
			return ChannelEvent{}, err
		}
		msg = PitchBend{Value: (uint16(msb) << 7) | uint16(lsb)}
	default:
		return ChannelEvent{}, newDecodeError(ErrUnexpectedStatusByte, d.trackIdx,
			fmt.Sprintf("status byte 0x%02X is not a channel message", status), nil)
	}

	return ChannelEvent{Channel: channel, Message: msg}, nil
}

func (d *trackDecoder) readLengthPrefixed() ([]byte, error) {
	length, err := d.readVLQ()
	if err != nil {
		return nil, err
	}
	return d.readBytes(int(length))
}

// decodeMeta reads the type byte, VLQ length, and payload of a meta event,
// and dispatches to the variant named by the meta event's type byte.
func (d *trackDecoder) decodeMeta() (MetaEvent, bool, error) {
	typeByte, err := d.readByte()
	if err != nil {
		return nil, false, err
	}
	data, err := d.readLengthPrefixed()
	if err != nil {
		return nil, false, err
	}

	oor := func(detail string) (MetaEvent, bool, error) {
		return nil, false, newDecodeError(ErrMetaFieldOutOfRange, d.trackIdx, detail, nil)
	}

	switch typeByte {
	case 0x00:
		if len(data) < 2 {
			return oor("SequenceNumber requires 2 bytes")
		}
		return SequenceNumber{Number: uint16(data[0])<<8 | uint16(data[1])}, false, nil
	case 0x01:
		return Text{Data: data}, false, nil
	case 0x02:
		return Copyright{Data: data}, false, nil
	case 0x03:
		return TrackName{Data: data}, false, nil
	case 0x04:
		return InstrumentName{Data: data}, false, nil
	case 0x05:
		return Lyric{Data: data}, false, nil
	case 0x06:
		return Marker{Data: data}, false, nil
	case 0x07:
		return CuePoint{Data: data}, false, nil
	case 0x20:
		if len(data) < 1 {
			return oor("ChannelPrefix requires 1 byte")
		}
		return ChannelPrefix{Channel: data[0]}, false, nil
	case 0x2F:
		return EndOfTrack{}, true, nil
	case 0x51:
		if len(data) < 3 {
			return oor("SetTempo requires 3 bytes")
		}
		us := uint32(data[0])<<16 | uint32(data[1])<<8 | uint32(data[2])
		return SetTempo{MicrosecondsPerQuarter: us}, false, nil
	case 0x54:
		if len(data) < 5 {
			return oor("SmpteOffset requires 5 bytes")
		}
		rateCode := (data[0] >> 5) & 0x03
		hour := data[0] & 0x1F
		var rate SmpteRate
		switch rateCode {
		case 0:
			rate = Smpte24
		case 1:
			rate = Smpte25
		case 2:
			rate = Smpte29
		case 3:
			rate = Smpte30
		}
		if hour > 23 || data[1] > 59 || data[2] > 59 || data[3] > 30 || data[4] > 99 {
			return oor("SmpteOffset field out of range")
		}
		return SmpteOffset{Rate: rate, Hour: hour, Min: data[1], Sec: data[2], Frame: data[3], Subframe: data[4]}, false, nil
	case 0x58:
		if len(data) < 4 {
			return oor("TimeSignature requires 4 bytes")
		}
		if data[1] > 31 {
			return oor("TimeSignature denominator_pow2 > 31")
		}
		return TimeSignature{Numerator: data[0], DenominatorPow2: data[1], ClocksPerClick: data[2], ThirtySecondsPerQuarter: data[3]}, false, nil
	case 0x59:
		if len(data) < 2 {
			return oor("KeySignature requires 2 bytes")
		}
		sharps := int8(data[0])
		if sharps < -7 || sharps > 7 {
			return oor("KeySignature sharps out of -7..7")
		}
		if data[1] != 0 && data[1] != 1 {
			return oor("KeySignature mode not in {0,1}")
		}
		return KeySignature{Sharps: sharps, Mode: KeyMode(data[1])}, false, nil
	case 0x7F:
		return SequencerSpecific{Data: data}, false, nil
	default:
		return UnknownMeta{TypeByte: typeByte, Data: data}, false, nil
	}
}

// decodeNormalSysEx reads an F0-prefixed event.
func (d *trackDecoder) decodeNormalSysEx() (SysExEvent, error) {
	data, err := d.readLengthPrefixed()
	if err != nil {
		return nil, err
	}
	terminated := len(data) > 0 && data[len(data)-1] == 0xF7
	if terminated {
		data = data[:len(data)-1]
	}
	d.sysexPending = !terminated
	return NormalSysEx{Data: data, Terminated: terminated}, nil
}

// decodeF7SysEx reads an F7-prefixed event, classifying it as either a
// continuation of a pending Normal SysEx, or a standalone authorization.
func (d *trackDecoder) decodeF7SysEx() (SysExEvent, error) {
	data, err := d.readLengthPrefixed()
	if err != nil {
		return nil, err
	}

	terminated := len(data) > 0 && data[len(data)-1] == 0xF7
	if terminated {
		data = data[:len(data)-1]
	}

	if d.sysexPending {
		if terminated {
			d.sysexPending = false
		}
		return ContinuationSysEx{Data: data, Terminated: terminated}, nil
	}

	return AuthorizationSysEx{Data: data, Terminated: terminated}, nil
}

// recoverRunningStatus implements WithLenientRunningStatus: scan forward
// from the current position for the next byte with the high bit set, and
// resume there as a fresh status byte. Returns false if none is found
// before the track window ends.
func (d *trackDecoder) recoverRunningStatus() bool {
	for i := d.pos; i < len(d.payload); i++ {
		if d.payload[i]&0x80 != 0 {
			d.pos = i
			return true
		}
	}
	return false
}
