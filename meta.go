package smf

import "fmt"

// KeyMode distinguishes major/minor for KeySignature.
type KeyMode uint8

const (
	Major KeyMode = 0
	Minor KeyMode = 1
)

func (m KeyMode) String() string {
	if m == Minor {
		return "minor"
	}
	return "major"
}

// MetaEvent is the sealed union of meta event payloads. The length byte
// is never stored on any variant: it is recomputed on encode.
type MetaEvent interface {
	isMetaEvent()
	fmt.Stringer
}

type SequenceNumber struct{ Number uint16 }

func (SequenceNumber) isMetaEvent()     {}
func (s SequenceNumber) String() string { return fmt.Sprintf("SequenceNumber(%d)", s.Number) }

type Text struct{ Data []byte }

func (Text) isMetaEvent()      {}
func (t Text) String() string  { return fmt.Sprintf("Text(%q)", t.Data) }

type Copyright struct{ Data []byte }

func (Copyright) isMetaEvent()     {}
func (c Copyright) String() string { return fmt.Sprintf("Copyright(%q)", c.Data) }

type TrackName struct{ Data []byte }

func (TrackName) isMetaEvent()     {}
func (t TrackName) String() string { return fmt.Sprintf("TrackName(%q)", t.Data) }

type InstrumentName struct{ Data []byte }

func (InstrumentName) isMetaEvent()     {}
func (i InstrumentName) String() string { return fmt.Sprintf("InstrumentName(%q)", i.Data) }

type Lyric struct{ Data []byte }

func (Lyric) isMetaEvent()     {}
func (l Lyric) String() string { return fmt.Sprintf("Lyric(%q)", l.Data) }

type Marker struct{ Data []byte }

func (Marker) isMetaEvent()     {}
func (m Marker) String() string { return fmt.Sprintf("Marker(%q)", m.Data) }

type CuePoint struct{ Data []byte }

func (CuePoint) isMetaEvent()     {}
func (c CuePoint) String() string { return fmt.Sprintf("CuePoint(%q)", c.Data) }

type ChannelPrefix struct{ Channel uint8 }

func (ChannelPrefix) isMetaEvent()     {}
func (c ChannelPrefix) String() string { return fmt.Sprintf("ChannelPrefix(%d)", c.Channel) }

// EndOfTrack is the mandatory terminal meta event, FF 2F 00.
type EndOfTrack struct{}

func (EndOfTrack) isMetaEvent()   {}
func (EndOfTrack) String() string { return "EndOfTrack" }

// SetTempo carries microseconds per quarter note (24-bit on the wire).
type SetTempo struct{ MicrosecondsPerQuarter uint32 }

func (SetTempo) isMetaEvent() {}
func (s SetTempo) String() string {
	return fmt.Sprintf("SetTempo(%d us/qn)", s.MicrosecondsPerQuarter)
}

// BPM returns the tempo in beats per minute (60,000,000 divided by
// microseconds per quarter note). A zero tempo has no defined BPM.
func (s SetTempo) BPM() (float64, bool) {
	if s.MicrosecondsPerQuarter == 0 {
		return 0, false
	}
	return 60_000_000.0 / float64(s.MicrosecondsPerQuarter), true
}

// SmpteOffset anchors a track to an absolute SMPTE timecode.
type SmpteOffset struct {
	Rate     SmpteRate
	Hour     uint8 // 0..23
	Min      uint8 // 0..59
	Sec      uint8 // 0..59
	Frame    uint8 // 0..30
	Subframe uint8 // 0..99
}

func (SmpteOffset) isMetaEvent() {}
func (s SmpteOffset) String() string {
	return fmt.Sprintf("SmpteOffset(%s %02d:%02d:%02d.%02d+%d)",
		s.Rate, s.Hour, s.Min, s.Sec, s.Frame, s.Subframe)
}

// TimeSignature carries the four raw wire fields of the FF 58 meta event.
type TimeSignature struct {
	Numerator               uint8
	DenominatorPow2         uint8 // denominator = 2^DenominatorPow2
	ClocksPerClick          uint8
	ThirtySecondsPerQuarter uint8
}

func (TimeSignature) isMetaEvent() {}
func (t TimeSignature) String() string {
	return fmt.Sprintf("TimeSignature(%d/%d, %d clocks/click, %d/32 per qn)",
		t.Numerator, uint32(1)<<t.DenominatorPow2, t.ClocksPerClick, t.ThirtySecondsPerQuarter)
}

// Denominator returns the actual time signature denominator (2^pow2).
func (t TimeSignature) Denominator() uint32 { return uint32(1) << t.DenominatorPow2 }

// KeySignature carries the circle-of-fifths sharps/flats count and mode.
type KeySignature struct {
	Sharps int8 // -7..7; negative means flats
	Mode   KeyMode
}

func (KeySignature) isMetaEvent()     { }
func (k KeySignature) String() string { return fmt.Sprintf("KeySignature(%s)", k.Name()) }

// Name renders the key signature as e.g. "3 sharps major" or "2 flats minor".
func (k KeySignature) Name() string {
	switch {
	case k.Sharps == 0:
		return fmt.Sprintf("0 sharps %s", k.Mode)
	case k.Sharps > 0:
		return fmt.Sprintf("%d sharps %s", k.Sharps, k.Mode)
	default:
		return fmt.Sprintf("%d flats %s", -k.Sharps, k.Mode)
	}
}

type SequencerSpecific struct{ Data []byte }

func (SequencerSpecific) isMetaEvent() {}
func (s SequencerSpecific) String() string {
	return fmt.Sprintf("SequencerSpecific(%d bytes)", len(s.Data))
}

// UnknownMeta preserves a meta event whose type byte this codec does not
// otherwise recognize, so forward-compatible files round-trip unchanged.
type UnknownMeta struct {
	TypeByte uint8
	Data     []byte
}

func (UnknownMeta) isMetaEvent() {}
func (u UnknownMeta) String() string {
	return fmt.Sprintf("UnknownMeta(type=0x%02X, %d bytes)", u.TypeByte, len(u.Data))
}
