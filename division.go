package smf

import "fmt"

// SmpteRate is the frame rate used by SMPTE-based division and by the
// SmpteOffset meta event. 29 represents 29.97 drop-frame, per the Standard
// MIDI File convention.
type SmpteRate int8

const (
	Smpte24 SmpteRate = 24
	Smpte25 SmpteRate = 25
	Smpte29 SmpteRate = 29 // 29.97 drop-frame
	Smpte30 SmpteRate = 30
)

// String returns a human-readable frame rate, spelling out the drop-frame
// case explicitly.
func (r SmpteRate) String() string {
	switch r {
	case Smpte24:
		return "24fps"
	case Smpte25:
		return "25fps"
	case Smpte29:
		return "29.97fps (drop-frame)"
	case Smpte30:
		return "30fps"
	default:
		return fmt.Sprintf("SmpteRate(%d)", int8(r))
	}
}

// Valid reports whether r is one of the four rates SMF permits.
func (r SmpteRate) Valid() bool {
	switch r {
	case Smpte24, Smpte25, Smpte29, Smpte30:
		return true
	default:
		return false
	}
}

// Division is the tagged union of the two timing bases a file can use:
// pulses-per-quarter-note timing, or SMPTE timecode timing. Exactly one of
// the two forms applies, selected by SMPTE.
type Division struct {
	SMPTE bool

	// Valid when !SMPTE: ticks per quarter note, 1..32767.
	TicksPerQuarter uint16

	// Valid when SMPTE.
	FramesPerSecond SmpteRate
	TicksPerFrame   uint8
}

// NewPPQDivision builds a ticks-per-quarter-note Division. Zero is clamped
// to 1, matching the decoder's tolerance for malformed real-world files.
func NewPPQDivision(ticksPerQuarter uint16) Division {
	if ticksPerQuarter == 0 {
		ticksPerQuarter = 1
	}
	return Division{TicksPerQuarter: ticksPerQuarter & 0x7FFF}
}

// NewSMPTEDivision builds an SMPTE Division.
func NewSMPTEDivision(rate SmpteRate, ticksPerFrame uint8) Division {
	return Division{SMPTE: true, FramesPerSecond: rate, TicksPerFrame: ticksPerFrame}
}

// String renders the division for debugging.
func (d Division) String() string {
	if d.SMPTE {
		return fmt.Sprintf("SMPTE(%s, %d ticks/frame)", d.FramesPerSecond, d.TicksPerFrame)
	}
	return fmt.Sprintf("%d ticks/quarter", d.TicksPerQuarter)
}

// TicksPerSecond returns the number of ticks corresponding to one second of
// wall-clock time, given the current tempo for PPQ files (microseconds per
// quarter note) or independent of tempo for SMPTE files. It only converts
// units; it does not schedule or play anything.
func (d Division) TicksPerSecond(microsecondsPerQuarter uint32) (float64, bool) {
	if d.SMPTE {
		if !d.FramesPerSecond.Valid() {
			return 0, false
		}
		return float64(d.FramesPerSecond) * float64(d.TicksPerFrame), true
	}
	if microsecondsPerQuarter == 0 || d.TicksPerQuarter == 0 {
		return 0, false
	}
	quartersPerSecond := 1_000_000.0 / float64(microsecondsPerQuarter)
	return quartersPerSecond * float64(d.TicksPerQuarter), true
}
