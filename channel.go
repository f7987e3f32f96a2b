package smf

import "fmt"

// ChannelMessage is the sealed union of the seven channel voice message
// shapes. Concrete types: NoteOff, NoteOn, NoteAftertouch, Controller,
// ProgramChange, ChannelAftertouch, PitchBend.
type ChannelMessage interface {
	isChannelMessage()
	fmt.Stringer
}

// NoteOff releases a sounding note.
type NoteOff struct {
	Note     uint8 // 0..127
	Velocity uint8 // 0..127
}

func (NoteOff) isChannelMessage() {}
func (n NoteOff) String() string  { return fmt.Sprintf("NoteOff(note=%d vel=%d)", n.Note, n.Velocity) }

// NoteOn starts a note. A velocity of 0 is wire-identical to a note-off and
// is preserved as-is by this codec; callers that want "velocity-0 means
// off" semantics apply that themselves (spec does not mandate it).
type NoteOn struct {
	Note     uint8
	Velocity uint8
}

func (NoteOn) isChannelMessage() {}
func (n NoteOn) String() string  { return fmt.Sprintf("NoteOn(note=%d vel=%d)", n.Note, n.Velocity) }

// NoteAftertouch carries per-note pressure (polyphonic key pressure).
type NoteAftertouch struct {
	Note     uint8
	Pressure uint8
}

func (NoteAftertouch) isChannelMessage() {}
func (n NoteAftertouch) String() string {
	return fmt.Sprintf("NoteAftertouch(note=%d pressure=%d)", n.Note, n.Pressure)
}

// Controller is a control change message.
type Controller struct {
	Number uint8 // 0..127
	Value  uint8 // 0..127
}

func (Controller) isChannelMessage() {}
func (c Controller) String() string {
	return fmt.Sprintf("Controller(num=%d val=%d)", c.Number, c.Value)
}

// ProgramChange selects an instrument patch.
type ProgramChange struct {
	Program uint8
}

func (ProgramChange) isChannelMessage() {}
func (p ProgramChange) String() string  { return fmt.Sprintf("ProgramChange(%d)", p.Program) }

// ChannelAftertouch carries channel-wide pressure.
type ChannelAftertouch struct {
	Pressure uint8
}

func (ChannelAftertouch) isChannelMessage() {}
func (c ChannelAftertouch) String() string {
	return fmt.Sprintf("ChannelAftertouch(%d)", c.Pressure)
}

// PitchBend carries a 14-bit pitch wheel position, 0..16383 (8192 center).
type PitchBend struct {
	Value uint16
}

func (PitchBend) isChannelMessage() {}
func (p PitchBend) String() string  { return fmt.Sprintf("PitchBend(%d)", p.Value) }
