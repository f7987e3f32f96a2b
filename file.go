package smf

// Format identifies the SMF structural format (0, 1, or 2), mirrored from
// internal/midihdr so callers never need to import the internal package.
type Format uint16

const (
	Format0 Format = 0 // single track
	Format1 Format = 1 // multiple simultaneous tracks
	Format2 Format = 2 // multiple independent tracks/patterns
)

// TrackEvent pairs an Event with the delta-time (in ticks) since the
// previous event in the same track, exactly as it appears on the wire.
type TrackEvent struct {
	Delta uint32
	Event Event
}

// Track is an ordered sequence of TrackEvents. The last event, once the
// track is complete, must be an EndOfTrack meta event; EndTrack adds it,
// and Append keeps an existing one last for callers building a file by hand.
type Track []TrackEvent

// NewTrack returns an empty track. Use Append to add events; the track is
// not valid to encode until it ends with EndOfTrack. Append does not add
// one: call EndTrack, after which Append keeps EndOfTrack last.
func NewTrack() Track {
	return Track{}
}

// Append adds an event to the track, keeping EndOfTrack last. If the track
// currently ends with EndOfTrack, the new event is inserted before it and
// EndOfTrack is re-appended with delta 0; this lets callers build a track
// by repeated Append without tracking the terminal event themselves.
func (t Track) Append(delta uint32, event Event) Track {
	if n := len(t); n > 0 && isEndOfTrack(t[n-1].Event) {
		t = t[:n-1]
		t = append(t, TrackEvent{Delta: delta, Event: event})
		t = append(t, TrackEvent{Delta: 0, Event: MetaEventWrapper{Event: EndOfTrack{}}})
		return t
	}
	return append(t, TrackEvent{Delta: delta, Event: event})
}

// EndTrack appends the mandatory terminal EndOfTrack meta event if the
// track does not already end with one.
func (t Track) EndTrack(delta uint32) Track {
	if n := len(t); n > 0 && isEndOfTrack(t[n-1].Event) {
		return t
	}
	return append(t, TrackEvent{Delta: delta, Event: MetaEventWrapper{Event: EndOfTrack{}}})
}

// MidiFile is the fully decoded (or hand-built) representation of a
// Standard MIDI File: a format, a division, and its tracks.
//
// Format 0 files must carry exactly one track; this is enforced by Decode
// and by Encode, not by the struct itself, so a MidiFile can exist
// transiently in an invalid state while being constructed.
type MidiFile struct {
	Format   Format
	Division Division
	Tracks   []Track
}

// NewFile returns an empty MidiFile of the given format and division.
func NewFile(format Format, division Division) *MidiFile {
	return &MidiFile{Format: format, Division: division}
}

// AddTrack appends a new empty track and returns its index.
func (f *MidiFile) AddTrack() int {
	f.Tracks = append(f.Tracks, NewTrack())
	return len(f.Tracks) - 1
}
