package smf

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_MinimalFormat0(t *testing.T) {
	raw := []byte{
		0x4D, 0x54, 0x68, 0x64, 0x00, 0x00, 0x00, 0x06, 0x00, 0x00, 0x00, 0x01, 0x00, 0x60,
		0x4D, 0x54, 0x72, 0x6B, 0x00, 0x00, 0x00, 0x04, 0x00, 0xFF, 0x2F, 0x00,
	}
	f, err := Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, Format0, f.Format)
	assert.Equal(t, uint16(96), f.Division.TicksPerQuarter)
	require.Len(t, f.Tracks, 1)
	want := Track{{Delta: 0, Event: MetaEventWrapper{Event: EndOfTrack{}}}}
	if diff := cmp.Diff(want, f.Tracks[0]); diff != "" {
		t.Errorf("track mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, f))
	assert.Equal(t, raw, buf.Bytes())
}

func TestDecode_RunningStatus(t *testing.T) {
	trackBody := []byte{0x00, 0x90, 0x3C, 0x40, 0x30, 0x3C, 0x00, 0x00, 0xFF, 0x2F, 0x00}
	f := buildFile(t, Format0, NewPPQDivision(96), trackBody)

	require.Len(t, f.Tracks, 1)
	require.Len(t, f.Tracks[0], 3)

	assert.Equal(t, uint32(0), f.Tracks[0][0].Delta)
	assert.Equal(t, ChannelEvent{Channel: 0, Message: NoteOn{Note: 0x3C, Velocity: 0x40}}, f.Tracks[0][0].Event)

	assert.Equal(t, uint32(0x30), f.Tracks[0][1].Delta)
	assert.Equal(t, ChannelEvent{Channel: 0, Message: NoteOn{Note: 0x3C, Velocity: 0x00}}, f.Tracks[0][1].Event)

	assert.True(t, isEndOfTrack(f.Tracks[0][2].Event))
}

func TestDecode_Tempo(t *testing.T) {
	trackBody := []byte{0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20, 0x00, 0xFF, 0x2F, 0x00}
	f := buildFile(t, Format0, NewPPQDivision(96), trackBody)

	require.Len(t, f.Tracks[0], 2)
	tempo, ok := f.Tracks[0][0].Event.(MetaEventWrapper).Event.(SetTempo)
	require.True(t, ok)
	assert.Equal(t, uint32(500000), tempo.MicrosecondsPerQuarter)
	bpm, ok := tempo.BPM()
	require.True(t, ok)
	assert.InDelta(t, 120.0, bpm, 0.0001)
}

func TestDecode_DividedSysEx(t *testing.T) {
	trackBody := []byte{
		0x00, 0xF0, 0x03, 0x43, 0x12, 0x00,
		0x81, 0x70, 0xF7, 0x04, 0x43, 0x12, 0x00, 0xF7,
		0x00, 0xFF, 0x2F, 0x00,
	}
	f := buildFile(t, Format0, NewPPQDivision(96), trackBody)

	require.Len(t, f.Tracks[0], 3)

	normal, ok := f.Tracks[0][0].Event.(SysExEventWrapper).Event.(NormalSysEx)
	require.True(t, ok)
	assert.Equal(t, []byte{0x43, 0x12, 0x00}, normal.Data)
	assert.False(t, normal.Terminated)

	assert.Equal(t, uint32(0xF0), f.Tracks[0][1].Delta) // 0x81 0x70 VLQ = 0xF0
	cont, ok := f.Tracks[0][1].Event.(SysExEventWrapper).Event.(ContinuationSysEx)
	require.True(t, ok)
	assert.Equal(t, []byte{0x43, 0x12, 0x00}, cont.Data)
	assert.True(t, cont.Terminated)

	assert.True(t, isEndOfTrack(f.Tracks[0][2].Event))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, f))
	assert.Equal(t, trackBody, buf.Bytes()[len(buf.Bytes())-len(trackBody):])
}

func TestDecode_UnknownMetaPreserved(t *testing.T) {
	trackBody := []byte{0x00, 0xFF, 0x33, 0x02, 0xAB, 0xCD, 0x00, 0xFF, 0x2F, 0x00}
	f := buildFile(t, Format0, NewPPQDivision(96), trackBody)

	require.Len(t, f.Tracks[0], 2)
	unk, ok := f.Tracks[0][0].Event.(MetaEventWrapper).Event.(UnknownMeta)
	require.True(t, ok)
	assert.Equal(t, uint8(0x33), unk.TypeByte)
	assert.Equal(t, []byte{0xAB, 0xCD}, unk.Data)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, f))
	raw := fullFileBytes(t, Format0, NewPPQDivision(96), trackBody)
	assert.Equal(t, raw, buf.Bytes())
}

func TestDecode_FormatMismatchRejected(t *testing.T) {
	raw := []byte{
		0x4D, 0x54, 0x68, 0x64, 0x00, 0x00, 0x00, 0x06, 0x00, 0x00, 0x00, 0x02, 0x00, 0x60,
		0x4D, 0x54, 0x72, 0x6B, 0x00, 0x00, 0x00, 0x04, 0x00, 0xFF, 0x2F, 0x00,
	}
	_, err := Decode(bytes.NewReader(raw))
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrFormatTrackMismatch, de.Kind)
}

func TestDecode_MissingEndOfTrack(t *testing.T) {
	raw := fullFileBytesRaw(Format0, NewPPQDivision(96), []byte{0x00, 0x90, 0x3C, 0x40})
	_, err := Decode(bytes.NewReader(raw))
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrMissingEndOfTrack, de.Kind)
}

func TestDecode_DataAfterEndOfTrack(t *testing.T) {
	trackBody := []byte{0x00, 0xFF, 0x2F, 0x00, 0x00, 0x90, 0x3C, 0x40}
	raw := fullFileBytesRaw(Format0, NewPPQDivision(96), trackBody)
	_, err := Decode(bytes.NewReader(raw))
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrDataAfterEndOfTrack, de.Kind)
}

func TestDecode_UnexpectedDataByte(t *testing.T) {
	trackBody := []byte{0x00, 0x3C, 0x40, 0x00, 0xFF, 0x2F, 0x00}
	raw := fullFileBytesRaw(Format0, NewPPQDivision(96), trackBody)
	_, err := Decode(bytes.NewReader(raw))
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrUnexpectedDataByte, de.Kind)
}

func TestDecode_LenientRunningStatusRecovers(t *testing.T) {
	// A stray data byte followed by a plausible status byte: strict mode
	// fails, lenient mode recovers by skipping to the next status byte.
	trackBody := []byte{0x00, 0x3C, 0x90, 0x3C, 0x40, 0x00, 0xFF, 0x2F, 0x00}
	raw := fullFileBytesRaw(Format0, NewPPQDivision(96), trackBody)

	_, err := Decode(bytes.NewReader(raw))
	require.Error(t, err)

	f, err := Decode(bytes.NewReader(raw), WithLenientRunningStatus())
	require.NoError(t, err)
	require.Len(t, f.Tracks[0], 2)
	assert.Equal(t, ChannelEvent{Channel: 0, Message: NoteOn{Note: 0x3C, Velocity: 0x40}}, f.Tracks[0][0].Event)
}

func TestDecode_DividedSysExInterleaved(t *testing.T) {
	// A Normal SysEx left open, then a second Normal SysEx instead of the
	// required F7 continuation: once a division is pending, the next
	// SysEx-class event must be F7-prefixed.
	trackBody := []byte{
		0x00, 0xF0, 0x02, 0x43, 0x12,
		0x00, 0xF0, 0x02, 0x43, 0x12,
		0x00, 0xFF, 0x2F, 0x00,
	}
	raw := fullFileBytesRaw(Format0, NewPPQDivision(96), trackBody)
	_, err := Decode(bytes.NewReader(raw))
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrDividedSysExInterleaved, de.Kind)
}

func TestRoundTrip_ChannelMessages(t *testing.T) {
	f := NewFile(Format0, NewPPQDivision(120))
	f.AddTrack()
	tr := f.Tracks[0]
	tr = tr.Append(0, ChannelEvent{Channel: 2, Message: NoteOn{Note: 64, Velocity: 100}})
	tr = tr.Append(10, ChannelEvent{Channel: 2, Message: Controller{Number: 7, Value: 127}})
	tr = tr.Append(5, ChannelEvent{Channel: 2, Message: PitchBend{Value: 8192}})
	tr = tr.EndTrack(0)
	f.Tracks[0] = tr

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, f))

	got, err := Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	if diff := cmp.Diff(f, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// TestRoundTrip_SysEx guards against a complete (self-terminated) SysEx
// message silently turning into a division opener on re-encode: a Normal
// SysEx that already carries its trailing F7 must keep carrying it, or a
// following standalone Authorization event would decode back as a
// Continuation instead.
func TestRoundTrip_SysEx(t *testing.T) {
	trackBody := []byte{
		0x00, 0xF0, 0x03, 0x01, 0x02, 0xF7,
		0x00, 0xF7, 0x02, 0x03, 0xF7,
		0x00, 0xFF, 0x2F, 0x00,
	}
	raw := fullFileBytesRaw(Format0, NewPPQDivision(96), trackBody)

	f, err := Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, f.Tracks[0], 3)

	normal, ok := f.Tracks[0][0].Event.(SysExEventWrapper).Event.(NormalSysEx)
	require.True(t, ok)
	assert.Equal(t, []byte{0x01, 0x02}, normal.Data)
	assert.True(t, normal.Terminated)

	auth, ok := f.Tracks[0][1].Event.(SysExEventWrapper).Event.(AuthorizationSysEx)
	require.True(t, ok)
	assert.Equal(t, []byte{0x03}, auth.Data)
	assert.True(t, auth.Terminated)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, f))
	assert.Equal(t, raw, buf.Bytes())

	got, err := Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	if diff := cmp.Diff(f, got); diff != "" {
		t.Errorf("sysex round trip mismatch (-want +got):\n%s", diff)
	}
}

// --- test helpers ---

func buildFile(t *testing.T, format Format, div Division, trackBody []byte) *MidiFile {
	t.Helper()
	raw := fullFileBytesRaw(format, div, trackBody)
	f, err := Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return f
}

func fullFileBytes(t *testing.T, format Format, div Division, trackBody []byte) []byte {
	t.Helper()
	return fullFileBytesRaw(format, div, trackBody)
}

func fullFileBytesRaw(format Format, div Division, trackBody []byte) []byte {
	var divBytes [2]byte
	if div.SMPTE {
		divBytes[0] = byte(int8(-div.FramesPerSecond))
		divBytes[1] = div.TicksPerFrame
		divBytes[0] |= 0x80
	} else {
		divBytes[0] = byte(div.TicksPerQuarter >> 8)
		divBytes[1] = byte(div.TicksPerQuarter)
	}

	out := []byte{'M', 'T', 'h', 'd', 0, 0, 0, 6, 0, byte(format), 0, 1, divBytes[0], divBytes[1]}
	out = append(out, 'M', 'T', 'r', 'k')
	var lenBytes [4]byte
	lenBytes[0] = byte(len(trackBody) >> 24)
	lenBytes[1] = byte(len(trackBody) >> 16)
	lenBytes[2] = byte(len(trackBody) >> 8)
	lenBytes[3] = byte(len(trackBody))
	out = append(out, lenBytes[:]...)
	out = append(out, trackBody...)
	return out
}
