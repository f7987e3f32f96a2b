package midihdr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Format0(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x60}
	h, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, Format0, h.Format)
	assert.Equal(t, uint16(1), h.NumTracks)
	assert.Equal(t, uint16(96), h.Division.TicksPerQuarter)
	assert.False(t, h.Division.SMPTE)
}

func TestDecode_IgnoresTrailingBytes(t *testing.T) {
	payload := []byte{0x00, 0x01, 0x00, 0x02, 0x01, 0xE0, 0xAA, 0xBB, 0xCC}
	h, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, Format1, h.Format)
}

func TestDecode_PayloadTooShort(t *testing.T) {
	_, err := Decode([]byte{0x00, 0x00, 0x00})
	assert.ErrorIs(t, err, ErrPayloadTooShort)
}

func TestDecode_UnknownFormat(t *testing.T) {
	_, err := Decode([]byte{0x00, 0x03, 0x00, 0x01, 0x00, 0x60})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDecode_FormatTrackMismatch(t *testing.T) {
	_, err := Decode([]byte{0x00, 0x00, 0x00, 0x02, 0x00, 0x60})
	assert.ErrorIs(t, err, ErrFormatTrackCount)
}

func TestDecode_ZeroPPQClampedToOne(t *testing.T) {
	h, err := Decode([]byte{0x00, 0x01, 0x00, 0x01, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, uint16(1), h.Division.TicksPerQuarter)
}

// Standard SMF SMPTE division encodes the negative frame rate as the full
// signed top byte (0xE8=-24, 0xE7=-25, 0xE3=-29, 0xE2=-30), per the real
// Standard MIDI File specification; see DESIGN.md for why the
// specification's own 0x9978 worked example is not used verbatim here.
func TestDecode_SMPTE(t *testing.T) {
	tests := []struct {
		name          string
		raw           []byte
		wantRate      int8
		wantTicksPerF uint8
	}{
		{"24fps", []byte{0xE8, 0x50}, 24, 0x50},
		{"25fps", []byte{0xE7, 0x28}, 25, 0x28},
		{"29.97 drop", []byte{0xE3, 0x78}, 29, 0x78},
		{"30fps", []byte{0xE2, 0x04}, 30, 0x04},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := append([]byte{0x00, 0x01, 0x00, 0x01}, tt.raw...)
			h, err := Decode(payload)
			require.NoError(t, err)
			require.True(t, h.Division.SMPTE)
			assert.Equal(t, tt.wantRate, h.Division.FramesPerSecond)
			assert.Equal(t, tt.wantTicksPerF, h.Division.TicksPerFrame)

			// Round-trip through Encode.
			reenc := Encode(h)
			assert.Equal(t, payload, reenc)
		})
	}
}

func TestDecode_UnknownSmpteRate(t *testing.T) {
	_, err := Decode([]byte{0x00, 0x01, 0x00, 0x01, 0x80, 0x00}) // 0x80 is -128 as a signed byte: not a valid rate
	assert.ErrorIs(t, err, ErrUnknownSmpteRate)
}

func TestEncode_RoundTripsPPQ(t *testing.T) {
	h := Header{Format: Format1, NumTracks: 3, Division: Division{TicksPerQuarter: 480}}
	enc := Encode(h)
	assert.Len(t, enc, 6)

	got, err := Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}
