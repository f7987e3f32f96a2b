package smf

// decodeConfig holds the resolved effect of every DecodeOption.
type decodeConfig struct {
	lenientRunningStatus bool
}

// DecodeOption configures Decode's behaviour. The zero value of every
// option is strict: the codec core has no ambient configuration, so every
// behavioural knob is explicit and opt-in at the call site.
type DecodeOption func(*decodeConfig)

// WithLenientRunningStatus enables recovery from a stray data byte with no
// running status in effect: instead of failing outright, the decoder scans
// forward for the next byte with the high bit set and resumes there,
// treating it as a fresh status byte. If no such byte exists before the
// track's chunk boundary, decoding still fails — this widens recovery, it
// does not disable strictness.
func WithLenientRunningStatus() DecodeOption {
	return func(c *decodeConfig) { c.lenientRunningStatus = true }
}

func resolveDecodeConfig(opts []DecodeOption) decodeConfig {
	var c decodeConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// encodeConfig holds the resolved effect of every EncodeOption.
type encodeConfig struct {
	useRunningStatus bool
}

// EncodeOption configures Encode's behaviour.
type EncodeOption func(*encodeConfig)

// WithRunningStatus enables running-status compression on encode: when two
// consecutive channel messages in a track share a status byte, the second
// omits it, matching what most real-world sequencers emit. Decode always
// accepts running status regardless of this option; it only controls
// whether Encode chooses to emit it.
func WithRunningStatus() EncodeOption {
	return func(c *encodeConfig) { c.useRunningStatus = true }
}

func resolveEncodeConfig(opts []EncodeOption) encodeConfig {
	var c encodeConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
