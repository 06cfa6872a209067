package types

import "time"

// StreamInfo holds the fields of one logical stream's identification
// header, plus the duration inferred from page granule positions.
type StreamInfo struct {
	// Serial identifies the logical stream within the container.
	Serial uint32

	// Channels is the channel count (1 = mono, 2 = stereo).
	Channels int

	// SampleRate in Hz.
	SampleRate int

	// Declared bitrate bounds in bits per second. Encoders leave bounds
	// they make no commitment to at zero.
	BitrateMaximum int
	BitrateNominal int
	BitrateMinimum int

	// Duration of the stream, zero if it could not be determined.
	Duration time.Duration
}

// Bitrate resolves the declared bounds into a single bits-per-second
// figure. The nominal rate wins when it is consistent with the bounds;
// a nominal rate above the declared maximum or below the declared
// minimum is clamped to that bound. Without a nominal rate the bounds
// are averaged, or the single declared bound stands alone.
func (si *StreamInfo) Bitrate() int {
	hi, nominal, lo := si.BitrateMaximum, si.BitrateNominal, si.BitrateMinimum
	switch {
	case nominal == 0:
		if hi != 0 && lo != 0 {
			return (hi + lo) / 2
		}
		return hi + lo
	case hi != 0:
		return min(hi, nominal)
	case lo != 0:
		return max(lo, nominal)
	default:
		return nominal
	}
}
