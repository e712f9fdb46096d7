// Package media provides the decode collaborator consumed by the render
// core: video frames and audio sample windows by asset id and source time.
// The core never touches asset bytes itself.
package media

import (
	"context"
	"image"
)

// AudioFormat is the normalized sample layout a Source hands to the mixer:
// interleaved 32-bit float at the given rate and channel count. The source
// is responsible for resampling and channel mapping; the mixer never
// special-cases layouts.
type AudioFormat struct {
	SampleRate int
	Channels   int
}

// DefaultAudioFormat is 48kHz stereo, the render pipeline's working format.
func DefaultAudioFormat() AudioFormat {
	return AudioFormat{SampleRate: 48000, Channels: 2}
}

// SamplesPerWindow returns the interleaved sample count for the window
// [from, to) in seconds. Counts come from absolute sample-index boundaries,
// so adjacent windows tile exactly: their counts sum to the enclosing span's
// count even when samples-per-frame is fractional (29.97 or 23.976 fps
// output would otherwise drift by close to a second per hour).
func (f AudioFormat) SamplesPerWindow(from, to float64) int {
	lo := int(from*float64(f.SampleRate) + 0.5)
	hi := int(to*float64(f.SampleRate) + 0.5)
	if hi <= lo {
		return 0
	}
	return (hi - lo) * f.Channels
}

// Source decodes media for the render pipeline. Implementations must be safe
// for use from a single render loop; each job owns its own Source.
type Source interface {
	// DecodeVideoFrame decodes the frame of the asset nearest to source
	// time t. The returned frame is owned by the caller.
	DecodeVideoFrame(ctx context.Context, assetID string, t float64) (*image.RGBA, error)

	// DecodeAudioSamples decodes the sample window [from, to) of the asset
	// in the source's normalized format, padding with silence when the
	// window extends past the asset's end.
	DecodeAudioSamples(ctx context.Context, assetID string, from, to float64) ([]float32, error)

	// Format reports the normalized audio layout of decoded samples.
	Format() AudioFormat

	// Close releases any decoder resources.
	Close() error
}
