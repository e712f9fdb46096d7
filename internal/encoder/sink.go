// Package encoder provides the encoding sink the render loop writes frames
// and audio into. Container multiplexing quirks are delegated to ffmpeg; the
// render core only sees this interface.
package encoder

import (
	"image"

	"github.com/clipforge/clipforge/internal/media"
	"github.com/clipforge/clipforge/internal/models"
)

// Sink receives composited frames and mixed audio windows in strictly
// increasing time order and produces the output file. Finalize must only be
// called on the success path; Abort discards partial output.
type Sink interface {
	// WriteFrame encodes one video frame. Frames arrive in presentation
	// order at the configured frame rate.
	WriteFrame(frame *image.RGBA) error

	// WriteAudio encodes one interleaved f32 sample window matching the
	// frame just written.
	WriteAudio(samples []float32) error

	// Finalize flushes the encoder and writes the container trailer.
	Finalize() error

	// Abort stops encoding and removes partial output.
	Abort() error
}

// Factory builds a sink for one render job.
type Factory func(settings models.RenderSettings, format media.AudioFormat, outputPath string) (Sink, error)
