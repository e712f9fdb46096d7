// Package testutil provides test doubles and sample data for the render
// pipeline: an in-memory media source, a recording encoder sink and project
// builders. Nothing in this package touches ffmpeg or the filesystem.
package testutil

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/clipforge/clipforge/internal/encoder"
	"github.com/clipforge/clipforge/internal/media"
	"github.com/clipforge/clipforge/internal/models"
)

// FakeSource is an in-memory media.Source. Video assets decode to solid
// colour frames; audio assets decode to a constant sample value.
type FakeSource struct {
	// Colors maps asset id to the solid frame colour.
	Colors map[string]color.RGBA
	// Levels maps asset id to the constant sample value.
	Levels map[string]float32
	// FrameSize is the decoded frame size (default 64x36).
	FrameSize image.Point
	// AudioFormat is the reported format (default 48kHz stereo).
	AudioFormat media.AudioFormat

	// DecodeErr, when set, fails every decode with this error.
	DecodeErr error

	mu          sync.Mutex
	videoCalls  int
	audioCalls  int
	closedCount int
}

// NewFakeSource creates a fake source with defaults.
func NewFakeSource() *FakeSource {
	return &FakeSource{
		Colors:      map[string]color.RGBA{},
		Levels:      map[string]float32{},
		FrameSize:   image.Pt(64, 36),
		AudioFormat: media.DefaultAudioFormat(),
	}
}

// DecodeVideoFrame returns a solid colour frame for known assets.
func (s *FakeSource) DecodeVideoFrame(_ context.Context, assetID string, _ float64) (*image.RGBA, error) {
	s.mu.Lock()
	s.videoCalls++
	s.mu.Unlock()

	if s.DecodeErr != nil {
		return nil, s.DecodeErr
	}
	c, ok := s.Colors[assetID]
	if !ok {
		return nil, &models.MediaError{AssetID: assetID, Op: "decode_video_frame", Err: models.ErrNotFound}
	}

	img := image.NewRGBA(image.Rect(0, 0, s.FrameSize.X, s.FrameSize.Y))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img, nil
}

// DecodeAudioSamples returns a constant-valued window for known assets.
func (s *FakeSource) DecodeAudioSamples(_ context.Context, assetID string, from, to float64) ([]float32, error) {
	s.mu.Lock()
	s.audioCalls++
	s.mu.Unlock()

	if s.DecodeErr != nil {
		return nil, s.DecodeErr
	}
	level, ok := s.Levels[assetID]
	if !ok {
		return nil, &models.MediaError{AssetID: assetID, Op: "decode_audio_samples", Err: models.ErrNotFound}
	}

	samples := make([]float32, s.AudioFormat.SamplesPerWindow(from, to))
	for i := range samples {
		samples[i] = level
	}
	return samples, nil
}

// Format reports the configured audio layout.
func (s *FakeSource) Format() media.AudioFormat {
	return s.AudioFormat
}

// Close records the call.
func (s *FakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closedCount++
	return nil
}

// VideoCalls reports how many frames were decoded.
func (s *FakeSource) VideoCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoCalls
}

// Closed reports whether Close was called at least once.
func (s *FakeSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closedCount > 0
}

// FakeSink is a recording encoder.Sink.
type FakeSink struct {
	// WriteErr, when set, fails every frame write with this error.
	WriteErr error
	// BlockFrames, when non-nil, is received from before each frame write.
	// Closing or sending lets one frame through; it paces a render loop so a
	// test can cancel mid-render deterministically.
	BlockFrames chan struct{}

	mu        sync.Mutex
	frames    int
	samples   int
	finalized bool
	aborted   bool
}

// NewFakeSink creates an empty recording sink.
func NewFakeSink() *FakeSink {
	return &FakeSink{}
}

// WriteFrame counts one frame.
func (s *FakeSink) WriteFrame(frame *image.RGBA) error {
	if s.BlockFrames != nil {
		<-s.BlockFrames
	}
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	return nil
}

// WriteAudio counts one window's samples.
func (s *FakeSink) WriteAudio(samples []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples += len(samples)
	return nil
}

// Finalize marks the sink finished.
func (s *FakeSink) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.aborted {
		return fmt.Errorf("finalize after abort")
	}
	s.finalized = true
	return nil
}

// Abort marks the sink aborted.
func (s *FakeSink) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborted = true
	return nil
}

// Frames reports how many frames were written.
func (s *FakeSink) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Samples reports how many samples were written.
func (s *FakeSink) Samples() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples
}

// Finalized reports whether Finalize succeeded.
func (s *FakeSink) Finalized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}

// Aborted reports whether Abort was called.
func (s *FakeSink) Aborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}

// Factory returns an encoder.Factory handing out this sink.
func (s *FakeSink) Factory() encoder.Factory {
	return func(models.RenderSettings, media.AudioFormat, string) (encoder.Sink, error) {
		return s, nil
	}
}

var _ media.Source = (*FakeSource)(nil)
var _ encoder.Sink = (*FakeSink)(nil)
