package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os/exec"

	"github.com/clipforge/clipforge/internal/models"
)

// FFmpegSource decodes frames and sample windows by spawning ffmpeg with
// rawvideo / f32le pipes. Asset ids resolve through the project's asset
// library; source dimensions come from the library's probed metadata.
type FFmpegSource struct {
	binary string
	assets *models.AssetLibrary
	format AudioFormat
	logger *slog.Logger

	// run executes one ffmpeg invocation; swappable in tests.
	run func(ctx context.Context, args []string) ([]byte, error)

	// stills caches decoded image assets. A still is time-invariant, so one
	// decode serves every timeline instant. A Source is owned by a single
	// render loop, so the map needs no lock.
	stills map[string]*image.RGBA
}

// NewFFmpegSource builds a source over the given asset library. binaryPath
// may be empty, in which case ffmpeg is resolved from PATH.
func NewFFmpegSource(binaryPath string, assets *models.AssetLibrary, format AudioFormat, logger *slog.Logger) (*FFmpegSource, error) {
	if binaryPath == "" {
		resolved, err := exec.LookPath("ffmpeg")
		if err != nil {
			return nil, fmt.Errorf("locating ffmpeg binary: %w", err)
		}
		binaryPath = resolved
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &FFmpegSource{
		binary: binaryPath,
		assets: assets,
		format: format,
		logger: logger.With(slog.String("component", "ffmpeg_source")),
		stills: make(map[string]*image.RGBA),
	}
	s.run = s.runFFmpeg
	return s, nil
}

// Format reports the normalized audio layout of decoded samples.
func (s *FFmpegSource) Format() AudioFormat {
	return s.format
}

// Close releases decoder resources. The ffmpeg source spawns short-lived
// processes per request and holds nothing open.
func (s *FFmpegSource) Close() error {
	return nil
}

// DecodeVideoFrame extracts a single RGBA frame at source time t. Still
// image assets ignore t, decode once and are served from the cache on every
// later call; callers mutate returned frames, so cache hits return a copy.
func (s *FFmpegSource) DecodeVideoFrame(ctx context.Context, assetID string, t float64) (*image.RGBA, error) {
	if cached, ok := s.stills[assetID]; ok {
		return cloneFrame(cached), nil
	}

	asset := s.assets.Find(assetID)
	if asset == nil {
		return nil, &models.MediaError{AssetID: assetID, Op: "decode_video_frame", Err: models.ErrNotFound}
	}

	width, height, ok := s.assetDimensions(assetID)
	if !ok {
		return nil, &models.MediaError{AssetID: assetID, Op: "decode_video_frame", Err: fmt.Errorf("asset has no video dimensions")}
	}

	args := []string{"-hide_banner", "-loglevel", "error"}
	if !s.isStill(assetID) {
		args = append(args, "-ss", formatSeconds(t))
	}
	args = append(args,
		"-i", asset.Path,
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-",
	)

	out, err := s.run(ctx, args)
	if err != nil {
		return nil, &models.MediaError{AssetID: assetID, Op: "decode_video_frame", Err: err}
	}

	want := width * height * 4
	if len(out) < want {
		return nil, &models.MediaError{
			AssetID: assetID,
			Op:      "decode_video_frame",
			Err:     fmt.Errorf("short frame: got %d of %d bytes (source exhausted at t=%.3f)", len(out), want, t),
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, out[:want])

	if s.isStill(assetID) {
		s.stills[assetID] = cloneFrame(img)
	}
	return img, nil
}

// DecodeAudioSamples extracts the interleaved f32le window [from, to),
// padded with silence when the source runs out.
func (s *FFmpegSource) DecodeAudioSamples(ctx context.Context, assetID string, from, to float64) ([]float32, error) {
	if to <= from {
		return nil, &models.MediaError{AssetID: assetID, Op: "decode_audio_samples", Err: fmt.Errorf("invalid window [%v, %v)", from, to)}
	}
	asset := s.assets.Find(assetID)
	if asset == nil {
		return nil, &models.MediaError{AssetID: assetID, Op: "decode_audio_samples", Err: models.ErrNotFound}
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", formatSeconds(from),
		"-t", formatSeconds(to - from),
		"-i", asset.Path,
		"-vn",
		"-f", "f32le",
		"-ar", fmt.Sprintf("%d", s.format.SampleRate),
		"-ac", fmt.Sprintf("%d", s.format.Channels),
		"-",
	}

	out, err := s.run(ctx, args)
	if err != nil {
		return nil, &models.MediaError{AssetID: assetID, Op: "decode_audio_samples", Err: err}
	}

	want := s.format.SamplesPerWindow(from, to)
	samples := make([]float32, want)
	n := len(out) / 4
	if n > want {
		n = want
	}
	for i := 0; i < n; i++ {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(out[i*4:]))
	}
	return samples, nil
}

func (s *FFmpegSource) isStill(assetID string) bool {
	for i := range s.assets.Images {
		if s.assets.Images[i].ID == assetID {
			return true
		}
	}
	return false
}

func cloneFrame(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}

func (s *FFmpegSource) assetDimensions(assetID string) (int, int, bool) {
	for i := range s.assets.Video {
		if s.assets.Video[i].ID == assetID {
			return s.assets.Video[i].Width, s.assets.Video[i].Height, true
		}
	}
	for i := range s.assets.Images {
		if s.assets.Images[i].ID == assetID {
			return s.assets.Images[i].Width, s.assets.Images[i].Height, true
		}
	}
	return 0, 0, false
}

func (s *FFmpegSource) runFFmpeg(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, msg)
	}
	return stdout.Bytes(), nil
}

func formatSeconds(t float64) string {
	return fmt.Sprintf("%.6f", t)
}
