package encoder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/clipforge/clipforge/internal/media"
	"github.com/clipforge/clipforge/internal/models"
)

// FFmpegSink encodes via two ffmpeg passes: composited frames stream into a
// video-only encode over stdin while audio samples accumulate in a raw PCM
// spool file; Finalize muxes the two into the requested container. Streaming
// the video keeps memory flat regardless of render length, and spooling the
// audio avoids driving two live pipes into one process.
type FFmpegSink struct {
	binary     string
	settings   models.RenderSettings
	format     media.AudioFormat
	outputPath string
	logger     *slog.Logger

	cmd       *exec.Cmd
	stdin     *os.File
	stderr    *bytes.Buffer
	tmpVideo  string
	audioFile *os.File
	frameSize int
	finished  bool
}

// NewFFmpegFactory returns a Factory producing FFmpegSinks. binaryPath may
// be empty to resolve ffmpeg from PATH.
func NewFFmpegFactory(binaryPath string, logger *slog.Logger) Factory {
	return func(settings models.RenderSettings, format media.AudioFormat, outputPath string) (Sink, error) {
		return NewFFmpegSink(binaryPath, settings, format, outputPath, logger)
	}
}

// NewFFmpegSink starts the streaming video encode for one job.
func NewFFmpegSink(binaryPath string, settings models.RenderSettings, format media.AudioFormat, outputPath string, logger *slog.Logger) (*FFmpegSink, error) {
	if binaryPath == "" {
		resolved, err := exec.LookPath("ffmpeg")
		if err != nil {
			return nil, &models.EncodeError{Op: "start", Err: fmt.Errorf("locating ffmpeg binary: %w", err)}
		}
		binaryPath = resolved
	}
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &models.EncodeError{Op: "start", Err: err}
	}

	tmpVideo := outputPath + ".video.tmp.mkv"
	audioFile, err := os.CreateTemp(dir, ".clipforge-audio-*.pcm")
	if err != nil {
		return nil, &models.EncodeError{Op: "start", Err: err}
	}

	s := &FFmpegSink{
		binary:     binaryPath,
		settings:   settings,
		format:     format,
		outputPath: outputPath,
		logger:     logger.With(slog.String("component", "ffmpeg_sink")),
		tmpVideo:   tmpVideo,
		audioFile:  audioFile,
		frameSize:  settings.Resolution.Width * settings.Resolution.Height * 4,
	}

	if err := s.startVideoEncode(); err != nil {
		audioFile.Close()
		os.Remove(audioFile.Name())
		return nil, err
	}
	return s, nil
}

func (s *FFmpegSink) startVideoEncode() error {
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", s.settings.Resolution.Width, s.settings.Resolution.Height),
		"-r", fmt.Sprintf("%g", s.settings.FrameRate),
		"-i", "-",
	}
	args = append(args, videoCodecArgs(s.settings)...)
	args = append(args, s.tmpVideo)

	cmd := exec.Command(s.binary, args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdinRead, stdinWrite, err := os.Pipe()
	if err != nil {
		return &models.EncodeError{Op: "start", Err: err}
	}
	cmd.Stdin = stdinRead

	if err := cmd.Start(); err != nil {
		stdinRead.Close()
		stdinWrite.Close()
		return &models.EncodeError{Op: "start", Err: err}
	}
	stdinRead.Close()

	s.cmd = cmd
	s.stdin = stdinWrite
	s.stderr = stderr
	return nil
}

// WriteFrame streams one RGBA frame to the video encode.
func (s *FFmpegSink) WriteFrame(frame *image.RGBA) error {
	if len(frame.Pix) != s.frameSize {
		return &models.EncodeError{Op: "write_frame", Err: fmt.Errorf("frame size %d does not match output %d", len(frame.Pix), s.frameSize)}
	}
	if _, err := s.stdin.Write(frame.Pix); err != nil {
		return &models.EncodeError{Op: "write_frame", Err: s.wrapProcessError(err)}
	}
	return nil
}

// WriteAudio spools one f32 interleaved sample window.
func (s *FFmpegSink) WriteAudio(samples []float32) error {
	buf := make([]byte, len(samples)*4)
	for i, sample := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(sample))
	}
	if _, err := s.audioFile.Write(buf); err != nil {
		return &models.EncodeError{Op: "write_audio", Err: err}
	}
	return nil
}

// Finalize completes the video encode and muxes the audio spool into the
// output container.
func (s *FFmpegSink) Finalize() error {
	if s.finished {
		return nil
	}
	s.finished = true
	defer s.cleanupTemp()

	if err := s.stdin.Close(); err != nil {
		return &models.EncodeError{Op: "finalize", Err: err}
	}
	if err := s.cmd.Wait(); err != nil {
		return &models.EncodeError{Op: "finalize", Err: s.wrapProcessError(err)}
	}
	if err := s.audioFile.Sync(); err != nil {
		return &models.EncodeError{Op: "finalize", Err: err}
	}
	if err := s.audioFile.Close(); err != nil {
		return &models.EncodeError{Op: "finalize", Err: err}
	}

	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", s.tmpVideo,
		"-f", "f32le",
		"-ar", fmt.Sprintf("%d", s.format.SampleRate),
		"-ac", fmt.Sprintf("%d", s.format.Channels),
		"-i", s.audioFile.Name(),
		"-map", "0:v", "-map", "1:a",
		"-c:v", "copy",
	}
	args = append(args, audioCodecArgs(s.settings)...)
	args = append(args, s.outputPath)

	cmd := exec.Command(s.binary, args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return &models.EncodeError{Op: "finalize", Err: fmt.Errorf("muxing output: %w: %s", err, truncate(stderr.String()))}
	}

	s.logger.Debug("finalized output", slog.String("path", s.outputPath))
	return nil
}

// Abort kills the encode and removes partial files.
func (s *FFmpegSink) Abort() error {
	if s.finished {
		return nil
	}
	s.finished = true
	s.stdin.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	s.audioFile.Close()
	s.cleanupTemp()
	os.Remove(s.outputPath)
	return nil
}

func (s *FFmpegSink) cleanupTemp() {
	os.Remove(s.tmpVideo)
	os.Remove(s.audioFile.Name())
}

func (s *FFmpegSink) wrapProcessError(err error) error {
	if msg := truncate(s.stderr.String()); msg != "" {
		return fmt.Errorf("%w: %s", err, msg)
	}
	return err
}

// videoCodecArgs maps the quality tier and container tag onto codec
// settings. webm gets VP9; everything else encodes H.264.
func videoCodecArgs(settings models.RenderSettings) []string {
	if settings.Format == "webm" {
		crf := map[models.RenderQuality]string{
			models.QualityLow:      "45",
			models.QualityMedium:   "33",
			models.QualityHigh:     "24",
			models.QualityLossless: "0",
		}[settings.Quality]
		args := []string{"-c:v", "libvpx-vp9", "-crf", crf, "-b:v", "0"}
		if settings.Quality == models.QualityLossless {
			args = append(args, "-lossless", "1")
		}
		return args
	}

	switch settings.Quality {
	case models.QualityLow:
		return []string{"-c:v", "libx264", "-preset", "fast", "-crf", "30", "-pix_fmt", "yuv420p"}
	case models.QualityHigh:
		return []string{"-c:v", "libx264", "-preset", "slow", "-crf", "18", "-pix_fmt", "yuv420p"}
	case models.QualityLossless:
		return []string{"-c:v", "libx264", "-preset", "medium", "-qp", "0"}
	default:
		return []string{"-c:v", "libx264", "-preset", "medium", "-crf", "23", "-pix_fmt", "yuv420p"}
	}
}

func audioCodecArgs(settings models.RenderSettings) []string {
	if settings.Format == "webm" {
		return []string{"-c:a", "libopus", "-b:a", "128k"}
	}
	if settings.Quality == models.QualityLossless {
		return []string{"-c:a", "flac"}
	}
	return []string{"-c:a", "aac", "-b:a", "192k"}
}

func truncate(s string) string {
	if len(s) > 512 {
		return s[:512]
	}
	return s
}
