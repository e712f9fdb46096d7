package models

// Resolution is the output frame size in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RenderQuality selects the encoder quality tier.
type RenderQuality string

const (
	// QualityLow trades quality for speed and size.
	QualityLow RenderQuality = "low"
	// QualityMedium is the default balanced tier.
	QualityMedium RenderQuality = "medium"
	// QualityHigh favours quality over size.
	QualityHigh RenderQuality = "high"
	// QualityLossless encodes without lossy compression.
	QualityLossless RenderQuality = "lossless"
)

// IsValid returns true for a known quality tier.
func (q RenderQuality) IsValid() bool {
	switch q {
	case QualityLow, QualityMedium, QualityHigh, QualityLossless:
		return true
	}
	return false
}

// RenderSettings describe the requested output of a render job.
type RenderSettings struct {
	Resolution Resolution    `json:"resolution"`
	FrameRate  float64       `json:"frameRate"`
	Format     string        `json:"format"`
	Quality    RenderQuality `json:"quality"`
}

// Validate checks the settings are renderable.
func (s RenderSettings) Validate() error {
	if s.Resolution.Width <= 0 || s.Resolution.Height <= 0 {
		return ErrInvalidResolution
	}
	if s.FrameRate <= 0 {
		return ErrInvalidFrameRate
	}
	if !s.Quality.IsValid() {
		return ErrInvalidQuality
	}
	return nil
}

// RenderStatus is the lifecycle state of a render job.
// Valid transitions: queued → rendering → {completed | failed | cancelled},
// plus queued → cancelled for jobs cancelled before their loop starts.
type RenderStatus string

const (
	// StatusQueued means the job is registered but its loop has not started.
	StatusQueued RenderStatus = "queued"
	// StatusRendering means the job's render loop is stepping time.
	StatusRendering RenderStatus = "rendering"
	// StatusCompleted means every frame was written and the encoder finalized.
	StatusCompleted RenderStatus = "completed"
	// StatusFailed means an unrecoverable error stopped the loop.
	StatusFailed RenderStatus = "failed"
	// StatusCancelled means the job was cancelled cooperatively.
	StatusCancelled RenderStatus = "cancelled"
)

// IsTerminal returns true once the job can no longer change state.
func (s RenderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// RenderProgress is a point-in-time snapshot of a render job, safe to hand to
// callers because it is copied out under the job's lock.
type RenderProgress struct {
	JobID      string       `json:"jobId"`
	Status     RenderStatus `json:"status"`
	Progress   float64      `json:"progress"`
	Message    string       `json:"message"`
	OutputPath string       `json:"outputPath,omitempty"`
}
