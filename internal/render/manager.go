// Package render owns the render job lifecycle: it accepts render requests,
// drives the per-frame loop (compositor + mixer + encoder), tracks progress
// and honours cooperative cancellation.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v4/cpu"

	"github.com/clipforge/clipforge/internal/audio"
	"github.com/clipforge/clipforge/internal/compositor"
	"github.com/clipforge/clipforge/internal/encoder"
	"github.com/clipforge/clipforge/internal/media"
	"github.com/clipforge/clipforge/internal/models"
	"github.com/clipforge/clipforge/internal/timeline"
)

// SourceOpener builds the media decode collaborator for one job's project.
type SourceOpener func(project *models.Project) (media.Source, error)

// HistoryRecorder persists terminal job records. Implementations must be
// safe for concurrent use.
type HistoryRecorder interface {
	Record(ctx context.Context, rec *models.RenderJobRecord) error
}

// Manager is the render job registry and scheduler. It is owned by the
// application root and injected wherever render commands are handled; the
// registry map is guarded by a mutex with minimal critical sections.
type Manager struct {
	openSource SourceOpener
	newSink    encoder.Factory
	logger     *slog.Logger
	history    HistoryRecorder

	mu   sync.RWMutex
	jobs map[string]*Job

	// sem bounds concurrently rendering jobs; each job owns exclusive
	// decoder and encoder processes, so unbounded concurrency risks
	// resource exhaustion.
	sem chan struct{}

	retention time.Duration
	cron      *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithHistory persists terminal jobs through the given recorder.
func WithHistory(history HistoryRecorder) Option {
	return func(m *Manager) { m.history = history }
}

// WithMaxConcurrent bounds the number of simultaneously rendering jobs.
// Values below 1 fall back to the CPU-derived default.
func WithMaxConcurrent(n int) Option {
	return func(m *Manager) {
		if n >= 1 {
			m.sem = make(chan struct{}, n)
		}
	}
}

// WithRetention sets how long terminal jobs stay queryable before the
// scheduled cleanup evicts them. Zero disables eviction.
func WithRetention(d time.Duration) Option {
	return func(m *Manager) { m.retention = d }
}

// NewManager creates a render job manager.
func NewManager(openSource SourceOpener, newSink encoder.Factory, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		openSource: openSource,
		newSink:    newSink,
		logger:     slog.Default(),
		jobs:       make(map[string]*Job),
		retention:  time.Hour,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(slog.String("component", "render_manager"))
	if m.sem == nil {
		m.sem = make(chan struct{}, defaultMaxConcurrent())
	}
	return m
}

// defaultMaxConcurrent bounds render concurrency by physical core count.
func defaultMaxConcurrent() int {
	n, err := cpu.Counts(false)
	if err != nil || n < 1 {
		return 2
	}
	if n > 8 {
		return 8
	}
	return n
}

// Start launches the scheduled cleanup of stale terminal jobs.
func (m *Manager) Start() {
	if m.retention <= 0 {
		return
	}
	m.cron = cron.New()
	//nolint:errcheck // constant schedule expression
	m.cron.AddFunc("@every 1m", m.evictStaleJobs)
	m.cron.Start()
}

// Shutdown cancels all live jobs and waits for their loops to stop, or for
// the context to expire.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.cron != nil {
		m.cron.Stop()
	}

	m.mu.RLock()
	for _, job := range m.jobs {
		job.cancel()
	}
	m.mu.RUnlock()
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartRender registers a new job over a private snapshot of the project and
// spawns its render loop. The returned id is immediately queryable.
func (m *Manager) StartRender(project *models.Project, settings models.RenderSettings, outputPath string) (string, error) {
	if err := settings.Validate(); err != nil {
		return "", err
	}
	if outputPath == "" {
		return "", fmt.Errorf("output path is required")
	}
	// Order violations would make resolution ill-defined; reject them here
	// rather than mid-render. Warnings do not block rendering.
	if _, err := models.ValidateComposition(&project.Composition, models.ValidateOptions{}); err != nil {
		return "", err
	}

	job := newJob(project, settings, outputPath)

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	m.wg.Add(1)
	go m.runJob(job)

	m.logger.Info("render job queued",
		slog.String("job_id", job.ID),
		slog.String("project", project.Name),
		slog.String("output", outputPath))
	return job.ID, nil
}

// CancelRender flips a job to Cancelled. Unknown ids fail with
// models.ErrNotFound; cancelling an already terminal job is a no-op success.
func (m *Manager) CancelRender(id string) error {
	m.mu.RLock()
	job, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("render job %s: %w", id, models.ErrNotFound)
	}
	if job.cancel() {
		m.logger.Info("render job cancelled", slog.String("job_id", id))
	}
	return nil
}

// GetProgress returns a snapshot of the job's progress without blocking on
// the render loop. Unknown ids fail with models.ErrNotFound.
func (m *Manager) GetProgress(id string) (models.RenderProgress, error) {
	m.mu.RLock()
	job, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return models.RenderProgress{}, fmt.Errorf("render job %s: %w", id, models.ErrNotFound)
	}
	return job.Progress(), nil
}

// ListProgress returns progress snapshots for every registered job.
func (m *Manager) ListProgress() []models.RenderProgress {
	m.mu.RLock()
	jobs := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	m.mu.RUnlock()

	out := make([]models.RenderProgress, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, job.Progress())
	}
	return out
}

// runJob is one job's goroutine: it waits for a render slot, drives the
// frame loop, and records the terminal outcome.
func (m *Manager) runJob(job *Job) {
	defer m.wg.Done()

	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-m.ctx.Done():
		job.cancel()
		m.recordTerminal(job)
		return
	}

	if !job.markRendering() {
		// Cancelled while queued.
		m.recordTerminal(job)
		return
	}

	err := m.renderLoop(job)
	switch {
	case err == nil:
		if job.complete() {
			m.logger.Info("render job completed",
				slog.String("job_id", job.ID),
				slog.String("output", job.OutputPath))
		}
	case job.status() == models.StatusCancelled:
		// The loop stopped cooperatively; keep the cancellation.
	default:
		if job.fail(err) {
			m.logger.Error("render job failed",
				slog.String("job_id", job.ID),
				slog.String("error", err.Error()))
		}
	}

	m.recordTerminal(job)
}

// renderLoop steps output time from 0 to the resolved duration in frame
// increments, compositing, mixing and encoding each step. Decode and encode
// calls are the only blocking points; all per-frame math is synchronous CPU
// work between them. Frames are produced and written in strictly increasing
// time order because the encoder sink is sequential.
func (m *Manager) renderLoop(job *Job) error {
	source, err := m.openSource(job.Project)
	if err != nil {
		return fmt.Errorf("opening media source: %w", err)
	}
	defer source.Close()

	sink, err := m.newSink(job.Settings, source.Format(), job.OutputPath)
	if err != nil {
		return fmt.Errorf("opening encoder: %w", err)
	}

	comp := compositor.New(source, job.Settings.Resolution, job.Project.Settings.BackgroundColor)
	mixer := audio.New(source)

	total := job.Project.Settings.Duration
	if total <= 0 {
		total = timeline.TotalDuration(&job.Project.Composition)
	}
	fps := job.Settings.FrameRate
	frames := int(math.Ceil(total*fps - 1e-9))
	if frames < 0 {
		frames = 0
	}

	for i := 0; i < frames; i++ {
		// Cooperative cancellation, checked once per frame step.
		if job.status() == models.StatusCancelled {
			sink.Abort()
			return nil
		}

		t := float64(i) / fps
		frame, err := comp.RenderFrame(m.ctx, &job.Project.Composition, t)
		if err != nil {
			sink.Abort()
			return err
		}
		// The window end is computed the same way as the next frame's start
		// so consecutive audio windows share their boundary exactly.
		samples, err := mixer.MixWindow(m.ctx, &job.Project.Composition, t, float64(i+1)/fps)
		if err != nil {
			sink.Abort()
			return err
		}

		if err := sink.WriteFrame(frame); err != nil {
			sink.Abort()
			return err
		}
		if err := sink.WriteAudio(samples); err != nil {
			sink.Abort()
			return err
		}

		job.updateProgress(
			float64(i+1)/float64(frames),
			fmt.Sprintf("Rendering frame %d/%d", i+1, frames),
			i+1,
		)
	}

	if job.status() == models.StatusCancelled {
		sink.Abort()
		return nil
	}

	// Finalize runs on the success path only; a failed or cancelled job
	// never leaves a partial file behind without its status saying so.
	if err := sink.Finalize(); err != nil {
		return err
	}
	return nil
}

func (m *Manager) recordTerminal(job *Job) {
	if m.history == nil {
		return
	}
	if err := m.history.Record(context.Background(), job.record()); err != nil {
		m.logger.Warn("recording job history failed",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()))
	}
}

// evictStaleJobs removes terminal jobs older than the retention window. The
// registry lock covers the whole sweep, so a concurrent GetProgress either
// sees the job or a clean NotFound, never a half-removed entry.
func (m *Manager) evictStaleJobs() {
	cutoff := time.Now().Add(-m.retention)

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, job := range m.jobs {
		if at := job.terminalSince(); !at.IsZero() && at.Before(cutoff) {
			delete(m.jobs, id)
			m.logger.Debug("evicted stale render job", slog.String("job_id", id))
		}
	}
}
