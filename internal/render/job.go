package render

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clipforge/clipforge/internal/models"
)

// Job is one asynchronous render execution. It exclusively owns its project
// snapshot; the progress cell is the only state shared between the render
// loop and query callers, guarded by the job's mutex with single-field
// critical sections. The lock is never held across a decode or encode call.
type Job struct {
	// ID is the opaque job identifier handed back to the caller.
	ID string
	// Project is the job's private snapshot, taken at submission time so
	// later edits to the live project never affect an in-flight render.
	Project *models.Project
	// Settings are the requested output settings.
	Settings models.RenderSettings
	// OutputPath is where the finished file is written.
	OutputPath string

	mu            sync.Mutex
	progress      models.RenderProgress
	startedAt     time.Time
	finishedAt    time.Time
	framesWritten int
}

func newJob(project *models.Project, settings models.RenderSettings, outputPath string) *Job {
	id := uuid.NewString()

	snapshot := *project
	snapshot.Composition = *project.Composition.Clone()

	return &Job{
		ID:         id,
		Project:    &snapshot,
		Settings:   settings,
		OutputPath: outputPath,
		progress: models.RenderProgress{
			JobID:   id,
			Status:  models.StatusQueued,
			Message: "Waiting to start",
		},
	}
}

// Progress returns a snapshot of the job's current progress. It never blocks
// on the render loop.
func (j *Job) Progress() models.RenderProgress {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

func (j *Job) status() models.RenderStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress.Status
}

// markRendering flips Queued → Rendering. It refuses to overwrite a
// cancellation that raced the loop start.
func (j *Job) markRendering() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.progress.Status != models.StatusQueued {
		return false
	}
	j.progress.Status = models.StatusRendering
	j.progress.Message = "Starting render"
	j.startedAt = time.Now()
	return true
}

// updateProgress records frame progress. It is a no-op unless the job is
// still rendering, so a cancellation is never overwritten.
func (j *Job) updateProgress(fraction float64, message string, framesWritten int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.progress.Status != models.StatusRendering {
		return
	}
	j.progress.Progress = fraction
	j.progress.Message = message
	j.framesWritten = framesWritten
}

// cancel atomically flips a non-terminal job to Cancelled. Returns false
// when the job was already terminal (a no-op success for callers).
func (j *Job) cancel() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.progress.Status.IsTerminal() {
		return false
	}
	j.progress.Status = models.StatusCancelled
	j.progress.Message = "Render cancelled"
	j.finishedAt = time.Now()
	return true
}

// complete marks a successful finish. Only a rendering job can complete, so
// a cancellation that landed during the final encode wins.
func (j *Job) complete() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.progress.Status != models.StatusRendering {
		return false
	}
	j.progress.Status = models.StatusCompleted
	j.progress.Progress = 1
	j.progress.Message = "Render finished"
	j.progress.OutputPath = j.OutputPath
	j.finishedAt = time.Now()
	return true
}

// fail records an unrecoverable error. Cancelled jobs stay cancelled.
func (j *Job) fail(err error) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.progress.Status.IsTerminal() {
		return false
	}
	j.progress.Status = models.StatusFailed
	j.progress.Message = err.Error()
	j.finishedAt = time.Now()
	return true
}

// record builds the persisted audit row for a terminal job.
func (j *Job) record() *models.RenderJobRecord {
	j.mu.Lock()
	defer j.mu.Unlock()

	rec := &models.RenderJobRecord{
		JobID:         j.ID,
		ProjectName:   j.Project.Name,
		OutputPath:    j.OutputPath,
		Format:        j.Settings.Format,
		Width:         j.Settings.Resolution.Width,
		Height:        j.Settings.Resolution.Height,
		FrameRate:     j.Settings.FrameRate,
		Quality:       string(j.Settings.Quality),
		Status:        j.progress.Status,
		FramesWritten: j.framesWritten,
	}
	if j.progress.Status == models.StatusFailed {
		rec.Error = j.progress.Message
	}
	if !j.startedAt.IsZero() && !j.finishedAt.IsZero() {
		rec.DurationMs = j.finishedAt.Sub(j.startedAt).Milliseconds()
	}
	return rec
}

// terminalSince reports when the job reached a terminal status, for TTL
// cleanup. The zero time means the job is still live.
func (j *Job) terminalSince() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.progress.Status.IsTerminal() {
		return time.Time{}
	}
	return j.finishedAt
}
