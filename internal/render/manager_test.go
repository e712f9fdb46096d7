package render

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/internal/media"
	"github.com/clipforge/clipforge/internal/models"
	"github.com/clipforge/clipforge/internal/testutil"
)

func testSettings() models.RenderSettings {
	return models.RenderSettings{
		Resolution: models.Resolution{Width: 64, Height: 36},
		FrameRate:  10,
		Format:     "mp4",
		Quality:    models.QualityMedium,
	}
}

func newTestManager(t *testing.T, sink *testutil.FakeSink, opts ...Option) (*Manager, *testutil.FakeSource) {
	t.Helper()
	src := testutil.NewFakeSource()
	src.Colors["clip-a"] = color.RGBA{R: 200, A: 255}
	src.Levels["audio-a"] = 0.5

	open := func(*models.Project) (media.Source, error) { return src, nil }
	m := NewManager(open, sink.Factory(), opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		m.Shutdown(ctx)
	})
	return m, src
}

func waitTerminal(t *testing.T, m *Manager, id string) models.RenderProgress {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		progress, err := m.GetProgress(id)
		require.NoError(t, err)
		if progress.Status.IsTerminal() {
			return progress
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job did not reach a terminal status")
	return models.RenderProgress{}
}

func TestStartRender_CompletesWithExactFrameCount(t *testing.T) {
	sink := testutil.NewFakeSink()
	m, src := newTestManager(t, sink)

	// One second at 10fps renders exactly 10 frames.
	id, err := m.StartRender(testutil.SampleProject(), testSettings(), "out/sample.mp4")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	progress := waitTerminal(t, m, id)
	assert.Equal(t, models.StatusCompleted, progress.Status)
	assert.Equal(t, 1.0, progress.Progress)
	assert.Equal(t, "out/sample.mp4", progress.OutputPath)

	assert.Equal(t, 10, sink.Frames())
	assert.True(t, sink.Finalized())
	assert.False(t, sink.Aborted())
	assert.True(t, src.Closed())
	// One second of 48kHz stereo audio.
	assert.Equal(t, 96000, sink.Samples())
}

func TestStartRender_ValidatesSettings(t *testing.T) {
	m, _ := newTestManager(t, testutil.NewFakeSink())

	bad := testSettings()
	bad.FrameRate = 0
	_, err := m.StartRender(testutil.SampleProject(), bad, "out.mp4")
	assert.ErrorIs(t, err, models.ErrInvalidFrameRate)

	bad = testSettings()
	bad.Quality = "ultra"
	_, err = m.StartRender(testutil.SampleProject(), bad, "out.mp4")
	assert.ErrorIs(t, err, models.ErrInvalidQuality)

	_, err = m.StartRender(testutil.SampleProject(), testSettings(), "")
	assert.Error(t, err)
}

func TestStartRender_RejectsInvalidComposition(t *testing.T) {
	m, _ := newTestManager(t, testutil.NewFakeSink())

	p := testutil.SampleProject()
	p.Composition.Tracks[0].Items[0].Duration = -1
	_, err := m.StartRender(p, testSettings(), "out.mp4")

	var ice *models.InvalidCompositionError
	assert.ErrorAs(t, err, &ice)
}

func TestStartRender_SnapshotIsolatesLaterEdits(t *testing.T) {
	sink := testutil.NewFakeSink()
	sink.BlockFrames = make(chan struct{})
	m, _ := newTestManager(t, sink)

	p := testutil.SampleProject()
	id, err := m.StartRender(p, testSettings(), "out.mp4")
	require.NoError(t, err)

	// Mutating the live project mid-render must not affect the job.
	p.Composition.Tracks[0].Items[0].AssetID = "bogus"
	close(sink.BlockFrames)

	progress := waitTerminal(t, m, id)
	assert.Equal(t, models.StatusCompleted, progress.Status)
}

func TestCancelRender_MidRender(t *testing.T) {
	sink := testutil.NewFakeSink()
	sink.BlockFrames = make(chan struct{})
	m, _ := newTestManager(t, sink)

	id, err := m.StartRender(testutil.SampleProject(), testSettings(), "out.mp4")
	require.NoError(t, err)

	// Let three frames through, then cancel.
	for i := 0; i < 3; i++ {
		sink.BlockFrames <- struct{}{}
	}
	require.NoError(t, m.CancelRender(id))
	close(sink.BlockFrames)

	progress := waitTerminal(t, m, id)
	assert.Equal(t, models.StatusCancelled, progress.Status)
	assert.True(t, sink.Aborted())
	assert.False(t, sink.Finalized())
	assert.Less(t, sink.Frames(), 10)
}

func TestCancelRender_TerminalJobIsNoOp(t *testing.T) {
	sink := testutil.NewFakeSink()
	m, _ := newTestManager(t, sink)

	id, err := m.StartRender(testutil.SampleProject(), testSettings(), "out.mp4")
	require.NoError(t, err)
	progress := waitTerminal(t, m, id)
	require.Equal(t, models.StatusCompleted, progress.Status)

	// Cancelling after completion succeeds without changing the status.
	require.NoError(t, m.CancelRender(id))
	progress, err = m.GetProgress(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, progress.Status)
}

func TestCancelRender_UnknownJob(t *testing.T) {
	m, _ := newTestManager(t, testutil.NewFakeSink())
	err := m.CancelRender("no-such-job")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetProgress_UnknownJob(t *testing.T) {
	m, _ := newTestManager(t, testutil.NewFakeSink())
	_, err := m.GetProgress("no-such-job")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetProgress_NonDecreasingUntilTerminal(t *testing.T) {
	sink := testutil.NewFakeSink()
	sink.BlockFrames = make(chan struct{})
	m, _ := newTestManager(t, sink)

	id, err := m.StartRender(testutil.SampleProject(), testSettings(), "out.mp4")
	require.NoError(t, err)

	var last float64
	for i := 0; i < 10; i++ {
		sink.BlockFrames <- struct{}{}
		// The loop updates progress after the paced write returns; poll
		// until it moves past the previous observation.
		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			progress, err := m.GetProgress(id)
			require.NoError(t, err)
			require.GreaterOrEqual(t, progress.Progress, last)
			if progress.Progress > last || progress.Status.IsTerminal() {
				last = progress.Progress
				break
			}
			time.Sleep(time.Millisecond)
		}
	}
	close(sink.BlockFrames)

	progress := waitTerminal(t, m, id)
	assert.Equal(t, 1.0, progress.Progress)
}

func TestRenderLoop_FailureRecordsError(t *testing.T) {
	sink := testutil.NewFakeSink()
	sink.WriteErr = errors.New("disk full")
	m, _ := newTestManager(t, sink)

	id, err := m.StartRender(testutil.SampleProject(), testSettings(), "out.mp4")
	require.NoError(t, err)

	progress := waitTerminal(t, m, id)
	assert.Equal(t, models.StatusFailed, progress.Status)
	assert.Contains(t, progress.Message, "disk full")
	assert.True(t, sink.Aborted())
}

func TestListProgress_ReturnsAllJobs(t *testing.T) {
	m, _ := newTestManager(t, testutil.NewFakeSink())

	id1, err := m.StartRender(testutil.SampleProject(), testSettings(), "one.mp4")
	require.NoError(t, err)
	id2, err := m.StartRender(testutil.SampleProject(), testSettings(), "two.mp4")
	require.NoError(t, err)
	waitTerminal(t, m, id1)
	waitTerminal(t, m, id2)

	all := m.ListProgress()
	assert.Len(t, all, 2)
	ids := map[string]bool{}
	for _, p := range all {
		ids[p.JobID] = true
	}
	assert.True(t, ids[id1])
	assert.True(t, ids[id2])
}

func TestWithMaxConcurrent_BoundsParallelJobs(t *testing.T) {
	sink := testutil.NewFakeSink()
	sink.BlockFrames = make(chan struct{})
	m, _ := newTestManager(t, sink, WithMaxConcurrent(1))

	id1, err := m.StartRender(testutil.SampleProject(), testSettings(), "one.mp4")
	require.NoError(t, err)
	id2, err := m.StartRender(testutil.SampleProject(), testSettings(), "two.mp4")
	require.NoError(t, err)

	// With one render slot, at most one job leaves the queue at a time.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		p1, err := m.GetProgress(id1)
		require.NoError(t, err)
		p2, err := m.GetProgress(id2)
		require.NoError(t, err)

		rendering := 0
		for _, p := range []models.RenderProgress{p1, p2} {
			if p.Status == models.StatusRendering {
				rendering++
			}
		}
		require.LessOrEqual(t, rendering, 1)
		if rendering == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	close(sink.BlockFrames)
	waitTerminal(t, m, id1)
	waitTerminal(t, m, id2)
}

type memoryRecorder struct {
	mu   sync.Mutex
	recs []*models.RenderJobRecord
}

func (r *memoryRecorder) Record(_ context.Context, rec *models.RenderJobRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return nil
}

func (r *memoryRecorder) all() []*models.RenderJobRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.RenderJobRecord(nil), r.recs...)
}

func TestHistoryRecorder_ReceivesTerminalRecord(t *testing.T) {
	recorder := &memoryRecorder{}
	sink := testutil.NewFakeSink()
	m, _ := newTestManager(t, sink, WithHistory(recorder))

	id, err := m.StartRender(testutil.SampleProject(), testSettings(), "out.mp4")
	require.NoError(t, err)
	waitTerminal(t, m, id)

	// The record lands after the status flips; give the goroutine a moment.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && len(recorder.all()) == 0 {
		time.Sleep(5 * time.Millisecond)
	}

	recs := recorder.all()
	require.Len(t, recs, 1)
	assert.Equal(t, id, recs[0].JobID)
	assert.Equal(t, models.StatusCompleted, recs[0].Status)
	assert.Equal(t, 10, recs[0].FramesWritten)
	assert.Equal(t, "Sample", recs[0].ProjectName)
}
