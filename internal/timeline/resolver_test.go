package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/internal/models"
)

func item(id string, start, duration float64, transitions ...models.Transition) models.TrackItem {
	return models.TrackItem{
		ID:          id,
		AssetID:     "asset-" + id,
		StartTime:   start,
		Duration:    duration,
		OutPoint:    duration,
		Transitions: transitions,
	}
}

func videoTrack(id string, items ...models.TrackItem) models.Track {
	return models.Track{ID: id, Type: models.TrackTypeVideo, Items: items, IsVisible: true, Opacity: 1}
}

func TestActiveItems_ContainmentIsHalfOpen(t *testing.T) {
	comp := &models.Composition{Tracks: []models.Track{
		videoTrack("t1", item("a", 1, 2)),
	}}

	assert.Empty(t, ActiveItems(comp, 0.999))
	require.Len(t, ActiveItems(comp, 1), 1)
	require.Len(t, ActiveItems(comp, 2.999), 1)
	// End time is exclusive.
	assert.Empty(t, ActiveItems(comp, 3))
}

func TestActiveItems_TopTrackFirst(t *testing.T) {
	comp := &models.Composition{Tracks: []models.Track{
		videoTrack("top", item("a", 0, 5)),
		videoTrack("bottom", item("b", 0, 5)),
	}}

	active := ActiveItems(comp, 1)
	require.Len(t, active, 2)
	assert.Equal(t, "top", active[0].Track.ID)
	assert.Equal(t, 0, active[0].TrackIndex)
	assert.Equal(t, "bottom", active[1].Track.ID)
}

func TestActiveItems_BridgedOverlapListsIncomingOnly(t *testing.T) {
	// A spans [0,3), B spans [2,5) with a 1s crossfade starting at B's start.
	xfade := models.Transition{ID: "x", Type: "crossfade", Duration: 1, Position: models.TransitionStart}
	comp := &models.Composition{Tracks: []models.Track{
		videoTrack("t1", item("a", 0, 3), item("b", 2, 5, xfade)),
	}}

	active := ActiveItems(comp, 2.5)
	require.Len(t, active, 1)
	ai := active[0]
	assert.Equal(t, "b", ai.Item.ID)

	require.NotNil(t, ai.Transition)
	assert.Equal(t, "a", ai.Transition.Outgoing.ID)
	assert.Equal(t, "b", ai.Transition.Incoming.ID)
	assert.InDelta(t, 0.5, ai.Transition.Progress, 1e-9)
}

func TestActiveItems_TransitionCompletesInsideLongerOverlap(t *testing.T) {
	// The overlap runs [2,4) but the transition only covers [2,3): after it
	// finishes the incoming item owns the track alone.
	xfade := models.Transition{Type: "crossfade", Duration: 1, Position: models.TransitionStart}
	comp := &models.Composition{Tracks: []models.Track{
		videoTrack("t1", item("a", 0, 4), item("b", 2, 5, xfade)),
	}}

	active := ActiveItems(comp, 3.5)
	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].Item.ID)
	assert.Nil(t, active[0].Transition)
}

func TestActiveItems_OutgoingEndTransitionBridges(t *testing.T) {
	xfade := models.Transition{Type: "crossfade", Duration: 1, Position: models.TransitionEnd}
	comp := &models.Composition{Tracks: []models.Track{
		videoTrack("t1", item("a", 0, 3, xfade), item("b", 2, 5)),
	}}

	active := ActiveItems(comp, 2.25)
	require.Len(t, active, 1)
	require.NotNil(t, active[0].Transition)
	assert.Equal(t, "a", active[0].Transition.Outgoing.ID)
	assert.InDelta(t, 0.25, active[0].Transition.Progress, 1e-9)
}

func TestActiveItems_UnbridgedOverlapEarliestWins(t *testing.T) {
	comp := &models.Composition{Tracks: []models.Track{
		videoTrack("t1", item("a", 0, 3), item("b", 2, 5)),
	}}

	active := ActiveItems(comp, 2.5)
	require.Len(t, active, 1)
	assert.Equal(t, "a", active[0].Item.ID)
	assert.Nil(t, active[0].Transition)
}

func TestActiveItems_LoneItemFadesAgainstTransparency(t *testing.T) {
	fadeIn := models.Transition{Type: "fade", Duration: 1, Position: models.TransitionStart}
	fadeOut := models.Transition{Type: "fade", Duration: 1, Position: models.TransitionEnd}
	comp := &models.Composition{Tracks: []models.Track{
		videoTrack("t1", item("a", 0, 4, fadeIn, fadeOut)),
	}}

	in := ActiveItems(comp, 0.5)
	require.Len(t, in, 1)
	require.NotNil(t, in[0].Transition)
	assert.Nil(t, in[0].Transition.Outgoing)
	assert.Equal(t, "a", in[0].Transition.Incoming.ID)
	assert.InDelta(t, 0.5, in[0].Transition.Progress, 1e-9)

	out := ActiveItems(comp, 3.5)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Transition)
	assert.Equal(t, "a", out[0].Transition.Outgoing.ID)
	assert.Nil(t, out[0].Transition.Incoming)
	assert.InDelta(t, 0.5, out[0].Transition.Progress, 1e-9)

	mid := ActiveItems(comp, 2)
	require.Len(t, mid, 1)
	assert.Nil(t, mid[0].Transition)
}

func TestTotalDuration(t *testing.T) {
	comp := &models.Composition{Tracks: []models.Track{
		videoTrack("t1", item("a", 0, 3)),
		videoTrack("t2", item("b", 2, 4.5)),
	}}
	assert.InDelta(t, 6.5, TotalDuration(comp), 1e-9)

	assert.Equal(t, 0.0, TotalDuration(&models.Composition{}))
}
