package compositor

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/internal/models"
	"github.com/clipforge/clipforge/internal/testutil"
)

var resolution = models.Resolution{Width: 64, Height: 36}

func newSource() *testutil.FakeSource {
	src := testutil.NewFakeSource()
	src.Colors["red"] = color.RGBA{R: 200, A: 255}
	src.Colors["green"] = color.RGBA{G: 100, A: 255}
	return src
}

func pixelAt(pix []uint8, i int) (uint8, uint8, uint8, uint8) {
	return pix[i], pix[i+1], pix[i+2], pix[i+3]
}

func TestRenderFrame_BackgroundWhenEmpty(t *testing.T) {
	c := New(newSource(), resolution, "#102030")
	frame, err := c.RenderFrame(context.Background(), &models.Composition{}, 0)
	require.NoError(t, err)

	r, g, b, a := pixelAt(frame.Pix, 0)
	assert.Equal(t, uint8(0x10), r)
	assert.Equal(t, uint8(0x20), g)
	assert.Equal(t, uint8(0x30), b)
	assert.Equal(t, uint8(255), a)
}

func TestRenderFrame_SingleOpaqueItem(t *testing.T) {
	comp := &models.Composition{Tracks: []models.Track{
		testutil.VideoTrack("t1", testutil.Item("i1", "red", 0, 2)),
	}}

	c := New(newSource(), resolution, "#000000")
	frame, err := c.RenderFrame(context.Background(), comp, 1)
	require.NoError(t, err)

	r, g, _, _ := pixelAt(frame.Pix, 0)
	assert.Equal(t, uint8(200), r)
	assert.Equal(t, uint8(0), g)
}

func TestRenderFrame_InvisibleTrackSkipped(t *testing.T) {
	track := testutil.VideoTrack("t1", testutil.Item("i1", "red", 0, 2))
	track.IsVisible = false
	comp := &models.Composition{Tracks: []models.Track{track}}

	src := newSource()
	c := New(src, resolution, "#000000")
	frame, err := c.RenderFrame(context.Background(), comp, 1)
	require.NoError(t, err)

	r, _, _, _ := pixelAt(frame.Pix, 0)
	assert.Equal(t, uint8(0), r)
	assert.Equal(t, 0, src.VideoCalls())
}

func TestRenderFrame_TrackOrderTopWins(t *testing.T) {
	comp := &models.Composition{Tracks: []models.Track{
		testutil.VideoTrack("top", testutil.Item("i1", "green", 0, 2)),
		testutil.VideoTrack("bottom", testutil.Item("i2", "red", 0, 2)),
	}}

	c := New(newSource(), resolution, "#000000")
	frame, err := c.RenderFrame(context.Background(), comp, 1)
	require.NoError(t, err)

	r, g, _, _ := pixelAt(frame.Pix, 0)
	assert.Equal(t, uint8(0), r)
	assert.Equal(t, uint8(100), g)
}

func TestRenderFrame_CrossfadeMidpointBlends(t *testing.T) {
	// Outgoing red item [0,3), incoming green item [2,5) with a 1s
	// crossfade: at t=2.5 the blend is 50/50.
	comp := &models.Composition{Tracks: []models.Track{
		testutil.VideoTrack("t1",
			testutil.Item("a", "red", 0, 3),
			testutil.Crossfade(testutil.Item("b", "green", 2, 3), 1),
		),
	}}

	c := New(newSource(), resolution, "#000000")
	frame, err := c.RenderFrame(context.Background(), comp, 2.5)
	require.NoError(t, err)

	r, g, _, _ := pixelAt(frame.Pix, 0)
	assert.InDelta(t, 100, int(r), 2)
	assert.InDelta(t, 50, int(g), 2)
}

func TestRenderFrame_CrossfadeKeepsNeighbourOpacity(t *testing.T) {
	// The outgoing item holds a keyframed opacity of 0.25; it must stay a
	// quarter strong through the crossfade window rather than popping back
	// to full opacity while the engine blends the boundary.
	faded := testutil.Item("a", "red", 0, 3)
	faded.Keyframes = []models.KeyframeGroup{{
		Property:  "opacity",
		Keyframes: []models.Keyframe{{Time: 0, Value: 0.25}},
	}}
	comp := &models.Composition{Tracks: []models.Track{
		testutil.VideoTrack("t1",
			faded,
			testutil.Crossfade(testutil.Item("b", "green", 2, 3), 1),
		),
	}}

	c := New(newSource(), resolution, "#000000")
	frame, err := c.RenderFrame(context.Background(), comp, 2.5)
	require.NoError(t, err)

	// Over black at the midpoint: red contributes 200*0.25*0.5, green
	// contributes 100*1*0.5.
	r, g, _, _ := pixelAt(frame.Pix, 0)
	assert.InDelta(t, 25, int(r), 2)
	assert.InDelta(t, 50, int(g), 2)
}

func TestRenderFrame_TrackOpacityBlendsWithBackground(t *testing.T) {
	track := testutil.VideoTrack("t1", testutil.Item("i1", "red", 0, 2))
	track.Opacity = 0.5
	comp := &models.Composition{Tracks: []models.Track{track}}

	c := New(newSource(), resolution, "#000000")
	frame, err := c.RenderFrame(context.Background(), comp, 1)
	require.NoError(t, err)

	r, _, _, _ := pixelAt(frame.Pix, 0)
	assert.InDelta(t, 100, int(r), 2)
}

func TestRenderFrame_KeyframedOpacity(t *testing.T) {
	item := testutil.Item("i1", "red", 0, 2)
	item.Keyframes = []models.KeyframeGroup{{
		Property: "opacity",
		Keyframes: []models.Keyframe{
			{Time: 0, Value: 0.0},
			{Time: 2, Value: 1.0, Easing: "linear"},
		},
	}}
	comp := &models.Composition{Tracks: []models.Track{testutil.VideoTrack("t1", item)}}

	c := New(newSource(), resolution, "#000000")
	frame, err := c.RenderFrame(context.Background(), comp, 1)
	require.NoError(t, err)

	r, _, _, _ := pixelAt(frame.Pix, 0)
	assert.InDelta(t, 100, int(r), 2)
}

func TestRenderFrame_ItemEffectApplies(t *testing.T) {
	item := testutil.Item("i1", "red", 0, 2)
	item.Effects = []models.Effect{{
		ID: "e1", Type: "brightness", Enabled: true,
		Parameters: map[string]any{"value": 1.2},
	}}
	comp := &models.Composition{Tracks: []models.Track{testutil.VideoTrack("t1", item)}}

	c := New(newSource(), resolution, "#000000")
	frame, err := c.RenderFrame(context.Background(), comp, 1)
	require.NoError(t, err)

	r, g, _, _ := pixelAt(frame.Pix, 0)
	assert.InDelta(t, 251, int(r), 2)
	assert.InDelta(t, 51, int(g), 2)
}

func TestRenderFrame_EffectTrackAdjustsLayersBelow(t *testing.T) {
	adjust := models.Track{
		ID: "fx", Type: models.TrackTypeEffect, IsVisible: true, Opacity: 1,
		Items: []models.TrackItem{{
			ID: "fx1", StartTime: 0, Duration: 2, OutPoint: 2,
			Transform: models.DefaultTransform(),
			Effects: []models.Effect{{
				ID: "e1", Type: "brightness", Enabled: true,
				Parameters: map[string]any{"value": 1.2},
			}},
		}},
	}
	comp := &models.Composition{Tracks: []models.Track{
		adjust,
		testutil.VideoTrack("t1", testutil.Item("i1", "red", 0, 2)),
	}}

	c := New(newSource(), resolution, "#000000")
	frame, err := c.RenderFrame(context.Background(), comp, 1)
	require.NoError(t, err)

	r, g, _, _ := pixelAt(frame.Pix, 0)
	assert.InDelta(t, 251, int(r), 2)
	assert.InDelta(t, 51, int(g), 2)
}

func TestRenderFrame_DecodeErrorPropagates(t *testing.T) {
	comp := &models.Composition{Tracks: []models.Track{
		testutil.VideoTrack("t1", testutil.Item("i1", "missing", 0, 2)),
	}}

	c := New(newSource(), resolution, "#000000")
	_, err := c.RenderFrame(context.Background(), comp, 1)

	var me *models.MediaError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "missing", me.AssetID)
}

func TestParseHexColor(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x80, B: 0x01, A: 255}, parseHexColor("#ff8001"))
	assert.Equal(t, color.RGBA{A: 255}, parseHexColor("not-a-colour"))
}
