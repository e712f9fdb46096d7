package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/internal/models"
)

func newStubbedSource(t *testing.T, calls *int) *FFmpegSource {
	t.Helper()
	assets := &models.AssetLibrary{
		Images: []models.ImageAsset{
			{ID: "logo", Name: "logo", Path: "logo.png", Width: 2, Height: 2},
		},
		Video: []models.VideoAsset{
			{ID: "clip", Name: "clip", Path: "clip.mp4", Width: 2, Height: 2, Duration: 10},
		},
	}

	src, err := NewFFmpegSource("ffmpeg", assets, DefaultAudioFormat(), nil)
	require.NoError(t, err)

	src.run = func(_ context.Context, _ []string) ([]byte, error) {
		*calls++
		out := make([]byte, 2*2*4)
		for i := range out {
			out[i] = 0x7f
		}
		return out, nil
	}
	return src
}

func TestDecodeVideoFrame_StillDecodedOnce(t *testing.T) {
	calls := 0
	src := newStubbedSource(t, &calls)
	ctx := context.Background()

	first, err := src.DecodeVideoFrame(ctx, "logo", 0)
	require.NoError(t, err)
	second, err := src.DecodeVideoFrame(ctx, "logo", 3.5)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "a still decodes once regardless of timeline instant")
	assert.Equal(t, first.Pix, second.Pix)
}

func TestDecodeVideoFrame_CachedStillIsCallerOwned(t *testing.T) {
	calls := 0
	src := newStubbedSource(t, &calls)
	ctx := context.Background()

	first, err := src.DecodeVideoFrame(ctx, "logo", 0)
	require.NoError(t, err)
	for i := range first.Pix {
		first.Pix[i] = 0
	}

	second, err := src.DecodeVideoFrame(ctx, "logo", 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x7f), second.Pix[0], "mutating a returned frame must not poison the cache")
}

func TestDecodeVideoFrame_VideoNotCached(t *testing.T) {
	calls := 0
	src := newStubbedSource(t, &calls)
	ctx := context.Background()

	_, err := src.DecodeVideoFrame(ctx, "clip", 0)
	require.NoError(t, err)
	_, err = src.DecodeVideoFrame(ctx, "clip", 1)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestDecodeVideoFrame_UnknownAsset(t *testing.T) {
	calls := 0
	src := newStubbedSource(t, &calls)

	_, err := src.DecodeVideoFrame(context.Background(), "absent", 0)

	var me *models.MediaError
	require.ErrorAs(t, err, &me)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 0, calls)
}
