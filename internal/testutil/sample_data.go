package testutil

import (
	"fmt"
	"time"

	"github.com/clipforge/clipforge/internal/models"
)

// SampleProject builds a one-second, one-track project over a single video
// item backed by asset "clip-a". It renders against a FakeSource seeded with
// the same asset id.
func SampleProject() *models.Project {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &models.Project{
		ID:        "proj-sample",
		Name:      "Sample",
		Version:   "1.0",
		CreatedAt: now,
		UpdatedAt: now,
		Settings: models.ProjectSettings{
			Resolution:      models.Resolution{Width: 64, Height: 36},
			FrameRate:       10,
			BackgroundColor: "#000000",
		},
		Assets: models.AssetLibrary{
			Video: []models.VideoAsset{
				{ID: "clip-a", Name: "a.mp4", Path: "/media/a.mp4", Duration: 10, Width: 64, Height: 36, FrameRate: 30},
			},
			Audio: []models.AudioAsset{
				{ID: "audio-a", Name: "a.wav", Path: "/media/a.wav", Duration: 10, SampleRate: 48000, Channels: 2},
			},
		},
		Composition: models.Composition{
			Tracks: []models.Track{
				VideoTrack("track-1", Item("item-1", "clip-a", 0, 1)),
			},
		},
	}
}

// VideoTrack builds a visible video track with full opacity.
func VideoTrack(id string, items ...models.TrackItem) models.Track {
	return models.Track{
		ID:        id,
		Name:      id,
		Type:      models.TrackTypeVideo,
		Items:     items,
		IsVisible: true,
		Opacity:   1,
		BlendMode: "normal",
	}
}

// AudioTrack builds an unmuted audio track.
func AudioTrack(id string, items ...models.TrackItem) models.Track {
	return models.Track{
		ID:      id,
		Name:    id,
		Type:    models.TrackTypeAudio,
		Items:   items,
		Opacity: 1,
	}
}

// Item builds a track item with an identity transform and an open source
// window starting at in-point zero.
func Item(id, assetID string, start, duration float64) models.TrackItem {
	return models.TrackItem{
		ID:        id,
		AssetID:   assetID,
		StartTime: start,
		Duration:  duration,
		InPoint:   0,
		OutPoint:  duration,
		Transform: models.DefaultTransform(),
	}
}

// Crossfade attaches a start-position crossfade of the given duration.
func Crossfade(item models.TrackItem, duration float64) models.TrackItem {
	item.Transitions = append(item.Transitions, models.Transition{
		ID:       fmt.Sprintf("%s-xfade", item.ID),
		Type:     "crossfade",
		Duration: duration,
		Position: models.TransitionStart,
		Easing:   "linear",
	})
	return item
}
