package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackItem_SourceTime(t *testing.T) {
	item := TrackItem{StartTime: 10, Duration: 5, InPoint: 2, OutPoint: 7}

	assert.InDelta(t, 2, item.SourceTime(10), 1e-9)
	assert.InDelta(t, 4.5, item.SourceTime(12.5), 1e-9)
	// Clamped to the source window on both sides.
	assert.InDelta(t, 2, item.SourceTime(9), 1e-9)
	assert.InDelta(t, 7, item.SourceTime(20), 1e-9)
}

func TestTrackItem_Contains(t *testing.T) {
	item := TrackItem{StartTime: 1, Duration: 2}
	assert.False(t, item.Contains(0.999))
	assert.True(t, item.Contains(1))
	assert.True(t, item.Contains(2.999))
	assert.False(t, item.Contains(3))
}

func TestComposition_CloneIsDeep(t *testing.T) {
	comp := &Composition{
		Tracks: []Track{{
			ID:   "t1",
			Type: TrackTypeVideo,
			Items: []TrackItem{{
				ID:      "i1",
				Effects: []Effect{{ID: "e1", Type: "brightness", Parameters: map[string]any{"value": 1.0}}},
				Keyframes: []KeyframeGroup{{
					Property:  "opacity",
					Keyframes: []Keyframe{{Time: 0, Value: 1.0}},
				}},
			}},
		}},
		Markers: []Marker{{ID: "m1", Time: 1}},
	}

	clone := comp.Clone()
	clone.Tracks[0].Items[0].Effects[0].Parameters["value"] = 2.0
	clone.Tracks[0].Items[0].Keyframes[0].Keyframes[0].Value = 0.0
	clone.Markers[0].Time = 9

	assert.Equal(t, 1.0, comp.Tracks[0].Items[0].Effects[0].Parameters["value"])
	assert.Equal(t, 1.0, comp.Tracks[0].Items[0].Keyframes[0].Keyframes[0].Value)
	assert.Equal(t, 1.0, comp.Markers[0].Time)
}

func TestComposition_JSONFieldNames(t *testing.T) {
	comp := Composition{Tracks: []Track{{
		ID:      "t1",
		Type:    TrackTypeVideo,
		Opacity: 1,
		Items: []TrackItem{{
			ID: "i1", AssetID: "a1", StartTime: 1, Duration: 2, InPoint: 0.5, OutPoint: 2.5,
		}},
	}}}

	data, err := json.Marshal(comp)
	require.NoError(t, err)

	for _, field := range []string{`"assetId"`, `"startTime"`, `"inPoint"`, `"outPoint"`, `"isVisible"`, `"blendMode"`} {
		assert.Contains(t, string(data), field)
	}
}

func TestEffect_ParamCoercion(t *testing.T) {
	e := Effect{Parameters: map[string]any{
		"float":  1.5,
		"int":    2,
		"string": "wide",
	}}

	assert.Equal(t, 1.5, e.ParamFloat("float", 0))
	assert.Equal(t, 2.0, e.ParamFloat("int", 0))
	assert.Equal(t, 9.0, e.ParamFloat("missing", 9))
	assert.Equal(t, 9.0, e.ParamFloat("string", 9))
	assert.Equal(t, "wide", e.ParamString("string", "x"))
	assert.Equal(t, "x", e.ParamString("missing", "x"))
}
