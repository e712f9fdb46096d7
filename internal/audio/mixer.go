// Package audio mixes the active audio items of a composition into output
// sample windows. Mixing is linear superposition; transitions affect video
// compositing only, so overlapping audio items simply sum.
package audio

import (
	"context"

	"github.com/clipforge/clipforge/internal/effects"
	"github.com/clipforge/clipforge/internal/keyframe"
	"github.com/clipforge/clipforge/internal/media"
	"github.com/clipforge/clipforge/internal/models"
	"github.com/clipforge/clipforge/internal/timeline"
)

// Mixer mixes sample windows for one composition. Each render job owns its
// own mixer over its own media source.
type Mixer struct {
	source media.Source
	format media.AudioFormat
}

// New creates a mixer decoding through the given source.
func New(source media.Source) *Mixer {
	return &Mixer{source: source, format: source.Format()}
}

// MixWindow produces the interleaved f32 output window [from, to).
//
// Clipping prevention policy: windows with more than one contributing item
// are normalized by the contributing-item count (average mixing), then hard
// clamped to [-1, 1]. A lone item passes through bit-exact.
func (m *Mixer) MixWindow(ctx context.Context, comp *models.Composition, from, to float64) ([]float32, error) {
	n := m.format.SamplesPerWindow(from, to)
	acc := make([]float64, n)

	var contributors int
	for _, ai := range timeline.ActiveItems(comp, from) {
		if !ai.Track.Type.CarriesAudio() || ai.Track.IsMuted {
			continue
		}
		items := []*models.TrackItem{ai.Item}
		if ai.Transition != nil && ai.Transition.Outgoing != nil && ai.Transition.Outgoing != ai.Item {
			// Both sides of a bridged overlap sound at full level.
			items = append(items, ai.Transition.Outgoing)
		}
		for _, item := range items {
			ok, err := m.accumulateItem(ctx, acc, item, from, to)
			if err != nil {
				return nil, err
			}
			if ok {
				contributors++
			}
		}
	}

	out := make([]float32, n)
	scale := 1.0
	if contributors > 1 {
		scale = 1 / float64(contributors)
	}
	for i, v := range acc {
		v *= scale
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = float32(v)
	}
	return out, nil
}

// accumulateItem decodes one item's window, applies its gain effects and
// keyframed volume, and adds the result into acc. Returns false when the
// item contributes nothing to this window.
func (m *Mixer) accumulateItem(ctx context.Context, acc []float64, item *models.TrackItem, from, to float64) (bool, error) {
	srcFrom := item.SourceTime(from)
	srcTo := srcFrom + (to - from)
	samples, err := m.source.DecodeAudioSamples(ctx, item.AssetID, srcFrom, srcTo)
	if err != nil {
		return false, err
	}

	local := from - item.StartTime
	for i := range item.Effects {
		eff := &item.Effects[i]
		if !eff.Enabled || !effects.IsAudio(eff.Type) {
			continue
		}
		if err := effects.ApplyAudio(samples, eff, local); err != nil {
			return false, err
		}
	}

	volume := keyframe.Scalar(item.KeyframeGroupFor("volume"), local, 1)
	if volume <= 0 {
		return false, nil
	}

	n := len(acc)
	if len(samples) < n {
		n = len(samples)
	}
	for i := 0; i < n; i++ {
		acc[i] += float64(samples[i]) * volume
	}
	return true, nil
}
