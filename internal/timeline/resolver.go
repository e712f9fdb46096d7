// Package timeline resolves which track items are active at a timeline
// instant and how item boundaries blend. Resolution is pure and total over
// any validated composition: it never fails at render time.
package timeline

import (
	"github.com/clipforge/clipforge/internal/models"
)

// ActiveTransition describes a boundary blend in effect at the resolved
// instant. Either side may be nil, meaning the blend runs from or to
// transparency (a lone fade-in or fade-out with no adjacent item).
type ActiveTransition struct {
	// Spec is the declared transition owning this window.
	Spec *models.Transition
	// Outgoing is the item being blended away.
	Outgoing *models.TrackItem
	// Incoming is the item being blended in.
	Incoming *models.TrackItem
	// Progress is the linear time progress through the window, in [0,1].
	// The engine passes it through the transition's easing before use.
	Progress float64
}

// ActiveItem is one resolved (track, item) pair. Entries are ordered by the
// composition's declared track order, topmost track first.
type ActiveItem struct {
	TrackIndex int
	Track      *models.Track
	Item       *models.TrackItem
	// Transition is non-nil when the instant falls inside a boundary
	// window. When two overlapping items are bridged, only the incoming
	// item is listed and the outgoing one appears as Transition.Outgoing,
	// so consumers never paint the pair twice.
	Transition *ActiveTransition
}

// ActiveItems returns the items active at instant t, top track first. An
// item is active when startTime <= t < startTime+duration. When two items in
// one track are simultaneously active without a bridging transition, the
// earliest-starting item wins deterministically; validation reports that
// overlap as a warning.
func ActiveItems(c *models.Composition, t float64) []ActiveItem {
	var out []ActiveItem
	for ti := range c.Tracks {
		track := &c.Tracks[ti]
		if item := resolveTrack(track, t); item != nil {
			item.TrackIndex = ti
			item.Track = track
			out = append(out, *item)
		}
	}
	return out
}

// TotalDuration returns the composition's resolved duration: the latest item
// end across all tracks.
func TotalDuration(c *models.Composition) float64 {
	var max float64
	for ti := range c.Tracks {
		for ii := range c.Tracks[ti].Items {
			if end := c.Tracks[ti].Items[ii].EndTime(); end > max {
				max = end
			}
		}
	}
	return max
}

func resolveTrack(track *models.Track, t float64) *ActiveItem {
	var first, second *models.TrackItem
	for i := range track.Items {
		item := &track.Items[i]
		if !item.Contains(t) {
			continue
		}
		if first == nil {
			first = item
		} else {
			second = item
			break
		}
	}
	if first == nil {
		return nil
	}

	if second != nil {
		// Overlapping pair. Items are sorted by start time, so first is the
		// outgoing item and second the incoming one.
		if spec := bridgingTransition(first, second); spec != nil {
			tau := (t - second.StartTime) / spec.Duration
			if tau >= 1 {
				// The transition has completed inside a longer overlap;
				// the incoming item owns the track from here.
				return &ActiveItem{Item: second}
			}
			return &ActiveItem{
				Item: second,
				Transition: &ActiveTransition{
					Spec:     spec,
					Outgoing: first,
					Incoming: second,
					Progress: clamp01(tau),
				},
			}
		}
		// Unbridged overlap: earliest-starting item wins.
		return &ActiveItem{Item: first}
	}

	// Lone item: check its own boundary windows. A window with no
	// overlapping neighbour blends against transparency.
	if spec := first.TransitionAt(models.TransitionStart); spec != nil {
		if t < first.StartTime+spec.Duration {
			return &ActiveItem{
				Item: first,
				Transition: &ActiveTransition{
					Spec:     spec,
					Incoming: first,
					Progress: clamp01((t - first.StartTime) / spec.Duration),
				},
			}
		}
	}
	if spec := first.TransitionAt(models.TransitionEnd); spec != nil {
		windowStart := first.EndTime() - spec.Duration
		if t >= windowStart {
			return &ActiveItem{
				Item: first,
				Transition: &ActiveTransition{
					Spec:     spec,
					Outgoing: first,
					Progress: clamp01((t - windowStart) / spec.Duration),
				},
			}
		}
	}
	return &ActiveItem{Item: first}
}

// bridgingTransition finds the transition spanning an overlapping boundary:
// the incoming item's start transition takes precedence over the outgoing
// item's end transition.
func bridgingTransition(outgoing, incoming *models.TrackItem) *models.Transition {
	if spec := incoming.TransitionAt(models.TransitionStart); spec != nil {
		return spec
	}
	return outgoing.TransitionAt(models.TransitionEnd)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
