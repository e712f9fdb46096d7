package models

import (
	"fmt"
	"sort"
)

// ValidationWarning is a non-fatal issue found by the validation pass. It is
// surfaced to the caller for display and does not block rendering.
type ValidationWarning struct {
	TrackID string `json:"trackId,omitempty"`
	ItemID  string `json:"itemId,omitempty"`
	Message string `json:"message"`
}

// ValidateOptions supply the closed catalogs the validator checks tags
// against. Nil predicates skip the corresponding check, which keeps this
// package free of dependencies on the effect and transition packages.
type ValidateOptions struct {
	// KnownEffect reports whether an effect type tag is in the catalog.
	KnownEffect func(string) bool
	// KnownTransition reports whether a transition type tag is in the catalog.
	KnownTransition func(string) bool
	// KnownAsset reports whether an asset id resolves in the asset library.
	KnownAsset func(string) bool
	// KnownEasing reports whether an easing tag is recognised. Unknown tags
	// degrade to linear at render time, so they warn instead of failing.
	KnownEasing func(string) bool
}

// ValidateComposition runs the structural validation pass over a composition.
//
// Hard failures (returned as *InvalidCompositionError) are violations that
// would make timeline resolution ill-defined: items out of start-time order,
// malformed keyframe ordering, duplicate keyframe times, and unknown
// effect/transition type tags (rejected at load time rather than mid-render).
// Overlapping items without a bridging transition and dangling asset
// references are reported as warnings.
func ValidateComposition(c *Composition, opts ValidateOptions) ([]ValidationWarning, error) {
	var warnings []ValidationWarning

	for ti := range c.Tracks {
		track := &c.Tracks[ti]
		if !track.Type.IsValid() {
			return nil, &InvalidCompositionError{TrackID: track.ID, Reason: fmt.Sprintf("unknown track type %q", track.Type)}
		}
		if track.Opacity < 0 || track.Opacity > 1 {
			return nil, &InvalidCompositionError{TrackID: track.ID, Reason: fmt.Sprintf("opacity %v outside [0,1]", track.Opacity)}
		}

		if !sort.SliceIsSorted(track.Items, func(a, b int) bool {
			return track.Items[a].StartTime < track.Items[b].StartTime
		}) {
			return nil, &InvalidCompositionError{TrackID: track.ID, Reason: "items are not sorted by start time"}
		}

		for ii := range track.Items {
			item := &track.Items[ii]
			if item.Duration <= 0 {
				return nil, &InvalidCompositionError{TrackID: track.ID, Reason: fmt.Sprintf("item %s has non-positive duration", item.ID)}
			}

			if opts.KnownAsset != nil && !opts.KnownAsset(item.AssetID) {
				warnings = append(warnings, ValidationWarning{
					TrackID: track.ID,
					ItemID:  item.ID,
					Message: fmt.Sprintf("asset %q is not in the asset library", item.AssetID),
				})
			}

			if err := validateItemOverlap(track, ii, &warnings); err != nil {
				return nil, err
			}

			for _, eff := range item.Effects {
				if opts.KnownEffect != nil && !opts.KnownEffect(eff.Type) {
					return nil, &InvalidCompositionError{TrackID: track.ID, Reason: fmt.Sprintf("item %s: unsupported effect type %q", item.ID, eff.Type)}
				}
				if err := validateKeyframeGroups(track.ID, item.ID, eff.Keyframes, opts, &warnings); err != nil {
					return nil, err
				}
			}

			for _, tr := range item.Transitions {
				if opts.KnownTransition != nil && !opts.KnownTransition(tr.Type) {
					return nil, &InvalidCompositionError{TrackID: track.ID, Reason: fmt.Sprintf("item %s: unsupported transition type %q", item.ID, tr.Type)}
				}
				if tr.Position != TransitionStart && tr.Position != TransitionEnd {
					return nil, &InvalidCompositionError{TrackID: track.ID, Reason: fmt.Sprintf("item %s: transition position must be start or end", item.ID)}
				}
				if tr.Duration <= 0 || tr.Duration > item.Duration {
					return nil, &InvalidCompositionError{TrackID: track.ID, Reason: fmt.Sprintf("item %s: transition duration %v outside (0, item duration]", item.ID, tr.Duration)}
				}
				if opts.KnownEasing != nil && !opts.KnownEasing(tr.Easing) {
					warnings = append(warnings, ValidationWarning{
						TrackID: track.ID,
						ItemID:  item.ID,
						Message: fmt.Sprintf("transition %q has unknown easing %q; linear is used", tr.Type, tr.Easing),
					})
				}
			}

			if err := validateKeyframeGroups(track.ID, item.ID, item.Keyframes, opts, &warnings); err != nil {
				return nil, err
			}
		}
	}

	return warnings, nil
}

// validateItemOverlap checks item i against its predecessor. An overlap
// bridged by a transition on either side of the boundary is legitimate;
// anything else is reported as a warning and the resolver falls back to the
// deterministic earliest-starting tie-break.
func validateItemOverlap(track *Track, i int, warnings *[]ValidationWarning) error {
	if i == 0 {
		return nil
	}
	prev := &track.Items[i-1]
	cur := &track.Items[i]

	if cur.StartTime >= prev.EndTime() {
		return nil
	}

	bridged := prev.TransitionAt(TransitionEnd) != nil || cur.TransitionAt(TransitionStart) != nil
	if !bridged {
		*warnings = append(*warnings, ValidationWarning{
			TrackID: track.ID,
			ItemID:  cur.ID,
			Message: fmt.Sprintf("items %s and %s overlap without a transition", prev.ID, cur.ID),
		})
	}
	return nil
}

func validateKeyframeGroups(trackID, itemID string, groups []KeyframeGroup, opts ValidateOptions, warnings *[]ValidationWarning) error {
	for _, g := range groups {
		if len(g.Keyframes) == 0 {
			*warnings = append(*warnings, ValidationWarning{
				TrackID: trackID,
				ItemID:  itemID,
				Message: fmt.Sprintf("keyframe group %q is empty; the static property value is used", g.Property),
			})
			continue
		}
		for _, kf := range g.Keyframes {
			if opts.KnownEasing != nil && !opts.KnownEasing(kf.Easing) {
				*warnings = append(*warnings, ValidationWarning{
					TrackID: trackID,
					ItemID:  itemID,
					Message: fmt.Sprintf("keyframe group %q has unknown easing %q at %v; linear is used", g.Property, kf.Easing, kf.Time),
				})
			}
		}
		for i := 1; i < len(g.Keyframes); i++ {
			if g.Keyframes[i].Time < g.Keyframes[i-1].Time {
				return &InvalidCompositionError{TrackID: trackID, Reason: fmt.Sprintf("item %s: keyframe group %q is not sorted by time", itemID, g.Property)}
			}
			if g.Keyframes[i].Time == g.Keyframes[i-1].Time {
				return &InvalidCompositionError{TrackID: trackID, Reason: fmt.Sprintf("item %s: keyframe group %q has duplicate time %v", itemID, g.Property, g.Keyframes[i].Time)}
			}
		}
	}
	return nil
}
