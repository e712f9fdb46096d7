// Package models defines the composition data model and render job types
// for clipforge. The composition is a pure data structure: behaviour beyond
// validation lives in the timeline, keyframe, compositor and render packages.
package models

// TrackType identifies what kind of media a track carries.
type TrackType string

const (
	// TrackTypeVideo is a track of video clips.
	TrackTypeVideo TrackType = "video"
	// TrackTypeImage is a track of still images.
	TrackTypeImage TrackType = "image"
	// TrackTypeAudio is a track of audio clips.
	TrackTypeAudio TrackType = "audio"
	// TrackTypeCaption is a track of caption/subtitle items.
	TrackTypeCaption TrackType = "caption"
	// TrackTypeEffect is an adjustment track applying effects to layers below.
	TrackTypeEffect TrackType = "effect"
)

// IsValid returns true for a known track type.
func (t TrackType) IsValid() bool {
	switch t {
	case TrackTypeVideo, TrackTypeImage, TrackTypeAudio, TrackTypeCaption, TrackTypeEffect:
		return true
	}
	return false
}

// CarriesVideo returns true if items on this track produce pixels.
func (t TrackType) CarriesVideo() bool {
	return t == TrackTypeVideo || t == TrackTypeImage || t == TrackTypeCaption || t == TrackTypeEffect
}

// CarriesAudio returns true if items on this track produce samples.
func (t TrackType) CarriesAudio() bool {
	return t == TrackTypeAudio
}

// Composition is the full editable timeline of a project: an ordered set of
// tracks plus markers. Track order is render-significant: the first track is
// visually topmost and the last track is the base layer.
type Composition struct {
	Tracks  []Track  `json:"tracks"`
	Markers []Marker `json:"markers"`
}

// Clone returns a deep copy of the composition. Render jobs snapshot the
// composition at submission time so later edits never affect an in-flight job.
func (c *Composition) Clone() *Composition {
	clone := &Composition{
		Tracks:  make([]Track, len(c.Tracks)),
		Markers: append([]Marker(nil), c.Markers...),
	}
	for i := range c.Tracks {
		clone.Tracks[i] = c.Tracks[i].clone()
	}
	return clone
}

// Track is one layer of the timeline holding items sorted by start time.
// Items within a track must not overlap unless bridged by a transition.
type Track struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Type      TrackType   `json:"type"`
	Items     []TrackItem `json:"items"`
	IsVisible bool        `json:"isVisible"`
	IsMuted   bool        `json:"isMuted"`
	IsLocked  bool        `json:"isLocked"`
	Opacity   float64     `json:"opacity"`
	BlendMode string      `json:"blendMode"`
}

func (t Track) clone() Track {
	clone := t
	clone.Items = make([]TrackItem, len(t.Items))
	for i := range t.Items {
		clone.Items[i] = t.Items[i].clone()
	}
	return clone
}

// TrackItem is one placed instance of an asset on a track's timeline.
// StartTime/Duration position the item on the timeline; InPoint/OutPoint
// select the window into the source media. The item never carries asset
// bytes; decoding is delegated to the media collaborator by asset id.
type TrackItem struct {
	ID          string          `json:"id"`
	AssetID     string          `json:"assetId"`
	StartTime   float64         `json:"startTime"`
	Duration    float64         `json:"duration"`
	InPoint     float64         `json:"inPoint"`
	OutPoint    float64         `json:"outPoint"`
	Transform   Transform       `json:"transform"`
	Effects     []Effect        `json:"effects"`
	Transitions []Transition    `json:"transitions"`
	Keyframes   []KeyframeGroup `json:"keyframes"`
}

func (i TrackItem) clone() TrackItem {
	clone := i
	clone.Effects = make([]Effect, len(i.Effects))
	for j := range i.Effects {
		clone.Effects[j] = i.Effects[j].clone()
	}
	clone.Transitions = make([]Transition, len(i.Transitions))
	for j := range i.Transitions {
		clone.Transitions[j] = i.Transitions[j].clone()
	}
	clone.Keyframes = cloneKeyframeGroups(i.Keyframes)
	return clone
}

// EndTime returns the exclusive end of the item's span on the timeline.
func (i TrackItem) EndTime() float64 {
	return i.StartTime + i.Duration
}

// Contains reports whether timeline instant t falls within the item's span.
func (i TrackItem) Contains(t float64) bool {
	return t >= i.StartTime && t < i.EndTime()
}

// SourceTime maps a timeline instant to the corresponding source media time,
// clamped to [InPoint, OutPoint].
func (i TrackItem) SourceTime(t float64) float64 {
	st := i.InPoint + (t - i.StartTime)
	if st < i.InPoint {
		st = i.InPoint
	}
	if i.OutPoint > i.InPoint && st > i.OutPoint {
		st = i.OutPoint
	}
	return st
}

// TransitionAt returns the transition declared at the given boundary, if any.
func (i TrackItem) TransitionAt(pos TransitionPosition) *Transition {
	for j := range i.Transitions {
		if i.Transitions[j].Position == pos {
			return &i.Transitions[j]
		}
	}
	return nil
}

// KeyframeGroupFor returns the keyframe group animating the named property.
func (i TrackItem) KeyframeGroupFor(property string) *KeyframeGroup {
	for j := range i.Keyframes {
		if i.Keyframes[j].Property == property {
			return &i.Keyframes[j]
		}
	}
	return nil
}

// Transform holds the spatial placement of an item. All fields are
// independently keyframable via the item's keyframe groups; the struct values
// are the static fallbacks used when no keyframes animate a property.
type Transform struct {
	Position Position `json:"position"`
	Scale    Scale    `json:"scale"`
	Rotation float64  `json:"rotation"`
	Anchor   Position `json:"anchor"`
	Opacity  float64  `json:"opacity"`
}

// DefaultTransform returns an identity transform at full opacity.
func DefaultTransform() Transform {
	return Transform{
		Scale:   Scale{X: 1, Y: 1},
		Opacity: 1,
	}
}

// Position is a 2D point in output pixel coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Scale is a per-axis scale factor.
type Scale struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Effect is one applied effect instance. Type is resolved against the closed
// catalog in the effects package; unknown types are rejected at validation
// time. Parameters hold the static parameter values; keyframe groups may
// animate individual parameters by name.
type Effect struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Enabled    bool            `json:"enabled"`
	Parameters map[string]any  `json:"parameters"`
	Keyframes  []KeyframeGroup `json:"keyframes"`
}

func (e Effect) clone() Effect {
	clone := e
	if e.Parameters != nil {
		clone.Parameters = make(map[string]any, len(e.Parameters))
		for k, v := range e.Parameters {
			clone.Parameters[k] = v
		}
	}
	clone.Keyframes = cloneKeyframeGroups(e.Keyframes)
	return clone
}

// ParamFloat reads a numeric parameter, falling back when absent or non-numeric.
func (e Effect) ParamFloat(name string, fallback float64) float64 {
	if v, ok := e.Parameters[name]; ok {
		if f, ok := toFloat(v); ok {
			return f
		}
	}
	return fallback
}

// ParamString reads a string parameter, falling back when absent.
func (e Effect) ParamString(name, fallback string) string {
	if v, ok := e.Parameters[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// TransitionPosition locates a transition at an item boundary.
type TransitionPosition string

const (
	// TransitionStart blends the item in from its predecessor.
	TransitionStart TransitionPosition = "start"
	// TransitionEnd blends the item out into its successor.
	TransitionEnd TransitionPosition = "end"
)

// Transition describes how an item blends with its neighbour across a
// boundary window of the given duration.
type Transition struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Duration   float64            `json:"duration"`
	Position   TransitionPosition `json:"position"`
	Easing     string             `json:"easing"`
	Parameters map[string]any     `json:"parameters"`
}

func (t Transition) clone() Transition {
	clone := t
	if t.Parameters != nil {
		clone.Parameters = make(map[string]any, len(t.Parameters))
		for k, v := range t.Parameters {
			clone.Parameters[k] = v
		}
	}
	return clone
}

// ParamString reads a string parameter, falling back when absent.
func (t Transition) ParamString(name, fallback string) string {
	if v, ok := t.Parameters[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// KeyframeGroup animates a single named property over time. Keyframes must be
// sorted by time with no duplicates; this is enforced by validation.
type KeyframeGroup struct {
	Property  string     `json:"property"`
	Keyframes []Keyframe `json:"keyframes"`
}

func cloneKeyframeGroups(groups []KeyframeGroup) []KeyframeGroup {
	if groups == nil {
		return nil
	}
	out := make([]KeyframeGroup, len(groups))
	for i, g := range groups {
		out[i] = KeyframeGroup{
			Property:  g.Property,
			Keyframes: append([]Keyframe(nil), g.Keyframes...),
		}
	}
	return out
}

// Keyframe anchors a property value at a time. Easing names the curve shaping
// the segment that terminates at this keyframe.
type Keyframe struct {
	ID     string  `json:"id"`
	Time   float64 `json:"time"`
	Value  any     `json:"value"`
	Easing string  `json:"easing"`
}

// Marker is a labelled point on the timeline, used by the UI only.
type Marker struct {
	ID    string  `json:"id"`
	Time  float64 `json:"time"`
	Label string  `json:"label"`
	Color string  `json:"color"`
	Type  string  `json:"type"`
}

// toFloat coerces JSON-decoded numeric representations to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
