// Package keyframe evaluates animated property values: given a keyframe
// group and a time instant it produces the concrete value via interpolation.
package keyframe

// Easing curve names. The incoming keyframe of a segment owns the easing of
// that segment: the curve shapes the transition into the keyframe.
const (
	EasingLinear    = "linear"
	EasingIn        = "ease-in"
	EasingOut       = "ease-out"
	EasingInOut     = "ease-in-out"
	EasingStep      = "step"
	EasingHold      = "hold" // alias for step used by some authoring tools
)

// Ease maps linear progress u in [0,1] through the named curve. Unknown
// names fall back to linear; u is clamped to [0,1] first.
func Ease(name string, u float64) float64 {
	if u <= 0 {
		return 0
	}
	if u >= 1 {
		return 1
	}
	switch name {
	case EasingIn:
		return u * u
	case EasingOut:
		return 1 - (1-u)*(1-u)
	case EasingInOut:
		if u < 0.5 {
			return 2 * u * u
		}
		return 1 - 2*(1-u)*(1-u)
	case EasingStep, EasingHold:
		return 0
	default:
		return u
	}
}

// KnownEasing reports whether the name is a recognised easing tag. Unknown
// tags are tolerated at render time (they degrade to linear) but callers may
// want to warn about them at validation time.
func KnownEasing(name string) bool {
	switch name {
	case "", EasingLinear, EasingIn, EasingOut, EasingInOut, EasingStep, EasingHold:
		return true
	}
	return false
}
