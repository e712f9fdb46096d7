// Package effects implements the closed effect catalog. Effect type tags on
// a composition resolve against this catalog at validation time, so an
// unknown tag fails project load rather than a render mid-flight; the render
// path still refuses unknown tags defensively.
package effects

import (
	"github.com/clipforge/clipforge/internal/keyframe"
	"github.com/clipforge/clipforge/internal/models"
)

// Catalog type tags.
const (
	TypeBrightness = "brightness"
	TypeContrast   = "contrast"
	TypeSaturation = "saturation"
	TypeHue        = "hue"
	TypeBlur       = "blur"
	TypeSharpen    = "sharpen"
	TypeVignette   = "vignette"
	TypeGrain      = "grain"
	TypeGain       = "gain"
	TypeVolume     = "volume"
)

// Known reports whether the tag names a catalogued effect.
func Known(tag string) bool {
	return IsImage(tag) || IsAudio(tag)
}

// IsImage reports whether the tag names a pixel effect.
func IsImage(tag string) bool {
	switch tag {
	case TypeBrightness, TypeContrast, TypeSaturation, TypeHue,
		TypeBlur, TypeSharpen, TypeVignette, TypeGrain:
		return true
	}
	return false
}

// IsAudio reports whether the tag names a sample effect.
func IsAudio(tag string) bool {
	return tag == TypeGain || tag == TypeVolume
}

// Param evaluates one effect parameter at time t. The effect's own keyframe
// groups animate parameters by name; the static parameter map supplies the
// fallback, and def applies when the parameter is absent entirely.
// t is the item-local time used for the effect's keyframes.
func Param(e *models.Effect, name string, t, def float64) float64 {
	fallback := e.ParamFloat(name, def)
	for i := range e.Keyframes {
		if e.Keyframes[i].Property == name {
			return keyframe.Scalar(&e.Keyframes[i], t, fallback)
		}
	}
	return fallback
}
