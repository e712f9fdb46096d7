package keyframe

import (
	"github.com/clipforge/clipforge/internal/models"
)

// Evaluate produces the value of an animated property at time t.
//
// Before the first keyframe the first value is returned; after the last, the
// last (clamp semantics). Between a bracketing pair (k0, k1) the value is
// interpolated with k1's easing curve. Numeric values interpolate
// component-wise; non-numeric values switch at the keyframe boundary (step
// semantics regardless of declared easing). A group with zero or one
// keyframe is constant: one keyframe yields its value, zero yields nil and
// the caller's static fallback applies.
func Evaluate(g *models.KeyframeGroup, t float64) any {
	if g == nil || len(g.Keyframes) == 0 {
		return nil
	}
	kfs := g.Keyframes
	if len(kfs) == 1 || t <= kfs[0].Time {
		return kfs[0].Value
	}
	last := kfs[len(kfs)-1]
	if t >= last.Time {
		return last.Value
	}

	// Locate the bracketing pair with k0.Time <= t < k1.Time.
	i := 0
	for i < len(kfs)-1 && kfs[i+1].Time <= t {
		i++
	}
	k0, k1 := kfs[i], kfs[i+1]

	u := (t - k0.Time) / (k1.Time - k0.Time)
	eased := Ease(k1.Easing, u)

	if v0, ok := asScalar(k0.Value); ok {
		if v1, ok := asScalar(k1.Value); ok {
			return v0 + (v1-v0)*eased
		}
	}
	if v0, ok := asVector(k0.Value); ok {
		if v1, ok := asVector(k1.Value); ok && len(v0) == len(v1) {
			out := make([]float64, len(v0))
			for j := range v0 {
				out[j] = v0[j] + (v1[j]-v0[j])*eased
			}
			return out
		}
	}

	// Non-numeric: hold the outgoing value until the boundary.
	return k0.Value
}

// Scalar evaluates a numeric property, using fallback when the group is
// absent, empty, or holds non-numeric values.
func Scalar(g *models.KeyframeGroup, t, fallback float64) float64 {
	v := Evaluate(g, t)
	if v == nil {
		return fallback
	}
	if f, ok := asScalar(v); ok {
		return f
	}
	return fallback
}

// Vector evaluates a vector property component-wise, using fallback when the
// group is absent, empty, or not a numeric vector of the same length.
func Vector(g *models.KeyframeGroup, t float64, fallback []float64) []float64 {
	v := Evaluate(g, t)
	if v == nil {
		return fallback
	}
	if vec, ok := asVector(v); ok && len(vec) == len(fallback) {
		return vec
	}
	return fallback
}

// asScalar coerces JSON-decoded numbers to float64.
func asScalar(v any) (float64, bool) {
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

// asVector coerces []float64 and JSON-decoded []any of numbers.
func asVector(v any) ([]float64, bool) {
	switch vec := v.(type) {
	case []float64:
		return vec, true
	case []any:
		out := make([]float64, len(vec))
		for i, e := range vec {
			f, ok := asScalar(e)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	}
	return nil, false
}
