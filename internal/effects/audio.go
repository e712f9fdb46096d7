package effects

import (
	"github.com/clipforge/clipforge/internal/models"
)

// ApplyAudio applies one enabled effect to a sample window in place. t is
// the item-local time used to evaluate keyframed parameters. Image effects
// on an audio item are ignored; truly unknown types return
// *models.UnsupportedEffectError.
func ApplyAudio(samples []float32, e *models.Effect, t float64) error {
	switch e.Type {
	case TypeGain, TypeVolume:
		gain := Param(e, "value", t, 1)
		if gain == 1 {
			return nil
		}
		for i := range samples {
			samples[i] = float32(float64(samples[i]) * gain)
		}
	default:
		if IsImage(e.Type) {
			return nil
		}
		return &models.UnsupportedEffectError{Type: e.Type}
	}
	return nil
}
