package effects

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/internal/models"
)

func grayFrame(v uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = v
		img.Pix[i+1] = v
		img.Pix[i+2] = v
		img.Pix[i+3] = 255
	}
	return img
}

func effect(typ string, params map[string]any) *models.Effect {
	return &models.Effect{ID: "e1", Type: typ, Enabled: true, Parameters: params}
}

func TestApplyImage_BrightnessNeutralIsIdentity(t *testing.T) {
	img := grayFrame(100)
	require.NoError(t, ApplyImage(img, effect(TypeBrightness, map[string]any{"value": 1.0}), 0))
	assert.Equal(t, uint8(100), img.Pix[0])
}

func TestApplyImage_BrightnessShifts(t *testing.T) {
	img := grayFrame(100)
	// value 1.2 adds (1.2-1)*255 ≈ 51 to each channel.
	require.NoError(t, ApplyImage(img, effect(TypeBrightness, map[string]any{"value": 1.2}), 0))
	assert.InDelta(t, 151, int(img.Pix[0]), 1)

	img = grayFrame(250)
	require.NoError(t, ApplyImage(img, effect(TypeBrightness, map[string]any{"value": 2.0}), 0))
	assert.Equal(t, uint8(255), img.Pix[0], "channels clamp at white")
}

func TestApplyImage_ContrastPivotsAtMidGray(t *testing.T) {
	img := grayFrame(128)
	require.NoError(t, ApplyImage(img, effect(TypeContrast, map[string]any{"value": 2.0}), 0))
	assert.Equal(t, uint8(128), img.Pix[0])

	img = grayFrame(100)
	require.NoError(t, ApplyImage(img, effect(TypeContrast, map[string]any{"value": 2.0}), 0))
	assert.Equal(t, uint8(72), img.Pix[0])
}

func TestApplyImage_SaturationZeroIsGrayscale(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Pix[0], img.Pix[1], img.Pix[2], img.Pix[3] = 200, 50, 90, 255

	require.NoError(t, ApplyImage(img, effect(TypeSaturation, map[string]any{"value": 0.0}), 0))
	assert.Equal(t, img.Pix[0], img.Pix[1])
	assert.Equal(t, img.Pix[1], img.Pix[2])
}

func TestApplyImage_HueZeroIsIdentity(t *testing.T) {
	img := grayFrame(80)
	before := append([]uint8(nil), img.Pix...)
	require.NoError(t, ApplyImage(img, effect(TypeHue, map[string]any{"value": 0.0}), 0))
	assert.Equal(t, before, img.Pix)
}

func TestApplyImage_AlphaUntouched(t *testing.T) {
	img := grayFrame(100)
	img.Pix[3] = 128
	require.NoError(t, ApplyImage(img, effect(TypeContrast, map[string]any{"value": 3.0}), 0))
	assert.Equal(t, uint8(128), img.Pix[3])
}

func TestApplyImage_UnknownTypeFails(t *testing.T) {
	err := ApplyImage(grayFrame(0), effect("glitter", nil), 0)
	var ue *models.UnsupportedEffectError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "glitter", ue.Type)
}

func TestApplyImage_GrainIsDeterministic(t *testing.T) {
	a := grayFrame(100)
	b := grayFrame(100)
	require.NoError(t, ApplyImage(a, effect(TypeGrain, map[string]any{"intensity": 0.5}), 1.25))
	require.NoError(t, ApplyImage(b, effect(TypeGrain, map[string]any{"intensity": 0.5}), 1.25))
	assert.Equal(t, a.Pix, b.Pix)
}

func TestParam_KeyframesOverrideStatics(t *testing.T) {
	e := effect(TypeBrightness, map[string]any{"value": 1.0})
	e.Keyframes = []models.KeyframeGroup{{
		Property: "value",
		Keyframes: []models.Keyframe{
			{Time: 0, Value: 1.0},
			{Time: 2, Value: 2.0, Easing: "linear"},
		},
	}}

	assert.InDelta(t, 1.5, Param(e, "value", 1, 0), 1e-9)
	// Other parameters still read the static map.
	assert.Equal(t, 7.0, Param(e, "other", 1, 7))
}

func TestApplyAudio_Gain(t *testing.T) {
	samples := []float32{0.5, -0.5, 0.25}
	require.NoError(t, ApplyAudio(samples, effect(TypeGain, map[string]any{"value": 2.0}), 0))
	assert.InDelta(t, 1.0, samples[0], 1e-6)
	assert.InDelta(t, -1.0, samples[1], 1e-6)
	assert.InDelta(t, 0.5, samples[2], 1e-6)
}

func TestApplyAudio_ImageEffectIgnored(t *testing.T) {
	samples := []float32{0.5}
	require.NoError(t, ApplyAudio(samples, effect(TypeBlur, map[string]any{"radius": 3.0}), 0))
	assert.Equal(t, float32(0.5), samples[0])
}

func TestApplyAudio_UnknownTypeFails(t *testing.T) {
	err := ApplyAudio([]float32{0}, effect("reverb", nil), 0)
	assert.Error(t, err)
}

func TestKnownCatalog(t *testing.T) {
	for _, tag := range []string{"brightness", "contrast", "saturation", "hue", "blur", "sharpen", "vignette", "grain", "gain", "volume"} {
		assert.True(t, Known(tag), tag)
	}
	assert.False(t, Known("glitter"))
	assert.True(t, IsImage("blur"))
	assert.False(t, IsImage("gain"))
	assert.True(t, IsAudio("volume"))
}
