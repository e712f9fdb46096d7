package effects

import (
	"image"
	"math"

	"github.com/clipforge/clipforge/internal/models"
)

// ApplyImage applies one enabled effect to the frame in place. t is the
// item-local time used to evaluate keyframed parameters. Unknown types
// return *models.UnsupportedEffectError and fail the job.
func ApplyImage(img *image.RGBA, e *models.Effect, t float64) error {
	switch e.Type {
	case TypeBrightness:
		// value 1.0 is neutral; the offset maps to an additive shift.
		applyBrightness(img, Param(e, "value", t, 1))
	case TypeContrast:
		applyContrast(img, Param(e, "value", t, 1))
	case TypeSaturation:
		applySaturation(img, Param(e, "value", t, 1))
	case TypeHue:
		applyHue(img, Param(e, "value", t, 0))
	case TypeBlur:
		applyBlur(img, Param(e, "radius", t, 0))
	case TypeSharpen:
		applySharpen(img, Param(e, "amount", t, 0))
	case TypeVignette:
		applyVignette(img, Param(e, "intensity", t, 0))
	case TypeGrain:
		applyGrain(img, Param(e, "intensity", t, 0), t)
	default:
		return &models.UnsupportedEffectError{Type: e.Type}
	}
	return nil
}

func applyBrightness(img *image.RGBA, value float64) {
	offset := (value - 1) * 255
	mapChannels(img, func(c float64) float64 { return c + offset })
}

func applyContrast(img *image.RGBA, value float64) {
	mapChannels(img, func(c float64) float64 { return (c-128)*value + 128 })
}

// mapChannels applies f to each colour channel, leaving alpha untouched.
func mapChannels(img *image.RGBA, f func(float64) float64) {
	pix := img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = clampByte(f(float64(pix[i])))
		pix[i+1] = clampByte(f(float64(pix[i+1])))
		pix[i+2] = clampByte(f(float64(pix[i+2])))
	}
}

func applySaturation(img *image.RGBA, value float64) {
	pix := img.Pix
	for i := 0; i < len(pix); i += 4 {
		r, g, b := float64(pix[i]), float64(pix[i+1]), float64(pix[i+2])
		// Rec. 601 luma as the desaturation target.
		luma := 0.299*r + 0.587*g + 0.114*b
		pix[i] = clampByte(luma + (r-luma)*value)
		pix[i+1] = clampByte(luma + (g-luma)*value)
		pix[i+2] = clampByte(luma + (b-luma)*value)
	}
}

// applyHue rotates the hue by the given angle in degrees using the standard
// YIQ-space rotation matrix.
func applyHue(img *image.RGBA, degrees float64) {
	if degrees == 0 {
		return
	}
	rad := degrees * math.Pi / 180
	cosA, sinA := math.Cos(rad), math.Sin(rad)

	m := [9]float64{
		0.213 + cosA*0.787 - sinA*0.213, 0.715 - cosA*0.715 - sinA*0.715, 0.072 - cosA*0.072 + sinA*0.928,
		0.213 - cosA*0.213 + sinA*0.143, 0.715 + cosA*0.285 + sinA*0.140, 0.072 - cosA*0.072 - sinA*0.283,
		0.213 - cosA*0.213 - sinA*0.787, 0.715 - cosA*0.715 + sinA*0.715, 0.072 + cosA*0.928 + sinA*0.072,
	}

	pix := img.Pix
	for i := 0; i < len(pix); i += 4 {
		r, g, b := float64(pix[i]), float64(pix[i+1]), float64(pix[i+2])
		pix[i] = clampByte(m[0]*r + m[1]*g + m[2]*b)
		pix[i+1] = clampByte(m[3]*r + m[4]*g + m[5]*b)
		pix[i+2] = clampByte(m[6]*r + m[7]*g + m[8]*b)
	}
}

// applyBlur runs a two-pass box blur with the given radius in pixels.
func applyBlur(img *image.RGBA, radius float64) {
	r := int(math.Round(radius))
	if r <= 0 {
		return
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	tmp := image.NewRGBA(b)

	// Horizontal pass into tmp.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sr, sg, sb, sa, n int
			for dx := -r; dx <= r; dx++ {
				xx := x + dx
				if xx < 0 || xx >= w {
					continue
				}
				o := img.PixOffset(b.Min.X+xx, b.Min.Y+y)
				sr += int(img.Pix[o])
				sg += int(img.Pix[o+1])
				sb += int(img.Pix[o+2])
				sa += int(img.Pix[o+3])
				n++
			}
			o := tmp.PixOffset(b.Min.X+x, b.Min.Y+y)
			tmp.Pix[o] = uint8(sr / n)
			tmp.Pix[o+1] = uint8(sg / n)
			tmp.Pix[o+2] = uint8(sb / n)
			tmp.Pix[o+3] = uint8(sa / n)
		}
	}

	// Vertical pass back into img.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sr, sg, sb, sa, n int
			for dy := -r; dy <= r; dy++ {
				yy := y + dy
				if yy < 0 || yy >= h {
					continue
				}
				o := tmp.PixOffset(b.Min.X+x, b.Min.Y+yy)
				sr += int(tmp.Pix[o])
				sg += int(tmp.Pix[o+1])
				sb += int(tmp.Pix[o+2])
				sa += int(tmp.Pix[o+3])
				n++
			}
			o := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			img.Pix[o] = uint8(sr / n)
			img.Pix[o+1] = uint8(sg / n)
			img.Pix[o+2] = uint8(sb / n)
			img.Pix[o+3] = uint8(sa / n)
		}
	}
}

// applySharpen runs an unsharp mask: out = src + amount*(src - blurred).
func applySharpen(img *image.RGBA, amount float64) {
	if amount <= 0 {
		return
	}
	b := img.Bounds()
	blurred := image.NewRGBA(b)
	copy(blurred.Pix, img.Pix)
	applyBlur(blurred, 1)

	for i := 0; i < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			src := float64(img.Pix[i+c])
			img.Pix[i+c] = clampByte(src + amount*(src-float64(blurred.Pix[i+c])))
		}
	}
}

// applyVignette darkens pixels radially from the frame centre. Intensity 0
// is a no-op and 1 fades the corners fully to black.
func applyVignette(img *image.RGBA, intensity float64) {
	if intensity <= 0 {
		return
	}
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	cx, cy := w/2, h/2
	maxDist := math.Hypot(cx, cy)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dist := math.Hypot(float64(x-b.Min.X)-cx, float64(y-b.Min.Y)-cy) / maxDist
			factor := 1 - intensity*dist*dist
			if factor >= 1 {
				continue
			}
			if factor < 0 {
				factor = 0
			}
			o := img.PixOffset(x, y)
			img.Pix[o] = uint8(float64(img.Pix[o]) * factor)
			img.Pix[o+1] = uint8(float64(img.Pix[o+1]) * factor)
			img.Pix[o+2] = uint8(float64(img.Pix[o+2]) * factor)
		}
	}
}

// applyGrain adds deterministic film grain. The noise is a hash of pixel
// position and frame time so a given frame always renders identically.
func applyGrain(img *image.RGBA, intensity float64, t float64) {
	if intensity <= 0 {
		return
	}
	strength := intensity * 50
	seed := uint32(t * 1000)
	b := img.Bounds()

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// xorshift-style hash of (x, y, frame).
			h := uint32(x)*374761393 + uint32(y)*668265263 + seed*2246822519
			h ^= h >> 13
			h *= 1274126177
			h ^= h >> 16
			noise := (float64(h%1024)/512 - 1) * strength

			o := img.PixOffset(x, y)
			img.Pix[o] = clampByte(float64(img.Pix[o]) + noise)
			img.Pix[o+1] = clampByte(float64(img.Pix[o+1]) + noise)
			img.Pix[o+2] = clampByte(float64(img.Pix[o+2]) + noise)
		}
	}
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
