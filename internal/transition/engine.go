// Package transition blends two frames across an item boundary. The engine
// specialises the compositor's blend step: given the outgoing and incoming
// frames and a time progress, it produces the blended frame for the window.
package transition

import (
	"image"
	"image/draw"

	"github.com/clipforge/clipforge/internal/keyframe"
	"github.com/clipforge/clipforge/internal/models"
)

// Catalog type tags.
const (
	TypeCrossfade = "crossfade"
	TypeFade      = "fade" // alias for crossfade used by older project files
	TypeWipe      = "wipe"
	TypeSlide     = "slide"
	TypeDissolve  = "dissolve"
)

// Wipe/slide directions, read from the transition's "direction" parameter.
const (
	DirectionLeft  = "left"
	DirectionRight = "right"
	DirectionUp    = "up"
	DirectionDown  = "down"
)

// Known reports whether the tag names a catalogued transition.
func Known(tag string) bool {
	switch tag {
	case TypeCrossfade, TypeFade, TypeWipe, TypeSlide, TypeDissolve:
		return true
	}
	return false
}

// Blend produces the blended frame for a boundary window. tau is the linear
// time progress in [0,1]; it is passed through the transition's easing tag
// first so the perceptual speed of the blend is configurable independently
// of time. Either input frame may be nil, which blends from or to
// transparency. Unknown types return *models.UnsupportedTransitionError.
func Blend(spec *models.Transition, outgoing, incoming *image.RGBA, bounds image.Rectangle, tau float64) (*image.RGBA, error) {
	eased := keyframe.Ease(spec.Easing, tau)

	out := image.NewRGBA(bounds)
	a := frameOrTransparent(outgoing, bounds)
	b := frameOrTransparent(incoming, bounds)

	switch spec.Type {
	case TypeCrossfade, TypeFade:
		crossfade(out, a, b, eased)
	case TypeWipe:
		wipe(out, a, b, eased, spec.ParamString("direction", DirectionLeft))
	case TypeSlide:
		slide(out, a, b, eased, spec.ParamString("direction", DirectionLeft))
	case TypeDissolve:
		dissolve(out, a, b, eased)
	default:
		return nil, &models.UnsupportedTransitionError{Type: spec.Type}
	}
	return out, nil
}

func frameOrTransparent(img *image.RGBA, bounds image.Rectangle) *image.RGBA {
	if img != nil {
		return img
	}
	return image.NewRGBA(bounds)
}

// crossfade blends pixel-wise: (1-tau)*outgoing + tau*incoming.
func crossfade(dst, a, b *image.RGBA, tau float64) {
	wa := 1 - tau
	for i := 0; i < len(dst.Pix); i++ {
		dst.Pix[i] = uint8(float64(a.Pix[i])*wa + float64(b.Pix[i])*tau + 0.5)
	}
}

// wipe reveals the incoming frame behind an edge sweeping across the frame.
// The direction names the edge the sweep starts from.
func wipe(dst, a, b *image.RGBA, tau float64, direction string) {
	bounds := dst.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var revealed bool
			switch direction {
			case DirectionRight:
				revealed = float64(w-1-x) < tau*float64(w)
			case DirectionUp:
				revealed = float64(h-1-y) < tau*float64(h)
			case DirectionDown:
				revealed = float64(y) < tau*float64(h)
			default: // left
				revealed = float64(x) < tau*float64(w)
			}
			src := a
			if revealed {
				src = b
			}
			copyPixel(dst, src, bounds.Min.X+x, bounds.Min.Y+y)
		}
	}
}

// slide moves the incoming frame in from the named edge over the outgoing
// frame.
func slide(dst, a, b *image.RGBA, tau float64, direction string) {
	bounds := dst.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var dx, dy int
	switch direction {
	case DirectionRight:
		dx = int((1 - tau) * float64(w))
	case DirectionUp:
		dy = -int((1 - tau) * float64(h))
	case DirectionDown:
		dy = int((1 - tau) * float64(h))
	default: // left
		dx = -int((1 - tau) * float64(w))
	}

	draw.Draw(dst, bounds, a, a.Bounds().Min, draw.Src)
	offset := bounds.Add(image.Pt(-dx, -dy))
	draw.Draw(dst, bounds, b, offset.Min, draw.Over)
}

// dissolve switches pixels to the incoming frame in a deterministic
// pseudo-random order, so a given (frame, tau) always renders identically.
func dissolve(dst, a, b *image.RGBA, tau float64) {
	bounds := dst.Bounds()
	threshold := uint32(tau * 1024)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			h := uint32(x)*374761393 + uint32(y)*668265263
			h ^= h >> 13
			h *= 1274126177
			h ^= h >> 16
			src := a
			if h%1024 < threshold {
				src = b
			}
			copyPixel(dst, src, x, y)
		}
	}
}

func copyPixel(dst, src *image.RGBA, x, y int) {
	do := dst.PixOffset(x, y)
	so := src.PixOffset(x, y)
	copy(dst.Pix[do:do+4], src.Pix[so:so+4])
}
