// Package compositor renders one output video frame per timeline instant:
// it resolves active items, evaluates transforms and effect parameters,
// decodes source frames, and blends layers back-to-front into the output
// buffer.
package compositor

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/clipforge/clipforge/internal/effects"
	"github.com/clipforge/clipforge/internal/keyframe"
	"github.com/clipforge/clipforge/internal/media"
	"github.com/clipforge/clipforge/internal/models"
	"github.com/clipforge/clipforge/internal/timeline"
	"github.com/clipforge/clipforge/internal/transition"
)

// Compositor builds output frames for one composition at one resolution.
// Each render job owns its own compositor and media source.
type Compositor struct {
	source     media.Source
	bounds     image.Rectangle
	background color.RGBA
}

// New creates a compositor producing frames of the given resolution over the
// given background colour (hex, e.g. "#101010").
func New(source media.Source, resolution models.Resolution, backgroundHex string) *Compositor {
	return &Compositor{
		source:     source,
		bounds:     image.Rect(0, 0, resolution.Width, resolution.Height),
		background: parseHexColor(backgroundHex),
	}
}

// RenderFrame composites the output frame for timeline instant t.
func (c *Compositor) RenderFrame(ctx context.Context, comp *models.Composition, t float64) (*image.RGBA, error) {
	out := image.NewRGBA(c.bounds)
	draw.Draw(out, c.bounds, &image.Uniform{C: c.background}, image.Point{}, draw.Src)

	active := timeline.ActiveItems(comp, t)

	// Paint back-to-front: the resolver lists the topmost track first, so
	// iterate in reverse and let later draws win.
	for i := len(active) - 1; i >= 0; i-- {
		ai := active[i]
		if !ai.Track.IsVisible {
			continue
		}
		switch ai.Track.Type {
		case models.TrackTypeVideo, models.TrackTypeImage:
			if err := c.compositeItem(ctx, out, ai, t); err != nil {
				return nil, err
			}
		case models.TrackTypeEffect:
			// Adjustment layer: the item's effects apply to everything
			// painted below it instead of to a decoded source frame.
			if err := applyItemEffects(out, ai.Item, t-ai.Item.StartTime); err != nil {
				return nil, err
			}
		default:
			// Audio contributes no pixels; caption rendering is not part
			// of the v1 pipeline.
		}
	}
	return out, nil
}

func (c *Compositor) compositeItem(ctx context.Context, out *image.RGBA, ai timeline.ActiveItem, t float64) error {
	layer, opacity, err := c.renderLayer(ctx, ai.Item, t)
	if err != nil {
		return err
	}

	if tr := ai.Transition; tr != nil {
		// The blend of this item with its boundary neighbour is delegated
		// to the transition engine; the plain per-track blend is skipped.
		// Each side's evaluated opacity is folded into its own layer before
		// the engine mixes them, so a keyframed fade keeps animating through
		// the window instead of popping to full opacity.
		foldOpacity(layer, opacity)
		opacity = 1
		var outgoing, incoming *image.RGBA
		if tr.Incoming == ai.Item {
			incoming = layer
			if tr.Outgoing != nil {
				var neighbourOpacity float64
				outgoing, neighbourOpacity, err = c.renderLayer(ctx, tr.Outgoing, t)
				if err != nil {
					return err
				}
				foldOpacity(outgoing, neighbourOpacity)
			}
		} else {
			outgoing = layer
			if tr.Incoming != nil {
				var neighbourOpacity float64
				incoming, neighbourOpacity, err = c.renderLayer(ctx, tr.Incoming, t)
				if err != nil {
					return err
				}
				foldOpacity(incoming, neighbourOpacity)
			}
		}
		layer, err = transition.Blend(tr.Spec, outgoing, incoming, c.bounds, tr.Progress)
		if err != nil {
			return err
		}
		unfoldAlpha(layer)
	}

	blendLayer(out, layer, ai.Track.BlendMode, ai.Track.Opacity*opacity)
	return nil
}

// foldOpacity premultiplies a layer by an item's evaluated opacity, colour
// and alpha both, so the transition engine weighs the side correctly.
func foldOpacity(img *image.RGBA, opacity float64) {
	if opacity >= 1 {
		return
	}
	if opacity < 0 {
		opacity = 0
	}
	for i := range img.Pix {
		img.Pix[i] = uint8(float64(img.Pix[i])*opacity + 0.5)
	}
}

// unfoldAlpha converts a premultiplied blend result back to straight alpha
// so blendLayer's alpha weighting does not count the opacity twice.
func unfoldAlpha(img *image.RGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		a := img.Pix[i+3]
		if a == 0 || a == 255 {
			continue
		}
		f := 255 / float64(a)
		for c := 0; c < 3; c++ {
			v := float64(img.Pix[i+c]) * f
			if v > 255 {
				v = 255
			}
			img.Pix[i+c] = uint8(v + 0.5)
		}
	}
}

// renderLayer produces one item's canvas-sized layer: decoded source frame,
// effects in declared order, then the evaluated transform. It returns the
// layer and the item's keyframed transform opacity.
func (c *Compositor) renderLayer(ctx context.Context, item *models.TrackItem, t float64) (*image.RGBA, float64, error) {
	src, err := c.source.DecodeVideoFrame(ctx, item.AssetID, item.SourceTime(t))
	if err != nil {
		return nil, 0, err
	}

	local := t - item.StartTime
	if err := applyItemEffects(src, item, local); err != nil {
		return nil, 0, err
	}

	xf := evaluateTransform(item, local)
	layer := image.NewRGBA(c.bounds)
	xdraw.ApproxBiLinear.Transform(layer, affine(xf), src, src.Bounds(), xdraw.Over, nil)
	return layer, xf.Opacity, nil
}

func applyItemEffects(img *image.RGBA, item *models.TrackItem, local float64) error {
	for i := range item.Effects {
		eff := &item.Effects[i]
		if !eff.Enabled {
			continue
		}
		if effects.IsAudio(eff.Type) {
			continue
		}
		if err := effects.ApplyImage(img, eff, local); err != nil {
			return err
		}
	}
	return nil
}

// evaluateTransform resolves the item's transform at item-local time,
// keyframed properties taking precedence over the static values.
func evaluateTransform(item *models.TrackItem, local float64) models.Transform {
	xf := item.Transform

	pos := keyframe.Vector(item.KeyframeGroupFor("position"), local, []float64{xf.Position.X, xf.Position.Y})
	scale := keyframe.Vector(item.KeyframeGroupFor("scale"), local, []float64{xf.Scale.X, xf.Scale.Y})
	anchor := keyframe.Vector(item.KeyframeGroupFor("anchor"), local, []float64{xf.Anchor.X, xf.Anchor.Y})

	xf.Position = models.Position{X: pos[0], Y: pos[1]}
	xf.Scale = models.Scale{X: scale[0], Y: scale[1]}
	xf.Anchor = models.Position{X: anchor[0], Y: anchor[1]}
	xf.Rotation = keyframe.Scalar(item.KeyframeGroupFor("rotation"), local, xf.Rotation)
	xf.Opacity = keyframe.Scalar(item.KeyframeGroupFor("opacity"), local, xf.Opacity)
	return xf
}

// affine builds the source-to-canvas matrix applying scale, then rotation,
// then translation, about the anchor point.
func affine(xf models.Transform) f64.Aff3 {
	sx, sy := xf.Scale.X, xf.Scale.Y
	rad := xf.Rotation * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	// M = T(position) · R(rotation) · S(scale) · T(-anchor)
	a := cos * sx
	b := -sin * sy
	d := sin * sx
	e := cos * sy
	tx := xf.Position.X - (a*xf.Anchor.X + b*xf.Anchor.Y)
	ty := xf.Position.Y - (d*xf.Anchor.X + e*xf.Anchor.Y)

	return f64.Aff3{a, b, tx, d, e, ty}
}

// blendLayer composites a canvas-sized layer onto dst using the track's
// blend mode and the effective opacity (track opacity × item opacity).
func blendLayer(dst, layer *image.RGBA, mode string, opacity float64) {
	if opacity <= 0 {
		return
	}
	if opacity > 1 {
		opacity = 1
	}

	for i := 0; i < len(dst.Pix); i += 4 {
		la := float64(layer.Pix[i+3]) / 255 * opacity
		if la == 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			d := float64(dst.Pix[i+c]) / 255
			s := float64(layer.Pix[i+c]) / 255

			var blended float64
			switch mode {
			case "multiply":
				blended = d * s
			case "screen":
				blended = 1 - (1-d)*(1-s)
			case "add":
				blended = d + s
				if blended > 1 {
					blended = 1
				}
			default: // normal
				blended = s
			}

			v := d*(1-la) + blended*la
			dst.Pix[i+c] = uint8(v*255 + 0.5)
		}
		// Output frames stay opaque over the background.
		dst.Pix[i+3] = 255
	}
}

func parseHexColor(hex string) color.RGBA {
	c := color.RGBA{A: 255}
	if len(hex) == 7 && hex[0] == '#' {
		c.R = hexByte(hex[1], hex[2])
		c.G = hexByte(hex[3], hex[4])
		c.B = hexByte(hex[5], hex[6])
	}
	return c
}

func hexByte(hi, lo byte) uint8 {
	return hexNibble(hi)<<4 | hexNibble(lo)
}

func hexNibble(b byte) uint8 {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
