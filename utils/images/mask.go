package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// luminance converts mask to gray levels. It reports false when colored
// pixels had to be collapsed.
func luminance(mask image.Image) (*image.Gray, bool) {
	if g, ok := mask.(*image.Gray); ok && g.Rect.Min == (image.Point{}) && g.Stride == g.Rect.Dx() {
		return g, true
	}

	b := mask.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	gray := true
	for y := range b.Dy() {
		for x := range b.Dx() {
			c := mask.At(b.Min.X+x, b.Min.Y+y)
			if n := color.NRGBAModel.Convert(c).(color.NRGBA); n.R != n.G || n.G != n.B {
				gray = false
			}
			out.SetGray(x, y, color.GrayModel.Convert(c).(color.Gray))
		}
	}
	return out, gray
}

// applyMask darkens image through the mask: black overlay which alpha is
// taken from mask luminance is composited over the image. Mask is anchored
// at top left corner and clipped to the image.
func applyMask(img image.Image, maskData []byte, hint string, log *zap.Logger) (image.Image, error) {
	mask, _, err := image.Decode(bytes.NewReader(maskData))
	if err != nil {
		return nil, fmt.Errorf("unable to decode mask: %w", err)
	}

	if size := mask.Bounds().Size(); !size.Eq(img.Bounds().Size()) {
		log.Warn("Reveal mask dimensions differ from image",
			zap.String("asset", hint),
			zap.Stringer("image", img.Bounds().Size()),
			zap.Stringer("mask", size))
	}
	g, gray := luminance(mask)
	if !gray {
		log.Debug("Reveal mask is not grayscale, using luminance", zap.String("asset", hint))
	}

	overlay := image.NewNRGBA(g.Rect)
	for i, v := range g.Pix {
		// pixels are packed, one byte per gray pixel and four per overlay one
		overlay.Pix[i*4+3] = v
	}
	return imaging.Overlay(imaging.Clone(img), overlay, image.Pt(0, 0), 1.0), nil
}
