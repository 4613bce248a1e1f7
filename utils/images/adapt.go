// Package images is the asset pipeline: format sniffing, reveal mask
// compositing, power of two downscaling and re-encoding.
package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"path"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const DefaultJPEGQuality = 85

// Options control asset adaptation.
type Options struct {
	// MaxWidth limits image width, zero means no limit.
	MaxWidth    int
	JPEGQuality int
}

// Adapted is an image ready to be embedded into output.
type Adapted struct {
	// Key identifies source content (image and mask), equal sources produce
	// equal keys.
	Key    string
	Data   []byte
	Format string
	// Width and Height are final dimensions, zero for vector images.
	Width   int
	Height  int
	Divisor int
	Changed bool
}

// Ext returns file extension matching the format, including leading dot.
func (a *Adapted) Ext() string {
	switch a.Format {
	case "jpeg":
		return ".jpg"
	case "":
		return ".bin"
	}
	return "." + a.Format
}

// MIME returns media type of the data.
func (a *Adapted) MIME() string {
	switch a.Format {
	case "svg":
		return "image/svg+xml"
	case "":
		return "application/octet-stream"
	}
	return "image/" + a.Format
}

// FileName returns deterministic file name for the asset.
func (a *Adapted) FileName() string {
	return a.Key + a.Ext()
}

// AssetKey returns name based UUID of the concatenated data.
func AssetKey(data ...[]byte) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, slices.Concat(data...)).String()
}

// Sniff detects image format from content, falling back to extension of the
// hint when content is not recognized. Result uses image package format
// names ("jpeg", "png", "gif", "bmp", "tiff", "webp") plus "svg".
func Sniff(data []byte, hint string) string {
	if IsSVG(data) {
		return "svg"
	}
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return normalizeFormat(kind.Extension)
	}
	return normalizeFormat(strings.TrimPrefix(strings.ToLower(path.Ext(hint)), "."))
}

func normalizeFormat(ext string) string {
	switch ext {
	case "jpg", "jpe", "jpeg":
		return "jpeg"
	case "tif", "tiff":
		return "tiff"
	}
	return ext
}

// Divisor returns the smallest power of two d such that width/d does not
// exceed maxWidth. Non positive maxWidth disables scaling.
func Divisor(width, maxWidth int) int {
	d := 1
	if maxWidth <= 0 {
		return d
	}
	for width/d > maxWidth {
		d *= 2
	}
	return d
}

// Adapt prepares image for output. Formats viewers handle poorly are
// converted to PNG, optional reveal mask is composited over the image and
// wide images are downscaled by a power of two. When nothing was changed
// original bytes are returned as is. Only undecodable images are reported as
// errors, mask problems are logged.
func Adapt(data []byte, hint string, mask []byte, opts Options, log *zap.Logger) (*Adapted, error) {

	a := &Adapted{
		Key:     AssetKey(data, mask),
		Data:    data,
		Format:  Sniff(data, hint),
		Divisor: 1,
	}

	// vector images are passed through
	if a.Format == "svg" {
		if len(mask) > 0 {
			log.Debug("Reveal mask is not applied to vector image", zap.String("asset", hint))
		}
		return a, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode image %q (%s): %w", hint, a.Format, err)
	}
	a.Format = format
	a.Width, a.Height = img.Bounds().Dx(), img.Bounds().Dy()

	target := format
	switch format {
	case "png", "jpeg", "gif":
	default:
		target = "png"
		a.Changed = true
	}

	if len(mask) > 0 {
		if masked, err := applyMask(img, mask, hint, log); err != nil {
			log.Warn("Unable to apply reveal mask, ignoring", zap.String("asset", hint), zap.Error(err))
		} else {
			img = masked
			a.Changed = true
		}
	}

	if d := Divisor(a.Width, opts.MaxWidth); d > 1 {
		img = imaging.Resize(img, a.Width/d, 0, imaging.Box)
		a.Divisor = d
		a.Changed = true
	}

	if !a.Changed {
		return a, nil
	}

	// palette of the source cannot represent changed pixels
	if target == "gif" {
		target = "png"
	}
	out, err := encode(img, target, opts.JPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("unable to encode image %q as %s: %w", hint, target, err)
	}
	a.Data, a.Format = out, target
	a.Width, a.Height = img.Bounds().Dx(), img.Bounds().Dy()
	return a, nil
}

// Rasterized returns raster version of vector asset, other assets are
// returned unchanged. Width is limited by maxWidth when it is positive.
func (a *Adapted) Rasterized(maxWidth int) (*Adapted, error) {
	if a.Format != "svg" {
		return a, nil
	}
	img, err := RasterizeSVG(a.Data, 0)
	if err != nil {
		return nil, err
	}
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		if img, err = RasterizeSVG(a.Data, maxWidth); err != nil {
			return nil, err
		}
	}
	out, err := encode(img, "png", 0)
	if err != nil {
		return nil, err
	}
	return &Adapted{
		Key:     a.Key,
		Data:    out,
		Format:  "png",
		Width:   img.Bounds().Dx(),
		Height:  img.Bounds().Dy(),
		Divisor: 1,
		Changed: true,
	}, nil
}

func encode(img image.Image, format string, quality int) ([]byte, error) {
	if format == "jpeg" {
		if quality <= 0 {
			quality = DefaultJPEGQuality
		}
		return encodeJPEG(img, quality, 96)
	}
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
