// Package imaging prepares raster pages for OCR.
package imaging

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg" // register decoders for image.Decode
	_ "image/png"
	"math"

	"golang.org/x/image/draw"

	"github.com/alisoncf/gscan/constants"
	"github.com/alisoncf/gscan/internal/common"
)

const (
	medianKernel   = 3
	thresholdBlock = 31
	thresholdC     = 2
)

// Options controls a single Preprocess call.
type Options struct {
	MaxWidth  int
	MaxHeight int
	Profile   constants.Profile
}

// Decode decodes PNG or JPEG bytes into an image.
func Decode(content []byte) (image.Image, error) {
	if len(content) == 0 {
		return nil, common.InvalidImageError("empty image content", nil)
	}
	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, common.InvalidImageError("decode image", err)
	}
	return img, nil
}

// Preprocess downscales img to fit within the configured bounds (never
// upscaling), converts it to 8-bit grayscale and, for the accurate profile,
// applies a median filter followed by adaptive Gaussian thresholding.
// Transparent areas are flattened onto white. The input is not modified.
func Preprocess(img image.Image, opts Options) (*image.Gray, error) {
	if img == nil {
		return nil, common.InvalidImageError("nil image", nil)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, common.InvalidImageError("image has zero area", nil)
	}
	switch img.ColorModel() {
	case color.AlphaModel, color.Alpha16Model:
		return nil, common.InvalidImageError("image has no luminance channel", nil)
	}

	w, h := fitWithin(b.Dx(), b.Dy(), opts.MaxWidth, opts.MaxHeight)
	gray := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(gray, gray.Bounds(), image.White, image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Over)
	} else {
		draw.BiLinear.Scale(gray, gray.Bounds(), img, b, draw.Over, nil)
	}

	if opts.Profile != constants.ProfileAccurate {
		return gray, nil
	}
	denoised := medianBlur(gray, medianKernel)
	return adaptiveThresholdGaussian(denoised, thresholdBlock, thresholdC), nil
}

// fitWithin returns the largest size with the same aspect ratio that fits in
// maxW x maxH. Sizes already inside the box are returned unchanged; a
// non-positive bound disables the limit on that axis.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = math.Min(scale, float64(maxW)/float64(w))
	}
	if maxH > 0 && h > maxH {
		scale = math.Min(scale, float64(maxH)/float64(h))
	}
	if scale >= 1 {
		return w, h
	}
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))
	if maxW > 0 {
		nw = min(nw, maxW)
	}
	if maxH > 0 {
		nh = min(nh, maxH)
	}
	return nw, nh
}
