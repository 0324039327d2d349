package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	internal_errors "github.com/curator-cms/curator/internal/errors"
)

// Resize scales an image down to fit within width x height, preserving
// aspect ratio. Images already within bounds are re-encoded unchanged in
// size. The output format follows the input format.
func Resize(src io.Reader, width, height int) ([]byte, error) {
	if width <= 0 && height <= 0 {
		return nil, &internal_errors.ValidationError{Message: "variant needs a positive width or height"}
	}

	img, format, err := image.Decode(src)
	if err != nil {
		return nil, &internal_errors.ValidationError{Message: fmt.Sprintf("not a decodable image: %v", err)}
	}

	bounds := img.Bounds()
	dstW, dstH := fitWithin(bounds.Dx(), bounds.Dy(), width, height)

	if dstW != bounds.Dx() || dstH != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWithin computes target dimensions that fit srcW x srcH into the
// requested box without upscaling. A zero on either axis means
// "unconstrained on that axis".
func fitWithin(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return srcW, srcH
	}

	scale := 1.0
	if maxW > 0 && srcW > maxW {
		scale = float64(maxW) / float64(srcW)
	}
	if maxH > 0 && float64(srcH)*scale > float64(maxH) {
		scale = float64(maxH) / float64(srcH)
	}
	if scale >= 1.0 {
		return srcW, srcH
	}

	w := int(float64(srcW) * scale)
	h := int(float64(srcH) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
