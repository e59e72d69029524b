// Package imaging normalizes uploaded item photos: format sniffing,
// downscaling and re-encoding, so the database never stores oversized
// or exotic image data.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// maxDimension is the maximum stored width or height. Item photos are
// thumbnails on handheld scanners, not print material.
const maxDimension = 800

// jpegQuality is the compression quality for re-encoded output.
const jpegQuality = 82

// Normalize reads photo data, validates the format by sniffing bytes
// (client headers are not trusted), downscales anything larger than
// maxDimension, and re-encodes as JPEG. Returns the encoded bytes and
// their MIME type.
func Normalize(r io.Reader) ([]byte, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("reading image data: %w", err)
	}

	switch detected := http.DetectContentType(data); detected {
	case "image/jpeg", "image/png":
	default:
		return nil, "", fmt.Errorf("unsupported image format %s (only JPEG and PNG accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w > maxDimension || h > maxDimension {
		img = scaleDown(img, maxDimension)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// scaleDown resizes img so its longer side equals maxDim, preserving
// aspect ratio, using Catmull-Rom interpolation.
func scaleDown(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	// jpeg registers itself, png needs the explicit import anyway.
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
