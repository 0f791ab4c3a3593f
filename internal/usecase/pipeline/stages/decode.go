package stages

import (
	"fmt"
	"image"
	"image/color"
	"io"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
)

const bytesPerMB = 1024 * 1024

// Decoder turns raw upload bytes into a flat, opaque bitmap. Transparency
// and palette formats are composited onto a white background so every
// later stage works on plain RGB pixels.
type Decoder struct {
	maxFileSizeMB int
}

func NewDecoder(maxFileSizeMB int) *Decoder {
	return &Decoder{maxFileSizeMB: maxFileSizeMB}
}

// Decode decodes and flattens the image. The returned warning is non-empty
// when the declared byte length exceeds the configured threshold; it never
// affects decoding itself.
func (d *Decoder) Decode(r io.Reader, declaredSize int64) (*image.NRGBA, string, error) {
	var warning string
	sizeMB := float64(declaredSize) / bytesPerMB
	if d.maxFileSizeMB > 0 && sizeMB > float64(d.maxFileSizeMB) {
		warning = fmt.Sprintf("Image is %.2fMB, exceeds the recommended %dMB and will be compressed.",
			sizeMB, d.maxFileSizeMB)
	}

	img, err := imaging.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	return flattenToWhite(img), warning, nil
}

func flattenToWhite(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}
