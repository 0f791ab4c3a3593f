package stages

import (
	"image"

	"github.com/disintegration/imaging"
)

// DefaultSharpenAmount matches the fixed sharpness boost applied to every
// processed photo. 1.0 means no change.
const DefaultSharpenAmount = 1.25

// Sharpener applies a deterministic sharpness boost. Pure and total.
type Sharpener struct {
	amount float64
}

func NewSharpener(amount float64) *Sharpener {
	if amount <= 0 {
		amount = DefaultSharpenAmount
	}
	return &Sharpener{amount: amount}
}

func (s *Sharpener) Sharpen(img *image.NRGBA) *image.NRGBA {
	if s.amount <= 1.0 {
		return img
	}
	return imaging.Sharpen(img, s.amount-1.0)
}
