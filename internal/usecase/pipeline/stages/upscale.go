package stages

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"
)

// Upscaler doubles the linear dimensions of the bitmap with Lanczos
// resampling. It stands in for a learned super-resolution model; the only
// contract is that it never shrinks the image and never fails hard.
type Upscaler struct {
	logger *zlog.Zerolog
}

func NewUpscaler(logger *zlog.Zerolog) *Upscaler {
	return &Upscaler{logger: logger}
}

// Upscale is best-effort: any internal failure returns the input unchanged.
func (u *Upscaler) Upscale(img *image.NRGBA) (out *image.NRGBA) {
	out = img
	defer func() {
		if r := recover(); r != nil {
			u.logger.Warn().Interface("panic", r).Msg("Upscale failed, keeping original resolution")
			out = img
		}
	}()

	bounds := img.Bounds()
	scaled := imaging.Resize(img, bounds.Dx()*2, bounds.Dy()*2, imaging.Lanczos)
	if scaled == nil || scaled.Bounds().Dx() < bounds.Dx() || scaled.Bounds().Dy() < bounds.Dy() {
		return img
	}

	return scaled
}
