package stages

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"

	"rentspace/internal/subject"
)

// DefaultSubjectPadding is added around a detected subject region on all
// sides before cropping, so downstream downscales cannot cut the subject.
const DefaultSubjectPadding = 200

// SubjectCropper crops the image to the padded bounding box of the primary
// subject when the locator finds one. Detection failures of any kind pass
// the image through unchanged.
type SubjectCropper struct {
	locator subject.Locator
	padding int
	logger  *zlog.Zerolog
}

func NewSubjectCropper(locator subject.Locator, padding int, logger *zlog.Zerolog) *SubjectCropper {
	if padding <= 0 {
		padding = DefaultSubjectPadding
	}
	return &SubjectCropper{
		locator: locator,
		padding: padding,
		logger:  logger,
	}
}

func (c *SubjectCropper) Crop(img *image.NRGBA) (out *image.NRGBA) {
	out = img
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn().Interface("panic", r).Msg("Subject detection failed, keeping full frame")
			out = img
		}
	}()

	region, found := c.locator.Locate(img)
	if !found {
		return img
	}

	region = image.Rect(
		region.Min.X-c.padding,
		region.Min.Y-c.padding,
		region.Max.X+c.padding,
		region.Max.Y+c.padding,
	).Intersect(img.Bounds())

	if region.Empty() {
		return img
	}

	return imaging.Crop(img, region)
}
