package subject

import "image"

// Locator finds the primary subject region of an image. Implementations
// must be side-effect free; a failed or fruitless detection reports
// found=false rather than an error so callers can pass the image through.
type Locator interface {
	Locate(img image.Image) (region image.Rectangle, found bool)
}

// NopLocator is used when no detector is available. It never finds a
// subject, which turns the subject-aware crop into a no-op.
type NopLocator struct{}

func (NopLocator) Locate(img image.Image) (image.Rectangle, bool) {
	return image.Rectangle{}, false
}
