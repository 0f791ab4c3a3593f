package subject

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
)

const (
	minFaceSize  = 20
	maxFaceSize  = 2000
	shiftFactor  = 0.1
	scaleFactor  = 1.1
	clusterIoU   = 0.2
	qualityFloor = 5.0
	cascadeAngle = 0.0
)

// PigoLocator runs the pigo cascade classifier over a grayscale copy of
// the image and returns the highest-quality face cluster.
type PigoLocator struct {
	classifier *pigo.Pigo
}

// NewPigoLocator loads a binary cascade file. Callers fall back to
// NopLocator when the cascade is missing or malformed.
func NewPigoLocator(cascadePath string) (*PigoLocator, error) {
	cascade, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade file: %w", err)
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack cascade: %w", err)
	}

	return &PigoLocator{classifier: classifier}, nil
}

func (l *PigoLocator) Locate(img image.Image) (image.Rectangle, bool) {
	src := pigo.ImgToNRGBA(img)
	bounds := src.Bounds()

	params := pigo.CascadeParams{
		MinSize:     minFaceSize,
		MaxSize:     maxFaceSize,
		ShiftFactor: shiftFactor,
		ScaleFactor: scaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   bounds.Dy(),
			Cols:   bounds.Dx(),
			Dim:    bounds.Dx(),
		},
	}

	dets := l.classifier.RunCascade(params, cascadeAngle)
	dets = l.classifier.ClusterDetections(dets, clusterIoU)

	best := pigo.Detection{}
	found := false
	for _, det := range dets {
		if det.Q < qualityFloor {
			continue
		}
		if !found || det.Q > best.Q {
			best = det
			found = true
		}
	}

	if !found {
		return image.Rectangle{}, false
	}

	half := best.Scale / 2
	region := image.Rect(best.Col-half, best.Row-half, best.Col+half, best.Row+half)
	return region.Intersect(bounds), true
}
