package stages

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	gowebp "github.com/kolesa-team/go-webp/webp"

	"rentspace/internal/domain"
)

type EncodeOptions struct {
	MaxWidth      int
	MaxHeight     int
	MobileWidth   int
	MobileHeight  int
	JPEGQuality   int
	MobileQuality int
	WebPQuality   int
}

// Encoder derives the three output variants from one processed bitmap.
// Desktop and mobile are fitted into their bounds (never upscaled); the
// WebP variant keeps the full processed resolution.
type Encoder struct {
	opts EncodeOptions
}

func NewEncoder(opts EncodeOptions) *Encoder {
	return &Encoder{opts: opts}
}

func (e *Encoder) Encode(img *image.NRGBA, filename string) (desktop, mobile, web *domain.EncodedAsset, err error) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	desktop, err = e.encodeJPEG(img, e.opts.MaxWidth, e.opts.MaxHeight, e.opts.JPEGQuality, base+"_desktop.jpg")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode desktop variant: %w", err)
	}

	mobile, err = e.encodeJPEG(img, e.opts.MobileWidth, e.opts.MobileHeight, e.opts.MobileQuality, base+"_mobile.jpg")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode mobile variant: %w", err)
	}

	web, err = e.encodeWebP(img, e.opts.WebPQuality, base+".webp")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode webp variant: %w", err)
	}

	return desktop, mobile, web, nil
}

func (e *Encoder) encodeJPEG(img *image.NRGBA, maxWidth, maxHeight, quality int, name string) (*domain.EncodedAsset, error) {
	// Fit clones internally, so the shared bitmap is never mutated.
	fitted := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, fitted, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	return &domain.EncodedAsset{
		Name:        name,
		ContentType: domain.ContentTypeJPEG,
		Data:        buf.Bytes(),
	}, nil
}

func (e *Encoder) encodeWebP(img *image.NRGBA, quality int, name string) (*domain.EncodedAsset, error) {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality))
	if err != nil {
		return nil, fmt.Errorf("failed to create webp encoder options: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := gowebp.Encode(buf, img, options); err != nil {
		return nil, fmt.Errorf("failed to encode webp: %w", err)
	}

	return &domain.EncodedAsset{
		Name:        name,
		ContentType: domain.ContentTypeWebP,
		Data:        buf.Bytes(),
	}, nil
}
