package pipeline

import (
	"context"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"rentspace/internal/domain"
	"rentspace/internal/scanner"
	"rentspace/internal/subject"
	"rentspace/internal/usecase/pipeline/stages"
)

// Options parameterize one pipeline instance. Disabling any optional stage
// simply passes the bitmap through to the next one.
type Options struct {
	MaxWidth         int
	MaxHeight        int
	MobileWidth      int
	MobileHeight     int
	JPEGQuality      int
	MobileQuality    int
	WebPQuality      int
	MaxFileSizeMB    int
	EnhanceSharpness bool
	UseSubjectCrop   bool
	UseUpscale       bool

	// SkipDedup bypasses the registry for both the existence check and the
	// mark. Used by the reprocessing worker, where the content is already
	// registered by the original upload.
	SkipDedup bool
}

func DefaultOptions() Options {
	return Options{
		MaxWidth:         1200,
		MaxHeight:        1200,
		MobileWidth:      720,
		MobileHeight:     720,
		JPEGQuality:      85,
		MobileQuality:    65,
		WebPQuality:      70,
		MaxFileSizeMB:    8,
		EnhanceSharpness: true,
		UseSubjectCrop:   true,
		UseUpscale:       true,
	}
}

// Pipeline takes one uploaded image from raw bytes to the three encoded
// variants: scan, hash, dedup check, decode, upscale, subject crop,
// sharpen, encode, dedup mark.
type Pipeline struct {
	scanner   scanner.Scanner
	store     dedupStore
	decoder   *stages.Decoder
	upscaler  *stages.Upscaler
	cropper   *stages.SubjectCropper
	sharpener *stages.Sharpener
	encoder   *stages.Encoder
	opts      Options
	logger    *zlog.Zerolog
}

func New(scn scanner.Scanner, store dedupStore, locator subject.Locator, opts Options, logger *zlog.Zerolog) *Pipeline {
	return &Pipeline{
		scanner:   scn,
		store:     store,
		decoder:   stages.NewDecoder(opts.MaxFileSizeMB),
		upscaler:  stages.NewUpscaler(logger),
		cropper:   stages.NewSubjectCropper(locator, stages.DefaultSubjectPadding, logger),
		sharpener: stages.NewSharpener(stages.DefaultSharpenAmount),
		encoder: stages.NewEncoder(stages.EncodeOptions{
			MaxWidth:      opts.MaxWidth,
			MaxHeight:     opts.MaxHeight,
			MobileWidth:   opts.MobileWidth,
			MobileHeight:  opts.MobileHeight,
			JPEGQuality:   opts.JPEGQuality,
			MobileQuality: opts.MobileQuality,
			WebPQuality:   opts.WebPQuality,
		}),
		opts:   opts,
		logger: logger,
	}
}

// Process runs the full pipeline over one asset. Rejections and duplicates
// are terminal results, not errors; only stream and decode failures return
// an error. The asset is not retained after Process returns.
func (p *Pipeline) Process(ctx context.Context, asset domain.InputAsset) (*domain.PipelineResult, error) {
	verdict, err := p.scanner.Scan(ctx, asset.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadInput, err)
	}
	if !verdict.Clean {
		p.logger.Warn().
			Str("filename", asset.Filename).
			Str("reason", verdict.Reason).
			Msg("Upload rejected by scanner")
		return &domain.PipelineResult{Outcome: domain.OutcomeRejected, Reason: verdict.Reason}, nil
	}

	fingerprint, err := Fingerprint(asset.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadInput, err)
	}

	if !p.opts.SkipDedup {
		seen, err := p.store.Exists(ctx, fingerprint)
		if err != nil {
			// Dedup is a space optimization; a registry failure must not
			// block the upload.
			p.logger.Warn().Err(err).Msg("Dedup lookup failed, treating content as unseen")
		} else if seen {
			p.logger.Info().
				Str("filename", asset.Filename).
				Str("fingerprint", fingerprint).
				Msg("Duplicate upload skipped")
			return &domain.PipelineResult{Outcome: domain.OutcomeDuplicate, Fingerprint: fingerprint}, nil
		}
	}

	img, warning, err := p.decoder.Decode(asset.Reader, asset.Size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if p.opts.UseUpscale {
		img = p.upscaler.Upscale(img)
	}
	if p.opts.UseSubjectCrop {
		img = p.cropper.Crop(img)
	}
	if p.opts.EnhanceSharpness {
		img = p.sharpener.Sharpen(img)
	}

	desktop, mobile, web, err := p.encoder.Encode(img, asset.Filename)
	if err != nil {
		return nil, err
	}

	if !p.opts.SkipDedup {
		if err := p.store.Mark(ctx, fingerprint); err != nil {
			p.logger.Warn().
				Err(err).
				Str("fingerprint", fingerprint).
				Msg("Failed to mark fingerprint in dedup registry")
		}
	}

	p.logger.Info().
		Str("filename", asset.Filename).
		Str("fingerprint", fingerprint).
		Int("desktop_bytes", len(desktop.Data)).
		Int("mobile_bytes", len(mobile.Data)).
		Int("webp_bytes", len(web.Data)).
		Msg("Image processed")

	return &domain.PipelineResult{
		Outcome:     domain.OutcomeProcessed,
		Fingerprint: fingerprint,
		Desktop:     desktop,
		Mobile:      mobile,
		WebP:        web,
		Warning:     warning,
	}, nil
}
