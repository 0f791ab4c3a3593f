package domain

import "io"

// InputAsset is one uploaded file handed to the pipeline. The reader must
// be seekable because several stages read the full content and rewind.
type InputAsset struct {
	Reader   io.ReadSeeker
	Filename string
	Size     int64
}

// EncodedAsset is a single encoded output variant held in memory until the
// caller persists it.
type EncodedAsset struct {
	Name        string
	ContentType string
	Data        []byte
}

type PipelineOutcome string

const (
	OutcomeProcessed PipelineOutcome = "processed"
	OutcomeRejected  PipelineOutcome = "rejected"
	OutcomeDuplicate PipelineOutcome = "duplicate"
)

// PipelineResult is the terminal outcome of one pipeline invocation.
// Exactly one of the three outcomes is set; Desktop/Mobile/WebP are only
// populated for OutcomeProcessed, Reason only for OutcomeRejected.
type PipelineResult struct {
	Outcome     PipelineOutcome
	Reason      string
	Fingerprint string
	Desktop     *EncodedAsset
	Mobile      *EncodedAsset
	WebP        *EncodedAsset
	Warning     string
}

const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypeWebP = "image/webp"
)
