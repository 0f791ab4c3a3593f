package domain

// ReprocessTask asks the worker to re-run the pipeline over a stored
// original, typically after an encoding policy change. Dedup is skipped on
// this path since the content is already registered.
type ReprocessTask struct {
	ID           string `json:"id"`
	PhotoID      string `json:"photo_id"`
	PropertyID   string `json:"property_id"`
	OriginalPath string `json:"original_path"`
	Filename     string `json:"filename"`
}

// ReprocessResult is published after the worker finishes a task.
type ReprocessResult struct {
	TaskID  string `json:"task_id"`
	PhotoID string `json:"photo_id"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

const (
	PathPrefixOriginal = "originals/"
	PathPrefixPhotos   = "photos/"
)

const DefaultMaxUploadSize = 32 << 20
