package pipeline

import "errors"

var (
	ErrReadInput = errors.New("failed to read input stream")
	ErrDecode    = errors.New("unsupported or corrupt image data")
)
