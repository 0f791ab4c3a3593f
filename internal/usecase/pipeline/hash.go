package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

const hashChunkSize = 64 * 1024

// Fingerprint computes the SHA-256 digest of the full stream content in
// bounded chunks and rewinds the stream so later stages can re-read it.
func Fingerprint(r io.ReadSeeker) (string, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind stream: %w", err)
	}

	hasher := sha256.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(hasher, r, buf); err != nil {
		return "", fmt.Errorf("failed to hash stream: %w", err)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind stream: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
