package scanner

import (
	"context"
	"fmt"
	"io"

	clamd "github.com/dutchcoders/go-clamd"
)

// ClamdScanner streams the full upload content to a clamd daemon. Any
// failure talking to the daemon is returned as an error so the caller can
// fall back to the heuristic tier.
type ClamdScanner struct {
	client *clamd.Clamd
}

func NewClamdScanner(address string) *ClamdScanner {
	return &ClamdScanner{
		client: clamd.NewClamd(address),
	}
}

func (s *ClamdScanner) Scan(ctx context.Context, r io.ReadSeeker) (Verdict, error) {
	abort := make(chan bool)
	defer close(abort)

	results, err := s.client.ScanStream(r, abort)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to scan stream: %w", err)
	}

	verdict := Verdict{Clean: true}
	for res := range results {
		select {
		case <-ctx.Done():
			return Verdict{}, ctx.Err()
		default:
		}

		switch res.Status {
		case clamd.RES_FOUND:
			verdict = Verdict{Clean: false, Reason: ReasonMalicious}
		case clamd.RES_OK:
		default:
			return Verdict{}, fmt.Errorf("scanner returned %s: %s", res.Status, res.Description)
		}
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Verdict{}, fmt.Errorf("failed to rewind stream: %w", err)
	}

	return verdict, nil
}
