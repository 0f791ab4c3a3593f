package scanner

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/wb-go/wbf/zlog"
)

const (
	ReasonMalicious  = "Malicious content detected!"
	ReasonSuspicious = "File looks suspicious."
)

// headerProbeSize is how many leading bytes the fallback heuristic inspects.
const headerProbeSize = 32

type Verdict struct {
	Clean  bool
	Reason string
}

// Scanner inspects raw upload bytes before anything decodes them. The
// stream position is restored to the start on return.
type Scanner interface {
	Scan(ctx context.Context, r io.ReadSeeker) (Verdict, error)
}

// TieredScanner runs an external signature scanner when one is configured
// and reachable, and falls back to a magic-number heuristic otherwise. An
// external scanner failure is never surfaced as an error; it only demotes
// the scan to the heuristic tier.
type TieredScanner struct {
	external Scanner
	logger   *zlog.Zerolog
}

func NewTieredScanner(external Scanner, logger *zlog.Zerolog) *TieredScanner {
	return &TieredScanner{
		external: external,
		logger:   logger,
	}
}

func (s *TieredScanner) Scan(ctx context.Context, r io.ReadSeeker) (Verdict, error) {
	if s.external != nil {
		verdict, err := s.external.Scan(ctx, r)
		if err == nil {
			return verdict, nil
		}
		s.logger.Warn().Err(err).Msg("External scanner unavailable, falling back to heuristic scan")
		if _, seekErr := r.Seek(0, io.SeekStart); seekErr != nil {
			return Verdict{}, fmt.Errorf("failed to rewind stream: %w", seekErr)
		}
	}

	return s.heuristicScan(r)
}

func (s *TieredScanner) heuristicScan(r io.ReadSeeker) (Verdict, error) {
	header := make([]byte, headerProbeSize)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Verdict{}, fmt.Errorf("failed to read file header: %w", err)
	}
	header = header[:n]

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Verdict{}, fmt.Errorf("failed to rewind stream: %w", err)
	}

	if bytes.Contains(header, []byte("MZ")) || bytes.Contains(header, []byte("PK")) {
		return Verdict{Clean: false, Reason: ReasonSuspicious}, nil
	}

	return Verdict{Clean: true}, nil
}
