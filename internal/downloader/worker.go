package downloader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/tgrab-dl/tgrab/internal/domain"
)

// download transfers one message's attachment and measures it. An expired
// media reference is the one recoverable failure: it is logged and reported
// as a zero-byte result so the batch keeps going. Everything else propagates
// and aborts the run.
func (s *Service) download(ctx context.Context, msg domain.EligibleMessage, destDir string) (domain.DownloadResult, error) {
	destination := filepath.Join(destDir, msg.FileName)
	s.log.Info("Downloading %q to %q ...", msg.FileName, destDir)

	start := time.Now()
	err := s.media.DownloadAttachment(ctx, msg.Ref, destination)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, domain.ErrMediaReferenceExpired) {
			s.log.Error("Error while downloading %s: %v", destination, err)
			return domain.DownloadResult{Bytes: 0, Elapsed: elapsed}, nil
		}
		return domain.DownloadResult{}, fmt.Errorf("downloading %s: %w", msg.FileName, err)
	}

	s.log.Info("Downloaded %q in %.3fs [%.3f MB/s].",
		msg.FileName, elapsed.Seconds(), rate(msg.Size, elapsed))

	return domain.DownloadResult{Bytes: msg.Size, Elapsed: elapsed}, nil
}

func rate(bytes int64, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return megabytes(bytes) / secs
}
