package downloader

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tgrab-dl/tgrab/internal/domain"
	"github.com/tgrab-dl/tgrab/internal/logger"
)

// Service drives the batched download pipeline: consecutive fixed-size
// batches, up to batchSize transfers in flight within a batch, and a full
// barrier between batches. Peak concurrency is therefore exactly batchSize.
type Service struct {
	media domain.MediaDownloader
	log   *logger.Logger
}

func NewService(media domain.MediaDownloader, log *logger.Logger) *Service {
	return &Service{media: media, log: log}
}

// Run partitions msgs into batches of batchSize (the last may be smaller) and
// executes them batch by batch. Batch k+1 does not start until every task in
// batch k completed or skipped. A non-recoverable worker error aborts the run
// after the batch drains; partially written files are left behind and a rerun
// re-downloads them.
//
// Two messages sharing a file name inside one batch race on the destination
// path; the write is unguarded.
func (s *Service) Run(ctx context.Context, msgs []domain.EligibleMessage, batchSize int, destDir string) (RunMetrics, error) {
	var run RunMetrics

	if len(msgs) == 0 {
		s.log.Warn("No messages to download")
		return run, nil
	}

	totalBatches := (len(msgs) + batchSize - 1) / batchSize

	for start := 0; start < len(msgs); start += batchSize {
		end := min(start+batchSize, len(msgs))
		batch := msgs[start:end]

		s.log.Info("Downloading %d messages from batch %d/%d", len(batch), start/batchSize+1, totalBatches)

		metrics, err := s.runBatch(ctx, batch, destDir)
		if err != nil {
			return run, err
		}

		speed := metrics.Throughput()
		s.log.Info("Batch finished in %.3fs @ %.3f MB/s (avg %.3f MB/s per file)",
			metrics.Elapsed.Seconds(), speed, speed/float64(batchSize))

		run.Add(metrics)
	}

	s.log.Info("Downloaded %.3f MB in %.3fs across %d batch(es)",
		megabytes(run.TotalBytes), run.Elapsed.Seconds(), run.Batches)

	return run, nil
}

// runBatch fans the batch out onto goroutines and waits for all of them. The
// errgroup is the batch barrier: Wait returns only after every task finished,
// and the first non-recoverable error wins.
func (s *Service) runBatch(ctx context.Context, batch []domain.EligibleMessage, destDir string) (BatchMetrics, error) {
	results := make([]domain.DownloadResult, len(batch))

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i, msg := range batch {
		i, msg := i, msg
		g.Go(func() error {
			res, err := s.download(gctx, msg, destDir)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchMetrics{}, err
	}

	return foldBatch(results, time.Since(start)), nil
}
