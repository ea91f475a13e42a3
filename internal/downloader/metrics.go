package downloader

import (
	"time"

	"github.com/tgrab-dl/tgrab/internal/domain"
)

// BatchMetrics aggregates one batch: total bytes across all results and the
// wall-clock time of the whole concurrent batch, not the sum of per-task
// times.
type BatchMetrics struct {
	TotalBytes int64
	Elapsed    time.Duration
}

// Throughput reports MB/s for the batch, using 1024x1024-byte megabytes.
func (b BatchMetrics) Throughput() float64 {
	secs := b.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return megabytes(b.TotalBytes) / secs
}

// RunMetrics is the running sum across batches.
type RunMetrics struct {
	TotalBytes int64
	Elapsed    time.Duration
	Batches    int
}

func (r *RunMetrics) Add(b BatchMetrics) {
	r.TotalBytes += b.TotalBytes
	r.Elapsed += b.Elapsed
	r.Batches++
}

func foldBatch(results []domain.DownloadResult, elapsed time.Duration) BatchMetrics {
	var total int64
	for _, res := range results {
		total += res.Bytes
	}
	return BatchMetrics{TotalBytes: total, Elapsed: elapsed}
}

func megabytes(bytes int64) float64 {
	return float64(bytes) / (1024 * 1024)
}
