package domain

import "time"

// DownloadResult is the outcome of a single transfer. Bytes == 0 marks a
// recoverable skip (expired media reference), not an error.
type DownloadResult struct {
	Bytes   int64
	Elapsed time.Duration
}
