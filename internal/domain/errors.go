package domain

import "errors"

// ErrMediaReferenceExpired indicates the download handle went stale on the
// server (FILE_REFERENCE_EXPIRED). The run skips the file and continues.
var ErrMediaReferenceExpired = errors.New("media reference expired")
