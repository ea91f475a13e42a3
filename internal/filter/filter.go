package filter

import (
	"context"
	"os"
	"path/filepath"

	"github.com/tgrab-dl/tgrab/internal/domain"
	"github.com/tgrab-dl/tgrab/internal/logger"
)

// Filter produces the list of messages in a group that are eligible for
// download: a named attachment exists and no complete copy is on disk.
type Filter struct {
	history domain.HistoryLister
	log     *logger.Logger
}

func New(history domain.HistoryLister, log *logger.Logger) *Filter {
	return &Filter{history: history, log: log}
}

// Eligible drains the group's full history and materializes the retained
// messages, so the scheduler knows the total count up front. Two messages
// attaching the same file name are only deduplicated against the filesystem
// state observed here, never against each other.
func (f *Filter) Eligible(ctx context.Context, group domain.Group, destDir string) ([]domain.EligibleMessage, error) {
	var eligible []domain.EligibleMessage

	err := f.history.ForEachMessage(ctx, group.ID, func(m domain.Message) error {
		att := m.Attachment
		if att == nil || att.Name == "" {
			return nil
		}

		destination := filepath.Join(destDir, att.Name)
		if alreadyDownloaded(destination, att.Size) {
			f.log.Warn("%s is already downloaded OK, not resuming.", destination)
			return nil
		}

		eligible = append(eligible, domain.EligibleMessage{
			GroupID:  group.ID,
			ID:       m.ID,
			FileName: att.Name,
			Size:     att.Size,
			Ref:      att.Ref,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return eligible, nil
}

// alreadyDownloaded is the sole dedup fingerprint: a file exists at the
// destination and its byte length equals the remote size. A partial file
// whose size differs is re-downloaded from scratch, not resumed.
func alreadyDownloaded(destination string, size int64) bool {
	info, err := os.Stat(destination)
	if err != nil {
		return false
	}
	return info.Size() == size
}
