package filter

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tgrab-dl/tgrab/internal/domain"
	"github.com/tgrab-dl/tgrab/internal/logger"
	"github.com/tgrab-dl/tgrab/internal/testutil"
)

var group = domain.Group{ID: 1, Name: "Daily News"}

func eligible(t *testing.T, destDir string, history []domain.Message) []domain.EligibleMessage {
	t.Helper()
	client := &testutil.FakeClient{Histories: map[int64][]domain.Message{group.ID: history}}
	f := New(client, logger.New(io.Discard, logger.LevelError))

	msgs, err := f.Eligible(context.Background(), group, destDir)
	require.NoError(t, err)
	return msgs
}

func TestEligible_SkipsMessagesWithoutNamedAttachment(t *testing.T) {
	history := []domain.Message{
		testutil.TextMessage(1),
		{ID: 2, Attachment: &domain.Attachment{Name: "", Size: 10}},
		testutil.FileMessage(3, 0, "report.pdf", 10),
	}

	msgs := eligible(t, t.TempDir(), history)

	require.Len(t, msgs, 1)
	require.Equal(t, "report.pdf", msgs[0].FileName)
	require.Equal(t, int64(3), msgs[0].ID)
}

func TestEligible_ExcludesFullyDownloadedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.pdf"), make([]byte, 10), 0644))

	msgs := eligible(t, dir, []domain.Message{testutil.FileMessage(1, 0, "report.pdf", 10)})

	require.Empty(t, msgs)
}

func TestEligible_SizeMismatchStaysEligible(t *testing.T) {
	dir := t.TempDir()

	// A partial file is not resumed; any size difference keeps the message
	// eligible for a full re-download.
	for name, partial := range map[string]int{"short.bin": 4, "empty.bin": 0, "long.bin": 20} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), make([]byte, partial), 0644))
	}

	history := []domain.Message{
		testutil.FileMessage(1, 0, "short.bin", 10),
		testutil.FileMessage(2, 1, "empty.bin", 10),
		testutil.FileMessage(3, 2, "long.bin", 10),
	}

	msgs := eligible(t, dir, history)
	require.Len(t, msgs, 3)
}

func TestEligible_SameNameNotDedupedWithinRun(t *testing.T) {
	history := []domain.Message{
		testutil.FileMessage(1, 0, "dup.bin", 10),
		testutil.FileMessage(2, 1, "dup.bin", 10),
	}

	// Dedup only consults filesystem state observed at filter time; two
	// messages sharing a name both stay eligible.
	msgs := eligible(t, t.TempDir(), history)
	require.Len(t, msgs, 2)
}

func TestEligible_CarriesDownloadInfo(t *testing.T) {
	history := []domain.Message{testutil.FileMessage(7, 3, "clip.mp4", 42)}

	msgs := eligible(t, t.TempDir(), history)

	require.Len(t, msgs, 1)
	m := msgs[0]
	require.Equal(t, group.ID, m.GroupID)
	require.Equal(t, int64(42), m.Size)
	require.NotNil(t, m.Ref)
}
