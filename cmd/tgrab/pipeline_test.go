package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/tgrab-dl/tgrab/internal/config"
	"github.com/tgrab-dl/tgrab/internal/domain"
	"github.com/tgrab-dl/tgrab/internal/logger"
	"github.com/tgrab-dl/tgrab/internal/testutil"
)

func testConfig(destDir string) *config.Config {
	return &config.Config{
		DestinationPath: destDir,
		BatchSize:       3,
		GroupPattern:    "news",
	}
}

func discard() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError)
}

func TestPipeline_DownloadsAllEligibleFiles(t *testing.T) {
	dir := t.TempDir()

	history := []domain.Message{testutil.TextMessage(100)}
	for i := 0; i < 7; i++ {
		history = append(history, testutil.FileMessage(int64(i+1), i, fmt.Sprintf("file-%d.bin", i), int64(10+i)))
	}

	client := &testutil.FakeClient{
		Groups: []domain.Group{
			{ID: 1, Name: "Daily News"},
			{ID: 2, Name: "Chess Club"},
		},
		Histories: map[int64][]domain.Message{1: history},
	}

	if err := pipeline(context.Background(), client, testConfig(dir), discard()); err != nil {
		t.Fatalf("pipeline returned error: %v", err)
	}

	for i := 0; i < 7; i++ {
		name := fmt.Sprintf("file-%d.bin", i)
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
		if info.Size() != int64(10+i) {
			t.Errorf("%s size = %d, want %d", name, info.Size(), 10+i)
		}
	}

	if client.MaxInFlight > 3 {
		t.Errorf("MaxInFlight = %d, want at most 3", client.MaxInFlight)
	}
}

func TestPipeline_SkipsAlreadyDownloadedFile(t *testing.T) {
	dir := t.TempDir()

	// m1 is already complete on disk; only m2 should be fetched.
	if err := os.WriteFile(filepath.Join(dir, "m1.bin"), make([]byte, 10), 0644); err != nil {
		t.Fatal(err)
	}

	client := &testutil.FakeClient{
		Groups: []domain.Group{{ID: 1, Name: "Daily News"}},
		Histories: map[int64][]domain.Message{1: {
			testutil.FileMessage(1, 0, "m1.bin", 10),
			testutil.FileMessage(2, 1, "m2.bin", 20),
		}},
	}

	if err := pipeline(context.Background(), client, testConfig(dir), discard()); err != nil {
		t.Fatalf("pipeline returned error: %v", err)
	}

	if client.Completed != 1 {
		t.Errorf("downloaded %d files, want 1", client.Completed)
	}
	if info, err := os.Stat(filepath.Join(dir, "m2.bin")); err != nil || info.Size() != 20 {
		t.Errorf("m2.bin not downloaded correctly: info=%v err=%v", info, err)
	}
}

func TestPipeline_ZeroEligibleMessages(t *testing.T) {
	dir := t.TempDir()

	client := &testutil.FakeClient{
		Groups:    []domain.Group{{ID: 1, Name: "Daily News"}},
		Histories: map[int64][]domain.Message{1: {testutil.TextMessage(1)}},
	}

	if err := pipeline(context.Background(), client, testConfig(dir), discard()); err != nil {
		t.Fatalf("pipeline returned error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty destination directory, found %d entries", len(entries))
	}
}

func TestPipeline_RerunDownloadsNothing(t *testing.T) {
	dir := t.TempDir()

	newClient := func() *testutil.FakeClient {
		return &testutil.FakeClient{
			Groups: []domain.Group{{ID: 1, Name: "Daily News"}},
			Histories: map[int64][]domain.Message{1: {
				testutil.FileMessage(1, 0, "a.bin", 10),
				testutil.FileMessage(2, 1, "b.bin", 20),
			}},
		}
	}

	if err := pipeline(context.Background(), newClient(), testConfig(dir), discard()); err != nil {
		t.Fatalf("first run returned error: %v", err)
	}

	second := newClient()
	if err := pipeline(context.Background(), second, testConfig(dir), discard()); err != nil {
		t.Fatalf("second run returned error: %v", err)
	}
	if second.Completed != 0 {
		t.Errorf("second run downloaded %d files, want 0", second.Completed)
	}
}
