// Package testutil provides a fake Telegram client for pipeline tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/tgrab-dl/tgrab/internal/domain"
)

// Ref is the media handle the fake client understands. Index identifies the
// message position in the scheduler's input, so tests can check batch
// ordering from start snapshots.
type Ref struct {
	Index int
	Data  []byte
	Err   error
	Delay time.Duration
}

// StartSnapshot records how many downloads had completed when a given
// download started.
type StartSnapshot struct {
	Index     int
	Completed int
}

// FakeClient implements domain.Client against in-memory fixtures and tracks
// download concurrency.
type FakeClient struct {
	Groups    []domain.Group
	Histories map[int64][]domain.Message

	mu          sync.Mutex
	inFlight    int
	MaxInFlight int
	Completed   int
	Starts      []StartSnapshot
}

func (c *FakeClient) ForEachDialog(_ context.Context, fn func(domain.Group) error) error {
	for _, g := range c.Groups {
		if err := fn(g); err != nil {
			return err
		}
	}
	return nil
}

func (c *FakeClient) ForEachMessage(_ context.Context, groupID int64, fn func(domain.Message) error) error {
	for _, m := range c.Histories[groupID] {
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

func (c *FakeClient) DownloadAttachment(ctx context.Context, ref domain.MediaRef, dest string) error {
	r, ok := ref.(Ref)
	if !ok {
		return fmt.Errorf("unexpected media reference %T", ref)
	}

	c.mu.Lock()
	c.inFlight++
	if c.inFlight > c.MaxInFlight {
		c.MaxInFlight = c.inFlight
	}
	c.Starts = append(c.Starts, StartSnapshot{Index: r.Index, Completed: c.Completed})
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight--
		c.Completed++
		c.mu.Unlock()
	}()

	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if r.Err != nil {
		return r.Err
	}

	return os.WriteFile(dest, r.Data, 0644)
}

// FileMessage builds a message with a named attachment whose fake content is
// size bytes long.
func FileMessage(id int64, index int, name string, size int64) domain.Message {
	return domain.Message{
		ID: id,
		Attachment: &domain.Attachment{
			Name: name,
			Size: size,
			Ref:  Ref{Index: index, Data: make([]byte, size)},
		},
	}
}

// TextMessage builds a message with no attachment.
func TextMessage(id int64) domain.Message {
	return domain.Message{ID: id}
}
