package domain

import "context"

// DialogLister scans the account's full dialog list in source order.
type DialogLister interface {
	ForEachDialog(ctx context.Context, fn func(Group) error) error
}

// HistoryLister drains a group's message history, typically newest first.
type HistoryLister interface {
	ForEachMessage(ctx context.Context, groupID int64, fn func(Message) error) error
}

// MediaDownloader fetches the full attachment behind ref and writes it to
// dest. Returns ErrMediaReferenceExpired (wrapped) when the handle is stale.
type MediaDownloader interface {
	DownloadAttachment(ctx context.Context, ref MediaRef, dest string) error
}

// Client is the full contract the pipeline needs from the Telegram side.
type Client interface {
	DialogLister
	HistoryLister
	MediaDownloader
}
