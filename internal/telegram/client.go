package telegram

import (
	"context"
	"fmt"
	"os"
	"strings"

	tgclient "github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/telegram/query"
	"github.com/gotd/td/telegram/query/dialogs"
	"github.com/gotd/td/telegram/query/messages"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"go.uber.org/zap"

	"github.com/tgrab-dl/tgrab/internal/domain"
	"github.com/tgrab-dl/tgrab/internal/logger"
)

type Options struct {
	APIID       int
	APIHash     string
	SessionPath string
	// Verbose >= 3 also surfaces the MTProto client's own logging.
	Verbose int
}

// Client adapts gotd's MTProto client to the pipeline's domain interfaces:
// dialog scan, history scan and media fetch. The session artifact lives in a
// sqlite file at Options.SessionPath.
type Client struct {
	tc  *tgclient.Client
	dl  *downloader.Downloader
	log *logger.Logger

	// peers caches the input peer for every dialog seen during the scan, so
	// history iteration does not re-resolve access hashes. Written only during
	// ForEachDialog, read afterwards.
	peers map[int64]tg.InputPeerClass
}

func New(opts Options, log *logger.Logger) (*Client, error) {
	sess, err := NewSessionStorage(opts.SessionPath)
	if err != nil {
		return nil, fmt.Errorf("opening session storage: %w", err)
	}

	zlog := zap.NewNop()
	if opts.Verbose >= 3 {
		zlog, err = zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
	}

	tc := tgclient.NewClient(opts.APIID, opts.APIHash, tgclient.Options{
		SessionStorage: sess,
		Logger:         zlog,
	})

	return &Client{
		tc:    tc,
		dl:    downloader.NewDownloader(),
		log:   log,
		peers: make(map[int64]tg.InputPeerClass),
	}, nil
}

// Run connects, authenticates if the session is fresh, and executes fn while
// the connection is alive.
func (c *Client) Run(ctx context.Context, fn func(context.Context) error) error {
	return c.tc.Run(ctx, func(ctx context.Context) error {
		flow := auth.NewFlow(terminalAuth{}, auth.SendCodeOptions{})
		if err := c.tc.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("authentication: %w", err)
		}
		c.log.Debug("Telegram session authorized")
		return fn(ctx)
	})
}

// ForEachDialog scans the full dialog list once, in source order.
func (c *Client) ForEachDialog(ctx context.Context, fn func(domain.Group) error) error {
	return query.GetDialogs(c.tc.API()).ForEach(ctx, func(ctx context.Context, elem dialogs.Elem) error {
		id, name, ok := dialogInfo(elem)
		if !ok {
			return nil
		}
		c.peers[id] = elem.Peer
		return fn(domain.Group{ID: id, Name: name})
	})
}

// ForEachMessage drains the group's history, newest first. Only plain
// messages are surfaced; service messages carry no downloadable media.
func (c *Client) ForEachMessage(ctx context.Context, groupID int64, fn func(domain.Message) error) error {
	peer, ok := c.peers[groupID]
	if !ok {
		return fmt.Errorf("group %d was not seen in the dialog list", groupID)
	}

	return query.Messages(c.tc.API()).GetHistory(peer).ForEach(ctx, func(ctx context.Context, elem messages.Elem) error {
		msg, ok := elem.Msg.(*tg.Message)
		if !ok {
			return nil
		}
		return fn(domain.Message{
			ID:         int64(msg.ID),
			Attachment: attachmentOf(msg),
		})
	})
}

// DownloadAttachment streams the full document behind ref to dest. A stale
// file reference maps onto domain.ErrMediaReferenceExpired so the worker can
// treat it as a skip.
func (c *Client) DownloadAttachment(ctx context.Context, ref domain.MediaRef, dest string) error {
	loc, ok := ref.(tg.InputFileLocationClass)
	if !ok {
		return fmt.Errorf("unsupported media reference %T", ref)
	}

	if _, err := c.dl.Download(c.tc.API(), loc).ToPath(ctx, dest); err != nil {
		return c.mapDownloadError(err, dest)
	}
	return nil
}

// mapDownloadError classifies a failed fetch. ToPath creates the destination
// before the first RPC, so a stale reference would leave an empty file
// behind; remove it so a skipped message writes nothing.
func (c *Client) mapDownloadError(err error, dest string) error {
	if !tgerr.Is(err, "FILE_REFERENCE_EXPIRED") {
		return err
	}

	c.log.Debug("Stale file reference for %s", dest)
	if rmErr := os.Remove(dest); rmErr != nil && !os.IsNotExist(rmErr) {
		c.log.Warn("Could not remove stray file %s: %v", dest, rmErr)
	}
	return fmt.Errorf("%v: %w", err, domain.ErrMediaReferenceExpired)
}

// attachmentOf extracts the named document once, here at the boundary, so the
// filter never probes media shapes ad hoc.
func attachmentOf(msg *tg.Message) *domain.Attachment {
	media, ok := msg.Media.(*tg.MessageMediaDocument)
	if !ok {
		return nil
	}

	// Document is flag-gated and absent for TTL/self-destructing media.
	docClass, ok := media.GetDocument()
	if !ok {
		return nil
	}

	doc, ok := docClass.AsNotEmpty()
	if !ok {
		return nil
	}

	var name string
	for _, attr := range doc.Attributes {
		if fn, ok := attr.(*tg.DocumentAttributeFilename); ok {
			name = fn.FileName
			break
		}
	}
	if name == "" {
		return nil
	}

	return &domain.Attachment{
		Name: name,
		Size: doc.Size,
		Ref:  doc.AsInputDocumentFileLocation(),
	}
}

func dialogInfo(elem dialogs.Elem) (int64, string, bool) {
	switch p := elem.Peer.(type) {
	case *tg.InputPeerUser:
		if u, ok := elem.Entities.Users()[p.UserID]; ok {
			return p.UserID, strings.TrimSpace(u.FirstName + " " + u.LastName), true
		}
	case *tg.InputPeerChat:
		if ch, ok := elem.Entities.Chats()[p.ChatID]; ok {
			return p.ChatID, ch.Title, true
		}
	case *tg.InputPeerChannel:
		if ch, ok := elem.Entities.Channels()[p.ChannelID]; ok {
			return p.ChannelID, ch.Title, true
		}
	}
	return 0, "", false
}
