package telegram

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"go.uber.org/zap"

	"medwarehouse/internal/config"
	"medwarehouse/internal/models"
)

// FloodWaitError reports a rate limit from Telegram together with the wait
// duration the server asked for.
type FloodWaitError struct {
	Duration time.Duration
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("telegram flood wait: retry after %s", e.Duration)
}

// Client encapsulates the MTProto client used to scrape public channels.
type Client struct {
	client *telegram.Client
	api    *tg.Client
	logger *zap.Logger
	phone  string

	// photos remembers the photo attachments seen by the last
	// RecentMessages call per channel so DownloadPhoto can fetch them.
	photos map[string]map[int64]*tg.Photo
}

// NewClient creates and initializes a new Telegram client.
func NewClient(cfg *config.TelegramConfig, logger *zap.Logger) (*Client, error) {
	client := telegram.NewClient(cfg.APIID, cfg.APIHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: cfg.SessionFile},
		Logger:         logger.Named("mtproto"),
	})

	return &Client{
		client: client,
		api:    client.API(),
		logger: logger,
		phone:  cfg.Phone,
		photos: make(map[string]map[int64]*tg.Photo),
	}, nil
}

// Run connects the client, authenticates if the session file holds no valid
// session, and executes f while the connection is up.
func (c *Client) Run(ctx context.Context, f func(ctx context.Context) error) error {
	return c.client.Run(ctx, func(ctx context.Context) error {
		flow := auth.NewFlow(
			auth.Constant(c.phone, "", auth.CodeAuthenticatorFunc(c.promptCode)),
			auth.SendCodeOptions{},
		)
		if err := c.client.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		c.logger.Info("Telegram client authenticated")
		return f(ctx)
	})
}

func (c *Client) promptCode(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	fmt.Print("Enter the Telegram login code: ")
	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(code), nil
}

// RecentMessages fetches up to limit most recent messages from a public
// channel, newest first as delivered by Telegram.
func (c *Client) RecentMessages(ctx context.Context, channel string, limit int) ([]models.RawMessage, error) {
	peer, err := c.resolveChannel(ctx, channel)
	if err != nil {
		return nil, err
	}

	hist, err := c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  peer,
		Limit: limit,
	})
	if err != nil {
		if wait, ok := tgerr.AsFloodWait(err); ok {
			return nil, &FloodWaitError{Duration: wait}
		}
		return nil, fmt.Errorf("failed to fetch history for %s: %w", channel, err)
	}

	var raw []tg.MessageClass
	switch h := hist.(type) {
	case *tg.MessagesChannelMessages:
		raw = h.Messages
	case *tg.MessagesMessagesSlice:
		raw = h.Messages
	case *tg.MessagesMessages:
		raw = h.Messages
	default:
		return nil, fmt.Errorf("unexpected history response %T for %s", hist, channel)
	}

	c.photos[channel] = make(map[int64]*tg.Photo)

	out := make([]models.RawMessage, 0, len(raw))
	for _, mc := range raw {
		msg, ok := mc.(*tg.Message)
		if !ok {
			// Service messages carry no content worth keeping.
			continue
		}

		rec := models.RawMessage{
			MessageID:   int64(msg.ID),
			ChannelName: channel,
			MessageDate: time.Unix(int64(msg.Date), 0).UTC(),
		}
		if msg.Message != "" {
			text := msg.Message
			rec.MessageText = &text
		}
		if views, ok := msg.GetViews(); ok {
			v := views
			rec.Views = &v
		}
		if forwards, ok := msg.GetForwards(); ok {
			f := forwards
			rec.Forwards = &f
		}
		if media, ok := msg.Media.(*tg.MessageMediaPhoto); ok {
			if photo, ok := media.Photo.(*tg.Photo); ok {
				rec.HasMedia = true
				c.photos[channel][rec.MessageID] = photo
			}
		}

		out = append(out, rec)
	}

	return out, nil
}

// DownloadPhoto downloads the photo attached to a message previously seen by
// RecentMessages into dest.
func (c *Client) DownloadPhoto(ctx context.Context, channel string, messageID int64, dest string) error {
	photo, ok := c.photos[channel][messageID]
	if !ok {
		return fmt.Errorf("no photo recorded for message %d in %s", messageID, channel)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}

	loc := &tg.InputPhotoFileLocation{
		ID:            photo.ID,
		AccessHash:    photo.AccessHash,
		FileReference: photo.FileReference,
		ThumbSize:     largestPhotoSize(photo),
	}

	if _, err := downloader.NewDownloader().Download(c.api, loc).ToPath(ctx, dest); err != nil {
		if wait, ok := tgerr.AsFloodWait(err); ok {
			return &FloodWaitError{Duration: wait}
		}
		return fmt.Errorf("failed to download photo for message %d: %w", messageID, err)
	}

	return nil
}

func (c *Client) resolveChannel(ctx context.Context, username string) (tg.InputPeerClass, error) {
	resolved, err := c.api.ContactsResolveUsername(ctx, username)
	if err != nil {
		if wait, ok := tgerr.AsFloodWait(err); ok {
			return nil, &FloodWaitError{Duration: wait}
		}
		return nil, fmt.Errorf("failed to resolve channel %s: %w", username, err)
	}

	for _, chat := range resolved.Chats {
		if ch, ok := chat.(*tg.Channel); ok {
			return &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}, nil
		}
	}

	return nil, fmt.Errorf("%s did not resolve to a channel", username)
}

// largestPhotoSize picks the type of the largest available size. Telegram
// lists sizes smallest to largest.
func largestPhotoSize(photo *tg.Photo) string {
	size := "x"
	for _, s := range photo.Sizes {
		if ps, ok := s.(*tg.PhotoSize); ok {
			size = ps.Type
		}
	}
	return size
}
