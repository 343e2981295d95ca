package scraper

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"medwarehouse/internal/models"
	"medwarehouse/internal/rawstore"
	"medwarehouse/internal/telegram"
)

// Source delivers recent channel content. Implemented by telegram.Client.
type Source interface {
	RecentMessages(ctx context.Context, channel string, limit int) ([]models.RawMessage, error)
	DownloadPhoto(ctx context.Context, channel string, messageID int64, dest string) error
}

// Scraper is the ingestion stage: it pulls recent messages for every
// configured channel, downloads attached photos, and writes one raw
// partition per channel per UTC day.
type Scraper struct {
	source     Source
	store      *rawstore.Store
	imagesRoot string
	channels   []string
	limit      int
	logger     *zap.Logger
}

// New creates a Scraper over the given source and raw store.
func New(source Source, store *rawstore.Store, imagesRoot string, channels []string, limit int, logger *zap.Logger) *Scraper {
	return &Scraper{
		source:     source,
		store:      store,
		imagesRoot: imagesRoot,
		channels:   channels,
		limit:      limit,
		logger:     logger,
	}
}

// Run scrapes all configured channels. A failure on one channel never aborts
// the others; a flood wait pauses for the server-specified duration and then
// moves on to the remaining channels.
func (s *Scraper) Run(ctx context.Context) (string, error) {
	day := time.Now().UTC()
	scraped := 0
	total := 0

	for _, channel := range s.channels {
		n, err := s.scrapeChannel(ctx, channel, day)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			var flood *telegram.FloodWaitError
			if errors.As(err, &flood) {
				s.logger.Warn("rate limited by Telegram",
					zap.String("channel", channel),
					zap.Duration("wait", flood.Duration))
				select {
				case <-time.After(flood.Duration):
				case <-ctx.Done():
					return "", ctx.Err()
				}
				continue
			}
			s.logger.Error("failed to scrape channel",
				zap.String("channel", channel), zap.Error(err))
			continue
		}
		scraped++
		total += n
	}

	return fmt.Sprintf("scraped %d %s from %d of %d %s",
		total, noun(total, "message"),
		scraped, len(s.channels), noun(len(s.channels), "channel")), nil
}

func noun(n int, singular string) string {
	if n == 1 {
		return singular
	}
	return singular + "s"
}

func (s *Scraper) scrapeChannel(ctx context.Context, channel string, day time.Time) (int, error) {
	s.logger.Info("started scraping channel", zap.String("channel", channel))

	messages, err := s.source.RecentMessages(ctx, channel, s.limit)
	if err != nil {
		return 0, err
	}

	imageDir := filepath.Join(s.imagesRoot, channel)
	for i := range messages {
		if !messages[i].HasMedia {
			continue
		}
		dest := filepath.Join(imageDir, fmt.Sprintf("%d.jpg", messages[i].MessageID))
		if err := s.source.DownloadPhoto(ctx, channel, messages[i].MessageID, dest); err != nil {
			var flood *telegram.FloodWaitError
			if errors.As(err, &flood) {
				s.logger.Warn("rate limited while downloading photo",
					zap.String("channel", channel),
					zap.Int64("message_id", messages[i].MessageID),
					zap.Duration("wait", flood.Duration))
				select {
				case <-time.After(flood.Duration):
				case <-ctx.Done():
					return 0, ctx.Err()
				}
			} else {
				s.logger.Warn("failed to download photo",
					zap.String("channel", channel),
					zap.Int64("message_id", messages[i].MessageID),
					zap.Error(err))
			}
			// has_image downstream means "media successfully
			// downloaded", so a failed download drops the flag.
			messages[i].HasMedia = false
			continue
		}
		path := dest
		messages[i].ImagePath = &path
	}

	if _, err := s.store.WritePartition(day, channel, messages); err != nil {
		return 0, err
	}

	s.logger.Info("finished scraping channel",
		zap.String("channel", channel), zap.Int("messages", len(messages)))
	return len(messages), nil
}
