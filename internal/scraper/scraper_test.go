package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medwarehouse/internal/models"
	"medwarehouse/internal/rawstore"
	"medwarehouse/internal/telegram"
)

type fakeSource struct {
	messages     map[string][]models.RawMessage
	errs         map[string]error
	downloadErrs map[int64]error
	downloads    []string
}

func (f *fakeSource) RecentMessages(_ context.Context, channel string, _ int) ([]models.RawMessage, error) {
	if err := f.errs[channel]; err != nil {
		return nil, err
	}
	msgs := make([]models.RawMessage, len(f.messages[channel]))
	copy(msgs, f.messages[channel])
	return msgs, nil
}

func (f *fakeSource) DownloadPhoto(_ context.Context, _ string, messageID int64, dest string) error {
	if err := f.downloadErrs[messageID]; err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(dest, []byte("jpeg"), 0o644); err != nil {
		return err
	}
	f.downloads = append(f.downloads, dest)
	return nil
}

func message(id int64, channel string, hasMedia bool) models.RawMessage {
	text := fmt.Sprintf("message %d", id)
	return models.RawMessage{
		MessageID:   id,
		ChannelName: channel,
		MessageDate: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		MessageText: &text,
		HasMedia:    hasMedia,
	}
}

func readOnlyPartition(t *testing.T, store *rawstore.Store) []models.RawMessage {
	t.Helper()
	paths, err := store.Partitions()
	require.NoError(t, err)
	require.Len(t, paths, 1)
	msgs, err := store.ReadPartition(paths[0])
	require.NoError(t, err)
	return msgs
}

func TestScraperWritesPartitionAndDownloadsMedia(t *testing.T) {
	store := rawstore.New(t.TempDir())
	imagesRoot := t.TempDir()
	src := &fakeSource{messages: map[string][]models.RawMessage{
		"tikvahpharma": {message(1, "tikvahpharma", false), message(2, "tikvahpharma", true)},
	}}

	s := New(src, store, imagesRoot, []string{"tikvahpharma"}, 100, zap.NewNop())
	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "scraped 2 messages from 1 of 1 channel", summary)

	msgs := readOnlyPartition(t, store)
	require.Len(t, msgs, 2)

	assert.False(t, msgs[0].HasMedia)
	assert.Nil(t, msgs[0].ImagePath)

	assert.True(t, msgs[1].HasMedia)
	require.NotNil(t, msgs[1].ImagePath)
	assert.Equal(t, filepath.Join(imagesRoot, "tikvahpharma", "2.jpg"), *msgs[1].ImagePath)
	assert.FileExists(t, *msgs[1].ImagePath)
}

func TestScraperContinuesAfterChannelFailure(t *testing.T) {
	store := rawstore.New(t.TempDir())
	src := &fakeSource{
		messages: map[string][]models.RawMessage{
			"healthy": {message(1, "healthy", false)},
		},
		errs: map[string]error{"broken": errors.New("CHANNEL_PRIVATE")},
	}

	s := New(src, store, t.TempDir(), []string{"broken", "healthy"}, 100, zap.NewNop())
	summary, err := s.Run(context.Background())
	require.NoError(t, err, "one failing channel must not abort the run")
	assert.Equal(t, "scraped 1 message from 1 of 2 channels", summary)

	msgs := readOnlyPartition(t, store)
	assert.Equal(t, "healthy", msgs[0].ChannelName)
}

func TestScraperWaitsOutFloodAndContinues(t *testing.T) {
	store := rawstore.New(t.TempDir())
	src := &fakeSource{
		messages: map[string][]models.RawMessage{
			"second": {message(1, "second", false)},
		},
		errs: map[string]error{
			"first": &telegram.FloodWaitError{Duration: 10 * time.Millisecond},
		},
	}

	s := New(src, store, t.TempDir(), []string{"first", "second"}, 100, zap.NewNop())
	start := time.Now()
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	msgs := readOnlyPartition(t, store)
	assert.Equal(t, "second", msgs[0].ChannelName)
}

func TestScraperFloodWaitHonorsCancellation(t *testing.T) {
	src := &fakeSource{errs: map[string]error{
		"slow": &telegram.FloodWaitError{Duration: time.Hour},
	}}
	s := New(src, rawstore.New(t.TempDir()), t.TempDir(), []string{"slow"}, 100, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScraperWaitsOutFloodDuringDownload(t *testing.T) {
	store := rawstore.New(t.TempDir())
	src := &fakeSource{
		messages: map[string][]models.RawMessage{
			"chan": {message(7, "chan", true)},
		},
		downloadErrs: map[int64]error{7: &telegram.FloodWaitError{Duration: 10 * time.Millisecond}},
	}

	s := New(src, store, t.TempDir(), []string{"chan"}, 100, zap.NewNop())
	start := time.Now()
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond,
		"a flood wait reported during photo download must pause the stage")

	msgs := readOnlyPartition(t, store)
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].HasMedia)
	assert.Nil(t, msgs[0].ImagePath)
}

func TestScraperDownloadFloodWaitHonorsCancellation(t *testing.T) {
	src := &fakeSource{
		messages: map[string][]models.RawMessage{
			"chan": {message(7, "chan", true)},
		},
		downloadErrs: map[int64]error{7: &telegram.FloodWaitError{Duration: time.Hour}},
	}
	s := New(src, rawstore.New(t.TempDir()), t.TempDir(), []string{"chan"}, 100, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScraperDropsMediaFlagOnFailedDownload(t *testing.T) {
	store := rawstore.New(t.TempDir())
	src := &fakeSource{
		messages: map[string][]models.RawMessage{
			"chan": {message(7, "chan", true)},
		},
		downloadErrs: map[int64]error{7: errors.New("FILE_REFERENCE_EXPIRED")},
	}

	s := New(src, store, t.TempDir(), []string{"chan"}, 100, zap.NewNop())
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	msgs := readOnlyPartition(t, store)
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].HasMedia, "has_media means the image actually landed on disk")
	assert.Nil(t, msgs[0].ImagePath)
}
