package rawstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medwarehouse/internal/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func sampleMessage(id int64, channel string) models.RawMessage {
	return models.RawMessage{
		MessageID:   id,
		ChannelName: channel,
		MessageDate: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		MessageText: strPtr("Paracetamol 500mg back in stock"),
		Views:       intPtr(120),
	}
}

func TestWriteAndReadPartition(t *testing.T) {
	store := New(t.TempDir())
	day := time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)

	msgs := []models.RawMessage{sampleMessage(1, "tikvahpharma"), sampleMessage(2, "tikvahpharma")}
	path, err := store.WritePartition(day, "tikvahpharma", msgs)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Root(), "2026-08-30", "tikvahpharma.json"), path)

	got, err := store.ReadPartition(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].MessageID)
	assert.Equal(t, "tikvahpharma", got[0].ChannelName)
	require.NotNil(t, got[0].MessageText)
	assert.Equal(t, "Paracetamol 500mg back in stock", *got[0].MessageText)
	assert.Nil(t, got[0].Forwards)
}

func TestWritePartitionOverwritesSameDay(t *testing.T) {
	store := New(t.TempDir())
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	_, err := store.WritePartition(day, "chemed123", []models.RawMessage{
		sampleMessage(1, "chemed123"), sampleMessage(2, "chemed123"),
	})
	require.NoError(t, err)

	path, err := store.WritePartition(day, "chemed123", []models.RawMessage{sampleMessage(3, "chemed123")})
	require.NoError(t, err)

	got, err := store.ReadPartition(path)
	require.NoError(t, err)
	require.Len(t, got, 1, "re-scraping a day replaces the partition, not appends")
	assert.Equal(t, int64(3), got[0].MessageID)
}

func TestWritePartitionRejectsMediaInvariantViolation(t *testing.T) {
	store := New(t.TempDir())
	day := time.Now().UTC()

	msg := sampleMessage(1, "chemed123")
	msg.HasMedia = true // no image path

	_, err := store.WritePartition(day, "chemed123", []models.RawMessage{msg})
	assert.Error(t, err)

	msg = sampleMessage(2, "chemed123")
	msg.ImagePath = strPtr("data/raw/images/chemed123/2.jpg") // path without flag

	_, err = store.WritePartition(day, "chemed123", []models.RawMessage{msg})
	assert.Error(t, err)
}

func TestPartitionsDiscoversNestedFiles(t *testing.T) {
	store := New(t.TempDir())

	d1 := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	_, err := store.WritePartition(d1, "a", []models.RawMessage{sampleMessage(1, "a")})
	require.NoError(t, err)
	_, err = store.WritePartition(d2, "a", []models.RawMessage{sampleMessage(2, "a")})
	require.NoError(t, err)
	_, err = store.WritePartition(d2, "b", []models.RawMessage{sampleMessage(3, "b")})
	require.NoError(t, err)

	paths, err := store.Partitions()
	require.NoError(t, err)
	assert.Len(t, paths, 3)
}

func TestReadPartitionMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := store.ReadPartition(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed partition file")
}

func TestReadPartitionMissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	path := filepath.Join(dir, "invalid.json")
	// channel_name is missing
	require.NoError(t, os.WriteFile(path, []byte(`[{"message_id": 5, "message_date": "2026-08-30T12:00:00Z"}]`), 0o644))

	_, err := store.ReadPartition(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_name is required")
}
