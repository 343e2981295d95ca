package rawstore

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"medwarehouse/internal/models"
)

// Store is the date-partitioned raw data lake for scraped messages. One JSON
// array is kept per (UTC day, channel); re-scraping a day overwrites that
// day's partition file.
type Store struct {
	root string
}

// New creates a Store rooted at the given directory.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the directory the store writes under.
func (s *Store) Root() string {
	return s.root
}

// WritePartition writes the messages for one channel into the partition for
// the given day, replacing any previous file. It returns the partition path.
func (s *Store) WritePartition(day time.Time, channel string, messages []models.RawMessage) (string, error) {
	for _, m := range messages {
		if err := validate(m); err != nil {
			return "", fmt.Errorf("refusing to write partition for %s: %w", channel, err)
		}
	}

	dir := filepath.Join(s.root, day.UTC().Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create partition directory: %w", err)
	}

	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal messages: %w", err)
	}

	path := filepath.Join(dir, channel+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write partition file: %w", err)
	}

	return path, nil
}

// Partitions lists every partition file under the store root. No ordering is
// guaranteed beyond what the filesystem walk produces.
func (s *Store) Partitions() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk raw store at %s: %w", s.root, err)
	}
	return paths, nil
}

// ReadPartition parses one partition file and validates every record in it.
func (s *Store) ReadPartition(path string) ([]models.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read partition file: %w", err)
	}

	var messages []models.RawMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("malformed partition file %s: %w", path, err)
	}

	for i, m := range messages {
		if err := validate(m); err != nil {
			return nil, fmt.Errorf("invalid record %d in %s: %w", i, path, err)
		}
	}

	return messages, nil
}

// validate enforces the required fields and the media-reference invariant:
// image_path is set if and only if has_media is true.
func validate(m models.RawMessage) error {
	if m.MessageID == 0 {
		return fmt.Errorf("message_id is required")
	}
	if m.ChannelName == "" {
		return fmt.Errorf("channel_name is required")
	}
	if m.MessageDate.IsZero() {
		return fmt.Errorf("message_date is required for message %d", m.MessageID)
	}
	if m.HasMedia && m.ImagePath == nil {
		return fmt.Errorf("message %d has media but no image path", m.MessageID)
	}
	if !m.HasMedia && m.ImagePath != nil {
		return fmt.Errorf("message %d has an image path but no media flag", m.MessageID)
	}
	return nil
}
