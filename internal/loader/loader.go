package loader

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"medwarehouse/internal/models"
	"medwarehouse/internal/rawstore"
	"medwarehouse/internal/repository"
)

// Loader is the load stage: it promotes every raw partition into
// raw.telegram_messages. The stage is all-or-nothing per invocation; a
// malformed partition or an invalid record fails the whole run before
// anything is written.
type Loader struct {
	store  *rawstore.Store
	repo   repository.RawMessageRepository
	logger *zap.Logger
}

// New creates a Loader over the given store and repository.
func New(store *rawstore.Store, repo repository.RawMessageRepository, logger *zap.Logger) *Loader {
	return &Loader{store: store, repo: repo, logger: logger}
}

// Run discovers all raw partitions, parses and validates them, and upserts
// every record in a single transaction.
func (l *Loader) Run(ctx context.Context) (string, error) {
	if err := l.repo.EnsureSchema(); err != nil {
		return "", fmt.Errorf("failed to ensure raw schema: %w", err)
	}

	paths, err := l.store.Partitions()
	if err != nil {
		return "", fmt.Errorf("failed to discover raw partitions: %w", err)
	}

	var all []models.RawMessage
	for _, path := range paths {
		messages, err := l.store.ReadPartition(path)
		if err != nil {
			return "", err
		}
		all = append(all, messages...)
	}

	if err := l.repo.UpsertMessages(ctx, all); err != nil {
		return "", err
	}

	l.logger.Info("raw load complete",
		zap.Int("partitions", len(paths)), zap.Int("messages", len(all)))
	return fmt.Sprintf("loaded %d messages from %d partitions", len(all), len(paths)), nil
}
