package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"medwarehouse/internal/models"
)

// RawMessageRepository writes scraped messages into the raw schema.
type RawMessageRepository interface {
	EnsureSchema() error
	UpsertMessages(ctx context.Context, messages []models.RawMessage) error
}

type rawMessageRepository struct {
	db             *sqlx.DB
	migrationsPath string
	logger         *zap.Logger
}

// NewRawMessageRepository creates a RawMessageRepository backed by Postgres.
func NewRawMessageRepository(db *sqlx.DB, migrationsPath string, logger *zap.Logger) RawMessageRepository {
	return &rawMessageRepository{db: db, migrationsPath: migrationsPath, logger: logger}
}

// EnsureSchema creates the raw schema and table if they do not exist.
func (r *rawMessageRepository) EnsureSchema() error {
	return MigrateDB(r.db, r.migrationsPath, r.logger)
}

const upsertMessageQuery = `
	INSERT INTO raw.telegram_messages (
		message_id, channel_name, message_date,
		message_text, views, forwards, has_media, image_path
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (message_id, channel_name) DO UPDATE SET
		message_date = EXCLUDED.message_date,
		message_text = EXCLUDED.message_text,
		views        = EXCLUDED.views,
		forwards     = EXCLUDED.forwards,
		has_media    = EXCLUDED.has_media,
		image_path   = EXCLUDED.image_path`

// UpsertMessages inserts all messages in one transaction. The conflict target
// (message_id, channel_name) makes re-running the load a refresh rather than
// a duplication; re-scraped rows keep the latest view and forward counts.
func (r *rawMessageRepository) UpsertMessages(ctx context.Context, messages []models.RawMessage) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, m := range messages {
		if _, err := tx.ExecContext(ctx, upsertMessageQuery,
			m.MessageID, m.ChannelName, m.MessageDate,
			m.MessageText, m.Views, m.Forwards, m.HasMedia, m.ImagePath,
		); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("rollback failed", zap.Error(rbErr))
			}
			return fmt.Errorf("failed to upsert message %d (%s): %w", m.MessageID, m.ChannelName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit raw load: %w", err)
	}
	return nil
}
