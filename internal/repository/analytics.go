package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"medwarehouse/internal/models"
)

// AnalyticsRepository answers the read-only report queries over the marts
// schema. All methods are pure reads.
type AnalyticsRepository interface {
	TopTerms(ctx context.Context, limit int) ([]models.TermCount, error)
	ChannelExists(ctx context.Context, channel string) (bool, error)
	ChannelActivity(ctx context.Context, channel string) ([]models.ChannelActivity, error)
	SearchMessages(ctx context.Context, query string, limit int) ([]models.MessageResult, error)
	VisualContentStats(ctx context.Context) ([]models.VisualContentStats, error)
}

type analyticsRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewAnalyticsRepository creates an AnalyticsRepository over the marts schema.
func NewAnalyticsRepository(db *sqlx.DB, logger *zap.Logger) AnalyticsRepository {
	return &analyticsRepository{db: db, logger: logger}
}

func (r *analyticsRepository) TopTerms(ctx context.Context, limit int) ([]models.TermCount, error) {
	const query = `
		SELECT term, COUNT(*) AS count
		FROM marts.fct_messages,
		     regexp_split_to_table(lower(message_text), '\s+') AS term
		WHERE message_text IS NOT NULL
		GROUP BY term
		ORDER BY count DESC
		LIMIT $1`

	var terms []models.TermCount
	if err := r.db.SelectContext(ctx, &terms, query, limit); err != nil {
		return nil, err
	}
	return terms, nil
}

func (r *analyticsRepository) ChannelExists(ctx context.Context, channel string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM marts.dim_channels WHERE channel_name = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, channel); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *analyticsRepository) ChannelActivity(ctx context.Context, channel string) ([]models.ChannelActivity, error) {
	const query = `
		SELECT d.full_date::text AS date,
		       COUNT(*) AS total_messages
		FROM marts.fct_messages f
		JOIN marts.dim_channels c ON f.channel_key = c.channel_key
		JOIN marts.dim_dates d ON f.date_key = d.date_key
		WHERE c.channel_name = $1
		GROUP BY d.full_date
		ORDER BY d.full_date`

	var activity []models.ChannelActivity
	if err := r.db.SelectContext(ctx, &activity, query, channel); err != nil {
		return nil, err
	}
	return activity, nil
}

func (r *analyticsRepository) SearchMessages(ctx context.Context, query string, limit int) ([]models.MessageResult, error) {
	const search = `
		SELECT f.message_id,
		       c.channel_name,
		       f.message_text,
		       f.message_date::text AS message_date
		FROM marts.fct_messages f
		JOIN marts.dim_channels c ON f.channel_key = c.channel_key
		WHERE f.message_text ILIKE '%' || $1 || '%'
		LIMIT $2`

	var results []models.MessageResult
	if err := r.db.SelectContext(ctx, &results, search, query, limit); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *analyticsRepository) VisualContentStats(ctx context.Context) ([]models.VisualContentStats, error) {
	const query = `
		SELECT c.channel_name,
		       COUNT(*) AS total_messages,
		       SUM(CASE WHEN f.has_image THEN 1 ELSE 0 END) AS image_messages,
		       ROUND(
		           100.0 * SUM(CASE WHEN f.has_image THEN 1 ELSE 0 END) / COUNT(*),
		           2
		       ) AS image_percentage
		FROM marts.fct_messages f
		JOIN marts.dim_channels c ON f.channel_key = c.channel_key
		GROUP BY c.channel_name`

	var stats []models.VisualContentStats
	if err := r.db.SelectContext(ctx, &stats, query); err != nil {
		return nil, err
	}
	return stats, nil
}
