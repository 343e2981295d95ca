package models

import "time"

// RawMessage represents one scraped Telegram message as written to the raw
// data lake and loaded into 'raw.telegram_messages'.
type RawMessage struct {
	MessageID   int64     `json:"message_id" db:"message_id"`
	ChannelName string    `json:"channel_name" db:"channel_name"`
	MessageDate time.Time `json:"message_date" db:"message_date"`
	MessageText *string   `json:"message_text" db:"message_text"`
	Views       *int      `json:"views" db:"views"`
	Forwards    *int      `json:"forwards" db:"forwards"`
	HasMedia    bool      `json:"has_media" db:"has_media"`
	ImagePath   *string   `json:"image_path" db:"image_path"`
}

// Detection is a single detected object reported by the detection service.
type Detection struct {
	Class      string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
}

// DetectionRecord is one row of the enrichment output dataset.
type DetectionRecord struct {
	ImageName       string
	ImagePath       string
	DetectedObjects []string
	AvgConfidence   *float64 // nil when nothing was detected
	Category        string
	ProcessedAt     time.Time
}

// TermCount is one row of the top-products report.
type TermCount struct {
	Term  string `json:"term" db:"term"`
	Count int    `json:"count" db:"count"`
}

// ChannelActivity is the per-day message count for one channel.
type ChannelActivity struct {
	Date          string `json:"date" db:"date"`
	TotalMessages int    `json:"total_messages" db:"total_messages"`
}

// MessageResult is one message search hit.
type MessageResult struct {
	MessageID   int64  `json:"message_id" db:"message_id"`
	ChannelName string `json:"channel_name" db:"channel_name"`
	MessageText string `json:"message_text" db:"message_text"`
	MessageDate string `json:"message_date" db:"message_date"`
}

// VisualContentStats is the per-channel image share report row.
type VisualContentStats struct {
	ChannelName     string  `json:"channel_name" db:"channel_name"`
	TotalMessages   int     `json:"total_messages" db:"total_messages"`
	ImageMessages   int     `json:"image_messages" db:"image_messages"`
	ImagePercentage float64 `json:"image_percentage" db:"image_percentage"`
}
