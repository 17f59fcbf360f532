package model

import "time"

// Setting keys owned by the core.  Both are upserted, never deleted.
const (
	SettingQueueCounter    = "queue_counter"
	SettingLastArchiveDate = "last_archive_date"
	SettingFavoritePrice   = "favorite_price"
)

// Setting is a generic key -> string row.  The sequence counter and the
// last-archive-date marker live here and are only touched through the
// allocator and archive services.
type Setting struct {
	Key       string    // settings.key
	Value     string    // settings.value
	UpdatedAt time.Time // settings.updated_at
}
