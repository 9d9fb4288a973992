package storage

import "time"

// Record keys. Each is written independently; there is no transaction
// spanning more than one key.
const (
	KeyScans      = "microplastics_scans"
	KeyChallenges = "microplastics_challenges"
	KeySettings   = "microplastics_settings"
)

// Entry is one stored key/value pair.
type Entry struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Stats holds aggregate statistics about the store.
type Stats struct {
	TotalRecords int64
	TotalBytes   int64
	AuditEntries int64
	LastWrite    time.Time
	Keys         []KeySize
}

// KeySize pairs a key with the byte size of its stored value.
type KeySize struct {
	Key   string `db:"key"`
	Bytes int64  `db:"bytes"`
}
