package store

import (
	"time"

	"github.com/cockroachdb/errors"
)

// nameTimeFormat is the timestamp layout embedded in backup names.
// Lexicographic order on it matches chronological order.
const nameTimeFormat = "20060102T150405"

// partialSuffix marks a staging directory whose copy has not finished.
// Entries with this suffix are never listed or restored.
const partialSuffix = ".partial"

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates the named backup does not exist.
	ErrNotFound = errors.New("backup not found")

	// ErrNoBackups indicates the store holds no backups at all.
	ErrNoBackups = errors.New("no backups found")
)

// Backup describes one immutable snapshot in the store.
type Backup struct {
	// Name identifies the backup; it embeds the app name and a sortable
	// timestamp, e.g. "app-20260830T141503-001".
	Name string `json:"name"`

	// CreatedAt is when the snapshot was taken.
	CreatedAt time.Time `json:"created_at"`

	// Path is the directory holding the snapshot's full tree.
	Path string `json:"-"`
}
