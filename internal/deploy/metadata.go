package deploy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/stevedore/pkg/fileutil"
)

// Metadata describes the current live deployment. Exactly one record
// exists at a time; it is replaced wholesale on every successful deploy or
// rollback, never partially updated.
type Metadata struct {
	// Version is the operator-supplied label, a generated timestamp label,
	// or a rollback marker.
	Version string `json:"version"`

	// Timestamp is when the deploy or rollback completed.
	Timestamp time.Time `json:"timestamp"`

	// Backup names the snapshot taken immediately before this deploy.
	// Empty for a first deploy and after rollbacks (a rollback does not
	// chain further automatic rollback targets).
	Backup string `json:"backup,omitempty"`
}

// MetadataPath returns where metadata for the given deploy directory lives.
// The record sits alongside the deploy directory, not inside it, so
// clearing the directory never loses it and backups never embed stale
// copies.
func MetadataPath(deployDir string) string {
	return filepath.Clean(deployDir) + ".meta.json"
}

// writeMetadata atomically replaces the metadata record.
func writeMetadata(deployDir string, md Metadata) error {
	return errors.Wrap(fileutil.AtomicWriteJSON(MetadataPath(deployDir), md), "writing deployment metadata")
}

// readMetadata loads the metadata record.
// The second return value is false when no record exists yet.
func readMetadata(deployDir string) (Metadata, bool, error) {
	data, err := os.ReadFile(MetadataPath(deployDir))
	if err != nil {
		if os.IsNotExist(err) {
			return Metadata{}, false, nil
		}
		return Metadata{}, false, errors.Wrap(err, "reading deployment metadata")
	}

	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return Metadata{}, false, errors.Wrap(err, "parsing deployment metadata")
	}

	return md, true, nil
}
