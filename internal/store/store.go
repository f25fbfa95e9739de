package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/stevedore/pkg/fsutil"
)

// Store owns a backup directory and manages snapshots of a deployed tree.
// No other component writes to the backup directory.
type Store struct {
	dir    string
	app    string
	logger *slog.Logger

	mu  sync.Mutex
	seq int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store progress and prune warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New creates a Store rooted at dir for the named application.
func New(dir, app string, opts ...Option) *Store {
	s := &Store{
		dir:    dir,
		app:    app,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the backup directory the store owns.
func (s *Store) Dir() string {
	return s.dir
}

// Create recursively copies the entire contents of srcDir into a new,
// uniquely named backup. The copy is staged under a ".partial" name and
// renamed into place only once it has fully completed, so a failed copy is
// never visible as a valid backup.
//
// Names embed the app name, a second-resolution UTC timestamp, and a
// process-monotonic counter. The counter restarts with every process, so
// finalization probes the backup directory and advances past names an
// earlier invocation already took in the same second.
func (s *Store) Create(srcDir string) (string, error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		return "", errors.Wrapf(err, "reading source %s", srcDir)
	}
	if !info.IsDir() {
		return "", errors.Newf("source %s is not a directory", srcDir)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating backup directory")
	}

	now := time.Now().UTC()
	name := s.nextName(now)
	stage := filepath.Join(s.dir, name+partialSuffix)

	s.logger.Info("creating backup", "name", name, "source", srcDir)

	if err := fsutil.CopyDir(srcDir, stage); err != nil {
		// A half-written staging dir must not survive as a backup.
		if rmErr := os.RemoveAll(stage); rmErr != nil {
			s.logger.Warn("removing partial backup failed", "path", stage, "error", rmErr)
		}
		return "", errors.Wrapf(err, "copying %s", srcDir)
	}

	for {
		final := filepath.Join(s.dir, name)
		if _, err := os.Stat(final); err == nil {
			// Taken by an earlier invocation in the same second
			name = s.nextName(now)
			continue
		}
		if err := os.Rename(stage, final); err != nil {
			os.RemoveAll(stage)
			return "", errors.Wrapf(err, "finalizing backup %s", name)
		}
		return name, nil
	}
}

// nextName returns a unique backup name for the given creation time.
func (s *Store) nextName(t time.Time) string {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()
	return fmt.Sprintf("%s-%s-%03d", s.app, t.Format(nameTimeFormat), seq)
}

// Restore clears destDir's contents and recursively copies the named
// backup into it. Returns ErrNotFound if the backup does not exist.
//
// The clear-then-copy sequence is not atomic: if the copy fails partway,
// destDir is left in an indeterminate state and the caller must treat the
// failure as requiring operator intervention.
func (s *Store) Restore(name, destDir string) error {
	b, err := s.Get(name)
	if err != nil {
		return err
	}

	s.logger.Info("restoring backup", "name", name, "destination", destDir)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating destination %s", destDir)
	}
	if err := fsutil.ClearDir(destDir); err != nil {
		return errors.Wrapf(err, "clearing destination %s", destDir)
	}
	if err := fsutil.CopyDir(b.Path, destDir); err != nil {
		return errors.Wrapf(err, "restoring backup %s", name)
	}

	return nil
}

// Get returns the named backup, or ErrNotFound. Names are single path
// elements inside the store's directory; anything that would resolve
// elsewhere is rejected.
func (s *Store) Get(name string) (Backup, error) {
	if !validName(name) {
		return Backup{}, errors.Wrapf(ErrNotFound, "backup %q", name)
	}

	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Backup{}, errors.Wrapf(ErrNotFound, "backup %q", name)
		}
		return Backup{}, errors.Wrapf(err, "reading backup %s", name)
	}
	if !info.IsDir() {
		return Backup{}, errors.Wrapf(ErrNotFound, "backup %q", name)
	}

	return Backup{
		Name:      name,
		CreatedAt: s.createdAt(name, info.ModTime()),
		Path:      path,
	}, nil
}

// List returns all backups, most recent first. A missing or empty backup
// directory yields an empty slice, never an error.
func (s *Store) List() ([]Backup, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading backup directory")
	}

	backups := make([]Backup, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasSuffix(entry.Name(), partialSuffix) {
			continue
		}
		b, err := s.Get(entry.Name())
		if err != nil {
			// Skip entries that vanished between ReadDir and Get
			continue
		}
		backups = append(backups, b)
	}

	// Newest first; names embed monotonic timestamps, so reverse name
	// ordering breaks creation-time ties deterministically.
	slices.SortFunc(backups, func(a, b Backup) int {
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return 1
		}
		return strings.Compare(b.Name, a.Name)
	})

	return backups, nil
}

// Prune deletes the oldest backups beyond keep, and clears out any stale
// ".partial" staging directories left behind by interrupted creates.
// Deletion failures are logged as warnings and never fail the call.
// Returns the number of backups removed.
func (s *Store) Prune(keep int) int {
	if keep < 0 {
		keep = 0
	}

	removed := 0

	backups, err := s.List()
	if err != nil {
		s.logger.Warn("listing backups for prune failed", "error", err)
		return 0
	}

	for i := keep; i < len(backups); i++ {
		if err := os.RemoveAll(backups[i].Path); err != nil {
			s.logger.Warn("removing old backup failed", "name", backups[i].Name, "error", err)
			continue
		}
		s.logger.Info("removed old backup", "name", backups[i].Name)
		removed++
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return removed
	}
	for _, entry := range entries {
		if entry.IsDir() && strings.HasSuffix(entry.Name(), partialSuffix) {
			if err := os.RemoveAll(filepath.Join(s.dir, entry.Name())); err != nil {
				s.logger.Warn("removing stale partial backup failed", "name", entry.Name(), "error", err)
			}
		}
	}

	return removed
}

// validName reports whether name is a plausible backup name: a single
// path element, not a traversal, not a staging directory.
func validName(name string) bool {
	switch {
	case name == "", name == ".", name == "..":
		return false
	case name != filepath.Base(name):
		return false
	case strings.HasSuffix(name, partialSuffix):
		return false
	}
	return true
}

// createdAt extracts the creation time embedded in a backup name,
// falling back to the directory's mtime for names it cannot parse.
func (s *Store) createdAt(name string, fallback time.Time) time.Time {
	// The app name may contain dashes; the timestamp is always the
	// second-to-last dash-separated field.
	parts := strings.Split(name, "-")
	if len(parts) < 3 {
		return fallback
	}
	t, err := time.Parse(nameTimeFormat, parts[len(parts)-2])
	if err != nil {
		return fallback
	}
	return t
}
