// Package store implements the backup store: it creates, enumerates,
// prunes, and restores snapshots of a deployed directory tree.
//
// # Layout
//
// Each backup is one subdirectory of the backup root, holding a full copy
// of the deployed tree at creation time:
//
//	backups/
//	├── app-20260830T141503-001/
//	│   └── {copied tree...}
//	└── app-20260830T142217-002/
//	    └── {copied tree...}
//
// Names embed the app name, a second-resolution UTC timestamp, and a
// process-monotonic counter, so they sort chronologically and never
// collide within a time-resolution window.
//
// # Immutability
//
// Backups are immutable once created. They are only ever read (during
// restore) or deleted (during pruning). The store exclusively owns the
// backup directory.
//
// # Partial copies
//
// [Store.Create] stages the copy under a ".partial" suffix and renames it
// into place only when the copy completed, so an interrupted create is
// never registered as a valid backup. Stale staging directories are swept
// by [Store.Prune].
//
// # Retention
//
// [Store.Prune] removes the oldest backups beyond the retention limit.
// Individual deletion failures are logged as warnings and never escalate:
// a stale backup is a lesser failure than a failed deploy.
package store
