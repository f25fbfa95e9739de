package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/stevedore/internal/config"
	"github.com/thoreinstein/stevedore/internal/hooks"
	"github.com/thoreinstein/stevedore/internal/store"
	"github.com/thoreinstein/stevedore/pkg/fsutil"
)

// Sentinel errors for engine operations.
var (
	// ErrBackupFailed indicates the pre-deploy snapshot could not be created.
	// The deploy directory is untouched when this is returned.
	ErrBackupFailed = errors.New("backup creation failed")

	// ErrDeployFailed indicates the destructive copy or restore phase
	// failed. The deploy directory may be in a partial state; the operator
	// must inspect before retrying.
	ErrDeployFailed = errors.New("deploy failed")
)

// hook list names, matching the config keys.
const (
	hookPreDeploy    = "pre_deploy"
	hookPostDeploy   = "post_deploy"
	hookPreRollback  = "pre_rollback"
	hookPostRollback = "post_rollback"
)

// Engine orchestrates deploy and rollback transitions. It is the sole
// writer of the deploy directory and the metadata record, and it is built
// for single-operator use: one operation runs to completion before the
// next begins, with external serialization assumed.
type Engine struct {
	cfg    *config.Config
	store  *store.Store
	hooks  *hooks.Runner
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithStore overrides the backup store. Intended for tests.
func WithStore(s *store.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithHookRunner overrides the hook runner. Intended for tests.
func WithHookRunner(r *hooks.Runner) Option {
	return func(e *Engine) {
		e.hooks = r
	}
}

// New creates an Engine for the given configuration.
// The configuration is expected to be validated already.
func New(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = store.New(cfg.BackupDir, cfg.App, store.WithLogger(e.logger))
	}
	if e.hooks == nil {
		e.hooks = hooks.NewRunner(hooks.WithLogger(e.logger))
	}
	return e
}

// Result describes a committed deploy or rollback.
type Result struct {
	// Version is the label recorded in metadata.
	Version string

	// Backup names the snapshot taken before the deploy overwrote the
	// previous state. Empty for first deploys and rollbacks.
	Backup string

	// HookErr carries a post-hook failure. The operation itself has
	// committed by the time post hooks run, so this never marks the
	// result as failed; it is reported to the caller separately.
	HookErr error
}

// Deploy moves the source tree into the deploy directory, preserving the
// prior state as a backup first. version labels the deployment; when
// empty, a timestamp label is generated.
//
// Pre-deploy hook failures abort before anything on disk changes. A copy
// failure leaves the deploy directory partial; the engine does not
// self-heal, the operator rolls back explicitly.
func (e *Engine) Deploy(ctx context.Context, version string) (*Result, error) {
	if version == "" {
		version = time.Now().UTC().Format("20060102T150405")
	}

	e.logger.Info("starting deploy", "app", e.cfg.App, "version", version)

	if err := e.hooks.Run(ctx, hookPreDeploy, e.cfg.Hooks.PreDeploy); err != nil {
		return nil, err
	}

	backupName, err := e.backupCurrent()
	if err != nil {
		return nil, err
	}

	if err := e.copySource(); err != nil {
		return nil, err
	}

	md := Metadata{
		Version:   version,
		Timestamp: time.Now().UTC(),
		Backup:    backupName,
	}
	if err := writeMetadata(e.cfg.DeployDir, md); err != nil {
		return nil, errors.Wrapf(ErrDeployFailed, "%v", err)
	}

	e.store.Prune(e.cfg.MaxBackups)

	res := &Result{Version: version, Backup: backupName}

	// The deploy has committed; a post hook failure is reported but does
	// not un-deploy anything.
	if err := e.hooks.Run(ctx, hookPostDeploy, e.cfg.Hooks.PostDeploy); err != nil {
		res.HookErr = err
	}

	e.logger.Info("deploy complete", "app", e.cfg.App, "version", version, "backup", backupName)
	return res, nil
}

// backupCurrent snapshots the deploy directory if it has contents.
// A first deploy has nothing to preserve, and a retention limit of zero
// disables backups entirely.
func (e *Engine) backupCurrent() (string, error) {
	if e.cfg.MaxBackups == 0 {
		e.logger.Warn("backups disabled (max_backups = 0), rollback will not be possible")
		return "", nil
	}

	hasContents, err := fsutil.HasEntries(e.cfg.DeployDir)
	if err != nil {
		return "", errors.Wrapf(ErrBackupFailed, "%v", err)
	}
	if !hasContents {
		e.logger.Info("no existing deployment to back up")
		return "", nil
	}

	name, err := e.store.Create(e.cfg.DeployDir)
	if err != nil {
		return "", errors.Wrapf(ErrBackupFailed, "%v", err)
	}
	return name, nil
}

// copySource clears the deploy directory and copies the source tree in.
func (e *Engine) copySource() error {
	info, err := os.Stat(e.cfg.SourceDir)
	if err != nil {
		return errors.Wrapf(ErrDeployFailed, "source directory %s: %v", e.cfg.SourceDir, err)
	}
	if !info.IsDir() {
		return errors.Wrapf(ErrDeployFailed, "source %s is not a directory", e.cfg.SourceDir)
	}

	if err := os.MkdirAll(e.cfg.DeployDir, 0o755); err != nil {
		return errors.Wrapf(ErrDeployFailed, "creating deploy directory: %v", err)
	}
	if err := fsutil.ClearDir(e.cfg.DeployDir); err != nil {
		return errors.Wrapf(ErrDeployFailed, "clearing deploy directory: %v", err)
	}

	e.logger.Info("deploying", "source", e.cfg.SourceDir, "destination", e.cfg.DeployDir)
	if err := fsutil.CopyDir(e.cfg.SourceDir, e.cfg.DeployDir); err != nil {
		return errors.Wrapf(ErrDeployFailed, "copying source: %v", err)
	}

	return nil
}

// Rollback restores the deploy directory to a previous backup. With an
// empty backupName the most recent backup is used; a named backup is
// restored regardless of recency. Returns store.ErrNoBackups when nothing
// can be restored and store.ErrNotFound for an unknown name.
//
// With retention disabled (MaxBackups == 0) rollback fails with
// store.ErrNoBackups unconditionally, even when backups from an earlier
// retention setting are still on disk.
func (e *Engine) Rollback(ctx context.Context, backupName string) (*Result, error) {
	if e.cfg.MaxBackups == 0 {
		return nil, errors.Wrap(store.ErrNoBackups, "backups are disabled (max_backups = 0)")
	}

	e.logger.Info("starting rollback", "app", e.cfg.App, "backup", backupName)

	if err := e.hooks.Run(ctx, hookPreRollback, e.cfg.Hooks.PreRollback); err != nil {
		return nil, err
	}

	target, err := e.resolveTarget(backupName)
	if err != nil {
		return nil, err
	}

	if err := e.store.Restore(target.Name, e.cfg.DeployDir); err != nil {
		return nil, errors.Wrapf(ErrDeployFailed, "%v", err)
	}

	md := Metadata{
		Version:   fmt.Sprintf("rollback-%s", target.Name),
		Timestamp: time.Now().UTC(),
	}
	if err := writeMetadata(e.cfg.DeployDir, md); err != nil {
		return nil, errors.Wrapf(ErrDeployFailed, "%v", err)
	}

	res := &Result{Version: md.Version, Backup: ""}

	if err := e.hooks.Run(ctx, hookPostRollback, e.cfg.Hooks.PostRollback); err != nil {
		res.HookErr = err
	}

	e.logger.Info("rollback complete", "app", e.cfg.App, "backup", target.Name)
	return res, nil
}

// resolveTarget picks the backup to restore.
func (e *Engine) resolveTarget(name string) (store.Backup, error) {
	if name != "" {
		return e.store.Get(name)
	}

	backups, err := e.store.List()
	if err != nil {
		return store.Backup{}, errors.Wrap(err, "listing backups")
	}
	if len(backups) == 0 {
		return store.Backup{}, store.ErrNoBackups
	}
	return backups[0], nil
}

// Status describes the current deployment state.
type Status struct {
	// Deployed reports whether the deploy directory currently has contents.
	Deployed bool `json:"deployed"`

	// DeployDir is the live deployment location.
	DeployDir string `json:"deploy_dir"`

	// Metadata is the current deployment record, nil if none exists yet.
	Metadata *Metadata `json:"metadata"`

	// AvailableBackups is the number of restorable backups.
	AvailableBackups int `json:"available_backups"`
}

// Status reports the current deployment state. It never fails: unreadable
// metadata or backup listings degrade to an empty view.
func (e *Engine) Status() Status {
	st := Status{DeployDir: e.cfg.DeployDir}

	deployed, err := fsutil.HasEntries(e.cfg.DeployDir)
	if err != nil {
		e.logger.Warn("reading deploy directory failed", "error", err)
	}
	st.Deployed = deployed

	md, ok, err := readMetadata(e.cfg.DeployDir)
	if err != nil {
		e.logger.Warn("reading deployment metadata failed", "error", err)
	} else if ok {
		st.Metadata = &md
	}

	backups, err := e.store.List()
	if err != nil {
		e.logger.Warn("listing backups failed", "error", err)
	}
	st.AvailableBackups = len(backups)

	return st
}

// ListBackups returns all restorable backups, most recent first.
func (e *Engine) ListBackups() ([]store.Backup, error) {
	return e.store.List()
}
