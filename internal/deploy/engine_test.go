package deploy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/stevedore/internal/config"
	"github.com/thoreinstein/stevedore/internal/hooks"
	"github.com/thoreinstein/stevedore/internal/logging"
	"github.com/thoreinstein/stevedore/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		App:        "app",
		SourceDir:  filepath.Join(root, "src"),
		DeployDir:  filepath.Join(root, "deploy"),
		BackupDir:  filepath.Join(root, "backups"),
		MaxBackups: 5,
	}
}

func testEngine(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()
	return New(cfg, WithLogger(logging.ForTest(t)))
}

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readTree(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[rel] = string(data)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return files
}

func assertTree(t *testing.T, dir string, want map[string]string) {
	t.Helper()
	got := readTree(t, dir)
	if len(got) != len(want) {
		t.Fatalf("tree %s has %d files, want %d (%v)", dir, len(got), len(want), got)
	}
	for rel, content := range want {
		if got[rel] != content {
			t.Errorf("%s: content %q, want %q", rel, got[rel], content)
		}
	}
}

func TestDeploy_FirstDeploy(t *testing.T) {
	cfg := testConfig(t)
	v1 := map[string]string{"index.html": "v1", "static/app.js": "js"}
	writeTree(t, cfg.SourceDir, v1)

	e := testEngine(t, cfg)

	res, err := e.Deploy(context.Background(), "v1")
	if err != nil {
		t.Fatalf("Deploy() error: %v", err)
	}

	assertTree(t, cfg.DeployDir, v1)

	if res.Version != "v1" {
		t.Errorf("version = %q, want v1", res.Version)
	}
	// First deploy has nothing to preserve
	if res.Backup != "" {
		t.Errorf("expected no backup on first deploy, got %q", res.Backup)
	}

	backups, err := e.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups, got %d", len(backups))
	}

	st := e.Status()
	if st.Metadata == nil {
		t.Fatal("expected metadata after deploy")
	}
	if st.Metadata.Version != "v1" || st.Metadata.Backup != "" {
		t.Errorf("metadata = %+v", st.Metadata)
	}
}

func TestDeploy_GeneratesVersionLabel(t *testing.T) {
	cfg := testConfig(t)
	writeTree(t, cfg.SourceDir, map[string]string{"f": "x"})

	res, err := testEngine(t, cfg).Deploy(context.Background(), "")
	if err != nil {
		t.Fatalf("Deploy() error: %v", err)
	}
	if res.Version == "" {
		t.Error("expected a generated version label")
	}
}

func TestDeploy_BacksUpPreviousState(t *testing.T) {
	cfg := testConfig(t)
	v1 := map[string]string{"index.html": "v1"}
	v2 := map[string]string{"index.html": "v2", "new.html": "n"}

	e := testEngine(t, cfg)

	writeTree(t, cfg.SourceDir, v1)
	if _, err := e.Deploy(context.Background(), "v1"); err != nil {
		t.Fatal(err)
	}

	writeTree(t, cfg.SourceDir, v2)
	res, err := e.Deploy(context.Background(), "v2")
	if err != nil {
		t.Fatal(err)
	}

	assertTree(t, cfg.DeployDir, v2)

	if res.Backup == "" {
		t.Fatal("expected a backup of the previous state")
	}

	backups, err := e.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Fatalf("expected exactly one backup, got %d", len(backups))
	}
	// The backup holds the pre-deploy contents
	assertTree(t, backups[0].Path, v1)

	st := e.Status()
	if st.Metadata.Backup != res.Backup {
		t.Errorf("metadata backup = %q, want %q", st.Metadata.Backup, res.Backup)
	}
}

func TestDeploy_RetentionScenario(t *testing.T) {
	// max_backups=2; deploy v1, v2, v3 from distinct trees; exactly the
	// pre-v2 and pre-v3 states survive, and rollback() restores pre-v3.
	cfg := testConfig(t)
	cfg.MaxBackups = 2

	v1 := map[string]string{"index.html": "v1"}
	v2 := map[string]string{"index.html": "v2"}
	v3 := map[string]string{"index.html": "v3"}

	e := testEngine(t, cfg)

	for _, v := range []struct {
		label string
		tree  map[string]string
	}{
		{"v1", v1}, {"v2", v2}, {"v3", v3},
	} {
		writeTree(t, cfg.SourceDir, v.tree)
		if _, err := e.Deploy(context.Background(), v.label); err != nil {
			t.Fatalf("deploy %s: %v", v.label, err)
		}
	}

	backups, err := e.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 retained backups, got %d", len(backups))
	}
	assertTree(t, backups[0].Path, v2) // pre-v3
	assertTree(t, backups[1].Path, v1) // pre-v2

	if _, err := e.Rollback(context.Background(), ""); err != nil {
		t.Fatalf("Rollback() error: %v", err)
	}
	assertTree(t, cfg.DeployDir, v2)
}

func TestDeploy_PreHookFailureLeavesStateUnchanged(t *testing.T) {
	cfg := testConfig(t)
	v1 := map[string]string{"index.html": "v1"}

	e := testEngine(t, cfg)
	writeTree(t, cfg.SourceDir, v1)
	if _, err := e.Deploy(context.Background(), "v1"); err != nil {
		t.Fatal(err)
	}

	cfg.Hooks.PreDeploy = []string{"exit 1"}
	writeTree(t, cfg.SourceDir, map[string]string{"index.html": "v2"})

	_, err := e.Deploy(context.Background(), "v2")
	if err == nil {
		t.Fatal("expected deploy to abort")
	}
	var hookErr *hooks.Error
	if !errors.As(err, &hookErr) {
		t.Fatalf("expected *hooks.Error, got %T: %v", err, err)
	}

	// Nothing on disk changed
	assertTree(t, cfg.DeployDir, v1)
	st := e.Status()
	if st.Metadata.Version != "v1" {
		t.Errorf("metadata version = %q, want v1", st.Metadata.Version)
	}
	backups, err := e.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 0 {
		t.Errorf("pre-hook failure must not create a backup, got %d", len(backups))
	}
}

func TestDeploy_PostHookFailureStillCommits(t *testing.T) {
	cfg := testConfig(t)
	cfg.Hooks.PostDeploy = []string{"exit 1"}
	v1 := map[string]string{"index.html": "v1"}
	writeTree(t, cfg.SourceDir, v1)

	e := testEngine(t, cfg)

	res, err := e.Deploy(context.Background(), "v1")
	if err != nil {
		t.Fatalf("post-hook failure must not fail the deploy: %v", err)
	}
	if res.HookErr == nil {
		t.Fatal("expected HookErr to carry the post_deploy failure")
	}

	assertTree(t, cfg.DeployDir, v1)
	st := e.Status()
	if st.Metadata == nil || st.Metadata.Version != "v1" {
		t.Errorf("status should report the new version as deployed, got %+v", st.Metadata)
	}
}

func TestDeploy_MissingSource(t *testing.T) {
	cfg := testConfig(t)

	_, err := testEngine(t, cfg).Deploy(context.Background(), "v1")
	if !errors.Is(err, ErrDeployFailed) {
		t.Errorf("expected ErrDeployFailed, got %v", err)
	}
}

func TestDeploy_MaxBackupsZero(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxBackups = 0

	e := testEngine(t, cfg)

	writeTree(t, cfg.SourceDir, map[string]string{"f": "v1"})
	if _, err := e.Deploy(context.Background(), "v1"); err != nil {
		t.Fatal(err)
	}
	writeTree(t, cfg.SourceDir, map[string]string{"f": "v2"})
	res, err := e.Deploy(context.Background(), "v2")
	if err != nil {
		t.Fatal(err)
	}

	if res.Backup != "" {
		t.Errorf("max_backups=0 must not create backups, got %q", res.Backup)
	}

	// Rollback is impossible and must fail explicitly
	if _, err := e.Rollback(context.Background(), ""); !errors.Is(err, store.ErrNoBackups) {
		t.Errorf("expected ErrNoBackups, got %v", err)
	}
}

func TestRollback_DisabledRetentionIgnoresStaleBackups(t *testing.T) {
	// Backups created under an earlier retention setting may still be on
	// disk after max_backups is set to 0. They must not be restorable.
	cfg := testConfig(t)
	v1 := map[string]string{"index.html": "v1"}
	v2 := map[string]string{"index.html": "v2"}

	e := testEngine(t, cfg)
	writeTree(t, cfg.SourceDir, v1)
	if _, err := e.Deploy(context.Background(), "v1"); err != nil {
		t.Fatal(err)
	}
	writeTree(t, cfg.SourceDir, v2)
	if _, err := e.Deploy(context.Background(), "v2"); err != nil {
		t.Fatal(err)
	}

	backups, err := e.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Fatalf("expected 1 stale backup, got %d", len(backups))
	}

	cfg.MaxBackups = 0

	if _, err := e.Rollback(context.Background(), ""); !errors.Is(err, store.ErrNoBackups) {
		t.Errorf("expected ErrNoBackups, got %v", err)
	}
	if _, err := e.Rollback(context.Background(), backups[0].Name); !errors.Is(err, store.ErrNoBackups) {
		t.Errorf("expected ErrNoBackups for named rollback, got %v", err)
	}

	// The deploy directory is untouched
	assertTree(t, cfg.DeployDir, v2)
}

func TestRollback_NoBackups(t *testing.T) {
	cfg := testConfig(t)
	v1 := map[string]string{"index.html": "v1"}
	writeTree(t, cfg.SourceDir, v1)

	e := testEngine(t, cfg)
	if _, err := e.Deploy(context.Background(), "v1"); err != nil {
		t.Fatal(err)
	}

	_, err := e.Rollback(context.Background(), "")
	if !errors.Is(err, store.ErrNoBackups) {
		t.Fatalf("expected ErrNoBackups, got %v", err)
	}

	// The deploy directory is untouched
	assertTree(t, cfg.DeployDir, v1)
}

func TestRollback_UnknownName(t *testing.T) {
	cfg := testConfig(t)
	writeTree(t, cfg.SourceDir, map[string]string{"f": "x"})

	e := testEngine(t, cfg)
	if _, err := e.Deploy(context.Background(), "v1"); err != nil {
		t.Fatal(err)
	}

	_, err := e.Rollback(context.Background(), "app-20260101T000000-001")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRollback_RoundTrip(t *testing.T) {
	// deploy(A) → deploy(B) → rollback() → contents equal A again
	cfg := testConfig(t)
	treeA := map[string]string{"index.html": "A", "static/app.js": "a"}
	treeB := map[string]string{"index.html": "B"}

	e := testEngine(t, cfg)

	writeTree(t, cfg.SourceDir, treeA)
	if _, err := e.Deploy(context.Background(), "A"); err != nil {
		t.Fatal(err)
	}
	writeTree(t, cfg.SourceDir, treeB)
	if _, err := e.Deploy(context.Background(), "B"); err != nil {
		t.Fatal(err)
	}

	res, err := e.Rollback(context.Background(), "")
	if err != nil {
		t.Fatalf("Rollback() error: %v", err)
	}

	assertTree(t, cfg.DeployDir, treeA)

	// Metadata references the restoration, with the preceding-backup
	// field cleared
	st := e.Status()
	if st.Metadata.Version != res.Version {
		t.Errorf("metadata version = %q, want %q", st.Metadata.Version, res.Version)
	}
	if st.Metadata.Backup != "" {
		t.Errorf("rollback must clear the preceding-backup field, got %q", st.Metadata.Backup)
	}
}

func TestRollback_ExplicitName(t *testing.T) {
	cfg := testConfig(t)
	v1 := map[string]string{"index.html": "v1"}
	v2 := map[string]string{"index.html": "v2"}
	v3 := map[string]string{"index.html": "v3"}

	e := testEngine(t, cfg)
	for _, tree := range []map[string]string{v1, v2, v3} {
		writeTree(t, cfg.SourceDir, tree)
		if _, err := e.Deploy(context.Background(), ""); err != nil {
			t.Fatal(err)
		}
	}

	backups, err := e.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(backups))
	}

	// Restore the older backup explicitly, regardless of recency
	oldest := backups[len(backups)-1]
	res, err := e.Rollback(context.Background(), oldest.Name)
	if err != nil {
		t.Fatalf("Rollback() error: %v", err)
	}

	assertTree(t, cfg.DeployDir, v1)
	if res.Version != "rollback-"+oldest.Name {
		t.Errorf("version = %q, want rollback marker for %s", res.Version, oldest.Name)
	}
}

func TestRollback_PostHookFailureStillCommits(t *testing.T) {
	cfg := testConfig(t)
	cfg.Hooks.PostRollback = []string{"exit 1"}
	v1 := map[string]string{"index.html": "v1"}
	v2 := map[string]string{"index.html": "v2"}

	e := testEngine(t, cfg)
	writeTree(t, cfg.SourceDir, v1)
	if _, err := e.Deploy(context.Background(), "v1"); err != nil {
		t.Fatal(err)
	}
	writeTree(t, cfg.SourceDir, v2)
	if _, err := e.Deploy(context.Background(), "v2"); err != nil {
		t.Fatal(err)
	}

	res, err := e.Rollback(context.Background(), "")
	if err != nil {
		t.Fatalf("post-hook failure must not fail the rollback: %v", err)
	}
	if res.HookErr == nil {
		t.Fatal("expected HookErr to carry the post_rollback failure")
	}
	assertTree(t, cfg.DeployDir, v1)
}

func TestRollback_PreHookFailureAborts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Hooks.PreRollback = []string{"exit 1"}
	v1 := map[string]string{"index.html": "v1"}
	v2 := map[string]string{"index.html": "v2"}

	e := testEngine(t, cfg)
	writeTree(t, cfg.SourceDir, v1)
	if _, err := e.Deploy(context.Background(), "v1"); err != nil {
		t.Fatal(err)
	}
	writeTree(t, cfg.SourceDir, v2)
	if _, err := e.Deploy(context.Background(), "v2"); err != nil {
		t.Fatal(err)
	}

	_, err := e.Rollback(context.Background(), "")
	var hookErr *hooks.Error
	if !errors.As(err, &hookErr) {
		t.Fatalf("expected *hooks.Error, got %v", err)
	}

	// Deploy directory untouched
	assertTree(t, cfg.DeployDir, v2)
}

func TestStatus_NoDeployment(t *testing.T) {
	cfg := testConfig(t)

	st := testEngine(t, cfg).Status()

	if st.Deployed {
		t.Error("nothing deployed yet")
	}
	if st.Metadata != nil {
		t.Errorf("expected nil metadata, got %+v", st.Metadata)
	}
	if st.AvailableBackups != 0 {
		t.Errorf("expected 0 backups, got %d", st.AvailableBackups)
	}
}

func TestStatus_ReportsBackupCount(t *testing.T) {
	cfg := testConfig(t)
	e := testEngine(t, cfg)

	for i, content := range []string{"v1", "v2", "v3"} {
		writeTree(t, cfg.SourceDir, map[string]string{"f": content})
		if _, err := e.Deploy(context.Background(), ""); err != nil {
			t.Fatalf("deploy %d: %v", i, err)
		}
	}

	st := e.Status()
	if !st.Deployed {
		t.Error("expected deployed state")
	}
	if st.AvailableBackups != 2 {
		t.Errorf("expected 2 backups, got %d", st.AvailableBackups)
	}
}

func TestMetadataPath_OutsideDeployDir(t *testing.T) {
	p := MetadataPath("/srv/app/current")
	if p != "/srv/app/current.meta.json" {
		t.Errorf("MetadataPath() = %q", p)
	}
	if filepath.Dir(p) != "/srv/app" {
		t.Errorf("metadata must live alongside the deploy dir, got %q", p)
	}
}
