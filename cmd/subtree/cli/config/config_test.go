package config

import (
	"os"
	"os/exec"
	"testing"

	"github.com/subtreecli/subtree/cmd/subtree/cli/paths"
)

func chdirGitRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cmd := exec.Command("git", "init")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git init: %v\n%s", err, out)
	}
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Chdir(oldwd)
		paths.ClearRepoRootCache()
	})
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	paths.ClearRepoRootCache()
	return dir
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	chdirGitRepo(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("got %q, want info", cfg.LogLevel)
	}
	if cfg.Telemetry != nil {
		t.Fatal("expected telemetry to be unset (nil) by default")
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	chdirGitRepo(t)
	cfg := &Config{LogLevel: "debug"}
	cfg.RememberPrefixDefaults("vendor/lib", PrefixDefaults{
		Remote: "https://example.com/lib.git",
		Branch: "main",
		Squash: true,
	})

	if err := Save(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.LogLevel != "debug" {
		t.Fatalf("got %q, want debug", loaded.LogLevel)
	}
	d := loaded.PrefixDefaultsFor("vendor/lib")
	if d.Remote != "https://example.com/lib.git" || d.Branch != "main" || !d.Squash {
		t.Fatalf("got %+v", d)
	}
}

func TestLocalConfigOverridesCommittedConfig(t *testing.T) {
	chdirGitRepo(t)
	if err := Save(&Config{LogLevel: "debug"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	localPath, err := paths.AbsPath(paths.SubtreeConfigLocalFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(localPath, []byte(`{"log_level":"warn"}`), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.LogLevel != "warn" {
		t.Fatalf("got %q, want local override warn", loaded.LogLevel)
	}
}

func TestPrefixDefaultsForUnknownPrefixIsZeroValue(t *testing.T) {
	chdirGitRepo(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := cfg.PrefixDefaultsFor("does/not/exist")
	if d != (PrefixDefaults{}) {
		t.Fatalf("got %+v, want zero value", d)
	}
}
