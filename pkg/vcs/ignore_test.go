package vcs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/gpmworks/gpm/pkg/vcs"
	"github.com/gpmworks/gpm/pkg/vcs/vcstest"
)

func TestIgnore(t *testing.T) {
	dir := t.TempDir()
	fake := vcstest.New()
	fake.AddRepo(dir, "master")

	for range 2 {
		if err := vcs.Ignore(fake, dir, "lib/core"); err != nil {
			t.Fatalf("Ignore: %v", err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, vcs.IgnoreFile))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "lib/core\n" {
		t.Errorf(".gitignore = %q, want one entry", data)
	}
	if n := len(fake.Repos[dir].Staged); n != 1 {
		t.Errorf("staged %d times, want 1", n)
	}
}

func TestIgnoreCoveredByPattern(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		entry    string
		want     string
	}{
		{"glob", "node_modules\nlib/**\n", "lib/core", "node_modules\nlib/**\n"},
		{"rooted", "/lib/\n", "lib", "/lib/\n"},
		{"no trailing newline", "dist", "lib/core", "dist\nlib/core\n"},
		{"negation ignored", "!lib/core\n", "lib/core", "!lib/core\nlib/core\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			fake := vcstest.New()
			fake.AddRepo(dir, "master")
			path := filepath.Join(dir, vcs.IgnoreFile)
			if err := os.WriteFile(path, []byte(tt.existing), 0o644); err != nil {
				t.Fatal(err)
			}
			if err := (vcs.GitIgnore{Client: fake}).Ignore(dir, tt.entry); err != nil {
				t.Fatalf("Ignore: %v", err)
			}
			data, _ := os.ReadFile(path)
			if string(data) != tt.want {
				t.Errorf(".gitignore = %q, want %q", data, tt.want)
			}
		})
	}
}

func TestInitFlow(t *testing.T) {
	fake := vcstest.New()
	repo := fake.AddRepo("/ws/lib", "master")
	repo.Remote = []string{"master"} // develop cannot be fetched

	err := vcs.InitFlow(context.Background(), fake, log.New(os.Stderr), "/ws/lib", vcs.FlowConfig{User: "alice"})
	if err != nil {
		t.Fatalf("InitFlow: %v", err)
	}
	want := map[string]string{
		"branch.master.merge":       "refs/heads/master",
		"branch.develop.merge":      "refs/heads/develop",
		"gitflow.branch.develop":    "develop",
		"gitflow.prefix.feature":    "feature/alice/",
		"gitflow.prefix.versiontag": "",
	}
	for k, v := range want {
		if got, ok := repo.Config[k]; !ok || got != v {
			t.Errorf("config %s = %q (set %v), want %q", k, got, ok, v)
		}
	}
	if !fake.Called("fetch /ws/lib develop") {
		t.Error("missing develop branch was not fetched")
	}

	name, err := vcs.FeatureBranchName(fake, "/ws/lib", "login")
	if err != nil || name != "feature/alice/login" {
		t.Errorf("FeatureBranchName = %q, %v", name, err)
	}
}

func TestInitFlowConfigError(t *testing.T) {
	fake := vcstest.New()
	fake.AddRepo("/ws/lib", "master")
	boom := errors.New("locked")
	fake.FailOn["config-set"] = boom
	err := vcs.InitFlow(context.Background(), fake, log.New(os.Stderr), "/ws/lib", vcs.FlowConfig{})
	if !errors.Is(err, boom) {
		t.Errorf("InitFlow error = %v, want %v", err, boom)
	}
}

func TestCurrentFeature(t *testing.T) {
	tests := []struct{ branch, want string }{
		{"feature/alice/login", "login"},
		{"develop", ""},
		{"feature/", ""},
	}
	for _, tt := range tests {
		fake := vcstest.New()
		fake.AddRepo("/ws/a", tt.branch)
		got, err := vcs.CurrentFeature(fake, "/ws/a")
		if err != nil || got != tt.want {
			t.Errorf("CurrentFeature(%q) = %q, %v; want %q", tt.branch, got, err, tt.want)
		}
	}
}
