package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRepoNameFromURL(t *testing.T) {
	cases := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "https://github.com/waabox/myrepo.git", want: "myrepo"},
		{url: "https://github.com/waabox/myrepo", want: "myrepo"},
		{url: "git@github.com:waabox/myrepo.git", want: "myrepo"},
		{url: "git@github.com:myrepo.git", want: "myrepo"},
		{url: "git@github.com", wantErr: true},
		{url: "", wantErr: true},
	}
	for _, c := range cases {
		got, err := RepoNameFromURL(c.url)
		if c.wantErr {
			if err == nil {
				t.Errorf("url %q: expected error, got %q", c.url, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("url %q: unexpected error: %v", c.url, err)
			continue
		}
		if got != c.want {
			t.Errorf("url %q: want %q, got %q", c.url, c.want, got)
		}
	}
}

func TestClone_BuildsDestinationFromURL(t *testing.T) {
	var gotArgs []string
	restore := runGit
	runGit = func(_ context.Context, args ...string) error {
		gotArgs = args
		return nil
	}
	defer func() { runGit = restore }()

	dir := t.TempDir()
	dest, err := Clone(context.Background(), "https://github.com/waabox/myrepo.git", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(dir, "myrepo")
	if dest != want {
		t.Errorf("dest: want %q, got %q", want, dest)
	}
	if len(gotArgs) != 3 || gotArgs[0] != "clone" || gotArgs[2] != want {
		t.Errorf("unexpected git args: %v", gotArgs)
	}
}

func TestClone_RefusesExistingDestination(t *testing.T) {
	restore := runGit
	runGit = func(_ context.Context, _ ...string) error {
		t.Error("git must not run when the destination exists")
		return nil
	}
	defer func() { runGit = restore }()

	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "myrepo"), 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := Clone(context.Background(), "https://github.com/waabox/myrepo.git", dir); err == nil {
		t.Error("expected an error for existing destination")
	}
}
