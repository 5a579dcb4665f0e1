package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pders01/feedsync/internal/records"
	"github.com/pders01/feedsync/internal/storage"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()

	w.Close()
	os.Stdout = old
	return <-outC
}

func TestVersionCommand(t *testing.T) {
	out := captureStdout(t, func() { versionCmd.Run(nil, nil) })

	// Version is "dev" by default in tests
	if !strings.Contains(out, "feedsync dev") {
		t.Errorf("Expected version output to contain 'feedsync dev', got: %s", out)
	}
	if !strings.Contains(out, "github.com/pders01/feedsync") {
		t.Errorf("Expected version output to contain 'github.com/pders01/feedsync', got: %s", out)
	}
}

func TestGenerateConfigCommand(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, ".config", "feedsync", "config.toml")
	t.Setenv("HOME", tmpDir)

	out := captureStdout(t, func() { configGenCmd.Run(nil, nil) })

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Errorf("Config file was not created at %s", configFile)
	}
	if !strings.Contains(out, "Generated default configuration at:") {
		t.Errorf("Expected output to contain 'Generated default configuration at:', got: %s", out)
	}
}

func writeTestConfig(t *testing.T, dir, dbPath string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`[notion]
feeds_db = "feeds"
posts_db = "posts"

[backend]
kind = "bolt"
path = %q

[feed]
allow_private_hosts = true
user_agent = "feedsync-test"

[log]
level = "off"
`, dbPath)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	rootCmd.SetArgs(nil)
	return out.String(), err
}

func TestImportRunAndListCommands(t *testing.T) {
	published := time.Now().UTC().Add(-time.Hour).Format(time.RFC1123Z)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title>
<item><title>Fresh post</title><link>http://example.org/fresh</link><pubDate>%s</pubDate></item>
</channel></rss>`, published)
	}))
	defer srv.Close()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "feedsync.db")
	cfgPath := writeTestConfig(t, dir, dbPath)

	sourceFile := filepath.Join(dir, "sources.toml")
	sources := fmt.Sprintf("[[feeds]]\ntitle = \"Local\"\nurl = %q\npriority = 1\n", srv.URL)
	if err := os.WriteFile(sourceFile, []byte(sources), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--config", cfgPath, "sources", "import", sourceFile)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, "Imported 1 sources") {
		t.Errorf("unexpected import output: %s", out)
	}

	out, err = execute(t, "--config", cfgPath, "run")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out, "Done !") {
		t.Errorf("Expected run output to contain 'Done !', got: %s", out)
	}

	out, err = execute(t, "--config", cfgPath, "posts", "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "Fresh post") || !strings.Contains(out, "1 posts") {
		t.Errorf("unexpected list output: %s", out)
	}

	store, err := storage.NewStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	posts, err := store.ListPosts("posts", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 || posts[0].Origin != "Local" || posts[0].Priority != 1 {
		t.Errorf("unexpected posts: %+v", posts)
	}
}

func TestRunCommandEmptyDatabase(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir, filepath.Join(dir, "empty.db"))

	_, err := execute(t, "--config", cfgPath, "run")
	if err == nil {
		t.Fatal("expected an error for an empty feeds database")
	}
	if !strings.Contains(err.Error(), records.ErrEmptySourceList.Error()) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSourcesRemoveCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "feedsync.db")
	cfgPath := writeTestConfig(t, dir, dbPath)

	store, err := storage.NewStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	saved, err := store.SaveSource("feeds", records.Source{Title: "Gone", URL: "http://example.org/feed"})
	store.Close()
	if err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--config", cfgPath, "sources", "remove", saved.ID)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if !strings.Contains(out, "Removed source "+saved.ID) {
		t.Errorf("unexpected remove output: %s", out)
	}

	_, err = execute(t, "--config", cfgPath, "sources", "remove", saved.ID)
	if err == nil || !strings.Contains(err.Error(), records.ErrNotFound.Error()) {
		t.Errorf("expected not found on second remove, got: %v", err)
	}
}
