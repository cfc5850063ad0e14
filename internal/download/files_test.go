package download

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestListDownloads(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	write := func(name string, age time.Duration) {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		ts := now.Add(-age)
		if err := os.Chtimes(path, ts, ts); err != nil {
			t.Fatalf("chtimes %s: %v", name, err)
		}
	}

	write("old.mp4", 2*time.Hour)
	write("new.mkv", 10*time.Minute)
	write("middle.webm", time.Hour)
	write("notes.txt", 0)
	write("partial.mp4.part", 0)
	if err := os.Mkdir(filepath.Join(dir, "sub.mp4"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := ListDownloads(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 media files, got %d", len(files))
	}
	want := []string{"new.mkv", "middle.webm", "old.mp4"}
	for i, name := range want {
		if files[i].Name != name {
			t.Fatalf("position %d: got %q want %q", i, files[i].Name, name)
		}
	}
	if files[0].SizeStr == "" || files[0].Modified == 0 {
		t.Fatalf("entry not filled: %+v", files[0])
	}
}

func TestListDownloadsMissingDir(t *testing.T) {
	files, err := ListDownloads(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected empty listing, got %d", len(files))
	}
}
