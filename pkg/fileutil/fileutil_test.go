package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindFileCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Main.SNR"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := FindFileCaseInsensitive(dir, "main.snr")
	if err != nil {
		t.Fatalf("FindFileCaseInsensitive failed: %v", err)
	}
	if want := filepath.Join(dir, "Main.SNR"); got != want {
		t.Errorf("found %q, want %q", got, want)
	}
}

func TestFindFileCaseInsensitiveMissing(t *testing.T) {
	if _, err := FindFileCaseInsensitive(t.TempDir(), "nope.bin"); err == nil {
		t.Error("missing file did not error")
	}
}

func TestFindFileCaseInsensitiveSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "entry"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := FindFileCaseInsensitive(dir, "entry"); err == nil {
		t.Error("directory matched a file lookup")
	}
}

func TestResolveCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "Picture"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "Picture", "Title.PIC"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveCaseInsensitive(root, "picture/title.pic")
	if err != nil {
		t.Fatalf("ResolveCaseInsensitive failed: %v", err)
	}
	if want := filepath.Join(root, "Picture", "Title.PIC"); got != want {
		t.Errorf("resolved %q, want %q", got, want)
	}
}

func TestResolveCaseInsensitiveExactMatchWins(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "main.snr"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveCaseInsensitive(root, "main.snr")
	if err != nil {
		t.Fatalf("ResolveCaseInsensitive failed: %v", err)
	}
	if want := filepath.Join(root, "main.snr"); got != want {
		t.Errorf("resolved %q, want %q", got, want)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "save.bin")
	if err := WriteFileAtomic(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("file contents = %q, want %q", data, "payload")
	}

	// No temporary files may be left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries after write, want 1", len(entries))
	}
}

func TestWriteFileAtomicOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.bin")
	if err := WriteFileAtomic(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new" {
		t.Errorf("file contents = %q, want %q", data, "new")
	}
}
