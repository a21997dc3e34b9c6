package osfilesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSystem_WriteAndReadFile(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "frame.yuv")

	if err := fs.WriteFile(path, []byte{0x10, 0x80, 0x80}); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "\x10\x80\x80" {
		t.Errorf("unexpected contents %v", data)
	}
}

func TestFileSystem_WriteFileCreatesParentDirs(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "out", "previews", "frame_0.bmp")

	if err := fs.WriteFile(path, []byte("BM")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	exists, err := fs.Exists(path)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected file to exist")
	}
}

func TestFileSystem_Create(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "nested", "stream.yuv")

	w, err := fs.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	for _, chunk := range []string{"abc", "def"} {
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "abcdef" {
		t.Errorf("expected streamed contents, got %q", data)
	}

	// Create truncates.
	w, err = fs.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	w.Close()
	if data, _ := os.ReadFile(path); len(data) != 0 {
		t.Errorf("expected truncated file, got %d bytes", len(data))
	}
}

func TestFileSystem_MkdirAll(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "a", "b", "c")

	if err := fs.MkdirAll(path); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		t.Errorf("expected directory, got %v", err)
	}
}

func TestFileSystem_Exists(t *testing.T) {
	fs := New()
	dir := t.TempDir()

	exists, err := fs.Exists(filepath.Join(dir, "missing.yuv"))
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected file to not exist")
	}

	exists, err = fs.Exists(dir)
	if err != nil || !exists {
		t.Errorf("expected directory to exist, got %v %v", exists, err)
	}
}
