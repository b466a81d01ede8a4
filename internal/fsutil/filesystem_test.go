package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOSFileSystem_CreateAndOpen(t *testing.T) {
	var fsys OSFileSystem
	dir := filepath.Join(t.TempDir(), "plots", "run")

	if err := fsys.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	path := filepath.Join(dir, "speeds.csv")

	w, err := fsys.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("31.2\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if !fsys.Exists(path) {
		t.Errorf("Exists(%q) = false, want true", path)
	}

	f, err := fsys.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "31.2\n" {
		t.Errorf("read %q, want %q", data, "31.2\n")
	}

	data, err = fsys.ReadFile(path)
	if err != nil || string(data) != "31.2\n" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}
}

func TestOSFileSystem_ExistsMissing(t *testing.T) {
	var fsys OSFileSystem
	if fsys.Exists(filepath.Join(t.TempDir(), "missing.csv")) {
		t.Error("Exists returned true for a missing file")
	}
}

func TestMemoryFileSystem_AddFileAndOpen(t *testing.T) {
	m := NewMemoryFileSystem()
	m.AddFile("data/speeds.csv", []byte("28.4\n33.0\n"))

	f, err := m.Open("data/./speeds.csv")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Name() != "speeds.csv" || info.Size() != 10 || info.IsDir() {
		t.Errorf("unexpected file info: name=%s size=%d dir=%v", info.Name(), info.Size(), info.IsDir())
	}

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "28.4\n33.0\n" {
		t.Errorf("read %q", data)
	}
}

func TestMemoryFileSystem_OpenNonExistent(t *testing.T) {
	m := NewMemoryFileSystem()
	_, err := m.Open("nope.csv")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open error = %v, want fs.ErrNotExist", err)
	}
	_, err = m.ReadFile("nope.csv")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile error = %v, want fs.ErrNotExist", err)
	}
}

func TestMemoryFileSystem_CreateRequiresDirectory(t *testing.T) {
	m := NewMemoryFileSystem()
	if _, err := m.Create("plots/histogram.png"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Create without parent error = %v, want fs.ErrNotExist", err)
	}

	if err := m.MkdirAll("plots/20260101_120000", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if !m.Exists("plots") || !m.Exists("plots/20260101_120000") {
		t.Error("MkdirAll did not record parent directories")
	}

	w, err := m.Create("plots/20260101_120000/histogram.png")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, _ = w.Write([]byte("png"))
	_, _ = w.Write([]byte("-data"))

	// Nothing is visible until Close.
	if data, _ := m.ReadFile("plots/20260101_120000/histogram.png"); len(data) != 0 {
		t.Errorf("data visible before Close: %q", data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	data, err := m.ReadFile("plots/20260101_120000/histogram.png")
	if err != nil || string(data) != "png-data" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}
}

func TestMemoryFileSystem_Files(t *testing.T) {
	m := NewMemoryFileSystem()
	m.AddFile("out/b.png", nil)
	m.AddFile("out/a.html", nil)
	m.AddFile("other/c.png", nil)

	want := []string{"out/a.html", "out/b.png"}
	if diff := cmp.Diff(want, m.Files("out")); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryFileSystem_DataIsolation(t *testing.T) {
	m := NewMemoryFileSystem()
	src := []byte("40.0")
	m.AddFile("x.csv", src)
	src[0] = '9'

	data, _ := m.ReadFile("x.csv")
	if string(data) != "40.0" {
		t.Errorf("stored data changed with caller slice: %q", data)
	}
	data[0] = '7'
	again, _ := m.ReadFile("x.csv")
	if string(again) != "40.0" {
		t.Errorf("stored data changed with returned slice: %q", again)
	}
}
