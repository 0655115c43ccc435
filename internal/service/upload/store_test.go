package upload

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}
	files := req.MultipartForm.File["audio"]
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	return files[0]
}

func TestSaveAllowedExtensions(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, name := range []string{
		"cmd.mp3", "cmd.mp4", "cmd.mpeg", "cmd.mpga", "cmd.m4a", "cmd.wav", "cmd.webm",
		"CMD.MP3", "cmd.WaV",
	} {
		path, err := store.Save(fileHeader(t, name, []byte("audio-bytes")))
		if err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read stored file: %v", err)
		}
		if string(data) != "audio-bytes" {
			t.Fatalf("stored content mismatch for %s", name)
		}
		wantExt := strings.ToLower(filepath.Ext(name))
		if got := filepath.Ext(path); got != wantExt {
			t.Fatalf("stored path %s should keep extension %s", path, wantExt)
		}
		if err := store.Remove(path); err != nil {
			t.Fatalf("remove: %v", err)
		}
	}
}

func TestSaveRejectsUnsupportedType(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, name := range []string{"doc.pdf", "notes.txt", "clip.ogg", "noext"} {
		_, err := store.Save(fileHeader(t, name, []byte("x")))
		if !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("expected ErrUnsupportedType for %s, got %v", name, err)
		}
	}
	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("rejected uploads must not leave files, found %d", len(entries))
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	path, err := store.Save(fileHeader(t, "cmd.wav", []byte("x")))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Remove(path); err != nil {
		t.Fatalf("first remove: %v", err)
	}
	if err := store.Remove(path); err != nil {
		t.Fatalf("second remove should not fail: %v", err)
	}
}

func TestSaveGeneratesUniqueNames(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	first, err := store.Save(fileHeader(t, "cmd.wav", []byte("a")))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := store.Save(fileHeader(t, "cmd.wav", []byte("b")))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if first == second {
		t.Fatalf("expected unique stored paths, both were %s", first)
	}
}

func TestSweepRemovesStaleFiles(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	stale, err := store.Save(fileHeader(t, "old.mp3", []byte("x")))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	fresh, err := store.Save(fileHeader(t, "new.mp3", []byte("y")))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if err := store.sweepOnce(time.Hour); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale file should be swept")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh file should survive sweep: %v", err)
	}
}
