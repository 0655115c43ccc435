package speech

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voicerelay/internal/config"
)

func testConfig(baseURL string) config.SpeechConfig {
	return config.SpeechConfig{
		APIKey:   "test-key",
		BaseURL:  baseURL,
		STTModel: "whisper-1",
		TTSModel: "tts-1",
		Voice:    "alloy",
	}
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if model := r.FormValue("model"); model != "whisper-1" {
			t.Errorf("unexpected model %q", model)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
		} else {
			defer file.Close()
			if header.Filename != "recording.m4a" {
				t.Errorf("unexpected filename %q", header.Filename)
			}
			data, _ := io.ReadAll(file)
			if string(data) != "audio-bytes" {
				t.Errorf("unexpected audio content %q", data)
			}
		}
		_, _ = io.WriteString(w, `{"text": "schedule a meeting"}`)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	text, err := c.Transcribe(context.Background(), strings.NewReader("audio-bytes"), "recording.m4a")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "schedule a meeting" {
		t.Fatalf("unexpected transcript %q", text)
	}
}

func TestTranscribeLanguageHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if lang := r.FormValue("language"); lang != "es" {
			t.Errorf("unexpected language %q", lang)
		}
		_, _ = io.WriteString(w, `{"text": "hola"}`)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Language = "es"
	c := NewClient(cfg)
	if _, err := c.Transcribe(context.Background(), strings.NewReader("x"), "a.wav"); err != nil {
		t.Fatalf("transcribe: %v", err)
	}
}

func TestTranscribeNotConfigured(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls++
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.APIKey = ""
	c := NewClient(cfg)
	_, err := c.Transcribe(context.Background(), strings.NewReader("x"), "a.wav")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("no upstream call expected without a key")
	}
}

func TestTranscribeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.Transcribe(context.Background(), strings.NewReader("x"), "a.wav")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		for _, want := range []string{`"model":"tts-1"`, `"voice":"alloy"`, `"input":"all done"`, `"response_format":"mp3"`} {
			if !strings.Contains(string(body), want) {
				t.Errorf("request body missing %s: %s", want, body)
			}
		}
		_, _ = w.Write([]byte("mp3-binary"))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	audio, err := c.Synthesize(context.Background(), "all done")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if !bytes.Equal(audio, []byte("mp3-binary")) {
		t.Fatalf("unexpected audio %q", audio)
	}
}

func TestSynthesizeNotConfigured(t *testing.T) {
	cfg := testConfig("http://example.invalid")
	cfg.APIKey = ""
	c := NewClient(cfg)
	_, err := c.Synthesize(context.Background(), "hello")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSynthesizeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.Synthesize(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
