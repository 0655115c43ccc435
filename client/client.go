// Package client is a typed HTTP client for the voicerelay service. It
// mirrors the mobile app's orchestration: transcribe, classify, dispatch in
// strict sequence, with spoken playback as a separate user-triggered step.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"voicerelay/internal/models"
)

// ErrPlaybackBusy is returned by Speak while a previous playback is still
// in flight.
var ErrPlaybackBusy = errors.New("playback already in progress")

// Player renders synthesized audio. Implementations are platform-specific;
// the client only guards against concurrent re-triggering.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	player     Player
	playing    atomic.Bool
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithPlayer(p Player) Option {
	return func(c *Client) { c.player = p }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PipelineResult bundles the output of one full voice-command round trip.
type PipelineResult struct {
	Transcript string
	Intent     *models.Intent
	Execution  *models.ExecutionResult
}

// Run sequences transcription, classification and dispatch. The first
// failing stage short-circuits the rest.
func (c *Client) Run(ctx context.Context, audio io.Reader, filename string) (*PipelineResult, error) {
	transcript, err := c.Transcribe(ctx, audio, filename)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	parsed, err := c.ParseIntent(ctx, transcript)
	if err != nil {
		return nil, fmt.Errorf("parse intent: %w", err)
	}
	execution, err := c.Execute(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	return &PipelineResult{
		Transcript: transcript,
		Intent:     parsed,
		Execution:  execution,
	}, nil
}

// Speak synthesizes text and plays it through the configured Player. Only
// one playback may be in flight at a time.
func (c *Client) Speak(ctx context.Context, text string) error {
	if c.player == nil {
		return errors.New("no player configured")
	}
	if !c.playing.CompareAndSwap(false, true) {
		return ErrPlaybackBusy
	}
	defer c.playing.Store(false)

	audio, err := c.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	return c.player.Play(ctx, audio)
}

func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

// Transcribe uploads one audio file as the multipart field "audio" and
// returns the transcript.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/stt", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return result.Text, nil
}

func (c *Client) ParseIntent(ctx context.Context, text string) (*models.Intent, error) {
	var parsed models.Intent
	if err := c.postJSON(ctx, "/intent", map[string]string{"text": text}, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (c *Client) Execute(ctx context.Context, in *models.Intent) (*models.ExecutionResult, error) {
	var result models.ExecutionResult
	if err := c.postJSON(ctx, "/execute", in, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Synthesize returns raw MP3 bytes for the given text.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tts", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var apiErr struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
		if apiErr.Details != "" {
			return fmt.Errorf("%s: %s", apiErr.Error, apiErr.Details)
		}
		return errors.New(apiErr.Error)
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}
