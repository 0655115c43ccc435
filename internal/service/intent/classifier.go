package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	openaiacl "github.com/cloudwego/eino-ext/libs/acl/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"voicerelay/internal/config"
	"voicerelay/internal/models"
)

// ErrNotConfigured is returned when the selected provider has no API key.
var ErrNotConfigured = errors.New("intent service not configured")

// classifyTemperature keeps sampling close to deterministic so the same
// transcript maps to the same intent.
const classifyTemperature float32 = 0.1

const systemPrompt = `You are an intent parser for a voice-driven task automation system.
Parse the user's natural language input into a structured JSON intent.

Return JSON in this exact format:
{
  "action": "action_type",
  "title": "descriptive title",
  "time": "ISO timestamp if time-related",
  "details": "additional context",
  "confidence": 0.95
}

Supported actions:
- "create_event" - calendar events, meetings, appointments
- "create_task" - todos, reminders, tasks
- "send_message" - emails, texts, slack messages
- "set_reminder" - time-based reminders
- "search_info" - look up information
- "unknown" - when intent is unclear

Guidelines:
- Extract specific times and convert to ISO format
- If no specific time, use null for time field
- Include confidence score (0.0-1.0)
- Be precise with action classification`

// Classifier turns free text into a typed Intent via one chat-completion
// call against the configured provider.
type Classifier struct {
	chatModel model.BaseChatModel
}

// NewClassifier builds the chat model for the configured provider. A missing
// API key is not a construction error: the classifier is created disabled
// and reports ErrNotConfigured per request, mirroring how the speech client
// behaves.
func NewClassifier(ctx context.Context, cfg config.IntentConfig) (*Classifier, error) {
	provCfg, ok := cfg.Providers[cfg.Provider]
	if !ok || provCfg.APIKey == "" {
		return &Classifier{}, nil
	}

	var (
		chatModel model.BaseChatModel
		err       error
	)
	switch cfg.Provider {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
			ResponseFormat: &openaiacl.ChatCompletionResponseFormat{
				Type: openaiacl.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 512,
		})
	case "gemini":
		client, cerr := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if cerr != nil {
			return nil, fmt.Errorf("create gemini client: %w", cerr)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  provCfg.Model,
		})
	default:
		return nil, fmt.Errorf("invalid intent provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s chat model: %w", cfg.Provider, err)
	}
	return &Classifier{chatModel: chatModel}, nil
}

// Classify issues one completion call and parses the JSON reply. A reply
// that is not valid JSON is fatal for the request: no retry, no repair.
func (c *Classifier) Classify(ctx context.Context, text string) (*models.Intent, error) {
	if c.chatModel == nil {
		return nil, ErrNotConfigured
	}

	reply, err := c.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(text),
	}, model.WithTemperature(classifyTemperature))
	if err != nil {
		return nil, fmt.Errorf("generate intent: %w", err)
	}
	if reply == nil || strings.TrimSpace(reply.Content) == "" {
		return nil, errors.New("empty response from model")
	}

	content := stripFences(reply.Content)

	var parsed models.Intent
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("parsing intent JSON (%s): %w", content, err)
	}
	parsed.Normalize()
	return &parsed, nil
}

// Some providers wrap JSON replies in markdown fences even when told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
