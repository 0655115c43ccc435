package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service. Every credential
// can also arrive through the environment so the service runs with no config
// file at all.
type Config struct {
	BasicConfig BasicConfig    `json:"basic_config"`
	Intent      IntentConfig   `json:"intent"`
	Speech      SpeechConfig   `json:"speech"`
	Workflow    WorkflowConfig `json:"workflow"`
}

type BasicConfig struct {
	ServerAddress        string `json:"server_address"`
	UploadDir            string `json:"upload_dir"`
	SweepIntervalMinutes int    `json:"sweep_interval_minutes"`
	SweepMaxAgeMinutes   int    `json:"sweep_max_age_minutes"`
}

// IntentConfig selects the chat model used for intent classification.
type IntentConfig struct {
	Provider  string                    `json:"provider"`
	Providers map[string]ProviderConfig `json:"providers"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

// SpeechConfig covers both transcription and synthesis.
type SpeechConfig struct {
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url"`
	STTModel string `json:"stt_model"`
	TTSModel string `json:"tts_model"`
	Voice    string `json:"voice"`
	Language string `json:"language"`
}

type WorkflowConfig struct {
	WebhookURL     string `json:"webhook_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Load reads configuration from the provided path. An empty path or a
// missing file is not an error: defaults plus environment variables are
// enough to run.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		file, err := os.Open(absPath)
		switch {
		case err == nil:
			defer file.Close()
			if err := json.NewDecoder(file).Decode(cfg); err != nil {
				return nil, fmt.Errorf("decode config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("open config %s: %w", absPath, err)
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if c.Speech.APIKey == "" {
			c.Speech.APIKey = key
		}
		if c.Intent.Providers == nil {
			c.Intent.Providers = make(map[string]ProviderConfig)
		}
		prov := c.Intent.Providers["openai"]
		if prov.APIKey == "" {
			prov.APIKey = key
			c.Intent.Providers["openai"] = prov
		}
	}
	if url := os.Getenv("N8N_WEBHOOK_URL"); url != "" && c.Workflow.WebhookURL == "" {
		c.Workflow.WebhookURL = url
	}
	if port := os.Getenv("PORT"); port != "" && c.BasicConfig.ServerAddress == "" {
		c.BasicConfig.ServerAddress = ":" + port
	}
}

func (c *Config) setDefaults() {
	if c.BasicConfig.ServerAddress == "" {
		c.BasicConfig.ServerAddress = ":8000"
	}
	if c.BasicConfig.UploadDir == "" {
		c.BasicConfig.UploadDir = "./uploads"
	}
	if c.BasicConfig.SweepIntervalMinutes <= 0 {
		c.BasicConfig.SweepIntervalMinutes = 10
	}
	if c.BasicConfig.SweepMaxAgeMinutes <= 0 {
		c.BasicConfig.SweepMaxAgeMinutes = 60
	}
	if c.Intent.Provider == "" {
		c.Intent.Provider = "openai"
	}
	if c.Intent.Providers == nil {
		c.Intent.Providers = make(map[string]ProviderConfig)
	}
	if prov := c.Intent.Providers["openai"]; prov.Model == "" {
		prov.Model = "gpt-4o-mini"
		c.Intent.Providers["openai"] = prov
	}
	if c.Speech.STTModel == "" {
		c.Speech.STTModel = "whisper-1"
	}
	if c.Speech.TTSModel == "" {
		c.Speech.TTSModel = "tts-1"
	}
	if c.Speech.Voice == "" {
		c.Speech.Voice = "alloy"
	}
	if c.Workflow.TimeoutSeconds <= 0 {
		c.Workflow.TimeoutSeconds = 30
	}
}
