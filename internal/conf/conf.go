package conf

import (
	"os"
	"strconv"
	"strings"

	"github.com/scamdefender/sheriff/internal/biz/usecase"
)

// Supported platforms
const (
	PlatformDiscord = "discord"
	PlatformFeishu  = "feishu"
)

// Supported backends
const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultModel         = "llama3.2-vision:latest"
	defaultAdminAddr     = "127.0.0.1:9876"
)

// Config represents application configuration
type Config struct {
	// Platform selects the chat platform adapter
	Platform string

	// Discord configuration
	Discord DiscordConfig

	// Feishu configuration
	Feishu FeishuConfig

	// Backend configuration
	Backend BackendConfig

	// Prompts configuration (YAML with env overrides)
	Prompts *PromptsConfig

	// Pins configuration
	Pins PinsConfig

	// Admin HTTP server address, empty disables it
	AdminAddr string

	// Debug mode
	Debug bool
}

// DiscordConfig contains Discord configuration
type DiscordConfig struct {
	Token string
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID     string
	AppSecret string
}

// BackendConfig contains classification backend configuration
type BackendConfig struct {
	Kind          string
	OllamaBaseURL string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	TextModel     string
	VisionModel   string
	RPS           float64 // 0 disables throttling
}

// PinsConfig contains pending-unpin store configuration
type PinsConfig struct {
	DBPath string // empty keeps pending unpins in memory
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	rps := 0.0
	if val := os.Getenv("BACKEND_RPS"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil && parsed >= 0 {
			rps = parsed
		}
	}

	adminAddr, ok := os.LookupEnv("ADMIN_ADDR")
	if !ok {
		adminAddr = defaultAdminAddr
	}

	// Load prompts from YAML, then apply env overrides
	promptsConfig, err := LoadPromptsConfig(os.Getenv("PROMPTS_CONFIG_PATH"))
	if err != nil {
		promptsConfig = DefaultPromptsConfig()
	}
	promptsConfig.applyEnv()

	return &Config{
		Platform: strings.ToLower(envOr("PLATFORM", PlatformDiscord)),
		Discord: DiscordConfig{
			Token: os.Getenv("DISCORD_TOKEN"),
		},
		Feishu: FeishuConfig{
			AppID:     os.Getenv("FEISHU_APP_ID"),
			AppSecret: os.Getenv("FEISHU_APP_SECRET"),
		},
		Backend: BackendConfig{
			Kind:          strings.ToLower(envOr("BACKEND", BackendOllama)),
			OllamaBaseURL: strings.TrimRight(envOr("OLLAMA_BASE_URL", defaultOllamaBaseURL), "/"),
			OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
			TextModel:     envOr("TEXT_MODEL", defaultModel),
			VisionModel:   envOr("VISION_MODEL", defaultModel),
			RPS:           rps,
		},
		Prompts: promptsConfig,
		Pins: PinsConfig{
			DBPath: os.Getenv("PIN_DB_PATH"),
		},
		AdminAddr: adminAddr,
		Debug:     os.Getenv("DEBUG") == "true",
	}
}

// ToClassifierConfig converts to classification gateway configuration
func (c *Config) ToClassifierConfig() usecase.ClassifierConfig {
	return usecase.ClassifierConfig{
		TextModel:              c.Backend.TextModel,
		VisionModel:            c.Backend.VisionModel,
		ContentPrompt:          c.Prompts.Moderation.ContentPrompt,
		UsernamePrompt:         c.Prompts.Moderation.UsernamePrompt,
		ImageDescriptionPrompt: c.Prompts.Moderation.ImageDescriptionPrompt,
		ScamKeywords:           c.Prompts.Keywords.Scam,
		UnsafeSubjects:         c.Prompts.Keywords.UnsafeSubjects,
	}
}

// ToPersonaConfig converts to notice/chat persona configuration
func (c *Config) ToPersonaConfig() usecase.PersonaConfig {
	return usecase.PersonaConfig{
		TextModel:  c.Backend.TextModel,
		ChatPrompt: c.Prompts.Persona.ChatPrompt,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Platform {
	case PlatformDiscord:
		if c.Discord.Token == "" {
			return &ConfigError{Field: "DISCORD_TOKEN", Message: "required"}
		}
	case PlatformFeishu:
		if c.Feishu.AppID == "" || c.Feishu.AppSecret == "" {
			return &ConfigError{Field: "FEISHU_APP_ID/FEISHU_APP_SECRET", Message: "required"}
		}
	default:
		return &ConfigError{Field: "PLATFORM", Message: "unsupported platform " + strconv.Quote(c.Platform)}
	}

	switch c.Backend.Kind {
	case BackendOllama:
		if c.Backend.OllamaBaseURL == "" {
			return &ConfigError{Field: "OLLAMA_BASE_URL", Message: "required"}
		}
	case BackendOpenAI:
		if c.Backend.OpenAIAPIKey == "" {
			return &ConfigError{Field: "OPENAI_API_KEY", Message: "required"}
		}
	default:
		return &ConfigError{Field: "BACKEND", Message: "unsupported backend " + strconv.Quote(c.Backend.Kind)}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

func envOr(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}
