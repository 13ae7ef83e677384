package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrompts(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("PROMPTS_CONFIG_PATH", writePrompts(t, "{}\n"))
	t.Setenv("PLATFORM", "")
	t.Setenv("BACKEND", "")
	t.Setenv("OLLAMA_BASE_URL", "")
	t.Setenv("TEXT_MODEL", "")
	t.Setenv("SCAM_KEYWORDS", "")
	os.Unsetenv("SCAM_KEYWORDS")

	cfg := LoadFromEnv()

	assert.Equal(t, PlatformDiscord, cfg.Platform)
	assert.Equal(t, BackendOllama, cfg.Backend.Kind)
	assert.Equal(t, "http://localhost:11434", cfg.Backend.OllamaBaseURL)
	assert.Equal(t, "llama3.2-vision:latest", cfg.Backend.TextModel)
	assert.Contains(t, cfg.Prompts.Keywords.Scam, "winner")
	assert.Contains(t, cfg.Prompts.Keywords.UnsafeSubjects, "self-harm")
	assert.NotEmpty(t, cfg.Prompts.Moderation.ContentPrompt)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PROMPTS_CONFIG_PATH", writePrompts(t, "persona:\n  chat_prompt: from yaml\n"))
	t.Setenv("CHAT_PROMPT", "from env")
	t.Setenv("SCAM_KEYWORDS", "winner, free nitro ,,")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434/")
	t.Setenv("BACKEND_RPS", "2.5")
	t.Setenv("ADMIN_ADDR", "")

	cfg := LoadFromEnv()

	assert.Equal(t, "from env", cfg.Prompts.Persona.ChatPrompt)
	assert.Equal(t, []string{"winner", "free nitro"}, cfg.Prompts.Keywords.Scam)
	assert.Equal(t, "http://ollama:11434", cfg.Backend.OllamaBaseURL)
	assert.Equal(t, 2.5, cfg.Backend.RPS)
	assert.Empty(t, cfg.AdminAddr)
}

func TestLoadPromptsConfig_FillsDefaults(t *testing.T) {
	path := writePrompts(t, `
moderation:
  username_prompt: custom username prompt
keywords:
  unsafe_subjects: [gore]
`)

	cfg, err := LoadPromptsConfig(path)
	require.NoError(t, err)

	defaults := DefaultPromptsConfig()
	assert.Equal(t, "custom username prompt", cfg.Moderation.UsernamePrompt)
	assert.Equal(t, defaults.Moderation.ContentPrompt, cfg.Moderation.ContentPrompt)
	assert.Equal(t, []string{"gore"}, cfg.Keywords.UnsafeSubjects)
	assert.Equal(t, defaults.Keywords.Scam, cfg.Keywords.Scam)
}

func TestLoadPromptsConfig_MissingExplicitPath(t *testing.T) {
	_, err := LoadPromptsConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadPromptsConfig_BadYAML(t *testing.T) {
	_, err := LoadPromptsConfig(writePrompts(t, "moderation: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Platform: PlatformDiscord,
		Backend:  BackendConfig{Kind: BackendOllama, OllamaBaseURL: "http://localhost:11434"},
	}

	err := cfg.Validate()
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "DISCORD_TOKEN", cfgErr.Field)

	cfg.Discord.Token = "token"
	assert.NoError(t, cfg.Validate())

	cfg.Platform = PlatformFeishu
	assert.Error(t, cfg.Validate())
	cfg.Feishu = FeishuConfig{AppID: "id", AppSecret: "secret"}
	assert.NoError(t, cfg.Validate())

	cfg.Backend.Kind = BackendOpenAI
	assert.Error(t, cfg.Validate())

	cfg.Platform = "irc"
	assert.Error(t, cfg.Validate())
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b c"}, splitList(" a ,b c,"))
}
