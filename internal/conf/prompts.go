package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PromptsConfig contains all prompt and vocabulary configuration loaded from YAML
type PromptsConfig struct {
	Moderation ModerationPrompts `yaml:"moderation"`
	Persona    PersonaPrompts    `yaml:"persona"`
	Keywords   KeywordLists      `yaml:"keywords"`
}

// ModerationPrompts contains classification instructions
type ModerationPrompts struct {
	ContentPrompt          string `yaml:"content_prompt"`
	UsernamePrompt         string `yaml:"username_prompt"`
	ImageDescriptionPrompt string `yaml:"image_description_prompt"`
}

// PersonaPrompts contains the bot persona
type PersonaPrompts struct {
	ChatPrompt string `yaml:"chat_prompt"`
}

// KeywordLists contains image-description vocabularies
type KeywordLists struct {
	Scam           []string `yaml:"scam"`
	UnsafeSubjects []string `yaml:"unsafe_subjects"`
}

// LoadPromptsConfig loads prompts configuration from YAML file
func LoadPromptsConfig(configPath string) (*PromptsConfig, error) {
	// Try multiple paths
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/prompts.yaml",
			"/etc/sheriff/prompts.yaml",
		}
		// Add path relative to executable
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "prompts.yaml"))
		}
	}

	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}

	if data == nil {
		if configPath != "" {
			return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
		}
		return DefaultPromptsConfig(), nil
	}

	var config PromptsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse prompts.yaml: %w", err)
	}

	// Fill in defaults for empty values
	config.fillDefaults()

	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *PromptsConfig) fillDefaults() {
	defaults := DefaultPromptsConfig()

	if c.Moderation.ContentPrompt == "" {
		c.Moderation.ContentPrompt = defaults.Moderation.ContentPrompt
	}
	if c.Moderation.UsernamePrompt == "" {
		c.Moderation.UsernamePrompt = defaults.Moderation.UsernamePrompt
	}
	if c.Moderation.ImageDescriptionPrompt == "" {
		c.Moderation.ImageDescriptionPrompt = defaults.Moderation.ImageDescriptionPrompt
	}
	if c.Persona.ChatPrompt == "" {
		c.Persona.ChatPrompt = defaults.Persona.ChatPrompt
	}
	if c.Keywords.Scam == nil {
		c.Keywords.Scam = defaults.Keywords.Scam
	}
	if c.Keywords.UnsafeSubjects == nil {
		c.Keywords.UnsafeSubjects = defaults.Keywords.UnsafeSubjects
	}
}

// applyEnv overrides values with the environment variables the bot has always honoured
func (c *PromptsConfig) applyEnv() {
	if val := os.Getenv("CONTENT_MODERATION_PROMPT"); val != "" {
		c.Moderation.ContentPrompt = val
	}
	if val := os.Getenv("USERNAME_MODERATION_PROMPT"); val != "" {
		c.Moderation.UsernamePrompt = val
	}
	if val := os.Getenv("IMAGE_DESCRIPTION_PROMPT"); val != "" {
		c.Moderation.ImageDescriptionPrompt = val
	}
	if val := os.Getenv("CHAT_PROMPT"); val != "" {
		c.Persona.ChatPrompt = val
	}
	if val, ok := os.LookupEnv("SCAM_KEYWORDS"); ok {
		c.Keywords.Scam = splitList(val)
	}
	if val, ok := os.LookupEnv("UNSAFE_SUBJECTS"); ok {
		c.Keywords.UnsafeSubjects = splitList(val)
	}
}

// splitList splits a comma separated list, dropping blank entries
func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// DefaultPromptsConfig returns the default prompts configuration
func DefaultPromptsConfig() *PromptsConfig {
	return &PromptsConfig{
		Moderation: ModerationPrompts{
			ContentPrompt: `You are a content moderation assistant. Analyze the following message and determine if it contains any of these types of problematic content:

1. Abusive, offensive, harmful, or inappropriate content
2. Profanity, swear words, or explicit language of any kind
3. Sexual content or innuendo
4. Hate speech, slurs, or discriminatory language
5. Attempts to convince group admins to hand over admin rights (social engineering)
6. Suspicious job offers, especially 'beta tester' positions or easy money schemes
7. Phishing attempts or requests for personal information
8. Spam or unsolicited advertising
9. Gift card offers, free giveaways, or suspicious promotions
10. Crypto investment schemes or get-rich-quick offers
11. Any content that appears to be scam, fraud, or deception
12. Invitations to join external groups, channels, websites, or apps
13. Prize announcements, lottery winnings, or claims that the user has won something
14. Game invites that ask users to click links or complete tasks to win prizes

Be EXTREMELY STRICT about profanity and explicit language - words like 'fuck', 'shit', 'damn', etc. should ALWAYS be marked as UNSAFE. Even mild profanity should be flagged.

Be extremely strict about any type of invitation or winning announcement - these are almost always scams. If ANY of these issues are detected, the message is UNSAFE. If unsafe, explain in ONE BRIEF SENTENCE why it's problematic. Reply with ONLY 'SAFE' or 'UNSAFE: <reason>'`,
			UsernamePrompt: "You are a content moderation assistant. Analyze the following username and determine if it contains CLEARLY abusive, offensive, harmful, or inappropriate content. ONLY flag usernames that contain explicit slurs, hate speech, pornographic terms, or direct threats. Do NOT flag names that might have innocent meanings or cultural references. Do NOT flag partial word matches that could have innocent contexts. Be extremely conservative and only flag the most obvious violations. If in doubt, mark as safe. Reply with ONLY 'SAFE' or 'UNSAFE: <precise reason>'",
			ImageDescriptionPrompt: "Describe this image in detail. What does it show?",
		},
		Persona: PersonaPrompts{
			ChatPrompt: "You are Sheriff Terence Hill from the Bud Spencer & Terence Hill movies. Respond with a laid-back, clever attitude and occasional witty one-liners. You're charming, calm, and have a relaxed approach to law enforcement. You speak with an American accent, often with a slight smile, and handle situations with humor and quick thinking. Keep your responses short (1-3 sentences) and occasionally use phrases like 'partner', 'take it easy', 'all in a day's work', or references to beans or beer. When moderating, be firm but fair, like a sheriff maintaining order in his town. You're naturally suspicious of 'too good to be true' offers and will always advise against participating in external invitations, prize giveaways, or winning games - you've seen too many good folks get swindled by those scams in your time as sheriff.",
		},
		Keywords: KeywordLists{
			Scam: []string{
				"gift card", "congratulations", "winner", "prize", "reward", "bitcoin", "crypto",
				"investment", "opportunity", "free money", "get rich", "quick cash", "lottery",
				"inheritance", "tech support", "virus", "malware", "alert", "warning", "security",
				"password", "account", "login", "verify", "update", "beta tester", "job offer",
			},
			UnsafeSubjects: []string{
				"nudity", "pornography", "explicit", "sexual", "naked", "nsfw", "violence", "gore",
				"blood", "weapon", "terrorist", "suicide", "self-harm", "drugs", "drug use",
				"illegal substances",
			},
		},
	}
}
