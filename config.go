package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const defaultConfigDir = ".newsroom"

// Embedded configuration files
//
//go:embed config/settings.yaml
var defaultSettings string

//go:embed config/article-prompt.md
var defaultArticlePrompt string

//go:embed config/script-prompt.md
var defaultScriptPrompt string

// SourceConfig describes one configured news source.
type SourceConfig struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"` // "rss" or "listing"
	URL   string `yaml:"url"`
	Limit int    `yaml:"limit"`
}

// GeneratorSettings tune the writing model.
type GeneratorSettings struct {
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	// SourceMaxChars caps fetched page text before prompting.
	SourceMaxChars int `yaml:"source_max_chars"`
}

// WordPressDefaults are applied to every created draft.
type WordPressDefaults struct {
	Categories    []int `yaml:"categories"`
	Tags          []int `yaml:"tags"`
	FeaturedMedia int   `yaml:"featured_media"`
}

// Settings is the YAML configuration structure.
type Settings struct {
	Sources   []SourceConfig    `yaml:"sources"`
	Generator GeneratorSettings `yaml:"generator"`
	WordPress WordPressDefaults `yaml:"wordpress"`
}

// Config carries everything the pipeline needs: credentials from the
// environment, settings from YAML and prompt overrides from disk.
type Config struct {
	NotionToken       string
	NotionDatabaseID  string
	AnthropicAPIKey   string
	WordPressURL      string
	WordPressUsername string
	WordPressPassword string

	Settings *Settings

	// ArticlePromptPath and ScriptPromptPath override the embedded prompts
	// when set.
	ArticlePromptPath string
	ScriptPromptPath  string
}

// NewConfig loads credentials from the environment and settings from the
// config directory (written from the embedded defaults on first run).
func NewConfig(settingsPath string) (*Config, error) {
	if err := ensureConfigExists(); err != nil {
		return nil, fmt.Errorf("ensuring config files exist: %w", err)
	}

	if settingsPath == "" {
		settingsPath = getConfigPath("settings.yaml")
	}
	settings, err := loadSettings(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	cfg := &Config{
		NotionToken:       os.Getenv("NOTION_API_KEY"),
		NotionDatabaseID:  os.Getenv("NOTION_DATABASE_ID"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		WordPressURL:      os.Getenv("WORDPRESS_URL"),
		WordPressUsername: os.Getenv("WORDPRESS_USERNAME"),
		WordPressPassword: os.Getenv("WORDPRESS_APP_PASSWORD"),
		Settings:          settings,
	}
	return cfg, nil
}

// RequireStore fails early when the record store credentials are missing.
func (c *Config) RequireStore() error {
	if c.NotionToken == "" {
		return fmt.Errorf("NOTION_API_KEY environment variable is required")
	}
	if c.NotionDatabaseID == "" {
		return fmt.Errorf("NOTION_DATABASE_ID environment variable is required")
	}
	return nil
}

// RequireGenerator fails early when the model credentials are missing.
func (c *Config) RequireGenerator() error {
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
	}
	return nil
}

// RequirePublisher fails early when the publish target credentials are
// missing.
func (c *Config) RequirePublisher() error {
	if c.WordPressURL == "" {
		return fmt.Errorf("WORDPRESS_URL environment variable is required")
	}
	if c.WordPressUsername == "" || c.WordPressPassword == "" {
		return fmt.Errorf("WORDPRESS_USERNAME and WORDPRESS_APP_PASSWORD environment variables are required")
	}
	return nil
}

// ArticlePrompt returns the article system prompt (override file or embedded).
func (c *Config) ArticlePrompt() string {
	if c.ArticlePromptPath != "" {
		if content, err := os.ReadFile(c.ArticlePromptPath); err == nil {
			return string(content)
		}
	}
	return defaultArticlePrompt
}

// ScriptPrompt returns the script system prompt (override file or embedded).
func (c *Config) ScriptPrompt() string {
	if c.ScriptPromptPath != "" {
		if content, err := os.ReadFile(c.ScriptPromptPath); err == nil {
			return string(content)
		}
	}
	return defaultScriptPrompt
}

func loadSettings(settingsPath string) (*Settings, error) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("reading settings file %s: %w", settingsPath, err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing settings YAML: %w", err)
	}
	return &settings, nil
}

// getConfigPath returns the path to a file in the config directory.
func getConfigPath(filename string) string {
	return filepath.Join(defaultConfigDir, filename)
}

// ensureConfigExists creates the config directory and writes the default
// settings file on first run so users have something to edit.
func ensureConfigExists() error {
	if err := os.MkdirAll(defaultConfigDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	settingsPath := getConfigPath("settings.yaml")
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		if err := os.WriteFile(settingsPath, []byte(defaultSettings), 0644); err != nil {
			return fmt.Errorf("writing default settings: %w", err)
		}
	}
	return nil
}
