package internal

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// AI providers.
const (
	ProviderAuto   = "auto"
	ProviderGemini = "gemini"
	ProviderOff    = "off"
)

// Highlight stores.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	AI         AIConfig          `yaml:"ai"`
	Library    LibraryConfig     `yaml:"library"`
	Highlights HighlightsConfig  `yaml:"highlights"`
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.AI.Validate(); err != nil {
		return fmt.Errorf("ai: %w", err)
	}
	if err := c.Library.Validate(); err != nil {
		return fmt.Errorf("library: %w", err)
	}
	if err := c.Highlights.Validate(); err != nil {
		return fmt.Errorf("highlights: %w", err)
	}
	return nil
}

type ApplicationConfig struct {
	Env      string     `yaml:"env"`
	LogLevel string     `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Env, validation.Required, validation.In("development", "production")),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

type HTTPConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Address returns the listen address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// AIConfig selects the assistant. With provider "auto" Gemini is used when
// an API key is present and the assistant is disabled otherwise.
type AIConfig struct {
	Provider      string        `yaml:"provider"`
	Model         string        `yaml:"model"`
	APIKey        string        `yaml:"api_key"`
	Timeout       time.Duration `yaml:"timeout"`
	ContextPages  int           `yaml:"context_pages"`
	OutlinePolicy string        `yaml:"outline_policy"`
}

func (c *AIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required, validation.In(ProviderAuto, ProviderGemini, ProviderOff)),
		validation.Field(&c.APIKey, validation.When(c.Provider == ProviderGemini, validation.Required)),
		validation.Field(&c.Timeout, validation.Min(time.Second)),
		validation.Field(&c.ContextPages, validation.Required, validation.Min(1)),
		validation.Field(&c.OutlinePolicy, validation.In("error", "demo")),
	)
}

// Enabled reports whether a model should be called.
func (c *AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderGemini:
		return true
	case ProviderAuto:
		return c.APIKey != ""
	}
	return false
}

// LibraryConfig points at the directory of PDFs served and watched.
type LibraryConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

func (c *LibraryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

type HighlightsConfig struct {
	Store string `yaml:"store"`
	Path  string `yaml:"path"`
}

func (c *HighlightsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Store, validation.Required, validation.In(StoreMemory, StoreSQLite)),
		validation.Field(&c.Path, validation.When(c.Store == StoreSQLite, validation.Required)),
	)
}

// NewDefaultConfig returns a Config with sensible default values. The API
// key defaults to GEMINI_API_KEY from the environment.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			Env:      "development",
			LogLevel: "info",
			HTTP: HTTPConfig{
				Port:        8080,
				CORSOrigins: []string{"*"},
			},
		},
		AI: AIConfig{
			Provider:      ProviderAuto,
			APIKey:        os.Getenv("GEMINI_API_KEY"),
			Timeout:       60 * time.Second,
			ContextPages:  10,
			OutlinePolicy: "error",
		},
		Library: LibraryConfig{
			Path:  "./library",
			Watch: true,
		},
		Highlights: HighlightsConfig{
			Store: StoreSQLite,
			Path:  "./highlights.db",
		},
	}
}
