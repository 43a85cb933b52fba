package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the application configuration, loaded from a YAML file.
type Config struct {
	// Model is the Ollama model used to analyze messages.
	Model string `mapstructure:"model" yaml:"model"`

	// Days is how many days back to look for unread messages.
	// 0 means today only.
	Days int `mapstructure:"days" yaml:"days"`

	// OllamaHost is the base URL of the local inference endpoint.
	// Empty means "resolve from the OLLAMA_HOST environment, falling
	// back to http://localhost:11434".
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`

	// CredentialsFile is the OAuth client secret JSON from the
	// Google Cloud Console.
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`

	// TokenFile is where the cached OAuth token lives when the file
	// backend is used.
	TokenFile string `mapstructure:"token_file" yaml:"token_file"`

	// TokenBackend selects the token storage: "file" or "keyring".
	TokenBackend string `mapstructure:"token_backend" yaml:"token_backend"`

	// PromptBodyLimit bounds the body excerpt embedded in the prompt,
	// in runes.
	PromptBodyLimit int `mapstructure:"prompt_body_limit" yaml:"prompt_body_limit"`

	// FetchBodyLimit bounds the decoded body kept per message, in runes.
	FetchBodyLimit int `mapstructure:"fetch_body_limit" yaml:"fetch_body_limit"`

	// LogFile is where diagnostic logs go; the console is reserved for
	// the report itself.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`
}

// DefaultPath returns the default config location,
// ~/.config/mailbrief/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailbrief", "config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model", "qwen3:1.7b")
	v.SetDefault("days", 1)
	v.SetDefault("ollama_host", "")
	v.SetDefault("credentials_file", "credentials.json")
	v.SetDefault("token_file", "token.json")
	v.SetDefault("token_backend", "file")
	v.SetDefault("prompt_body_limit", 2000)
	v.SetDefault("fetch_body_limit", 8000)
	v.SetDefault("log_file", "mailbrief.log")
}

// Load reads the config file at path. A missing file is not an error:
// defaults are returned and the file is created so the operator has
// something to edit. A malformed file is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			// Best effort; the run proceeds on defaults either way.
			_ = v.SafeWriteConfigAs(path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Days < 0 {
		return fmt.Errorf("days must be non-negative, got %d", c.Days)
	}
	switch c.TokenBackend {
	case "file", "keyring":
	default:
		return fmt.Errorf("unknown token_backend %q (want \"file\" or \"keyring\")", c.TokenBackend)
	}
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	return nil
}
