package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ChunkSize          = 500
	ChunkOverlap       = 100
	RetrievalTopK      = 4
	MemoryWindow       = 5
	SearchMaxResults   = 3
	RenderDelay        = 10 * time.Millisecond
	defaultConfigPath  = "config.yaml"
	defaultTavilyURL   = "https://api.tavily.com"
	defaultChatModel   = "gemini-1.5-flash"
	defaultEmbedModel  = "text-embedding-004"
	defaultLogFile     = "logs/docsearch.log"
	defaultPort        = "8080"
	defaultSessionTTL  = time.Hour
	credentialGoogle   = "GOOGLE_API_KEY"
	credentialTavily   = "TAVILY_API_KEY"
	credentialUnidoc   = "UNIDOC_LICENSE_KEY"
	envConfigFile      = "DOCSEARCH_CONFIG"
	envProductionValue = "production"
)

// Config is built once at startup and passed to whatever needs it.
type Config struct {
	GoogleAPIKey     string        `yaml:"google_api_key"`
	TavilyAPIKey     string        `yaml:"tavily_api_key"`
	UnidocLicenseKey string        `yaml:"unidoc_license_key"`
	Port             string        `yaml:"port"`
	ChromaURL        string        `yaml:"chroma_url"`
	ChatModel        string        `yaml:"chat_model"`
	EmbeddingModel   string        `yaml:"embedding_model"`
	TavilyURL        string        `yaml:"tavily_url"`
	SessionTTL       time.Duration `yaml:"session_ttl"`
	WatchDir         string        `yaml:"watch_dir"`
	LogFile          string        `yaml:"log_file"`
	Env              string        `yaml:"env"`
}

// MissingCredentialsError lists every credential that was not provided.
type MissingCredentialsError struct {
	Keys []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("missing required credentials: %s", strings.Join(e.Keys, ", "))
}

// Has reports whether key is among the missing credentials.
func (e *MissingCredentialsError) Has(key string) bool {
	for _, k := range e.Keys {
		if k == key {
			return true
		}
	}
	return false
}

func Default() *Config {
	return &Config{
		Port:           defaultPort,
		ChatModel:      defaultChatModel,
		EmbeddingModel: defaultEmbedModel,
		TavilyURL:      defaultTavilyURL,
		SessionTTL:     defaultSessionTTL,
		LogFile:        defaultLogFile,
	}
}

// Load layers defaults, the optional YAML file, .env and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	path := os.Getenv(envConfigFile)
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a YAML config on top of the defaults. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.GoogleAPIKey, credentialGoogle)
	setString(&c.TavilyAPIKey, credentialTavily)
	setString(&c.UnidocLicenseKey, credentialUnidoc)
	setString(&c.Port, "PORT")
	setString(&c.ChromaURL, "CHROMA_URL")
	setString(&c.ChatModel, "CHAT_MODEL")
	setString(&c.EmbeddingModel, "EMBEDDING_MODEL")
	setString(&c.TavilyURL, "TAVILY_URL")
	setString(&c.WatchDir, "WATCH_DIR")
	setString(&c.LogFile, "LOG_FILE")
	setString(&c.Env, "APP_ENV")

	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		ttl, err := parseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid SESSION_TTL %q: %w", raw, err)
		}
		c.SessionTTL = ttl
	}
	return nil
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.Port == "" {
		c.Port = d.Port
	}
	if c.ChatModel == "" {
		c.ChatModel = d.ChatModel
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = d.EmbeddingModel
	}
	if c.TavilyURL == "" {
		c.TavilyURL = d.TavilyURL
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = d.SessionTTL
	}
	if c.LogFile == "" {
		c.LogFile = d.LogFile
	}
}

// Validate checks the two service credentials. The unidoc key is optional:
// extraction runs unlicensed without it.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.GoogleAPIKey) == "" {
		missing = append(missing, credentialGoogle)
	}
	if strings.TrimSpace(c.TavilyAPIKey) == "" {
		missing = append(missing, credentialTavily)
	}
	if len(missing) > 0 {
		return &MissingCredentialsError{Keys: missing}
	}
	return nil
}

// GoogleReady and TavilyReady return the missing-credential error for one service only.
func (c *Config) GoogleReady() error {
	if strings.TrimSpace(c.GoogleAPIKey) == "" {
		return &MissingCredentialsError{Keys: []string{credentialGoogle}}
	}
	return nil
}

func (c *Config) TavilyReady() error {
	if strings.TrimSpace(c.TavilyAPIKey) == "" {
		return &MissingCredentialsError{Keys: []string{credentialTavily}}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, envProductionValue)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// parseDuration accepts Go durations ("90m") or a bare number of seconds.
func parseDuration(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}
