package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Supported credential backends
const (
	BackendCSV    = "csv"
	BackendXLSX   = "xlsx"
	BackendSQLite = "sqlite"
)

// Supported completion providers
const (
	ProviderOpenAI   = "openai"
	ProviderVertexAI = "vertexai"
	ProviderGemini   = "gemini"
)

// Config holds application configuration
type Config struct {
	ListenAddr string `json:"listen_addr"`

	CredentialsBackend string `json:"credentials_backend"`
	CredentialsPath    string `json:"credentials_path"`

	SamplesDir      string `json:"samples_dir"`
	SamplesBucket   string `json:"samples_bucket"`
	SamplesPrefix   string `json:"samples_prefix"`
	SamplesEndpoint string `json:"samples_endpoint"`
	SamplesRegion   string `json:"samples_region"`
	SamplesKeyID    string `json:"samples_access_key_id"`
	SamplesSecret   string `json:"samples_secret_access_key"`

	LLMProvider    string        `json:"llm_provider"`
	Model          string        `json:"model"`
	Temperature    float32       `json:"temperature"`
	RequestTimeout time.Duration `json:"request_timeout"`

	OpenAIAPIKey  string `json:"openai_api_key"`
	OpenAIBaseURL string `json:"openai_base_url"`

	GoogleCloudProject    string `json:"google_cloud_project"`
	GoogleCloudLocation   string `json:"google_cloud_location"`
	GoogleCredentialsPath string `json:"google_credentials_path"`
	GeminiAPIKey          string `json:"gemini_api_key"`

	MaxUploadBytes int64         `json:"max_upload_bytes"`
	SecureCookies  bool          `json:"secure_cookies"`
	SessionTTL     time.Duration `json:"session_ttl"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:          ":8501",
		CredentialsBackend:  BackendCSV,
		CredentialsPath:     "users.csv",
		SamplesDir:          "sample_cvs",
		LLMProvider:         ProviderOpenAI,
		Temperature:         0.7,
		RequestTimeout:      60 * time.Second,
		OpenAIBaseURL:       "https://api.openai.com/v1",
		GoogleCloudLocation: "us-central1",
		MaxUploadBytes:      10 << 20,
		SessionTTL:          2 * time.Hour,
	}
}

// UnmarshalJSON reads the config file form. Durations are Go duration
// strings ("60s", "2h"); bare numbers are read as seconds.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	aux := struct {
		*plain
		RequestTimeout json.RawMessage `json:"request_timeout"`
		SessionTTL     json.RawMessage `json:"session_ttl"`
	}{plain: (*plain)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if err := parseDuration(aux.RequestTimeout, "request_timeout", &c.RequestTimeout); err != nil {
		return err
	}
	return parseDuration(aux.SessionTTL, "session_ttl", &c.SessionTTL)
}

// MarshalJSON writes durations as strings so SaveTo output loads back
func (c Config) MarshalJSON() ([]byte, error) {
	type plain Config
	return json.Marshal(struct {
		plain
		RequestTimeout string `json:"request_timeout"`
		SessionTTL     string `json:"session_ttl"`
	}{
		plain:          plain(c),
		RequestTimeout: c.RequestTimeout.String(),
		SessionTTL:     c.SessionTTL.String(),
	})
}

func parseDuration(raw json.RawMessage, field string, dst *time.Duration) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		d, err := time.ParseDuration(text)
		if err != nil {
			return fmt.Errorf("%s has invalid duration %q: %w", field, text, err)
		}
		*dst = d
		return nil
	}

	var seconds float64
	if err := json.Unmarshal(raw, &seconds); err != nil {
		return fmt.Errorf("%s must be a duration string or a number of seconds", field)
	}
	*dst = time.Duration(seconds * float64(time.Second))
	return nil
}

// GetConfigPath returns the path to the configuration file
// On Windows: %APPDATA%/CareerBot/config.json
// On Unix: ~/.config/CareerBot/config.json
func GetConfigPath() (string, error) {
	var configDir string

	if os.Getenv("APPDATA") != "" {
		configDir = filepath.Join(os.Getenv("APPDATA"), "CareerBot")
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "CareerBot")
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Load reads .env (if present), the config file at path (or the default
// location when path is empty) and finally environment overrides.
func Load(path string) (*Config, error) {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom loads configuration from a specific path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides file values with environment variables. Unparseable
// numeric values are reported rather than silently ignored.
func (c *Config) ApplyEnv() error {
	setString(&c.ListenAddr, "CAREERBOT_LISTEN_ADDR")
	setString(&c.CredentialsBackend, "CAREERBOT_CREDENTIALS_BACKEND")
	setString(&c.CredentialsPath, "CAREERBOT_CREDENTIALS_PATH")
	setString(&c.SamplesDir, "CAREERBOT_SAMPLES_DIR")
	setString(&c.SamplesBucket, "CAREERBOT_SAMPLES_BUCKET")
	setString(&c.SamplesPrefix, "CAREERBOT_SAMPLES_PREFIX")
	setString(&c.SamplesEndpoint, "CAREERBOT_SAMPLES_ENDPOINT")
	setString(&c.SamplesRegion, "CAREERBOT_SAMPLES_REGION")
	setString(&c.SamplesKeyID, "CAREERBOT_SAMPLES_ACCESS_KEY_ID")
	setString(&c.SamplesSecret, "CAREERBOT_SAMPLES_SECRET_ACCESS_KEY")
	setString(&c.LLMProvider, "CAREERBOT_LLM_PROVIDER")
	setString(&c.Model, "CAREERBOT_MODEL")
	setString(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.OpenAIBaseURL, "OPENAI_BASE_URL")
	setString(&c.GoogleCloudProject, "GOOGLE_CLOUD_PROJECT")
	setString(&c.GoogleCloudLocation, "GOOGLE_CLOUD_LOCATION")
	setString(&c.GoogleCredentialsPath, "GOOGLE_APPLICATION_CREDENTIALS")
	setString(&c.GeminiAPIKey, "GEMINI_API_KEY")

	if v, ok := os.LookupEnv("CAREERBOT_TEMPERATURE"); ok {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("CAREERBOT_TEMPERATURE has invalid value %q: %w", v, err)
		}
		c.Temperature = float32(f)
	}
	if v, ok := os.LookupEnv("CAREERBOT_REQUEST_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CAREERBOT_REQUEST_TIMEOUT has invalid duration %q: %w", v, err)
		}
		c.RequestTimeout = d
	}
	if v, ok := os.LookupEnv("CAREERBOT_SESSION_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CAREERBOT_SESSION_TTL has invalid duration %q: %w", v, err)
		}
		c.SessionTTL = d
	}
	if v, ok := os.LookupEnv("CAREERBOT_MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("CAREERBOT_MAX_UPLOAD_BYTES has invalid value %q: %w", v, err)
		}
		c.MaxUploadBytes = n
	}
	if v, ok := os.LookupEnv("CAREERBOT_SECURE_COOKIES"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CAREERBOT_SECURE_COOKIES has invalid value %q: %w", v, err)
		}
		c.SecureCookies = b
	}

	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.CredentialsBackend {
	case BackendCSV, BackendXLSX, BackendSQLite:
	default:
		return fmt.Errorf("credentials_backend must be one of csv, xlsx, sqlite, got %q", c.CredentialsBackend)
	}

	if c.CredentialsPath == "" {
		return fmt.Errorf("credentials_path is required")
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.Temperature)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}

	if c.SamplesBucket == "" && c.SamplesDir == "" {
		return fmt.Errorf("either samples_dir or samples_bucket is required")
	}

	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("openai_api_key is required for the openai provider")
		}
	case ProviderVertexAI:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("google_cloud_project is required for the vertexai provider")
		}
		if c.GoogleCloudLocation == "" {
			return fmt.Errorf("google_cloud_location is required for the vertexai provider")
		}
		if c.GoogleCredentialsPath != "" {
			if _, err := os.Stat(c.GoogleCredentialsPath); err != nil {
				return fmt.Errorf("google credentials file not found: %w", err)
			}
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("gemini_api_key is required for the gemini provider")
		}
	default:
		return fmt.Errorf("llm_provider must be one of openai, vertexai, gemini, got %q", c.LLMProvider)
	}

	return nil
}
