package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIKeyPath = "/run/secrets/api_keys/openrouter"
	APIKeyPathEnvVar  = "OPENROUTER_API_KEY_FILE"
	AltEnvFileEnvVar  = "SCREEN_UI_AGENT"

	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderNone       = "none"

	DefaultBaseURL         = "https://openrouter.ai/api/v1"
	DefaultOllamaURL       = "http://localhost:11434"
	DefaultOllamaModel     = "llava"
	DefaultOCRDeadlineSec  = 20
	DefaultOCRMinDimension = 32
	DefaultLogFile         = "screen_ui_agent.log"
)

type LoadOptions struct {
	APIKeyPathOverride  string
	OCRProviderOverride string
	// EnvPath skips the executable-directory lookup when set.
	EnvPath string
}

type Config struct {
	OCRProvider string

	APIKey     string
	APIKeyPath string
	BaseURL    string
	Model      string
	Providers  []string

	OllamaURL   string
	OllamaModel string

	OCRDeadlineSec  int
	OCRLanguage     string
	OCRMinDimension int
	OCRGrayscale    bool
	OCRDebugDir     string

	EnableFileLogging bool
	LogFile           string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order:
	// 1) .env in the executable directory
	// 2) the file named by SCREEN_UI_AGENT
	envPath := opts.EnvPath
	if envPath == "" {
		envPath = resolveEnvPath()
	}
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	provider, err := resolveProvider(opts)
	if err != nil {
		return nil, err
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)

	cfg := &Config{
		OCRProvider:       provider,
		APIKey:            resolveAPIKey(apiKeyPath),
		APIKeyPath:        apiKeyPath,
		BaseURL:           getEnvWithDefault("OPENROUTER_BASE_URL", DefaultBaseURL),
		Model:             os.Getenv("MODEL"),
		Providers:         splitList(os.Getenv("PROVIDERS")),
		OllamaURL:         getEnvWithDefault("OLLAMA_URL", DefaultOllamaURL),
		OllamaModel:       getEnvWithDefault("OLLAMA_MODEL", DefaultOllamaModel),
		OCRDeadlineSec:    positiveInt("OCR_DEADLINE_SEC", DefaultOCRDeadlineSec),
		OCRLanguage:       strings.TrimSpace(os.Getenv("OCR_LANGUAGE")),
		OCRMinDimension:   positiveInt("OCR_MIN_DIMENSION", DefaultOCRMinDimension),
		OCRGrayscale:      isTrue(os.Getenv("OCR_GRAYSCALE")),
		OCRDebugDir:       os.Getenv("OCR_DEBUG_DIR"),
		EnableFileLogging: isTrue(os.Getenv("ENABLE_FILE_LOGGING")),
		LogFile:           getEnvWithDefault("LOG_FILE", DefaultLogFile),
	}

	return cfg, nil
}

// Validate reports settings the selected OCR provider cannot run without.
func (c *Config) Validate() error {
	switch c.OCRProvider {
	case ProviderOpenRouter:
		if c.APIKey == "" {
			return fmt.Errorf("API key not found: set %s or OPENROUTER_API_KEY (looked in %s)", APIKeyPathEnvVar, c.APIKeyPath)
		}
		if c.Model == "" {
			return fmt.Errorf("MODEL is required for the %s OCR provider", ProviderOpenRouter)
		}
	case ProviderOllama:
		if c.OllamaURL == "" || c.OllamaModel == "" {
			return fmt.Errorf("OLLAMA_URL and OLLAMA_MODEL are required for the %s OCR provider", ProviderOllama)
		}
	case ProviderNone:
	default:
		return fmt.Errorf("unknown OCR provider %q", c.OCRProvider)
	}
	return nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(AltEnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveProvider(opts LoadOptions) (string, error) {
	value := os.Getenv("OCR_PROVIDER")
	if override := strings.TrimSpace(opts.OCRProviderOverride); override != "" {
		value = override
	}
	switch p := strings.ToLower(strings.TrimSpace(value)); p {
	case "":
		return ProviderOpenRouter, nil
	case ProviderOpenRouter, ProviderOllama, ProviderNone:
		return p, nil
	default:
		return "", fmt.Errorf("unknown OCR provider %q (want %s, %s or %s)", value, ProviderOpenRouter, ProviderOllama, ProviderNone)
	}
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func resolveAPIKey(keyPath string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}

	return os.Getenv("OPENROUTER_API_KEY")
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func positiveInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func isTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
