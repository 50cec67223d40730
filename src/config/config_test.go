package config

import (
	"os"
	"path/filepath"
	"testing"
)

// isolate points every lookup at a missing key file so the host's secrets and
// environment do not leak into the test.
func isolate(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OCR_PROVIDER", "OPENROUTER_API_KEY", "OPENROUTER_BASE_URL", "MODEL", "PROVIDERS",
		"OLLAMA_URL", "OLLAMA_MODEL", "OCR_DEADLINE_SEC", "OCR_LANGUAGE", "OCR_MIN_DIMENSION",
		"OCR_GRAYSCALE", "OCR_DEBUG_DIR", "ENABLE_FILE_LOGGING", "LOG_FILE", AltEnvFileEnvVar,
	} {
		t.Setenv(k, "")
	}
	t.Setenv(APIKeyPathEnvVar, filepath.Join(t.TempDir(), "missing"))
}

func TestLoad(t *testing.T) {
	isolate(t)
	t.Setenv("OPENROUTER_API_KEY", "test_api_key")
	t.Setenv("MODEL", "test_model")
	t.Setenv("ENABLE_FILE_LOGGING", "true")
	t.Setenv("PROVIDERS", " groq, ,fireworks ")
	t.Setenv("OCR_DEADLINE_SEC", "5")
	t.Setenv("OCR_LANGUAGE", "de")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.APIKey != "test_api_key" {
		t.Errorf("Expected APIKey to be 'test_api_key', got '%s'", cfg.APIKey)
	}
	if cfg.Model != "test_model" {
		t.Errorf("Expected Model to be 'test_model', got '%s'", cfg.Model)
	}
	if !cfg.EnableFileLogging {
		t.Errorf("Expected EnableFileLogging to be true, got %v", cfg.EnableFileLogging)
	}
	if len(cfg.Providers) != 2 || cfg.Providers[0] != "groq" || cfg.Providers[1] != "fireworks" {
		t.Errorf("Unexpected providers %v", cfg.Providers)
	}
	if cfg.OCRDeadlineSec != 5 {
		t.Errorf("Expected OCRDeadlineSec 5, got %d", cfg.OCRDeadlineSec)
	}
	if cfg.OCRLanguage != "de" {
		t.Errorf("Expected OCRLanguage 'de', got %q", cfg.OCRLanguage)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OCRProvider != ProviderOpenRouter {
		t.Errorf("Expected default provider %q, got %q", ProviderOpenRouter, cfg.OCRProvider)
	}
	if cfg.BaseURL != DefaultBaseURL || cfg.OllamaURL != DefaultOllamaURL || cfg.OllamaModel != DefaultOllamaModel {
		t.Errorf("Unexpected endpoint defaults: %+v", cfg)
	}
	if cfg.OCRDeadlineSec != DefaultOCRDeadlineSec || cfg.OCRMinDimension != DefaultOCRMinDimension {
		t.Errorf("Unexpected numeric defaults: %d, %d", cfg.OCRDeadlineSec, cfg.OCRMinDimension)
	}
	if cfg.LogFile != DefaultLogFile {
		t.Errorf("Expected log file %q, got %q", DefaultLogFile, cfg.LogFile)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected Validate to fail without an API key")
	}
}

func TestInvalidNumbersFallBack(t *testing.T) {
	isolate(t)
	t.Setenv("OCR_DEADLINE_SEC", "-3")
	t.Setenv("OCR_MIN_DIMENSION", "abc")

	cfg, _ := Load()
	if cfg.OCRDeadlineSec != DefaultOCRDeadlineSec {
		t.Errorf("Expected default deadline, got %d", cfg.OCRDeadlineSec)
	}
	if cfg.OCRMinDimension != DefaultOCRMinDimension {
		t.Errorf("Expected default min dimension, got %d", cfg.OCRMinDimension)
	}
}

func TestAPIKeyFileWins(t *testing.T) {
	isolate(t)
	keyFile := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(keyFile, []byte("  file_key\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENROUTER_API_KEY", "env_key")

	cfg, err := LoadWithOptions(LoadOptions{APIKeyPathOverride: keyFile})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "file_key" {
		t.Errorf("Expected key from file, got %q", cfg.APIKey)
	}
	if cfg.APIKeyPath != keyFile {
		t.Errorf("Expected override path, got %q", cfg.APIKeyPath)
	}
}

func TestDotenvKeyPath(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("dotenv_key"), 0600); err != nil {
		t.Fatal(err)
	}
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte(APIKeyPathEnvVar+"="+keyFile+"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithOptions(LoadOptions{EnvPath: envFile})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "dotenv_key" {
		t.Errorf("Expected key via .env path, got %q", cfg.APIKey)
	}
}

func TestProviderSelection(t *testing.T) {
	isolate(t)
	t.Setenv("OCR_PROVIDER", "Ollama")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OCRProvider != ProviderOllama {
		t.Errorf("Expected ollama, got %q", cfg.OCRProvider)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("ollama with defaults should validate: %v", err)
	}

	cfg, err = LoadWithOptions(LoadOptions{OCRProviderOverride: "none"})
	if err != nil || cfg.OCRProvider != ProviderNone {
		t.Fatalf("Expected override to none, got %v, %v", cfg, err)
	}

	if _, err := LoadWithOptions(LoadOptions{OCRProviderOverride: "tesseract"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}
