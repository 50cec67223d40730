package ocr

import (
	"testing"

	"screen-ui-agent/src/config"
)

func TestNewEngine(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantName string
		wantNil  bool
		wantErr  bool
	}{
		{
			name:     "openrouter",
			cfg:      config.Config{OCRProvider: config.ProviderOpenRouter, APIKey: "k", Model: "vision", OCRDeadlineSec: 5},
			wantName: "openrouter:vision",
		},
		{
			name:     "ollama",
			cfg:      config.Config{OCRProvider: config.ProviderOllama, OllamaURL: "http://127.0.0.1:11434", OllamaModel: "llava", OCRDeadlineSec: 5},
			wantName: "ollama:llava",
		},
		{name: "none", cfg: config.Config{OCRProvider: config.ProviderNone}, wantNil: true},
		{name: "openrouter without key", cfg: config.Config{OCRProvider: config.ProviderOpenRouter, Model: "vision"}, wantErr: true},
		{name: "unknown", cfg: config.Config{OCRProvider: "tesseract"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEngine(&tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewEngine failed: %v", err)
			}
			if tt.wantNil {
				if e != nil {
					t.Fatalf("Expected nil engine, got %v", e.Name())
				}
				return
			}
			if e.Name() != tt.wantName {
				t.Errorf("Expected %q, got %q", tt.wantName, e.Name())
			}
		})
	}
}
