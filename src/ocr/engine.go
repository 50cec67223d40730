package ocr

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"screen-ui-agent/src/config"
	"screen-ui-agent/src/llm"
	"screen-ui-agent/src/logutil"
	"screen-ui-agent/src/ollama"
)

// NewEngine builds the engine named by cfg.OCRProvider. The "none" provider
// yields a nil Engine, which disables the OCR fallback.
func NewEngine(cfg *config.Config) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := Options{
		MinDimension:    cfg.OCRMinDimension,
		Grayscale:       cfg.OCRGrayscale,
		DebugSaveDir:    cfg.OCRDebugDir,
		DefaultLanguage: cfg.OCRLanguage,
	}
	httpClient := &http.Client{Timeout: time.Duration(cfg.OCRDeadlineSec) * time.Second}

	switch cfg.OCRProvider {
	case config.ProviderOpenRouter:
		client, err := llm.New(llm.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Providers:  cfg.Providers,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}
		log.Printf("OCR: using %s (key %s, providers %v)", client.Name(), logutil.RedactKey(cfg.APIKey), cfg.Providers)
		return NewVisionEngine(client, opts), nil
	case config.ProviderOllama:
		client, err := ollama.New(cfg.OllamaURL, cfg.OllamaModel, httpClient)
		if err != nil {
			return nil, err
		}
		log.Printf("OCR: using %s at %s", client.Name(), cfg.OllamaURL)
		return NewVisionEngine(client, opts), nil
	case config.ProviderNone:
		log.Printf("OCR: disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown OCR provider %q", cfg.OCRProvider)
	}
}
