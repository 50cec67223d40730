package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"screen-ui-agent/src/screenshot"
)

// ErrNoText is returned when the recognizer ran but found nothing to read.
var ErrNoText = errors.New("no text detected in image")

// noTextMarker is what the prompt asks the model to answer for empty images.
const noTextMarker = "NO_TEXT_FOUND"

// Recognition is a successful OCR answer.
type Recognition struct {
	Text     string
	Engine   string
	Duration time.Duration
}

// Engine recognizes text in captured pixels.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image, language string) (Recognition, error)
}

// VisionClient sends one PNG and prompt to a vision model and returns its reply.
type VisionClient interface {
	Name() string
	QueryVision(ctx context.Context, imageData []byte, prompt string) (string, error)
}

// Options tune image preparation before upload.
type Options struct {
	// MinDimension upscales captures whose short side is smaller.
	MinDimension int
	Grayscale    bool
	// DebugSaveDir, when set, receives every PNG sent to the model.
	DebugSaveDir    string
	DefaultLanguage string
}

// VisionEngine runs OCR through a vision-capable chat model.
type VisionEngine struct {
	client VisionClient
	opts   Options
}

var _ Engine = (*VisionEngine)(nil)

func NewVisionEngine(client VisionClient, opts Options) *VisionEngine {
	return &VisionEngine{client: client, opts: opts}
}

func (e *VisionEngine) Name() string { return e.client.Name() }

// Recognize prepares img, asks the model for its text and cleans the answer.
// A blank answer is ErrNoText.
func (e *VisionEngine) Recognize(ctx context.Context, img image.Image, language string) (Recognition, error) {
	if img == nil || img.Bounds().Empty() {
		return Recognition{}, fmt.Errorf("empty image")
	}
	if language == "" {
		language = e.opts.DefaultLanguage
	}

	data, err := Prepare(img, e.opts)
	if err != nil {
		return Recognition{}, err
	}
	e.saveDebugImage(data, img.Bounds())

	start := time.Now()
	text, err := e.client.QueryVision(ctx, data, Prompt(language))
	elapsed := time.Since(start)
	if err != nil {
		return Recognition{}, fmt.Errorf("%s: %w", e.client.Name(), err)
	}

	text = CleanText(text)
	if strings.TrimSpace(text) == "" {
		return Recognition{}, ErrNoText
	}
	log.Printf("OCR: %s returned %d chars in %v", e.client.Name(), len(text), elapsed)
	return Recognition{Text: text, Engine: e.client.Name(), Duration: elapsed}, nil
}

func (e *VisionEngine) saveDebugImage(data []byte, b image.Rectangle) {
	if e.opts.DebugSaveDir == "" {
		return
	}
	name := fmt.Sprintf("%s/debug_captured_region_%dx%d_%d.png", e.opts.DebugSaveDir, b.Dx(), b.Dy(), time.Now().UnixNano())
	if err := os.WriteFile(name, data, 0600); err != nil {
		log.Printf("OCR: could not save debug image: %v", err)
		return
	}
	log.Printf("OCR: saved captured region to %s (%d bytes)", name, len(data))
}

// Prepare normalizes a capture for upload: small captures are upscaled so
// their short side reaches MinDimension, optionally converted to grayscale,
// then PNG-encoded.
func Prepare(img image.Image, opts Options) ([]byte, error) {
	b := img.Bounds()
	if short := min(b.Dx(), b.Dy()); opts.MinDimension > 0 && short > 0 && short < opts.MinDimension {
		if b.Dx() <= b.Dy() {
			img = imaging.Resize(img, opts.MinDimension, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, opts.MinDimension, imaging.Lanczos)
		}
	}
	if opts.Grayscale {
		img = imaging.Grayscale(img)
	}
	return screenshot.EncodePNG(img)
}

// Prompt builds the OCR instruction, with an optional language hint such as
// "en-US" or "de".
func Prompt(language string) string {
	var sb strings.Builder
	sb.WriteString("Perform OCR on this image. Return ONLY the raw extracted text with:\n" +
		"- No formatting\n" +
		"- No XML/HTML tags\n" +
		"- No markdown\n" +
		"- No explanations\n" +
		"- Preserve line breaks accurately from the visual layout.\n")
	if language = strings.TrimSpace(language); language != "" {
		fmt.Fprintf(&sb, "The text is expected to be in language %q.\n", language)
	}
	sb.WriteString("If no text found, return '" + noTextMarker + "'")
	return sb.String()
}

// CleanText strips artifacts vision models add around OCR output.
func CleanText(text string) string {
	text = strings.TrimSpace(text)
	if text == noTextMarker || text == "</image>" {
		return ""
	}
	text = strings.TrimSuffix(text, "</image>")
	if strings.HasPrefix(text, "```") {
		if i := strings.Index(text, "\n"); i >= 0 {
			text = text[i+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}
