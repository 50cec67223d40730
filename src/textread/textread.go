// Package textread reads the text of a UI element, preferring the
// accessibility tree and falling back to OCR over the window's pixels.
package textread

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"strings"
	"time"

	"screen-ui-agent/src/geometry"
	"screen-ui-agent/src/logutil"
	"screen-ui-agent/src/ocr"
	"screen-ui-agent/src/uitree"
)

// Engine names the path that produced a result's text.
type Engine string

const (
	EngineStructured Engine = "structured"
	EngineOCR        Engine = "ocr"
)

// Outcome records which branch of ReadText produced the result.
type Outcome string

const (
	OutcomeStructuredSuccess Outcome = "structured_success"
	OutcomeOCRSuccess        Outcome = "ocr_success"
	// OutcomeOCRAttempted: structured read unusable, OCR ran and failed.
	OutcomeOCRAttempted Outcome = "structured_failure_ocr_attempted"
	// OutcomeOCRSkipped: structured read unusable, OCR could not run.
	OutcomeOCRSkipped Outcome = "structured_failure_ocr_skipped"
)

const (
	structuredHint = "Text was read from the element's accessibility properties and is exact."
	ocrHint        = "Text was recognized by OCR from a screenshot of the window and may contain recognition errors; verify exact values before acting on them."
)

// Result has the same shape whichever engine produced the text.
type Result struct {
	Success      bool    `json:"success"`
	Text         string  `json:"text,omitempty"`
	SourceEngine Engine  `json:"source_engine"`
	DurationMs   int64   `json:"duration_ms"`
	UsageHint    string  `json:"usage_hint,omitempty"`
	OCREngine    string  `json:"ocr_engine,omitempty"`
	Outcome      Outcome `json:"outcome"`
	Error        string  `json:"error,omitempty"`
}

// Usable reports whether either engine produced text.
func (r Result) Usable() bool {
	return r.Outcome == OutcomeStructuredSuccess || r.Outcome == OutcomeOCRSuccess
}

// CallerFaultError reports a query the caller must fix. It is never retried.
type CallerFaultError struct {
	Field  string
	Reason string
	Err    error
}

func (e *CallerFaultError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *CallerFaultError) Unwrap() error { return e.Err }

// IsCallerFault reports whether err came from a bad query.
func IsCallerFault(err error) bool {
	var cf *CallerFaultError
	return errors.As(err, &cf)
}

// IsCancelled reports whether err is a cancellation or deadline outcome.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// WindowQuery resolves a window's current screen rectangle.
type WindowQuery interface {
	WindowRect(window uitree.Handle) (geometry.ScreenRect, error)
}

// Capturer grabs the pixels of a screen rectangle.
type Capturer interface {
	Capture(ctx context.Context, rect geometry.ScreenRect) (image.Image, error)
}

// Reader holds only immutable collaborators and is safe for concurrent use.
type Reader struct {
	tree            uitree.Provider
	windows         WindowQuery
	capturer        Capturer
	engine          ocr.Engine
	defaultLanguage string
}

// NewReader returns a Reader. A nil engine disables the OCR fallback.
func NewReader(tree uitree.Provider, windows WindowQuery, capturer Capturer, engine ocr.Engine, defaultLanguage string) *Reader {
	return &Reader{
		tree:            tree,
		windows:         windows,
		capturer:        capturer,
		engine:          engine,
		defaultLanguage: defaultLanguage,
	}
}

// ReadText resolves query to an element (or the whole window when nothing
// matches) and reads its text. Usable structured text is returned without
// running OCR. Otherwise OCR over the window rectangle is tried, and if that
// fails too the structured result is returned unchanged.
//
// Cancellation of ctx at any stage returns a zero Result and an error for
// which IsCancelled is true. A malformed query returns a *CallerFaultError.
func (r *Reader) ReadText(ctx context.Context, query uitree.ElementQuery, includeChildren bool, ocrLanguage string) (Result, error) {
	start := time.Now()

	hwnd, err := uitree.ParseHandle(query.WindowHandle)
	if err != nil {
		return Result{}, &CallerFaultError{Field: "window_handle", Reason: err.Error(), Err: err}
	}
	filters, err := query.Filters()
	if err != nil {
		return Result{}, &CallerFaultError{Field: "name_pattern", Reason: err.Error(), Err: err}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, cancelled("validate", err)
	}

	target, err := r.resolve(ctx, hwnd, query, filters)
	if err != nil {
		return Result{}, err
	}

	read, err := r.tree.Text(ctx, target, includeChildren)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, cancelled("structured read", ctxErr)
	}
	if err != nil {
		read = uitree.TextRead{Err: err}
	}

	structured := Result{
		Success:      read.Success,
		Text:         read.Text,
		SourceEngine: EngineStructured,
		DurationMs:   time.Since(start).Milliseconds(),
	}
	if read.Usable() {
		structured.UsageHint = structuredHint
		structured.Outcome = OutcomeStructuredSuccess
		log.Printf("TEXTREAD: structured read of %s: %q", target, logutil.SanitizeText(read.Text))
		return structured, nil
	}
	switch {
	case read.Err != nil:
		structured.Error = read.Err.Error()
	case read.Success:
		structured.Error = "element has no text"
	default:
		structured.Error = "structured text read failed"
	}
	log.Printf("TEXTREAD: structured read of %s unusable (%s), trying OCR", target, structured.Error)

	return r.ocrFallback(ctx, hwnd, ocrLanguage, structured)
}

// resolve picks the FoundIndex-th match, or the whole window when the query has
// no filters, nothing matches, or the provider cannot search.
func (r *Reader) resolve(ctx context.Context, hwnd uitree.Handle, query uitree.ElementQuery, filters []uitree.Filter) (uitree.Target, error) {
	target := uitree.Target{Window: hwnd}
	if !query.HasFilters() {
		return target, nil
	}

	nodes, err := r.tree.FindNodes(ctx, hwnd, filters)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return target, cancelled("resolve", ctxErr)
	}
	if err != nil {
		log.Printf("TEXTREAD: find in %s failed, reading whole window: %v", hwnd, err)
		return target, nil
	}
	if node := uitree.Select(nodes, query.Index()); node != nil {
		target.Node = node
		return target, nil
	}
	log.Printf("TEXTREAD: %d match(es) for %v in %s, index %d not found; reading whole window", len(nodes), filters, hwnd, query.Index())
	return target, nil
}

func (r *Reader) ocrFallback(ctx context.Context, hwnd uitree.Handle, language string, structured Result) (Result, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, cancelled("ocr fallback", ctxErr)
	}
	if r.engine == nil {
		return skipped(structured, "no OCR engine configured"), nil
	}
	rect, err := r.windows.WindowRect(hwnd)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, cancelled("window rect", ctxErr)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Result{}, cancelled("window rect", err)
		}
		return skipped(structured, fmt.Sprintf("window rect unavailable: %v", err)), nil
	}

	img, err := r.capturer.Capture(ctx, rect)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, cancelled("capture", ctxErr)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Result{}, cancelled("capture", err)
		}
		return attempted(structured, fmt.Sprintf("capture %v: %v", rect, err)), nil
	}

	if language == "" {
		language = r.defaultLanguage
	}
	rec, err := r.engine.Recognize(ctx, img, language)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, cancelled("ocr", ctxErr)
	}
	if err != nil {
		// An engine-internal deadline is an OCR failure; only an explicit
		// cancellation from below is propagated.
		if errors.Is(err, context.Canceled) {
			return Result{}, cancelled("ocr", err)
		}
		return attempted(structured, fmt.Sprintf("%s: %v", r.engine.Name(), err)), nil
	}
	if strings.TrimSpace(rec.Text) == "" {
		return attempted(structured, r.engine.Name()+" returned no text"), nil
	}

	log.Printf("TEXTREAD: OCR of %s by %s in %v: %q", rect, rec.Engine, rec.Duration, logutil.SanitizeText(rec.Text))
	return Result{
		Success:      true,
		Text:         rec.Text,
		SourceEngine: EngineOCR,
		DurationMs:   rec.Duration.Milliseconds(),
		UsageHint:    ocrHint,
		OCREngine:    rec.Engine,
		Outcome:      OutcomeOCRSuccess,
	}, nil
}

func skipped(structured Result, why string) Result {
	log.Printf("TEXTREAD: OCR skipped: %s", why)
	structured.Outcome = OutcomeOCRSkipped
	return structured
}

func attempted(structured Result, why string) Result {
	log.Printf("TEXTREAD: OCR failed, returning structured result: %s", why)
	structured.Outcome = OutcomeOCRAttempted
	return structured
}

func cancelled(stage string, err error) error {
	log.Printf("TEXTREAD: cancelled during %s", stage)
	return fmt.Errorf("read text cancelled during %s: %w", stage, err)
}
