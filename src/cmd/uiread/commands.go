package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"screen-ui-agent/src/elevation"
	"screen-ui-agent/src/geometry"
	"screen-ui-agent/src/locate"
	"screen-ui-agent/src/textread"
	"screen-ui-agent/src/uitree"
	"screen-ui-agent/src/worker"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

func addQueryFlags(cmd *cobra.Command, q *uitree.ElementQuery) {
	f := cmd.Flags()
	f.StringVar(&q.WindowHandle, "window", "", "Window handle (decimal or 0x hex)")
	f.StringVar(&q.Name, "name", "", "Exact element name")
	f.StringVar(&q.NameContains, "name-contains", "", "Case-insensitive substring of the element name")
	f.StringVar(&q.NamePattern, "name-pattern", "", "Regular expression matched against the element name")
	f.StringVar(&q.ControlType, "control-type", "", "Control type, e.g. Button or Edit")
	f.StringVar(&q.AutomationID, "automation-id", "", "Automation id (Win32 control id)")
	f.StringVar(&q.ClassName, "class-name", "", "Window class name")
	f.IntVar(&q.FoundIndex, "found-index", 0, "1-based index among matches")
}

func newReadCmd(opts *cliOptions, env *environment) *cobra.Command {
	var (
		query    uitree.ElementQuery
		language string
		copyText bool
	)
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read an element's text, falling back to OCR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd, opts)
			defer cancel()

			engine, err := env.newEngine(opts.cfg)
			if err != nil {
				log.Printf("OCR fallback disabled: %v", err)
				engine = nil
			}
			reader := textread.NewReader(env.tree, env.desktop, env.capturer, engine, opts.cfg.OCRLanguage)

			res, err := reader.ReadText(ctx, query, query.IncludeChildren, language)
			if err != nil {
				return err
			}

			if copyText && res.Usable() {
				if err := env.copyText(res.Text); err != nil {
					log.Printf("Clipboard write failed: %v", err)
				}
			}

			if opts.jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			} else if res.Usable() {
				fmt.Fprint(cmd.OutOrStdout(), res.Text)
			}
			if !res.Usable() {
				return fmt.Errorf("no text read (%s): %s", res.Outcome, res.Error)
			}
			return nil
		},
	}
	addQueryFlags(cmd, &query)
	cmd.Flags().BoolVar(&query.IncludeChildren, "include-children", false, "Include descendant text")
	cmd.Flags().StringVar(&language, "lang", "", "OCR language hint, e.g. en-US")
	cmd.Flags().BoolVar(&copyText, "copy", false, "Copy the text to the clipboard")
	return cmd
}

func newFindCmd(opts *cliOptions, env *environment) *cobra.Command {
	var query uitree.ElementQuery
	cmd := &cobra.Command{
		Use:   "find",
		Short: "List matching elements with monitor-relative placements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd, opts)
			defer cancel()

			res, err := locate.NewLocator(env.tree, env.topology).Find(ctx, query)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	addQueryFlags(cmd, &query)
	return cmd
}

type monitorsOutput struct {
	Monitors     []geometry.MonitorDescriptor `json:"monitors"`
	PrimaryIndex int                          `json:"primary_index"`
	Desktop      geometry.ScreenRect          `json:"desktop"`
}

func newMonitorsCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "monitors",
		Short: "List the current monitor layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			monitors, err := env.topology.Monitors(cmd.Context())
			if err != nil {
				return err
			}
			desktop, err := geometry.Union(monitors)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), monitorsOutput{
				Monitors:     monitors,
				PrimaryIndex: geometry.PrimaryIndex(monitors),
				Desktop:      desktop,
			})
		},
	}
}

type mapOutput struct {
	Rect      geometry.ScreenRect        `json:"rect"`
	CenterX   int                        `json:"center_x"`
	CenterY   int                        `json:"center_y"`
	Placement geometry.Placement         `json:"placement"`
	Monitor   geometry.MonitorDescriptor `json:"monitor"`
}

func newMapCmd(env *environment) *cobra.Command {
	var (
		rect    geometry.ScreenRect
		monitor int
	)
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Map an absolute rectangle onto the monitor containing its center",
		Long: `Maps an absolute rectangle onto the monitor containing its center. With
--monitor N the rectangle is taken as relative to monitor N and converted to
absolute coordinates first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rect.Width < 0 || rect.Height < 0 {
				return &usageError{err: fmt.Errorf("width and height must not be negative")}
			}
			monitors, err := env.topology.Monitors(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("monitor") {
				rect, err = geometry.FromMonitorRelative(geometry.Placement{
					MonitorIndex: monitor,
					Rect:         geometry.MonitorRelativeRect{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height},
				}, monitors)
				if errors.Is(err, geometry.ErrMonitorIndex) {
					return &usageError{err: fmt.Errorf("--monitor %d: %w (have %d)", monitor, err, len(monitors))}
				}
				if err != nil {
					return err
				}
			}
			p, err := geometry.ToMonitorRelative(rect, monitors)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), mapOutput{
				Rect:      rect,
				CenterX:   rect.CenterX(),
				CenterY:   rect.CenterY(),
				Placement: p,
				Monitor:   monitors[p.MonitorIndex],
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&rect.X, "x", 0, "Left edge in screen coordinates")
	f.IntVar(&rect.Y, "y", 0, "Top edge in screen coordinates")
	f.IntVar(&rect.Width, "width", 0, "Width in pixels")
	f.IntVar(&rect.Height, "height", 0, "Height in pixels")
	f.IntVar(&monitor, "monitor", 0, "Treat --x/--y as relative to this monitor index")
	return cmd
}

func newElevatedCmd(env *environment) *cobra.Command {
	var (
		pid  uint32
		x, y int
	)
	cmd := &cobra.Command{
		Use:   "elevated",
		Short: "Report whether a process, or the window at a point, runs elevated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := elevation.NewClassifier(env.tokens, env.desktop)
			f := cmd.Flags()
			byPID := f.Changed("pid")
			byPoint := f.Changed("x") || f.Changed("y")

			var report elevation.Report
			switch {
			case byPID && byPoint:
				return &usageError{err: errors.New("use either --pid or --x/--y, not both")}
			case byPID:
				report = c.Describe(pid)
			case f.Changed("x") && f.Changed("y"):
				report = c.DescribePoint(x, y)
			default:
				return &usageError{err: errors.New("--pid or both --x and --y are required")}
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	f := cmd.Flags()
	f.Uint32Var(&pid, "pid", 0, "Process id")
	f.IntVar(&x, "x", 0, "Screen x of the target window")
	f.IntVar(&y, "y", 0, "Screen y of the target window")
	return cmd
}

func newBatchCmd(opts *cliOptions, env *environment) *cobra.Command {
	var (
		filePath string
		workers  int
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run several reads concurrently from a JSON array of jobs",
		Long: `Reads a JSON array of jobs, each {"query": {...}, "lang": "..."} where
query uses the read filters' JSON names (window_handle, name, ...), and prints
one outcome per job in input order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd, opts)
			defer cancel()

			raw, err := readLimited(filePath, cmd.InOrStdin())
			if errors.Is(err, errInputTooLarge) {
				return &usageError{err: err}
			}
			if err != nil {
				return fmt.Errorf("failed to read jobs: %w", err)
			}
			var jobs []worker.Job
			if err := json.Unmarshal(raw, &jobs); err != nil {
				return &usageError{err: fmt.Errorf("invalid jobs JSON: %w", err)}
			}

			engine, err := env.newEngine(opts.cfg)
			if err != nil {
				log.Printf("OCR fallback disabled: %v", err)
				engine = nil
			}
			reader := textread.NewReader(env.tree, env.desktop, env.capturer, engine, opts.cfg.OCRLanguage)

			outcomes := worker.ReadAll(ctx, reader, jobs, workers)
			if err := ctx.Err(); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), outcomes)
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "-", "Path to the jobs JSON file (use '-' for stdin)")
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent reads")
	return cmd
}

// OCRResult is the JSON shape of the ocr command.
type OCRResult struct {
	Text       string `json:"text"`
	Source     string `json:"source"`
	Engine     string `json:"engine"`
	Timestamp  string `json:"timestamp"`
	DurationMs int64  `json:"duration_ms"`
	CharCount  int    `json:"character_count"`
}

func newOCRCmd(opts *cliOptions, env *environment) *cobra.Command {
	var (
		filePath string
		language string
	)
	cmd := &cobra.Command{
		Use:   "ocr",
		Short: "Run the configured OCR engine on a PNG file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd, opts)
			defer cancel()

			engine, err := env.newEngine(opts.cfg)
			if err != nil {
				return err
			}
			if engine == nil {
				return &usageError{err: errors.New("OCR provider is none")}
			}

			data, err := readInput(filePath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			img, _, err := image.Decode(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("failed to decode PNG: %w", err)
			}

			if language == "" {
				language = opts.cfg.OCRLanguage
			}
			rec, err := engine.Recognize(ctx, img, language)
			if err != nil {
				return fmt.Errorf("OCR failed: %w", err)
			}

			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), OCRResult{
					Text:       rec.Text,
					Source:     filePath,
					Engine:     rec.Engine,
					Timestamp:  time.Now().UTC().Format(time.RFC3339),
					DurationMs: rec.Duration.Milliseconds(),
					CharCount:  len([]rune(rec.Text)),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), rec.Text)
			return nil
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "Path to PNG file (use '-' for stdin)")
	cmd.Flags().StringVar(&language, "lang", "", "Language hint, e.g. en-US")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

var errInputTooLarge = fmt.Errorf("input exceeds maximum size of %d MB", maxFileSizeMB)

// readLimited reads filePath, or stdin for "-", rejecting anything over maxFileSize.
func readLimited(filePath string, stdin io.Reader) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if filePath == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
		}
	}
	if len(data) > maxFileSize {
		return nil, errInputTooLarge
	}
	return data, nil
}

func readInput(filePath string, stdin io.Reader) ([]byte, error) {
	data, err := readLimited(filePath, stdin)
	if err != nil {
		return nil, err
	}
	if err := validatePNG(data); err != nil {
		return nil, err
	}
	return data, nil
}

func validatePNG(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("input file is empty")
	}
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		return fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}
	return nil
}
