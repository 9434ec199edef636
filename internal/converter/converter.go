// Package converter turns PDF files into text files, optionally running an
// OCR pass first. Every artifact is regenerated only when it is missing or
// older than the file it is derived from.
package converter

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rotisserie/eris"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"pdf2text/internal/config"
	"pdf2text/internal/ocr"
	"pdf2text/internal/pdf"
)

const (
	pdfMIME = "application/pdf"

	// OCRSuffix is appended to the input base name for OCR artifacts.
	OCRSuffix = ".tesseract"
)

// Converter runs the Validate, OCR, Extract and Write pipeline.
type Converter struct {
	config  *config.Config
	engines []pdf.Engine
	ocr     OCRProcessor
	logger  *zap.Logger
}

// OCRProcessor produces a searchable PDF and a sidecar text file from input.
type OCRProcessor interface {
	Process(ctx context.Context, input, output, sidecar string) error
}

// Output describes one text file produced by an engine.
type Output struct {
	Engine  string
	Path    string
	Skipped bool
}

// Result describes a single conversion.
type Result struct {
	Input string
	// OCRPath is empty when OCR is disabled.
	OCRPath    string
	OCRSkipped bool
	Outputs    []Output
}

// NewConverter creates a converter for the engines selected in cfg.
func NewConverter(cfg *config.Config, logger *zap.Logger) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	engines := make([]pdf.Engine, 0, len(cfg.Engines))
	for _, name := range cfg.Engines {
		engine, err := pdf.Lookup(name)
		if err != nil {
			return nil, err
		}
		engines = append(engines, engine)
	}

	return &Converter{
		config:  cfg,
		engines: engines,
		ocr:     ocr.New(cfg.OCRCommand, cfg.OCRLanguages, logger),
		logger:  logger,
	}, nil
}

// Basename returns the file name of path without its extension.
func Basename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Resolve returns the absolute path of input, relative to the source directory.
func (c *Converter) Resolve(input string) (string, error) {
	if !filepath.IsAbs(input) {
		input = filepath.Join(c.config.SourceDir, input)
	}
	return filepath.Abs(input)
}

// OCRPath returns where the searchable PDF for input is written.
func (c *Converter) OCRPath(input string) string {
	return filepath.Join(c.config.TargetDir, Basename(input)+OCRSuffix+".pdf")
}

// SidecarPath returns where the OCR text for input is written.
func (c *Converter) SidecarPath(input string) string {
	return filepath.Join(c.config.TargetDir, Basename(input)+OCRSuffix+".txt")
}

// OutputPath returns where the text extracted from input by engine is written.
func (c *Converter) OutputPath(input, engine string) string {
	return filepath.Join(c.config.TargetDir, Basename(input)+"."+engine+".txt")
}

// Validate checks that path exists and holds a PDF.
func (c *Converter) Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return eris.Wrapf(ErrNotFound, "%s", path)
		}
		return eris.Wrapf(err, "stat %s", path)
	}
	if info.IsDir() {
		return eris.Wrapf(ErrNotAPdf, "%s is a directory", path)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return eris.Wrapf(err, "detect type of %s", path)
	}
	if !mtype.Is(pdfMIME) {
		return eris.Wrapf(ErrNotAPdf, "%s has type %s", path, mtype.String())
	}
	return nil
}

// OCR returns the file text should be extracted from. With OCR disabled that
// is input itself. Otherwise the OCR artifact is (re)generated when stale and
// its path returned; reused reports whether an existing artifact was kept.
func (c *Converter) OCR(ctx context.Context, input string) (path string, reused bool, err error) {
	if !c.config.OCREnabled {
		return input, false, nil
	}

	output := c.OCRPath(input)
	regen, err := stale(input, output)
	if err != nil {
		return "", false, err
	}
	if !regen {
		c.logger.Info("OCR artifact is up to date",
			zap.String("input", input),
			zap.String("ocr", output))
		return output, true, nil
	}

	if err := c.ocr.Process(ctx, input, output, c.SidecarPath(input)); err != nil {
		return "", false, eris.Wrapf(ErrOCR, "%s (%v)", input, err)
	}
	c.logger.Info("OCR artifact written",
		zap.String("input", input),
		zap.String("ocr", output))
	return output, false, nil
}

// Extract returns the full text of path as read by engine.
func (c *Converter) Extract(path string, engine pdf.Engine) (string, error) {
	text, err := engine.ExtractText(path)
	if err != nil {
		return "", eris.Wrapf(err, "extract %s with %s", path, engine.Name())
	}
	return text, nil
}

// Write overwrites output with text.
func (c *Converter) Write(text, output string) error {
	if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
		return eris.Wrapf(err, "write %s", output)
	}
	return nil
}

// Convert runs the full pipeline for input. A missing or invalid input
// leaves the target directory untouched.
func (c *Converter) Convert(ctx context.Context, input string) (*Result, error) {
	path, err := c.Resolve(input)
	if err != nil {
		return nil, eris.Wrapf(err, "resolve %s", input)
	}
	if err := c.Validate(path); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(c.config.TargetDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "create target directory %s", c.config.TargetDir)
	}

	result := &Result{Input: path}

	source, reused, err := c.OCR(ctx, path)
	if err != nil {
		return nil, err
	}
	// A regenerated OCR artifact invalidates every text output derived from it.
	forced := false
	if c.config.OCREnabled {
		result.OCRPath = source
		result.OCRSkipped = reused
		forced = !reused
	}

	for _, engine := range c.engines {
		out := Output{Engine: engine.Name(), Path: c.OutputPath(path, engine.Name())}

		regen := forced
		if !regen {
			if regen, err = stale(source, out.Path); err != nil {
				return nil, err
			}
		}
		if !regen {
			out.Skipped = true
			result.Outputs = append(result.Outputs, out)
			c.logger.Info("Text output is up to date",
				zap.String("input", path),
				zap.String("engine", out.Engine),
				zap.String("output", out.Path),
				zap.Bool("skipped", true))
			continue
		}

		text, err := c.Extract(source, engine)
		if err != nil {
			return nil, err
		}
		if err := c.Write(text, out.Path); err != nil {
			return nil, err
		}
		result.Outputs = append(result.Outputs, out)
		c.logger.Info("Text output written",
			zap.String("input", path),
			zap.String("engine", out.Engine),
			zap.String("output", out.Path),
			zap.Int("chars", len(text)))
	}

	return result, nil
}

// ConvertDir converts every PDF directly inside the source directory, in
// name order. A failing file does not stop the others; all failures are
// returned together.
func (c *Converter) ConvertDir(ctx context.Context) ([]*Result, error) {
	entries, err := os.ReadDir(c.config.SourceDir)
	if err != nil {
		return nil, eris.Wrapf(err, "read source directory %s", c.config.SourceDir)
	}

	var results []*Result
	var errs error
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		// OCR artifacts land here when source and target are the same directory.
		if strings.HasSuffix(Basename(name), OCRSuffix) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, multierr.Append(errs, err)
		}

		result, err := c.Convert(ctx, filepath.Join(c.config.SourceDir, name))
		if err != nil {
			c.logger.Error("Conversion failed", zap.String("input", name), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		results = append(results, result)
	}

	c.logger.Info("Directory converted",
		zap.String("source", c.config.SourceDir),
		zap.Int("converted", len(results)),
		zap.Int("failed", len(multierr.Errors(errs))))
	return results, errs
}

// stale reports whether artifact is missing or older than source.
func stale(source, artifact string) (bool, error) {
	ai, err := os.Stat(artifact)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "stat %s", artifact)
	}
	si, err := os.Stat(source)
	if err != nil {
		return false, eris.Wrapf(err, "stat %s", source)
	}
	return ai.ModTime().Before(si.ModTime()), nil
}
