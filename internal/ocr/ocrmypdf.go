// Package ocr runs an external OCR tool that turns a scanned PDF into a
// searchable one.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultCommand is the OCR executable used when none is configured.
const DefaultCommand = "ocrmypdf"

// Runner runs an external command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Command: name, Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return eris.Wrapf(err, "run %s", name)
	}
	return nil
}

// OCRMyPDF drives the ocrmypdf command line tool.
type OCRMyPDF struct {
	Command   string
	Languages []string
	Runner    Runner
	Logger    *zap.Logger
}

// New creates an OCRMyPDF using command, or DefaultCommand when empty.
func New(command string, languages []string, logger *zap.Logger) *OCRMyPDF {
	if command == "" {
		command = DefaultCommand
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OCRMyPDF{
		Command:   command,
		Languages: languages,
		Runner:    ExecRunner{},
		Logger:    logger,
	}
}

// Args returns the command line for processing input into output with a
// sidecar text file. Pages that already carry text are left alone.
func (o *OCRMyPDF) Args(input, output, sidecar string) []string {
	args := []string{
		"--skip-text",
		"--deskew",
		"--rotate-pages",
		"--clean",
		"--sidecar", sidecar,
	}
	if len(o.Languages) > 0 {
		args = append(args, "-l", strings.Join(o.Languages, "+"))
	}
	return append(args, input, output)
}

// Process writes a searchable copy of input to output and its recognized
// text to sidecar.
func (o *OCRMyPDF) Process(ctx context.Context, input, output, sidecar string) error {
	args := o.Args(input, output, sidecar)
	o.Logger.Info("Running OCR",
		zap.String("command", o.Command),
		zap.Strings("args", args))

	return o.Runner.Run(ctx, o.Command, args...)
}
