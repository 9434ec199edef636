package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRunner records the command it was asked to run.
type MockRunner struct {
	name string
	args []string
	err  error
}

func (m *MockRunner) Run(ctx context.Context, name string, args ...string) error {
	m.name = name
	m.args = args
	return m.err
}

func TestNew_Defaults(t *testing.T) {
	o := New("", nil, nil)
	assert.Equal(t, DefaultCommand, o.Command)
	assert.IsType(t, ExecRunner{}, o.Runner)
	assert.NotNil(t, o.Logger)

	o = New("/opt/bin/ocrmypdf", nil, nil)
	assert.Equal(t, "/opt/bin/ocrmypdf", o.Command)
}

func TestOCRMyPDF_Args(t *testing.T) {
	o := New("", nil, nil)
	assert.Equal(t, []string{
		"--skip-text", "--deskew", "--rotate-pages", "--clean",
		"--sidecar", "out.txt",
		"in.pdf", "out.pdf",
	}, o.Args("in.pdf", "out.pdf", "out.txt"))

	o.Languages = []string{"eng", "dan"}
	args := o.Args("in.pdf", "out.pdf", "out.txt")
	assert.Equal(t, []string{"-l", "eng+dan", "in.pdf", "out.pdf"}, args[len(args)-4:])
}

func TestOCRMyPDF_Process(t *testing.T) {
	runner := &MockRunner{}
	o := New("ocrmypdf", nil, nil)
	o.Runner = runner

	err := o.Process(context.Background(), "a.pdf", "a.tesseract.pdf", "a.tesseract.txt")
	require.NoError(t, err)
	assert.Equal(t, "ocrmypdf", runner.name)
	assert.Equal(t, "a.tesseract.pdf", runner.args[len(runner.args)-1])
}

func TestOCRMyPDF_ProcessError(t *testing.T) {
	runner := &MockRunner{err: &ExitError{Command: "ocrmypdf", Code: 2, Stderr: "bad input\n"}}
	o := New("", nil, nil)
	o.Runner = runner

	err := o.Process(context.Background(), "a.pdf", "b.pdf", "b.txt")
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
	assert.Equal(t, "ocrmypdf exited with status 2: bad input", err.Error())
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	dir := t.TempDir()

	ok := filepath.Join(dir, "ok.sh")
	require.NoError(t, os.WriteFile(ok, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	assert.NoError(t, ExecRunner{}.Run(context.Background(), ok))

	fail := filepath.Join(dir, "fail.sh")
	require.NoError(t, os.WriteFile(fail, []byte("#!/bin/sh\necho broken >&2\nexit 3\n"), 0o755))
	err := ExecRunner{}.Run(context.Background(), fail)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.Code)
	assert.Contains(t, exitErr.Stderr, "broken")

	err = ExecRunner{}.Run(context.Background(), filepath.Join(dir, "missing"))
	assert.Error(t, err)
	assert.False(t, errors.As(err, &exitErr))
}
