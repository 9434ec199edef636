// Package pdf provides the text extraction engines used to turn a PDF file
// into a single string.
package pdf

import (
	"sort"

	"github.com/rotisserie/eris"
)

// ErrUnknownEngine is returned by Lookup for names that have no engine.
var ErrUnknownEngine = eris.New("unknown extraction engine")

// Engine extracts the full text of a PDF document, page by page in page order.
type Engine interface {
	Name() string
	ExtractText(path string) (string, error)
}

var engines = map[string]Engine{
	PlumberName: Plumber{},
	MinerName:   Miner{},
}

// Lookup returns the engine registered under name.
func Lookup(name string) (Engine, error) {
	e, ok := engines[name]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownEngine, "engine %q", name)
	}
	return e, nil
}

// Names returns the registered engine names in sorted order.
func Names() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// recoverErr turns a panic raised inside a PDF library into an error.
// Both readers panic on malformed input instead of returning errors.
func recoverErr(path string, err *error) {
	if r := recover(); r != nil {
		*err = eris.Errorf("malformed pdf %s: %v", path, r)
	}
}
