package converter

import (
	"github.com/rotisserie/eris"

	"pdf2text/internal/config"
)

// Every conversion failure wraps one of these. Test with eris.Is.
var (
	ErrNotFound = eris.New("input file not found")
	ErrNotAPdf  = eris.New("input file is not a PDF")
	ErrOCR      = eris.New("ocr pass failed")
	ErrNoEngine = config.ErrNoEngine
)
