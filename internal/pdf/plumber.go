package pdf

import (
	"strings"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// PlumberName is the engine name used in flags and output file names.
const PlumberName = "pdfplumber"

// Plumber extracts text with github.com/ledongthuc/pdf. Page texts are
// concatenated with no separator.
type Plumber struct{}

// Name implements Engine.
func (Plumber) Name() string { return PlumberName }

// ExtractText extracts all text from the PDF at path.
func (Plumber) ExtractText(path string) (text string, err error) {
	defer recoverErr(path, &err)

	file, reader, err := lpdf.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "open %s", path)
	}
	defer file.Close()

	var sb strings.Builder
	n := reader.NumPage()
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", eris.Wrapf(err, "page %d of %s", i, path)
		}
		sb.WriteString(content)
	}
	return sb.String(), nil
}
