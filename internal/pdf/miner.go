package pdf

import (
	"os"
	"strings"

	dpdf "github.com/dslipak/pdf"
	"github.com/rotisserie/eris"
)

// MinerName is the engine name used in flags and output file names.
const MinerName = "pdfminer"

// PageBreak terminates every page in Miner output.
const PageBreak = "\f"

// Miner extracts text with github.com/dslipak/pdf. Every page, including
// the last, is followed by a form feed.
type Miner struct{}

// Name implements Engine.
func (Miner) Name() string { return MinerName }

// ExtractText extracts all text from the PDF at path.
func (Miner) ExtractText(path string) (text string, err error) {
	defer recoverErr(path, &err)

	f, err := os.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", eris.Wrapf(err, "stat %s", path)
	}

	reader, err := dpdf.NewReader(f, info.Size())
	if err != nil {
		return "", eris.Wrapf(err, "read %s", path)
	}

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
		sb.WriteString(PageBreak)
	}
	return sb.String(), nil
}
