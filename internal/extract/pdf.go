package extract

import (
	"bytes"
	"io"

	"github.com/ledongthuc/pdf"
)

func readPDF(path string) (string, error) {
	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", wrap("open pdf", err)
	}
	defer f.Close()

	b, err := rdr.GetPlainText()
	if err != nil {
		return "", wrap("read pdf text", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", wrap("read pdf buffer", err)
	}
	return buf.String(), nil
}
