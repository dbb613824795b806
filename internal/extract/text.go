package extract

import (
	"bytes"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readText reads UTF-8 first and falls back to Windows-1252 for legacy files.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", wrap("read text", err)
	}
	return decodeText(data)
}

func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", wrap("decode windows-1252", err)
	}
	return string(decoded), nil
}
