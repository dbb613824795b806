package extract

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestExtract_PlainText(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("\xEF\xBB\xBFHello world. Привет."))
	if got := New().Extract(path); got != "Hello world. Привет." {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestExtract_LegacyEncodingFallback(t *testing.T) {
	// 0x93/0x94 are curly quotes in Windows-1252 and invalid UTF-8.
	path := writeFile(t, "legacy.txt", []byte("He said \x93hi\x94."))
	if got := New().Extract(path); got != "He said “hi”." {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestExtract_UnknownExtensionReadAsText(t *testing.T) {
	path := writeFile(t, "data.log", []byte("line one"))
	if got := New().Extract(path); got != "line one" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestExtract_Markdown(t *testing.T) {
	src := "# Guide\n\nSome *bold* text.\nNext line.\n\n```\ncode()\n```\n"
	path := writeFile(t, "guide.md", []byte(src))

	got := New().Extract(path)
	for _, want := range []string{"Guide", "Some bold text.", "Next line.", "code()"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
	if strings.Contains(got, "*") || strings.Contains(got, "#") {
		t.Errorf("markup left in %q", got)
	}
}

func TestExtract_DOCX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create docx: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("failed to add body: %v", err)
	}
	body := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
</w:body></w:document>`
	if _, err := w.Write([]byte(body)); err != nil {
		t.Fatalf("failed to write body: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	f.Close()

	got := New().Extract(path)
	if got != "First paragraph.\nSecond paragraph." {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestExtract_FailuresDegradeToEmpty(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"missing": filepath.Join(dir, "missing.txt"),
		"bad pdf": writeFile(t, "broken.pdf", []byte("not a pdf")),
		"bad zip": writeFile(t, "broken.docx", []byte("not a zip")),
	}
	for name, path := range cases {
		if got := New().Extract(path); got != "" {
			t.Errorf("%s: expected empty text, got %q", name, got)
		}
	}
}

func TestSupported(t *testing.T) {
	for _, p := range []string{"a.pdf", "b.DOCX", "c.md", "d.txt"} {
		if !Supported(p) {
			t.Errorf("expected %s to be supported", p)
		}
	}
	if Supported("e.exe") {
		t.Errorf("expected .exe to be unsupported")
	}
}
