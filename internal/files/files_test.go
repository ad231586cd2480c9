package files

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// minimalPDF builds a well-formed PDF with the given number of empty pages
func minimalPDF(pages int) []byte {
	var kids []string
	for i := 0; i < pages; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", i+3))
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages),
	}
	for i := 0; i < pages; i++ {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestSelect_PDF(t *testing.T) {
	path := writeTemp(t, "paper.pdf", minimalPDF(2))

	file, ok, err := Select(path)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if !ok {
		t.Fatal("Select() rejected a PDF")
	}
	if file.Name != "paper.pdf" {
		t.Errorf("Name = %q, want paper.pdf", file.Name)
	}
	if file.ContentType != PDFContentType {
		t.Errorf("ContentType = %q", file.ContentType)
	}
	if file.Pages != 2 {
		t.Errorf("Pages = %d, want 2", file.Pages)
	}
	if file.Size() == 0 {
		t.Error("Data not loaded")
	}
}

func TestSelect_IgnoresNonPDF(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "notes.txt", data: []byte("just some notes")},
		{name: "fake.pdf", data: []byte("not really a pdf")},
		{name: "image.png", data: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")},
		{name: "empty.pdf", data: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, ok, err := Select(writeTemp(t, tt.name, tt.data))
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if ok || file != nil {
				t.Errorf("Select() = %v, %v; want nil, false", file, ok)
			}
		})
	}
}

func TestSelect_MissingFile(t *testing.T) {
	_, ok, err := Select(filepath.Join(t.TempDir(), "missing.pdf"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if ok {
		t.Error("ok should be false on error")
	}
}

func TestSelectReader_BrokenPDFStillAccepted(t *testing.T) {
	file, ok, err := SelectReader("broken.pdf", strings.NewReader("%PDF-1.7\ngarbage without xref"))
	if err != nil {
		t.Fatalf("SelectReader() error = %v", err)
	}
	if !ok {
		t.Fatal("a file with a PDF signature should pass")
	}
	if file.Pages != 0 {
		t.Errorf("Pages = %d, want 0", file.Pages)
	}
}

func TestIsPDF(t *testing.T) {
	if !IsPDF(minimalPDF(1)) {
		t.Error("IsPDF() = false for a PDF")
	}
	if IsPDF([]byte("{\"text\":\"hi\"}")) {
		t.Error("IsPDF() = true for JSON")
	}
}

func TestPlainText_BrokenPDF(t *testing.T) {
	if _, err := PlainText([]byte("%PDF-1.7\ngarbage without xref")); err == nil {
		t.Error("expected error for unparseable PDF")
	}
}
