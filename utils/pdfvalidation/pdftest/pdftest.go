// Package pdftest builds small well-formed PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Build returns a PDF with the given number of blank pages. padding adds a
// comment of that many bytes after the header to reach a target file size.
func Build(pages, padding int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	if padding > 0 {
		buf.WriteString("%")
		buf.Write(bytes.Repeat([]byte("x"), padding))
		buf.WriteString("\n")
	}

	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}

	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// BuildSize returns a one-page PDF of roughly size bytes
func BuildSize(size int) []byte {
	base := len(Build(1, 0))
	pad := size - base - 2
	if pad < 0 {
		pad = 0
	}
	return Build(1, pad)
}
