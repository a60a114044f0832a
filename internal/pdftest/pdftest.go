// Package pdftest builds tiny but structurally valid PDF buffers for tests,
// so codec and engine tests run against real byte streams instead of mocks.
package pdftest

import (
	"bytes"
	"fmt"
)

// Letter media box used for every generated page.
const (
	PageWidth  = 612
	PageHeight = 792
)

// Build returns a minimal PDF with n empty letter-sized pages and a correct
// cross-reference table. n must be >= 1.
func Build(n int) []byte {
	if n < 1 {
		panic("pdftest: page count must be >= 1")
	}

	var b bytes.Buffer
	var offsets []int
	add := func(body string) {
		offsets = append(offsets, b.Len())
		b.WriteString(body)
	}

	b.WriteString("%PDF-1.4\n")

	// Object 1: catalog, object 2: page tree, objects 3..n+2: pages.
	kids := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			kids += " "
		}
		kids += fmt.Sprintf("%d 0 R", 3+i)
	}
	add("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	add(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", kids, n))
	for i := 0; i < n; i++ {
		add(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << >> >>\nendobj\n",
			3+i, PageWidth, PageHeight))
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(offsets)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return b.Bytes()
}
