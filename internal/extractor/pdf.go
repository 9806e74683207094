package extractor

import (
	"fmt"
	"io"
	"os"

	pdflib "github.com/ledongthuc/pdf"

	"pdfrag/internal/domain"
)

// PDF is a PageSource backed by github.com/ledongthuc/pdf.
type PDF struct {
	reader  *pdflib.Reader
	closer  io.Closer
	cleanup func()
}

// OpenPDF opens the PDF at path.
func OpenPDF(path string) (*PDF, error) {
	f, r, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrExtraction, path, err)
	}
	return &PDF{reader: r, closer: f}, nil
}

// ReadPDF parses a PDF from an in-memory or file-backed reader.
func ReadPDF(r io.ReaderAt, size int64) (*PDF, error) {
	reader, err := pdflib.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: parse: %v", domain.ErrExtraction, err)
	}
	return &PDF{reader: reader}, nil
}

// FromUpload spools an uploaded stream to a temp file, since the PDF reader
// needs random access and a known size. The temp file is removed on Close.
func FromUpload(r io.Reader) (*PDF, error) {
	tmp, err := os.CreateTemp("", "pdfrag-upload-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	doc, err := OpenPDF(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return nil, err
	}
	doc.cleanup = func() { os.Remove(tmpPath) }
	return doc, nil
}

func (p *PDF) NumPage() int { return p.reader.NumPage() }

func (p *PDF) PageText(page int) (string, error) {
	pg := p.reader.Page(page)
	if pg.V.IsNull() {
		return "", nil
	}
	return pg.GetPlainText(nil)
}

// Close releases the underlying file, if any.
func (p *PDF) Close() error {
	var err error
	if p.closer != nil {
		err = p.closer.Close()
	}
	if p.cleanup != nil {
		p.cleanup()
	}
	return err
}
