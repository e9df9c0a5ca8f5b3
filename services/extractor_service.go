package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github/itish2003/docsearch/logger"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

var ErrUnsupportedFile = errors.New("unsupported file type")

// Extractor turns a document on disk into page-level text blocks.
type Extractor interface {
	ExtractPages(path string) ([]string, error)
}

// PDFExtractor uses UniPDF to pull the text out of every page.
type PDFExtractor struct{}

// NewPDFExtractor registers the UniDoc metered key. Without one, extraction is
// attempted anyway and UniPDF reports the licensing problem per document.
func NewPDFExtractor(licenseKey string, log logger.ILogger) *PDFExtractor {
	if licenseKey == "" {
		log.Warn("SERVICE", "UNIDOC_LICENSE_KEY not set, PDF extraction may fail", nil)
		return &PDFExtractor{}
	}
	if err := license.SetMeteredKey(licenseKey); err != nil {
		log.Error("SERVICE", "Failed to set Unidoc license key", map[string]interface{}{"error": err.Error()})
	}
	return &PDFExtractor{}
}

func (p *PDFExtractor) ExtractPages(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("failed to load page %d: %w", i, err)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("failed to create extractor for page %d: %w", i, err)
		}

		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// checkUploadName accepts only names with a .pdf extension.
func checkUploadName(filename string) error {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if ext != ".pdf" {
		return fmt.Errorf("%w: %q (expected .pdf)", ErrUnsupportedFile, ext)
	}
	return nil
}

// writeTempUpload copies the upload into a fresh temp file. The caller owns
// the returned path and must remove it.
func writeTempUpload(dir string, r io.Reader) (string, error) {
	tmp, err := os.CreateTemp(dir, "upload-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return path, nil
}
