package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// PDFExtractor pulls plain text out of the indexed document. UniPDF is used
// when a license key is configured, ledongthuc/pdf otherwise.
type PDFExtractor struct {
	useUnipdf bool
}

// NewPDFExtractor registers the UniPDF metered key, if any. The key is
// process-global, so call this once.
func NewPDFExtractor(unidocLicenseKey string) *PDFExtractor {
	if unidocLicenseKey == "" {
		return &PDFExtractor{}
	}
	if err := license.SetMeteredKey(unidocLicenseKey); err != nil {
		log.Warn().Err(err).Msg("Failed to set Unidoc license key, falling back to ledongthuc/pdf")
		return &PDFExtractor{}
	}
	return &PDFExtractor{useUnipdf: true}
}

// ExtractText reads a file and returns its text content. Plain text and
// markdown files are returned as is.
func (e *PDFExtractor) ExtractText(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".txt", ".md":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(content), nil
	case ".pdf":
		if e.useUnipdf {
			return extractWithUnipdf(path)
		}
		return extractWithLedongthuc(path)
	default:
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}
}

func extractWithUnipdf(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return "", err
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}

		text, err := ex.ExtractText()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

func extractWithLedongthuc(path string) (string, error) {
	f, reader, err := ledongthuc.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}
