// Package printing renders carnê booklets and sale receipts as HTML and
// converts them to PDF with headless Chrome.
package printing

import (
	"context"
	"time"
)

// PaperSize names a supported output format
type PaperSize string

const (
	PaperA4         PaperSize = "A4"
	PaperA5         PaperSize = "A5"
	PaperReceipt80M PaperSize = "RECEIPT_80MM"
)

// Dimensions returns width and height in millimeters.
// Receipt paper is continuous; its height is only a page break hint.
func (p PaperSize) Dimensions() (width, height float64) {
	switch p {
	case PaperA5:
		return 148, 210
	case PaperReceipt80M:
		return 80, 3000
	default:
		return 210, 297
	}
}

func (p PaperSize) IsValid() bool {
	return p == PaperA4 || p == PaperA5 || p == PaperReceipt80M
}

// Margins in millimeters
type Margins struct {
	Top, Right, Bottom, Left float64
}

// RenderRequest describes one HTML to PDF conversion
type RenderRequest struct {
	HTML      string
	Title     string
	Paper     PaperSize
	Landscape bool
	Margins   Margins
	Timeout   time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// PDFRenderer converts HTML to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderError represents an error during rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
)

func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}
