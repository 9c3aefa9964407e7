package printing

import (
	"time"

	"github.com/google/uuid"
)

// Output formats
const (
	FormatPDF  = "pdf"
	FormatHTML = "html"
)

// DocumentRequest selects the output of a generated document
type DocumentRequest struct {
	Format string `form:"format" binding:"omitempty,oneof=pdf html"`
}

// DocumentResponse points at a generated document. HTML previews are returned inline.
type DocumentResponse struct {
	Kind       string     `json:"kind"`
	SaleID     uuid.UUID  `json:"sale_id"`
	SaleNumber string     `json:"sale_number"`
	Format     string     `json:"format"`
	URL        string     `json:"url,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	PageCount  int        `json:"page_count,omitempty"`
	SizeBytes  int        `json:"size_bytes,omitempty"`
	HTML       string     `json:"html,omitempty"`
}
