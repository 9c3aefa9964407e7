package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ObjectStorage stores generated documents (PIX QR images, carnê PDFs)
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	// DownloadURL returns a time limited URL for key
	DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ObjectKey namespaces generated documents per tenant: tenants/<id>/<kind>/<name>
func ObjectKey(tenantID uuid.UUID, kind, name string) string {
	return fmt.Sprintf("tenants/%s/%s/%s", tenantID, kind, name)
}
