package location

import (
	"context"

	"github.com/benmeehan/fingerprint-agent/internal/models"
)

// FixSource produces position fixes for a single provider.
type FixSource interface {
	Fix(ctx context.Context) (*models.PositionFix, error)
	Close() error
}
