package ports

import (
	"context"

	"github.com/gradeidea/roast-service/internal/core/domain"
)

// RoastGenerator produces a structured critique for an idea. Implementations
// are expected to carry a bounded timeout (tens of seconds) and a small
// number of retries internally.
type RoastGenerator interface {
	Generate(ctx context.Context, input string, harshness int) (*domain.RoastResult, error)
}
