package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Payment providers retry webhook delivery for up to a day.
const dedupTTL = 24 * time.Hour

// DedupChecker provides idempotency checks for payment completions backed by
// Redis. Key format: completion:<job_id>:<session_id>
type DedupChecker struct {
	client *redis.Client
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
func NewDedupChecker(client *redis.Client) *DedupChecker {
	return &DedupChecker{client: client}
}

// IsDuplicate reports whether this completion has already been processed.
func (d *DedupChecker) IsDuplicate(ctx context.Context, jobID, sessionID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(jobID, sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this completion has been processed (expires after dedupTTL).
func (d *DedupChecker) Mark(ctx context.Context, jobID, sessionID string) error {
	return d.client.Set(ctx, d.key(jobID, sessionID), "1", dedupTTL).Err()
}

func (d *DedupChecker) key(jobID, sessionID string) string {
	return fmt.Sprintf("completion:%s:%s", jobID, sessionID)
}
