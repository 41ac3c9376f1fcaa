package security

import (
	"crypto/sha256"
	"fmt"

	"github.com/rs/zerolog/log"
)

const bytesPerGB = 1_000_000_000.0
const bigQueryCostPerTB = 5.0 // USD

// CostTracker enforces a per-query bytes-processed ceiling for billed warehouses
type CostTracker struct {
	maxBytes int64
}

func NewCostTracker(maxBytes int64) *CostTracker {
	return &CostTracker{maxBytes: maxBytes}
}

// CheckLimits returns false and a message if bytes exceed the limit.
// A non-positive limit disables the check.
func (ct *CostTracker) CheckLimits(totalBytesProcessed int64) (bool, string) {
	if ct.maxBytes <= 0 || totalBytesProcessed <= ct.maxBytes {
		return true, ""
	}
	processedGB := float64(totalBytesProcessed) / bytesPerGB
	limitGB := float64(ct.maxBytes) / bytesPerGB
	return false, fmt.Sprintf(
		"query cost limit exceeded: processed %.2fGB, limit %.2fGB",
		processedGB, limitGB,
	)
}

// LogQueryCost logs query cost info with a hashed statement
func (ct *CostTracker) LogQueryCost(sql string, totalBytesProcessed int64, durationMs int64) {
	processedGB := float64(totalBytesProcessed) / bytesPerGB
	costUSD := processedGB / 1000.0 * bigQueryCostPerTB

	log.Info().
		Str("event", "query_cost").
		Str("sql_hash", shortHash(sql)).
		Float64("cost_gb", processedGB).
		Float64("cost_usd", costUSD).
		Int64("duration_ms", durationMs).
		Msg("query cost")
}

func shortHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)[:16]
}
