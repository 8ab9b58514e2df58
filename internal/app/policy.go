// internal/app/policy.go
package app

import (
	"fmt"
	"strings"
)

// WatermarkPolicy decides how far a rule's watermark moves when some of its due
// occurrences could not be written.
type WatermarkPolicy string

const (
	// PolicyRetryFailed stops at the first failed occurrence and advances the watermark only
	// over the contiguous run of applied dates before it. The failed date is retried next run.
	PolicyRetryFailed WatermarkPolicy = "retry"
	// PolicySkipForward attempts every due date and, if at least one was applied, advances the
	// watermark to the last due date. Failed dates are never retried and are reported as skipped.
	PolicySkipForward WatermarkPolicy = "skip_forward"
)

// DefaultWatermarkPolicy favors eventually writing every occurrence over forward progress.
const DefaultWatermarkPolicy = PolicyRetryFailed

func ParseWatermarkPolicy(s string) (WatermarkPolicy, error) {
	switch WatermarkPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyRetryFailed:
		return PolicyRetryFailed, nil
	case PolicySkipForward, "skip-forward":
		return PolicySkipForward, nil
	default:
		return "", fmt.Errorf("unknown watermark policy %q", s)
	}
}
