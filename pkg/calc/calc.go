// Package calc provides small numeric helpers for progress reporting.
package calc

import "math"

const full = 100

// Progress returns the completed percentage of downloaded out of total, clamped to 0..100.
// An unknown total yields 0.
func Progress(downloaded, total int) int {
	if total <= 0 || downloaded <= 0 {
		return 0
	}

	pct := int(math.Round(float64(downloaded) / float64(total) * full))
	if pct > full {
		return full
	}

	return pct
}
