// Package stats holds the pure aggregation rules: name and average normalization,
// per-player and team rollups, achievement tiers, highlights and the public snapshot.
// Nothing here touches storage.
package stats

import "math"

// Round rounds half up, so 77.5 becomes 78 and -0.5 becomes 0.
func Round(x float64) int {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return int(math.Floor(x + 0.5))
}

// RoundRatio returns round(num / den), or 0 when den is 0.
func RoundRatio(num, den float64) int {
	if den == 0 {
		return 0
	}
	return Round(num / den)
}
