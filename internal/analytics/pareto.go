package analytics

import "sort"

// ParetoPoint is one entry of the descending cumulative-contribution curve.
type ParetoPoint struct {
	Role              string  `json:"role"`
	Count             float64 `json:"count"`
	Cumulative        float64 `json:"cumulative"`
	CumulativePercent float64 `json:"cumulative_percent"`
}

// Pareto sorts the role breakdown descending by count and computes the
// running cumulative counts and percentages. The cumulative percent is
// non-decreasing and ends at 100 (within rounding) when the total is
// non-zero; every percentage is 0 when the total is 0. The full sequence is
// returned; truncation for display is the caller's concern.
func Pareto(roles *Breakdown) []ParetoPoint {
	keys := roles.Keys()
	// Stable sort preserves first-insertion order on equal counts.
	sort.SliceStable(keys, func(i, j int) bool {
		return roles.Get(keys[i]) > roles.Get(keys[j])
	})

	total := roles.Total()
	out := make([]ParetoPoint, 0, len(keys))
	var running float64
	for _, k := range keys {
		running += roles.Get(k)
		out = append(out, ParetoPoint{
			Role:              k,
			Count:             roles.Get(k),
			Cumulative:        running,
			CumulativePercent: percent(running, total),
		})
	}
	return out
}
