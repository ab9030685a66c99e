package industry

import (
	"math"

	"github.com/crewlens/crewlens/internal/dataset"
)

// RoleMetadata caches the classification and dataset-wide totals for one role
// column. Recomputed whenever the dataset changes; not user-mutable.
type RoleMetadata struct {
	Role     string   `json:"role"`
	Category Category `json:"category"`
	Total    float64  `json:"total"`
	Percent  float64  `json:"percent"`
}

// BuildRoleMetadata classifies every role column of the dataset and computes
// its total across all rows plus its share of the grand total. Output order
// follows the dataset's column order.
func BuildRoleMetadata(ds *dataset.Dataset) []RoleMetadata {
	roles := ds.RoleColumns()
	out := make([]RoleMetadata, len(roles))

	var grand float64
	for i, role := range roles {
		var total float64
		for _, row := range ds.Rows {
			total += row.Number(role)
		}
		out[i] = RoleMetadata{Role: role, Category: Classify(role), Total: total}
		grand += total
	}
	for i := range out {
		out[i].Percent = percent(out[i].Total, grand)
	}
	return out
}

// RolesByCategory groups role column names by classified category, preserving
// role order within each bucket.
func RolesByCategory(meta []RoleMetadata) map[Category][]string {
	out := make(map[Category][]string)
	for _, m := range meta {
		out[m.Category] = append(out[m.Category], m.Role)
	}
	return out
}

// percent computes count/total*100 rounded to two decimals, 0 when the
// denominator is 0.
func percent(count, total float64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(count/total*100*100) / 100
}
