package dataset

import "github.com/google/uuid"

// Merge unions multiple datasets into one virtual dataset via common-column
// intersection. With one or zero inputs the sole input (or nil) is returned
// unchanged.
//
// Column order and descriptor identity come from the first dataset only,
// restricted to the name intersection across all inputs. Rows are the
// concatenation of all inputs' rows in dataset order, each tagged with its
// originating dataset name. A zero-common-column intersection yields a
// dataset with no columns but all rows present; callers see the degenerate
// shape rather than an error.
func Merge(datasets []*Dataset) *Dataset {
	if len(datasets) == 0 {
		return nil
	}
	if len(datasets) == 1 {
		return datasets[0]
	}

	common := make(map[string]int, len(datasets[0].Columns))
	for _, c := range datasets[0].Columns {
		common[c.Name] = 1
	}
	for _, d := range datasets[1:] {
		for _, c := range d.Columns {
			if n, ok := common[c.Name]; ok && n > 0 {
				common[c.Name] = n + 1
			}
		}
	}

	var columns []ColumnDescriptor
	for _, c := range datasets[0].Columns {
		if common[c.Name] == len(datasets) {
			columns = append(columns, c)
		}
	}

	merged := &Dataset{
		ID:        uuid.NewString(),
		Name:      "merged",
		Columns:   columns,
		ProfileID: datasets[0].ProfileID,
	}
	for _, d := range datasets {
		for _, r := range d.Rows {
			tagged := r
			if tagged.Source == "" {
				tagged.Source = d.Name
			}
			merged.Rows = append(merged.Rows, tagged)
		}
		merged.RowCount += d.RowCount
	}
	return merged
}
