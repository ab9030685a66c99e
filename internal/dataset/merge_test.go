package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mergeFixture(name string, cols []string, rows int) *Dataset {
	ds := &Dataset{ID: name + "-id", Name: name, ProfileID: "us-states"}
	for _, c := range cols {
		ds.Columns = append(ds.Columns, ColumnDescriptor{Name: c, Type: TypeNumber})
	}
	for i := 0; i < rows; i++ {
		cells := make(map[string]Value, len(cols))
		for _, c := range cols {
			cells[c] = Value{Kind: KindNumber, Num: 1}
		}
		ds.Rows = append(ds.Rows, Row{Cells: cells})
	}
	ds.RowCount = rows
	return ds
}

func TestMergeCommonColumns(t *testing.T) {
	a := mergeFixture("a", []string{"State", "Editor", "Sound Mixer"}, 2)
	b := mergeFixture("b", []string{"Editor", "State", "Colorist"}, 3)

	m := Merge([]*Dataset{a, b})
	require.NotNil(t, m)

	var names []string
	for _, c := range m.Columns {
		names = append(names, c.Name)
	}
	// Intersection, in the first dataset's order.
	assert.Equal(t, []string{"State", "Editor"}, names)

	assert.Equal(t, 5, m.RowCount)
	require.Len(t, m.Rows, 5)
	assert.Equal(t, "a", m.Rows[0].Source)
	assert.Equal(t, "b", m.Rows[4].Source)
	assert.Equal(t, "us-states", m.ProfileID)
	assert.NotEqual(t, a.ID, m.ID)
}

func TestMergeRowConservation(t *testing.T) {
	a := mergeFixture("a", []string{"Editor"}, 4)
	b := mergeFixture("b", []string{"Editor"}, 6)
	c := mergeFixture("c", []string{"Editor"}, 1)

	m := Merge([]*Dataset{a, b, c})
	assert.Equal(t, a.RowCount+b.RowCount+c.RowCount, m.RowCount)
	assert.Len(t, m.Rows, 11)
}

func TestMergeNoCommonColumns(t *testing.T) {
	a := mergeFixture("a", []string{"Editor"}, 2)
	b := mergeFixture("b", []string{"Grip"}, 3)

	m := Merge([]*Dataset{a, b})
	require.NotNil(t, m)
	// Degenerate but not an error: no columns, all rows.
	assert.Empty(t, m.Columns)
	assert.Equal(t, 5, m.RowCount)
	assert.Len(t, m.Rows, 5)
}

func TestMergeSingleAndEmpty(t *testing.T) {
	a := mergeFixture("a", []string{"Editor"}, 2)
	assert.Same(t, a, Merge([]*Dataset{a}))
	assert.Nil(t, Merge(nil))
}

func TestMergePreservesExistingSource(t *testing.T) {
	a := mergeFixture("a", []string{"Editor"}, 1)
	b := mergeFixture("b", []string{"Editor"}, 1)
	first := Merge([]*Dataset{a, b})

	c := mergeFixture("c", []string{"Editor"}, 1)
	second := Merge([]*Dataset{first, c})

	// Rows that already carry a source keep it across re-merges.
	assert.Equal(t, "a", second.Rows[0].Source)
	assert.Equal(t, "b", second.Rows[1].Source)
	assert.Equal(t, "c", second.Rows[2].Source)
}
