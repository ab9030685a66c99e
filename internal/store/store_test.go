package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewlens/crewlens/internal/dataset"
)

func openTestStore(t *testing.T, pageSize int) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "crewlens.db"), pageSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleDataset(rowCount int) *dataset.Dataset {
	ds := &dataset.Dataset{
		ID:        "ds-test",
		Name:      "crew",
		ProfileID: "us-states",
		Columns: []dataset.ColumnDescriptor{
			{Name: "State", Type: dataset.TypeText, Tags: []dataset.Tag{dataset.TagLocation}},
			{Name: "Editor", Type: dataset.TypeNumber},
		},
	}
	for i := 0; i < rowCount; i++ {
		ds.Rows = append(ds.Rows, dataset.Row{
			Cells: map[string]dataset.Value{
				"State":  {Kind: dataset.KindText, Text: "California"},
				"Editor": {Kind: dataset.KindNumber, Num: float64(i + 1)},
			},
			LocationCode: "CA",
			Source:       "crew",
		})
	}
	ds.RowCount = rowCount
	return ds
}

func TestSaveAndLoadDataset(t *testing.T) {
	s := openTestStore(t, 3)
	ctx := context.Background()

	ds := sampleDataset(7) // 3 + 3 + 1: final page is short
	require.NoError(t, s.SaveDataset(ctx, ds))

	got, err := s.LoadDataset(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, ds.Name, got.Name)
	assert.Equal(t, ds.ProfileID, got.ProfileID)
	assert.Equal(t, ds.Columns, got.Columns)
	require.Len(t, got.Rows, 7)
	for i, row := range got.Rows {
		assert.Equal(t, float64(i+1), row.Number("Editor"), "row order must survive paging")
		assert.Equal(t, "CA", row.LocationCode)
	}
}

func TestLoadRowsExactPageMultiple(t *testing.T) {
	s := openTestStore(t, 3)
	ctx := context.Background()

	// 6 rows over page size 3: the loop must issue a third, empty page
	// and stop without duplicating rows.
	require.NoError(t, s.SaveDataset(ctx, sampleDataset(6)))

	rows, err := s.LoadRows(ctx, "ds-test")
	require.NoError(t, err)
	assert.Len(t, rows, 6)
}

func TestLoadDatasetNotFound(t *testing.T) {
	s := openTestStore(t, 0)

	_, err := s.LoadDataset(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestLoadRowPage(t *testing.T) {
	s := openTestStore(t, 10)
	ctx := context.Background()
	require.NoError(t, s.SaveDataset(ctx, sampleDataset(5)))

	page, err := s.LoadRowPage(ctx, "ds-test", 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, float64(3), page[0].Number("Editor"))
	assert.Equal(t, float64(4), page[1].Number("Editor"))
}

func TestSaveDatasetReplacesRows(t *testing.T) {
	s := openTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.SaveDataset(ctx, sampleDataset(4)))
	require.NoError(t, s.SaveDataset(ctx, sampleDataset(2)))

	rows, err := s.LoadRows(ctx, "ds-test")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestDeleteDataset(t *testing.T) {
	s := openTestStore(t, 0)
	ctx := context.Background()
	require.NoError(t, s.SaveDataset(ctx, sampleDataset(2)))

	require.NoError(t, s.DeleteDataset(ctx, "ds-test"))
	_, err := s.LoadDataset(ctx, "ds-test")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}
