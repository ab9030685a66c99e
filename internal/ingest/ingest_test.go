package ingest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/crewlens/crewlens/internal/dataset"
	"github.com/crewlens/crewlens/internal/security"
)

func writeFixture(t *testing.T, dir string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(dir, "crew.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func newTestLoader(t *testing.T, dir string) *Loader {
	t.Helper()
	sec, err := security.NewManager([]string{dir}, nil)
	require.NoError(t, err)
	return NewLoader(sec, 100, 0, zerolog.Nop())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, [][]interface{}{
		{"State", "Editor", "Sound Mixer", "Industry"},
		{"California", 10, 5, "Film"},
		{"New York", 8, 2, "Film"},
		{"Atlantis", 3, 1, "Music"},
	})

	ds, err := newTestLoader(t, dir).LoadFile(context.Background(), path, "", "us-states")
	require.NoError(t, err)

	assert.Equal(t, "crew", ds.Name)
	assert.Equal(t, "us-states", ds.ProfileID)
	assert.Equal(t, 3, ds.RowCount)
	require.Len(t, ds.Columns, 4)

	state, ok := ds.Column("State")
	require.True(t, ok)
	assert.Equal(t, dataset.TypeText, state.Type)
	assert.True(t, state.HasTag(dataset.TagLocation))

	editor, ok := ds.Column("Editor")
	require.True(t, ok)
	assert.Equal(t, dataset.TypeNumber, editor.Type)

	assert.Equal(t, []string{"Editor", "Sound Mixer"}, ds.RoleColumns())

	assert.Equal(t, "CA", ds.Rows[0].LocationCode)
	assert.Equal(t, "NY", ds.Rows[1].LocationCode)
	assert.Equal(t, "", ds.Rows[2].LocationCode, "unclassifiable location keeps an empty code")
	assert.Equal(t, "Film", ds.Rows[0].Industry)
	assert.Equal(t, float64(10), ds.Rows[0].Number("Editor"))
}

func TestLoadFileDefaultsToFirstSheetAndProfile(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, [][]interface{}{
		{"Location", "Editor"},
		{"Texas", 4},
	})

	ds, err := newTestLoader(t, dir).LoadFile(context.Background(), path, "", "")
	require.NoError(t, err)
	assert.Equal(t, "us-states", ds.ProfileID)
	assert.Equal(t, "TX", ds.Rows[0].LocationCode)
}

func TestLoadFileUnknownSheet(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, [][]interface{}{{"State"}})

	_, err := newTestLoader(t, dir).LoadFile(context.Background(), path, "Nope", "")
	assert.ErrorIs(t, err, ErrUnknownSheet)
}

func TestLoadFileUnknownProfile(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, [][]interface{}{
		{"State", "Editor"},
		{"Ohio", 1},
	})

	_, err := newTestLoader(t, dir).LoadFile(context.Background(), path, "", "mars-colonies")
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestLoadFileOutsideAllowList(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	path := writeFixture(t, other, [][]interface{}{{"State"}})

	_, err := newTestLoader(t, dir).LoadFile(context.Background(), path, "", "")
	assert.ErrorIs(t, err, security.ErrNotAllowed)
}

func TestLoadFileCellLimit(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, [][]interface{}{
		{"State", "Editor"},
		{"Ohio", 1},
		{"Iowa", 2},
	})

	sec, err := security.NewManager([]string{dir}, nil)
	require.NoError(t, err)
	l := NewLoader(sec, 100, 2, zerolog.Nop())

	_, err = l.LoadFile(context.Background(), path, "", "")
	assert.ErrorIs(t, err, ErrTooLarge)
}
