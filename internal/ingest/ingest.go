// Package ingest turns spreadsheet files into typed, annotated datasets.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/crewlens/crewlens/internal/dataset"
	"github.com/crewlens/crewlens/internal/geo"
	"github.com/crewlens/crewlens/internal/security"
)

// ErrUnknownSheet indicates the requested sheet does not exist in the file.
var ErrUnknownSheet = errors.New("ingest: sheet not found")

// ErrUnknownProfile indicates the named geography profile is not registered.
var ErrUnknownProfile = errors.New("ingest: unknown geography profile")

// ErrEmptySheet indicates the sheet has no header row.
var ErrEmptySheet = errors.New("ingest: sheet has no header row")

// ErrTooLarge indicates the sheet exceeds the per-operation cell budget.
var ErrTooLarge = errors.New("ingest: sheet exceeds cell limit")

// Loader reads spreadsheet files from allow-listed paths and produces
// classified, geo-annotated datasets.
type Loader struct {
	sec        *security.Manager
	sampleRows int
	maxCells   int
	log        zerolog.Logger
}

// NewLoader constructs a Loader. sampleRows bounds the classification sample;
// maxCells bounds total cells read per file (0 disables the guard).
func NewLoader(sec *security.Manager, sampleRows, maxCells int, log zerolog.Logger) *Loader {
	return &Loader{sec: sec, sampleRows: sampleRows, maxCells: maxCells, log: log}
}

// LoadFile ingests one sheet of the file at path into a Dataset. An empty
// sheet name selects the first sheet; an empty profileID selects the default
// geography profile. The returned dataset has classified columns, typed rows,
// and per-row location and industry annotations.
func (l *Loader) LoadFile(ctx context.Context, path, sheet, profileID string) (*dataset.Dataset, error) {
	start := time.Now()

	canonical, err := l.sec.ValidateOpenPath(path)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(canonical)
	if err != nil {
		return nil, fmt.Errorf("ingest: open %s: %w", filepath.Base(canonical), err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, ierr := f.GetSheetIndex(sheet); ierr != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSheet, sheet)
	}

	headers, raws, err := l.readSheet(ctx, f, sheet)
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, ErrEmptySheet
	}

	profile, ok := geo.Lookup(profileID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, profileID)
	}

	columns := dataset.ClassifyColumns(headers, raws, l.sampleRows)
	rows := dataset.BuildRows(columns, raws)

	ds := &dataset.Dataset{
		ID:        uuid.NewString(),
		Name:      strings.TrimSuffix(filepath.Base(canonical), filepath.Ext(canonical)),
		Columns:   columns,
		Rows:      rows,
		RowCount:  len(rows),
		ProfileID: profile.ID,
	}
	annotate(ds, profile)

	l.log.Info().
		Str("dataset_id", ds.ID).
		Str("sheet", sheet).
		Int("rows", ds.RowCount).
		Int("columns", len(ds.Columns)).
		Dur("elapsed", time.Since(start)).
		Msg("dataset ingested")
	return ds, nil
}

// readSheet streams the sheet once: the first non-empty row becomes the
// header, every later row becomes a RawRow keyed by header name.
func (l *Loader) readSheet(ctx context.Context, f *excelize.File, sheet string) ([]string, []dataset.RawRow, error) {
	iter, err := f.Rows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: read sheet %q: %w", sheet, err)
	}
	defer iter.Close()

	var (
		headers []string
		raws    []dataset.RawRow
		cells   int
	)
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		vals, cerr := iter.Columns()
		if cerr != nil {
			return nil, nil, fmt.Errorf("ingest: read row: %w", cerr)
		}

		if headers == nil {
			if rowEmpty(vals) {
				continue
			}
			headers = make([]string, len(vals))
			for i, v := range vals {
				h := strings.TrimSpace(v)
				if h == "" {
					h = fmt.Sprintf("Column %d", i+1)
				}
				headers[i] = h
			}
			continue
		}

		cells += len(headers)
		if l.maxCells > 0 && cells > l.maxCells {
			return nil, nil, fmt.Errorf("%w: more than %d cells", ErrTooLarge, l.maxCells)
		}

		raw := make(dataset.RawRow, len(headers))
		for i, h := range headers {
			if i < len(vals) {
				raw[h] = vals[i]
			}
		}
		raws = append(raws, raw)
	}
	if err := iter.Error(); err != nil {
		return nil, nil, fmt.Errorf("ingest: iterate rows: %w", err)
	}
	return headers, raws, nil
}

// annotate derives the per-row location code and industry sidecar fields from
// the first location-tagged and industry-tagged columns. Rows whose location
// value the profile cannot classify keep an empty code; they still contribute
// to role and industry totals downstream, just not to geography buckets.
func annotate(ds *dataset.Dataset, profile *geo.Profile) {
	locCol := ds.LocationColumn()
	indCol := ""
	for _, c := range ds.Columns {
		if c.HasTag(dataset.TagIndustry) && c.Type == dataset.TypeText {
			indCol = c.Name
			break
		}
	}
	if locCol == "" && indCol == "" {
		return
	}
	for i := range ds.Rows {
		if locCol != "" {
			if code, ok := profile.Normalize(ds.Rows[i].Cells[locCol].String()); ok {
				ds.Rows[i].LocationCode = code
			}
		}
		if indCol != "" {
			ds.Rows[i].Industry = strings.TrimSpace(ds.Rows[i].Cells[indCol].String())
		}
	}
}

func rowEmpty(vals []string) bool {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
