package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/crewlens/crewlens/internal/dataset"
	"github.com/crewlens/crewlens/internal/geo"
	"github.com/crewlens/crewlens/internal/industry"
	"github.com/crewlens/crewlens/internal/ingest"
	"github.com/crewlens/crewlens/internal/runtime"
	"github.com/crewlens/crewlens/internal/security"
	"github.com/crewlens/crewlens/internal/store"
	"github.com/crewlens/crewlens/internal/telemetry"
	"github.com/crewlens/crewlens/pkg/mcperr"
	"github.com/crewlens/crewlens/pkg/pagination"
	"github.com/crewlens/crewlens/pkg/validation"
)

// --- Input / Output Schemas (typed for discovery) ---

// OpenDatasetInput defines parameters for ingesting a spreadsheet.
type OpenDatasetInput struct {
	Path    string `json:"path" validate:"required,filepath_ext" jsonschema_description:"Path to a spreadsheet inside an allowed directory"`
	Sheet   string `json:"sheet,omitempty" jsonschema_description:"Sheet name; defaults to the first sheet"`
	Profile string `json:"profile,omitempty" validate:"omitempty,geoprofile" jsonschema_description:"Geography profile id (us-states, world-countries); defaults to us-states"`
}

// OpenDatasetOutput documents the response fields for open_dataset.
type OpenDatasetOutput struct {
	DatasetID       string `json:"dataset_id" jsonschema_description:"Server-assigned dataset handle ID"`
	Name            string `json:"name" jsonschema_description:"Dataset display name derived from the file name"`
	RowCount        int    `json:"rowCount" jsonschema_description:"Number of ingested data rows"`
	ColumnCount     int    `json:"columnCount" jsonschema_description:"Number of classified columns"`
	Profile         string `json:"profile" jsonschema_description:"Effective geography profile id"`
	PreviewRowLimit int    `json:"previewRowLimit" jsonschema_description:"Default row limit for previews"`
}

// CloseDatasetInput defines parameters for releasing a dataset handle.
type CloseDatasetInput struct {
	DatasetID string `json:"dataset_id" validate:"required" jsonschema_description:"Dataset handle ID to close"`
}

// DatasetSchemaInput defines parameters for schema discovery.
type DatasetSchemaInput struct {
	DatasetID string `json:"dataset_id" validate:"required" jsonschema_description:"Dataset handle ID"`
}

// DatasetSchemaOutput summarizes dataset structure without row data.
type DatasetSchemaOutput struct {
	DatasetID string                     `json:"dataset_id"`
	Name      string                     `json:"name"`
	Profile   string                     `json:"profile"`
	RowCount  int                        `json:"rowCount"`
	Columns   []dataset.ColumnDescriptor `json:"columns"`
	Roles     []industry.RoleMetadata    `json:"roles" jsonschema_description:"Role columns with industry category and grand-total share"`
	Locations []string                   `json:"locations" jsonschema_description:"Normalized location codes present, first-seen order"`
	Regions   []string                   `json:"regions" jsonschema_description:"Regions of the dataset's geography profile, catalog order"`
}

// PreviewRowsInput defines parameters for previewing dataset rows.
type PreviewRowsInput struct {
	DatasetID string `json:"dataset_id,omitempty" validate:"required_without=Cursor" jsonschema_description:"Dataset handle ID (or supply cursor)"`
	Rows      int    `json:"rows,omitempty" validate:"omitempty,min=1,max=1000" jsonschema_description:"Max rows per page (bounded)"`
	Cursor    string `json:"cursor,omitempty" validate:"omitempty,cursor" jsonschema_description:"Opaque pagination cursor from a previous call"`
}

// PageMeta captures paging/truncation metadata.
type PageMeta struct {
	Total      int    `json:"total"`
	Returned   int    `json:"returned"`
	Truncated  bool   `json:"truncated"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// PreviewRowsOutput documents preview rows and paging metadata.
type PreviewRowsOutput struct {
	DatasetID string              `json:"dataset_id"`
	Headers   []string            `json:"headers"`
	Rows      []map[string]string `json:"rows" jsonschema_description:"Display-form cell values keyed by column name"`
	Meta      PageMeta            `json:"meta"`
}

// MergeDatasetsInput defines parameters for merging open datasets.
type MergeDatasetsInput struct {
	DatasetIDs []string `json:"dataset_ids" validate:"required,min=2" jsonschema_description:"Two or more open dataset handle IDs, in merge order"`
}

// MergeDatasetsOutput documents the merged virtual dataset.
type MergeDatasetsOutput struct {
	DatasetID     string   `json:"dataset_id" jsonschema_description:"Handle ID of the merged dataset"`
	RowCount      int      `json:"rowCount"`
	CommonColumns []string `json:"commonColumns" jsonschema_description:"Columns present in every source, first-source order"`
	Sources       []string `json:"sources" jsonschema_description:"Source dataset names, merge order"`
}

// GeoProfileInfo summarizes one registered geography profile.
type GeoProfileInfo struct {
	ID        string   `json:"id"`
	Regions   []string `json:"regions"`
	Locations int      `json:"locations"`
}

// ListGeoProfilesOutput lists the registered geography profiles.
type ListGeoProfilesOutput struct {
	Profiles []GeoProfileInfo `json:"profiles"`
	Default  string           `json:"default"`
}

// RegisterDatasetTools wires ingestion, schema, preview, merge, and lifecycle
// tools over the dataset manager and row store. tel may be nil.
func RegisterDatasetTools(s *server.MCPServer, reg *Registry, limits runtime.Limits, mgr *dataset.Manager, loader *ingest.Loader, st *store.Store, tel *telemetry.Hooks) {
	// open_dataset
	openTool := mcp.NewTool(
		"open_dataset",
		mcp.WithDescription("Ingest a spreadsheet into a classified dataset and return a handle ID. Columns are typed and tagged from a bounded sample; location values are normalized against the geography profile; rows are persisted and retrieved page-wise. Errors include VALIDATION, PERMISSION_DENIED, INVALID_SHEET, INVALID_PROFILE, INGEST_FAILED, and STORE_FAILED."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to a spreadsheet inside an allowed directory (.xlsx, .xlsm, .xltx, .xltm)")),
		mcp.WithString("sheet", mcp.Description("Sheet name; defaults to the first sheet")),
		mcp.WithString("profile", mcp.Description("Geography profile id; defaults to us-states")),
		mcp.WithOutputSchema[OpenDatasetOutput](),
	)
	s.AddTool(openTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in OpenDatasetInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		start := time.Now()
		ds, err := loader.LoadFile(ctx, in.Path, in.Sheet, in.Profile)
		if tel != nil {
			id, rows := "", 0
			if ds != nil {
				id, rows = ds.ID, ds.RowCount
			}
			tel.OnDatasetLoad(sessionID(ctx), id, rows, time.Since(start), err)
		}
		if err != nil {
			return openError(err), nil
		}
		if st != nil {
			if err := st.SaveDataset(ctx, ds); err != nil {
				return mcperr.Wrapf(mcperr.StoreFailed, "persist rows: %v", err), nil
			}
			// Reload through the paged row path so a handle never holds rows
			// the store cannot reproduce.
			rows, err := st.LoadRows(ctx, ds.ID)
			if err != nil {
				return mcperr.Wrapf(mcperr.StoreFailed, "row retrieval: %v", err), nil
			}
			ds.Rows = rows
		}
		id, err := mgr.Adopt(ctx, ds)
		if err != nil {
			return mcperr.Wrapf(mcperr.BusyResource, "open dataset capacity reached (max=%d)", limits.MaxOpenDatasets), nil
		}
		out := OpenDatasetOutput{
			DatasetID:       id,
			Name:            ds.Name,
			RowCount:        ds.RowCount,
			ColumnCount:     len(ds.Columns),
			Profile:         ds.ProfileID,
			PreviewRowLimit: limits.PreviewRowLimit,
		}
		summary := fmt.Sprintf("dataset_id=%s rows=%d columns=%d profile=%s", id, out.RowCount, out.ColumnCount, out.Profile)
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(openTool)

	// close_dataset
	closeTool := mcp.NewTool(
		"close_dataset",
		mcp.WithDescription("Release a dataset handle and its open-dataset capacity slot"),
		mcp.WithString("dataset_id", mcp.Required(), mcp.Description("Dataset handle ID")),
		mcp.WithOutputSchema[struct {
			Success bool `json:"success" jsonschema_description:"True when the handle was closed"`
		}](),
	)
	s.AddTool(closeTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in CloseDatasetInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		if err := mgr.CloseHandle(in.DatasetID); err != nil {
			return mcperr.New(mcperr.InvalidHandle, ""), nil
		}
		out := struct {
			Success bool `json:"success"`
		}{Success: true}
		res := mcp.NewToolResultStructured(out, "closed")
		res.Content = []mcp.Content{mcp.NewTextContent("closed " + in.DatasetID)}
		return res, nil
	}))
	reg.Register(closeTool)

	// dataset_schema
	schemaTool := mcp.NewTool(
		"dataset_schema",
		mcp.WithDescription("Return dataset structure: classified columns with types and semantic tags, role columns with industry categories and totals, available locations, and the profile's regions (no row data)"),
		mcp.WithString("dataset_id", mcp.Required(), mcp.Description("Dataset handle ID")),
		mcp.WithOutputSchema[DatasetSchemaOutput](),
	)
	s.AddTool(schemaTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in DatasetSchemaInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		ds, ok := mgr.Get(in.DatasetID)
		if !ok {
			return mcperr.New(mcperr.InvalidHandle, ""), nil
		}
		profile, _ := geo.Lookup(ds.ProfileID)
		var regions []string
		if profile != nil {
			regions = profile.Regions()
		}
		out := DatasetSchemaOutput{
			DatasetID: in.DatasetID,
			Name:      ds.Name,
			Profile:   ds.ProfileID,
			RowCount:  ds.RowCount,
			Columns:   ds.Columns,
			Roles:     industry.BuildRoleMetadata(ds),
			Locations: ds.AvailableLocations(),
			Regions:   regions,
		}
		summary := fmt.Sprintf("columns=%d roles=%d locations=%d regions=%d", len(out.Columns), len(out.Roles), len(out.Locations), len(out.Regions))
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(schemaTool)

	// preview_rows
	previewTool := mcp.NewTool(
		"preview_rows",
		mcp.WithDescription("Return a bounded page of display-form rows with an opaque cursor for continuation. Cursor takes precedence over dataset_id; restart pagination on CURSOR_INVALID."),
		mcp.WithString("dataset_id", mcp.Description("Dataset handle ID (or supply cursor)")),
		mcp.WithNumber("rows", mcp.DefaultNumber(float64(limits.PreviewRowLimit)), mcp.Min(1), mcp.Max(1000), mcp.Description("Max rows per page")),
		mcp.WithString("cursor", mcp.Description("Opaque pagination cursor from a previous call")),
		mcp.WithOutputSchema[PreviewRowsOutput](),
	)
	s.AddTool(previewTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in PreviewRowsInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		id := in.DatasetID
		offset := 0
		ps := in.Rows
		if ps <= 0 {
			ps = limits.PreviewRowLimit
		}
		if in.Cursor != "" {
			c, err := pagination.DecodeCursor(in.Cursor)
			if err != nil {
				return mcperr.New(mcperr.CursorInvalid, ""), nil
			}
			id, offset, ps = c.Did, c.Off, c.Ps
		}
		ds, ok := mgr.Get(id)
		if !ok {
			return mcperr.New(mcperr.InvalidHandle, ""), nil
		}

		out := PreviewRowsOutput{DatasetID: id}
		for _, c := range ds.Columns {
			out.Headers = append(out.Headers, c.Name)
		}
		end := offset + ps
		if end > len(ds.Rows) {
			end = len(ds.Rows)
		}
		for i := offset; i < end; i++ {
			cells := make(map[string]string, len(ds.Columns))
			for _, c := range ds.Columns {
				cells[c.Name] = ds.Rows[i].Cells[c.Name].String()
			}
			out.Rows = append(out.Rows, cells)
		}
		out.Meta = PageMeta{
			Total:     len(ds.Rows),
			Returned:  len(out.Rows),
			Truncated: end < len(ds.Rows),
		}
		if out.Meta.Truncated {
			token, err := pagination.EncodeCursor(pagination.Cursor{
				V: 1, Did: id, Off: pagination.NextOffset(offset, len(out.Rows)), Ps: ps, Iat: time.Now().Unix(),
			})
			if err != nil {
				return mcperr.Wrapf(mcperr.PreviewFailed, "encode cursor: %v", err), nil
			}
			out.Meta.NextCursor = token
		}
		summary := fmt.Sprintf("returned=%d total=%d truncated=%v", out.Meta.Returned, out.Meta.Total, out.Meta.Truncated)
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(previewTool)

	// merge_datasets
	mergeTool := mcp.NewTool(
		"merge_datasets",
		mcp.WithDescription("Merge two or more open datasets into a new virtual dataset restricted to their common columns, rows concatenated in merge order and tagged with their source. With no common columns the result is an empty-column dataset that still reports its combined row count."),
		mcp.WithArray("dataset_ids", mcp.Required(), mcp.Description("Two or more open dataset handle IDs, in merge order")),
		mcp.WithOutputSchema[MergeDatasetsOutput](),
	)
	s.AddTool(mergeTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in MergeDatasetsInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		sources := make([]*dataset.Dataset, 0, len(in.DatasetIDs))
		var names []string
		for _, id := range in.DatasetIDs {
			ds, ok := mgr.Get(id)
			if !ok {
				return mcperr.Wrapf(mcperr.InvalidHandle, "dataset %s not found or expired", id), nil
			}
			sources = append(sources, ds)
			names = append(names, ds.Name)
		}
		merged := dataset.Merge(sources)
		id, err := mgr.Adopt(ctx, merged)
		if err != nil {
			return mcperr.Wrapf(mcperr.BusyResource, "open dataset capacity reached (max=%d)", limits.MaxOpenDatasets), nil
		}
		out := MergeDatasetsOutput{
			DatasetID: id,
			RowCount:  merged.RowCount,
			Sources:   names,
		}
		for _, c := range merged.Columns {
			out.CommonColumns = append(out.CommonColumns, c.Name)
		}
		summary := fmt.Sprintf("dataset_id=%s rows=%d commonColumns=%d sources=%s", id, out.RowCount, len(out.CommonColumns), strings.Join(names, ","))
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(mergeTool)

	// list_geo_profiles
	profilesTool := mcp.NewTool(
		"list_geo_profiles",
		mcp.WithDescription("List registered geography profiles with their regions and location counts"),
		mcp.WithOutputSchema[ListGeoProfilesOutput](),
	)
	s.AddTool(profilesTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in struct{}) (*mcp.CallToolResult, error) {
		out := ListGeoProfilesOutput{Default: geo.DefaultProfileID}
		for _, id := range geo.IDs() {
			p, _ := geo.Lookup(id)
			info := GeoProfileInfo{ID: id, Regions: p.Regions()}
			for _, region := range info.Regions {
				info.Locations += len(p.LocationsOfRegion(region))
			}
			out.Profiles = append(out.Profiles, info)
		}
		summary := fmt.Sprintf("profiles=%d default=%s", len(out.Profiles), out.Default)
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(profilesTool)
}

func sessionID(ctx context.Context) string {
	if s := server.ClientSessionFromContext(ctx); s != nil {
		return s.SessionID()
	}
	return ""
}

// openError maps ingestion failures to canonical tool errors.
func openError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, security.ErrNotAllowed), errors.Is(err, security.ErrNotFound):
		return mcperr.Wrapf(mcperr.PermissionDenied, "%v", err)
	case errors.Is(err, security.ErrUnsupportedExtension):
		return mcperr.New(mcperr.UnsupportedFormat, "")
	case errors.Is(err, ingest.ErrUnknownSheet):
		return mcperr.New(mcperr.InvalidSheet, "")
	case errors.Is(err, ingest.ErrUnknownProfile):
		return mcperr.New(mcperr.InvalidProfile, "")
	case errors.Is(err, ingest.ErrTooLarge):
		return mcperr.Wrapf(mcperr.LimitExceeded, "%v", err)
	case errors.Is(err, ingest.ErrEmptySheet):
		return mcperr.Wrapf(mcperr.IngestFailed, "%v", err)
	case mcperr.IsInvalidSheet(err):
		return mcperr.New(mcperr.InvalidSheet, "")
	default:
		return mcperr.Wrapf(mcperr.OpenFailed, "%v", err)
	}
}
