package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/crewlens/crewlens/internal/analytics"
	"github.com/crewlens/crewlens/internal/dataset"
	"github.com/crewlens/crewlens/internal/filter"
	"github.com/crewlens/crewlens/internal/geo"
	"github.com/crewlens/crewlens/internal/industry"
	"github.com/crewlens/crewlens/pkg/mcperr"
	"github.com/crewlens/crewlens/pkg/validation"
)

// FilterInput is the shared faceted filter block of the analysis tools.
// Facet lists left empty select everything; explicit role and location picks
// are honored verbatim. Mode composes explicit roles with industry-implied
// roles; locations have no mode.
type FilterInput struct {
	Locations  []string `json:"locations,omitempty" jsonschema_description:"Location codes or display names accepted by the dataset's geography profile"`
	Regions    []string `json:"regions,omitempty" jsonschema_description:"Region names of the dataset's geography profile"`
	Roles      []string `json:"roles,omitempty" jsonschema_description:"Role column names, selected verbatim"`
	Industries []string `json:"industries,omitempty" jsonschema_description:"Industry categories implying their member roles"`
	Mode       string   `json:"mode,omitempty" validate:"omitempty,combinemode" jsonschema_description:"AND intersects explicit roles with industry-implied roles; OR unions them. Default AND"`
}

// AggregateKPIsInput defines parameters for the KPI rollup.
type AggregateKPIsInput struct {
	DatasetID string `json:"dataset_id" validate:"required" jsonschema_description:"Dataset handle ID"`
	FilterInput
}

// AggregateKPIsOutput carries the snapshot plus the resolved selections.
type AggregateKPIsOutput struct {
	DatasetID string                `json:"dataset_id"`
	Effective filter.Effective      `json:"effective" jsonschema_description:"Resolved locations and roles used by the rollup"`
	Snapshot  analytics.KPISnapshot `json:"snapshot"`
}

// ParetoRolesInput defines parameters for the cumulative-contribution curve.
type ParetoRolesInput struct {
	DatasetID string `json:"dataset_id" validate:"required" jsonschema_description:"Dataset handle ID"`
	TopN      int    `json:"top_n,omitempty" validate:"omitempty,min=1,max=100" jsonschema_description:"Truncate the curve to the first N roles; full curve when omitted"`
	FilterInput
}

// ParetoRolesOutput documents the descending cumulative curve.
type ParetoRolesOutput struct {
	DatasetID   string                  `json:"dataset_id"`
	Points      []analytics.ParetoPoint `json:"points"`
	VitalFew    int                     `json:"vital_few" jsonschema_description:"Count of leading roles reaching 80% cumulative share; 0 when the total is 0"`
	TotalPeople float64                 `json:"total_people"`
	Truncated   bool                    `json:"truncated"`
}

// DrilldownTreeInput defines parameters for the region/location/role tree.
type DrilldownTreeInput struct {
	DatasetID string `json:"dataset_id" validate:"required" jsonschema_description:"Dataset handle ID"`
	FilterInput
}

// DrilldownTreeOutput carries the hierarchical drill-down tree.
type DrilldownTreeOutput struct {
	DatasetID string              `json:"dataset_id"`
	Tree      *analytics.TreeNode `json:"tree"`
}

// RegisterAnalysisTools wires the KPI, Pareto, and drill-down tools over open
// dataset handles.
func RegisterAnalysisTools(s *server.MCPServer, reg *Registry, mgr *dataset.Manager) {
	resolve := func(id string, fin FilterInput) (*dataset.Dataset, filter.Effective, []industry.RoleMetadata, *geo.Profile, *mcp.CallToolResult) {
		ds, ok := mgr.Get(id)
		if !ok {
			return nil, filter.Effective{}, nil, nil, mcperr.New(mcperr.InvalidHandle, "")
		}
		profile, _ := geo.Lookup(ds.ProfileID)
		meta := industry.BuildRoleMetadata(ds)
		state := filter.State{
			Locations:  fin.Locations,
			Regions:    fin.Regions,
			Roles:      fin.Roles,
			Industries: fin.Industries,
			Mode:       filter.CombineMode(strings.ToUpper(strings.TrimSpace(fin.Mode))),
		}
		if state.Mode == "" {
			state.Mode = filter.ModeAnd
		}
		if profile != nil {
			// Accept display names and raw values alongside canonical codes.
			for i, loc := range state.Locations {
				if code, ok := profile.Normalize(loc); ok {
					state.Locations[i] = code
				}
			}
		}
		return ds, filter.Resolve(state, ds, meta, profile), meta, profile, nil
	}

	// aggregate_kpis
	agg := mcp.NewTool(
		"aggregate_kpis",
		mcp.WithDescription("Compute the KPI rollup of the filtered rows in one pass: total people, per-location and per-region breakdowns, role and industry breakdowns, top/bottom entries, HHI with a concentration band, and role-mix diversity. Rows with an unclassifiable location still count toward role and industry totals but never toward geography buckets. Percentages are 0 when their denominator is 0. Errors include VALIDATION, INVALID_HANDLE, and AGGREGATE_FAILED."),
		mcp.WithInputSchema[AggregateKPIsInput](),
		mcp.WithOutputSchema[AggregateKPIsOutput](),
	)
	s.AddTool(agg, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in AggregateKPIsInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		ds, eff, meta, profile, errRes := resolve(in.DatasetID, in.FilterInput)
		if errRes != nil {
			return errRes, nil
		}
		snap := analytics.Aggregate(ds, eff, meta, profile)
		out := AggregateKPIsOutput{DatasetID: in.DatasetID, Effective: eff, Snapshot: snap}
		summary := fmt.Sprintf("total=%.0f locations=%d regions=%d roles=%d HHI=%.3f band=%s",
			snap.TotalPeople, snap.LocationsIncluded, snap.RegionsIncluded, snap.RoleCoverage, snap.HHI, snap.ConcentrationBand)
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(agg)

	// pareto_roles
	pareto := mcp.NewTool(
		"pareto_roles",
		mcp.WithDescription("Rank the filtered roles descending by headcount and compute the cumulative-contribution curve. vital_few counts the leading roles that reach 80% cumulative share. Ties keep first-seen column order. Errors include VALIDATION, INVALID_HANDLE, and ANALYSIS_FAILED."),
		mcp.WithInputSchema[ParetoRolesInput](),
		mcp.WithOutputSchema[ParetoRolesOutput](),
	)
	s.AddTool(pareto, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ParetoRolesInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		ds, eff, meta, profile, errRes := resolve(in.DatasetID, in.FilterInput)
		if errRes != nil {
			return errRes, nil
		}
		snap := analytics.Aggregate(ds, eff, meta, profile)
		points := analytics.Pareto(snap.RoleBreakdown)

		vital := 0
		for i, p := range points {
			if p.CumulativePercent >= 80 {
				vital = i + 1
				break
			}
		}
		if snap.TotalPeople == 0 {
			vital = 0
		}

		out := ParetoRolesOutput{
			DatasetID:   in.DatasetID,
			Points:      points,
			VitalFew:    vital,
			TotalPeople: snap.TotalPeople,
		}
		if in.TopN > 0 && len(out.Points) > in.TopN {
			out.Points = out.Points[:in.TopN]
			out.Truncated = true
		}
		summary := fmt.Sprintf("roles=%d vital_few=%d total=%.0f truncated=%v", len(out.Points), out.VitalFew, out.TotalPeople, out.Truncated)
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(pareto)

	// drilldown_tree
	tree := mcp.NewTool(
		"drilldown_tree",
		mcp.WithDescription("Build the region -> location -> role drill-down tree for the filtered rows. Each location shows its top role leaves from exact per-location data when present; otherwise the location total is distributed across the global top roles proportionally. Regions and locations with no headcount are pruned. Errors include VALIDATION, INVALID_HANDLE, and ANALYSIS_FAILED."),
		mcp.WithInputSchema[DrilldownTreeInput](),
		mcp.WithOutputSchema[DrilldownTreeOutput](),
	)
	s.AddTool(tree, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in DrilldownTreeInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		ds, eff, meta, profile, errRes := resolve(in.DatasetID, in.FilterInput)
		if errRes != nil {
			return errRes, nil
		}
		snap := analytics.Aggregate(ds, eff, meta, profile)
		root := analytics.BuildDrilldownTree(snap.LocationBreakdown, snap.RoleBreakdown, snap.PerLocationRoles, profile)
		out := DrilldownTreeOutput{DatasetID: in.DatasetID, Tree: root}
		summary := fmt.Sprintf("regions=%d total=%.0f", len(root.Children), snap.TotalPeople)
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(tree)
}
