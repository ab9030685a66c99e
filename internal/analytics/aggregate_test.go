package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewlens/crewlens/internal/dataset"
	"github.com/crewlens/crewlens/internal/filter"
	"github.com/crewlens/crewlens/internal/geo"
	"github.com/crewlens/crewlens/internal/industry"
)

func row(code string, counts map[string]float64) dataset.Row {
	cells := make(map[string]dataset.Value, len(counts))
	for k, v := range counts {
		cells[k] = dataset.Value{Kind: dataset.KindNumber, Num: v}
	}
	return dataset.Row{Cells: cells, LocationCode: code}
}

func aggregateFixture() (*dataset.Dataset, []industry.RoleMetadata, *geo.Profile) {
	ds := &dataset.Dataset{
		Columns: []dataset.ColumnDescriptor{
			{Name: "State", Type: dataset.TypeText, Tags: []dataset.Tag{dataset.TagLocation}},
			{Name: "Editor", Type: dataset.TypeNumber},
			{Name: "Sound Mixer", Type: dataset.TypeNumber},
		},
		Rows: []dataset.Row{
			row("CA", map[string]float64{"Editor": 30, "Sound Mixer": 10}),
			row("NY", map[string]float64{"Editor": 20}),
			row("", map[string]float64{"Sound Mixer": 5}),
		},
		ProfileID: "us-states",
	}
	ds.RowCount = len(ds.Rows)
	meta := industry.BuildRoleMetadata(ds)
	profile, _ := geo.Lookup("us-states")
	return ds, meta, profile
}

func TestAggregateUnfiltered(t *testing.T) {
	ds, meta, profile := aggregateFixture()
	eff := filter.Resolve(filter.Cleared(), ds, meta, profile)
	snap := Aggregate(ds, eff, meta, profile)

	assert.Equal(t, 65.0, snap.TotalPeople)
	assert.Equal(t, 2, snap.LocationsIncluded)
	assert.Equal(t, 2, snap.RegionsIncluded) // West and Northeast
	assert.Equal(t, 2, snap.RoleCoverage)

	// The uncoded row counts toward role totals but not geography buckets.
	assert.Equal(t, 15.0, snap.RoleBreakdown.Get("Sound Mixer"))
	assert.Equal(t, 60.0, snap.LocationBreakdown.Total())

	// Role totals conserve the grand total.
	assert.Equal(t, snap.TotalPeople, snap.RoleBreakdown.Total())

	assert.Equal(t, 40.0, snap.LocationBreakdown.Get("CA"))
	assert.Equal(t, 40.0, snap.RegionBreakdown.Get("West"))

	require.NotNil(t, snap.TopLocation)
	assert.Equal(t, "CA", snap.TopLocation.Name)
	require.NotNil(t, snap.BottomLocation)
	assert.Equal(t, "NY", snap.BottomLocation.Name)

	require.NotNil(t, snap.TopRole)
	assert.Equal(t, "Editor", snap.TopRole.Name)
	assert.Equal(t, 76.92, snap.TopRole.Percent)

	require.NotNil(t, snap.TopIndustry)
	assert.Equal(t, string(industry.Movie), snap.TopIndustry.Name)

	// 65 people over 2 coded locations, rounded.
	assert.Equal(t, 33.0, snap.AvgPerLocation)
}

func TestAggregateLocationRestriction(t *testing.T) {
	ds, meta, profile := aggregateFixture()
	eff := filter.Resolve(filter.State{Locations: []string{"CA"}}, ds, meta, profile)
	snap := Aggregate(ds, eff, meta, profile)

	// The NY row is excluded; the uncoded row still passes.
	assert.Equal(t, 45.0, snap.TotalPeople)
	assert.Equal(t, 1, snap.LocationsIncluded)
	assert.False(t, snap.LocationBreakdown.Has("NY"))
	assert.Equal(t, 15.0, snap.RoleBreakdown.Get("Sound Mixer"))
}

func TestAggregateRoleRestriction(t *testing.T) {
	ds, meta, profile := aggregateFixture()
	eff := filter.Resolve(filter.State{Roles: []string{"Editor"}}, ds, meta, profile)
	snap := Aggregate(ds, eff, meta, profile)

	assert.Equal(t, 50.0, snap.TotalPeople)
	assert.Equal(t, 1, snap.RoleCoverage)
	assert.False(t, snap.RoleBreakdown.Has("Sound Mixer"))
	assert.Equal(t, map[string]float64{"Editor": 30}, snap.PerLocationRoles["CA"])
}

func TestAggregateEmptySelection(t *testing.T) {
	ds, meta, profile := aggregateFixture()
	snap := Aggregate(ds, filter.Effective{}, meta, profile)

	assert.Equal(t, 0.0, snap.TotalPeople)
	assert.Equal(t, 0.0, snap.AvgPerLocation)
	assert.Nil(t, snap.TopLocation)
	assert.Equal(t, 0.0, snap.HHI)
	assert.Equal(t, "unconcentrated", snap.ConcentrationBand)
	assert.Equal(t, 0.0, snap.Diversity)
}

func TestConcentrationBands(t *testing.T) {
	even := NewBreakdown()
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		even.Add(k, 10)
	}
	hhi, band := Concentration(even)
	assert.Equal(t, 0.125, hhi)
	assert.Equal(t, "unconcentrated", band)

	moderate := NewBreakdown()
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		moderate.Add(k, 20)
	}
	hhi, band = Concentration(moderate)
	assert.Equal(t, 0.2, hhi)
	assert.Equal(t, "moderately_concentrated", band)

	high := NewBreakdown()
	high.Add("a", 40)
	high.Add("b", 30)
	high.Add("c", 30)
	hhi, band = Concentration(high)
	assert.Equal(t, 0.34, hhi)
	assert.Equal(t, "highly_concentrated", band)
}

func TestDiversity(t *testing.T) {
	even := NewBreakdown()
	even.Add("a", 10)
	even.Add("b", 10)
	assert.Equal(t, 1.0, Diversity(even))

	single := NewBreakdown()
	single.Add("a", 10)
	assert.Equal(t, 0.0, Diversity(single))

	assert.Equal(t, 0.0, Diversity(NewBreakdown()))
}
