package analytics

import (
	"math"

	"github.com/crewlens/crewlens/internal/dataset"
	"github.com/crewlens/crewlens/internal/filter"
	"github.com/crewlens/crewlens/internal/geo"
	"github.com/crewlens/crewlens/internal/industry"
)

// Entry names a breakdown extremum with its count and share of the total.
type Entry struct {
	Name    string  `json:"name"`
	Count   float64 `json:"count"`
	Percent float64 `json:"percent"`
}

// KPISnapshot is the display-ready rollup of the filtered row set. Purely
// derived; recomputed on every filter or dataset change.
type KPISnapshot struct {
	TotalPeople       float64 `json:"total_people"`
	LocationsIncluded int     `json:"locations_included"`
	RegionsIncluded   int     `json:"regions_included"`
	AvgPerLocation    float64 `json:"avg_per_location"`
	RoleCoverage      int     `json:"role_coverage"`

	LocationBreakdown *Breakdown `json:"location_breakdown"`
	RegionBreakdown   *Breakdown `json:"region_breakdown"`
	RoleBreakdown     *Breakdown `json:"role_breakdown"`
	IndustryBreakdown *Breakdown `json:"industry_breakdown"`

	TopLocation    *Entry `json:"top_location,omitempty"`
	BottomLocation *Entry `json:"bottom_location,omitempty"`
	TopRole        *Entry `json:"top_role,omitempty"`
	TopIndustry    *Entry `json:"top_industry,omitempty"`

	// Concentration and diversity of the role mix.
	HHI               float64 `json:"hhi"`
	ConcentrationBand string  `json:"concentration_band"`
	Diversity         float64 `json:"diversity"`

	// PerLocationRoles holds the exact per-location role accumulation used by
	// the drill-down tree builder.
	PerLocationRoles map[string]map[string]float64 `json:"-"`
}

// Aggregate reduces the dataset rows restricted to the effective selections
// into a KPISnapshot in a single pass.
//
// A row whose location code is outside the effective locations is skipped. A
// row with no classifiable location passes the restriction but contributes to
// role and industry totals only, never to location or region buckets.
// Unparseable numeric cells contribute 0. All percentages are 0 when their
// denominator is 0.
func Aggregate(ds *dataset.Dataset, eff filter.Effective, meta []industry.RoleMetadata, profile *geo.Profile) KPISnapshot {
	categoryOf := make(map[string]industry.Category, len(meta))
	for _, m := range meta {
		categoryOf[m.Role] = m.Category
	}

	locationSet := make(map[string]struct{}, len(eff.Locations))
	for _, l := range eff.Locations {
		locationSet[l] = struct{}{}
	}

	snap := KPISnapshot{
		LocationBreakdown: NewBreakdown(),
		RegionBreakdown:   NewBreakdown(),
		RoleBreakdown:     NewBreakdown(),
		IndustryBreakdown: NewBreakdown(),
		PerLocationRoles:  make(map[string]map[string]float64),
	}

	for _, row := range ds.Rows {
		code := row.LocationCode
		if code != "" {
			if _, ok := locationSet[code]; !ok {
				continue
			}
		}
		for _, role := range eff.Roles {
			v := row.Number(role)
			if v == 0 {
				continue
			}
			snap.TotalPeople += v
			snap.RoleBreakdown.Add(role, v)
			cat := categoryOf[role]
			if cat == "" {
				cat = industry.Classify(role)
			}
			snap.IndustryBreakdown.Add(string(cat), v)

			if code == "" {
				continue
			}
			snap.LocationBreakdown.Add(code, v)
			if profile != nil {
				if region, ok := profile.RegionOf(code); ok {
					snap.RegionBreakdown.Add(region, v)
				}
			}
			perRole := snap.PerLocationRoles[code]
			if perRole == nil {
				perRole = make(map[string]float64)
				snap.PerLocationRoles[code] = perRole
			}
			perRole[role] += v
		}
	}

	snap.LocationsIncluded = snap.LocationBreakdown.NonZeroCount()
	snap.RegionsIncluded = snap.RegionBreakdown.Len()
	snap.RoleCoverage = snap.RoleBreakdown.NonZeroCount()
	if snap.LocationsIncluded > 0 {
		snap.AvgPerLocation = math.Round(snap.TotalPeople / float64(snap.LocationsIncluded))
	}

	snap.TopLocation = extremeEntry(snap.LocationBreakdown, snap.TotalPeople, true)
	snap.BottomLocation = extremeEntry(snap.LocationBreakdown, snap.TotalPeople, false)
	snap.TopRole = extremeEntry(snap.RoleBreakdown, snap.TotalPeople, true)
	snap.TopIndustry = extremeEntry(snap.IndustryBreakdown, snap.TotalPeople, true)

	snap.HHI, snap.ConcentrationBand = Concentration(snap.RoleBreakdown)
	snap.Diversity = Diversity(snap.RoleBreakdown)
	return snap
}

func extremeEntry(b *Breakdown, total float64, top bool) *Entry {
	var (
		name string
		v    float64
		ok   bool
	)
	if top {
		name, v, ok = b.Max()
	} else {
		name, v, ok = b.Min()
	}
	if !ok {
		return nil
	}
	return &Entry{Name: name, Count: v, Percent: percent(v, total)}
}

// Concentration computes the Herfindahl-Hirschman index over the breakdown's
// shares and its band. Bands follow common antitrust thresholds.
func Concentration(b *Breakdown) (float64, string) {
	total := b.Total()
	if total == 0 {
		return 0, "unconcentrated"
	}
	var hhi float64
	for _, k := range b.Keys() {
		sh := b.Get(k) / total
		hhi += sh * sh
	}
	hhi = round3(hhi)
	switch {
	case hhi < 0.15:
		return hhi, "unconcentrated"
	case hhi < 0.25:
		return hhi, "moderately_concentrated"
	default:
		return hhi, "highly_concentrated"
	}
}

// Diversity computes Shannon evenness of the breakdown in [0, 1]: 0 for an
// empty or single-bucket breakdown, 1 for a perfectly even mix.
func Diversity(b *Breakdown) float64 {
	total := b.Total()
	n := b.Len()
	if total == 0 || n <= 1 {
		return 0
	}
	var h float64
	for _, k := range b.Keys() {
		sh := b.Get(k) / total
		if sh > 0 {
			h -= sh * math.Log(sh)
		}
	}
	return round3(h / math.Log(float64(n)))
}
