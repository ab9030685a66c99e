package filter

import (
	"github.com/crewlens/crewlens/internal/dataset"
	"github.com/crewlens/crewlens/internal/geo"
	"github.com/crewlens/crewlens/internal/industry"
)

// CombineMode selects how explicit role picks compose with industry-implied
// roles. There is no corresponding mode for locations; see Resolve.
type CombineMode string

const (
	ModeAnd CombineMode = "AND"
	ModeOr  CombineMode = "OR"
)

// State is the declarative filter state. It is an immutable value; user
// actions produce a new State rather than mutating in place.
type State struct {
	Locations  []string    `json:"locations,omitempty"`
	Regions    []string    `json:"regions,omitempty"`
	Roles      []string    `json:"roles,omitempty"`
	Industries []string    `json:"industries,omitempty"`
	Mode       CombineMode `json:"mode,omitempty"`
}

// Cleared is the canonical empty filter state.
func Cleared() State { return State{Mode: ModeAnd} }

// IsCleared reports whether no facet carries a selection.
func (s State) IsCleared() bool {
	return len(s.Locations) == 0 && len(s.Regions) == 0 &&
		len(s.Roles) == 0 && len(s.Industries) == 0
}

// Effective is the resolved selection actually used by aggregation.
type Effective struct {
	Locations []string `json:"locations"`
	Roles     []string `json:"roles"`
}

// Resolve composes the declarative state into effective selected roles and
// locations for the dataset.
//
// Roles: with neither facet set, all role columns are selected. Otherwise the
// industry facet implies the union of roles classified into the selected
// categories, and explicit picks compose with that set per Mode (AND =
// intersection, OR = union). With only one facet set, that facet's picks are
// used verbatim.
//
// Locations: region picks imply the union of member codes, intersected with
// the locations present in the dataset. Explicit picks alone are used
// verbatim, deliberately without intersecting against the dataset — an absent
// location contributes nothing downstream. When both facets are set the two
// are unioned and then intersected with the dataset's locations. Locations
// have no AND/OR toggle; this asymmetry with roles is part of the contract.
func Resolve(state State, ds *dataset.Dataset, meta []industry.RoleMetadata, profile *geo.Profile) Effective {
	return Effective{
		Roles:     resolveRoles(state, ds, meta),
		Locations: resolveLocations(state, ds, profile),
	}
}

func resolveRoles(state State, ds *dataset.Dataset, meta []industry.RoleMetadata) []string {
	allRoles := ds.RoleColumns()
	if len(state.Industries) == 0 && len(state.Roles) == 0 {
		return allRoles
	}

	wantCategory := make(map[industry.Category]struct{}, len(state.Industries))
	for _, c := range state.Industries {
		wantCategory[industry.Category(c)] = struct{}{}
	}
	var industryRoles []string
	industrySet := make(map[string]struct{})
	for _, m := range meta {
		if _, ok := wantCategory[m.Category]; ok {
			industryRoles = append(industryRoles, m.Role)
			industrySet[m.Role] = struct{}{}
		}
	}

	switch {
	case len(state.Roles) == 0:
		return industryRoles
	case len(state.Industries) == 0:
		return append([]string(nil), state.Roles...)
	case state.Mode == ModeOr:
		out := append([]string(nil), state.Roles...)
		seen := make(map[string]struct{}, len(out))
		for _, r := range out {
			seen[r] = struct{}{}
		}
		for _, r := range industryRoles {
			if _, ok := seen[r]; !ok {
				out = append(out, r)
			}
		}
		return out
	default: // AND
		var out []string
		for _, r := range state.Roles {
			if _, ok := industrySet[r]; ok {
				out = append(out, r)
			}
		}
		return out
	}
}

func resolveLocations(state State, ds *dataset.Dataset, profile *geo.Profile) []string {
	available := ds.AvailableLocations()
	if len(state.Locations) == 0 && len(state.Regions) == 0 {
		return available
	}

	var regionLocations []string
	if profile != nil && len(state.Regions) > 0 {
		regionLocations = profile.LocationsOfRegions(state.Regions)
	}

	switch {
	case len(state.Locations) == 0:
		return intersect(regionLocations, available)
	case len(state.Regions) == 0:
		// Verbatim: absent locations simply contribute nothing downstream.
		return append([]string(nil), state.Locations...)
	default:
		union := append(append([]string(nil), regionLocations...), state.Locations...)
		return intersect(union, available)
	}
}

// intersect returns the members of want that are present in have, in have's
// order, without duplicates.
func intersect(want, have []string) []string {
	wanted := make(map[string]struct{}, len(want))
	for _, w := range want {
		wanted[w] = struct{}{}
	}
	var out []string
	for _, h := range have {
		if _, ok := wanted[h]; ok {
			out = append(out, h)
			delete(wanted, h)
		}
	}
	return out
}
