package geo

import "strings"

// MapKind controls whether a spatial visualization is offered for a profile.
type MapKind string

const (
	MapNone     MapKind = "none"
	MapRegional MapKind = "regional"
	MapGlobal   MapKind = "global"
)

// Location is one catalog entry: canonical code, display name, and the named
// region the code belongs to.
type Location struct {
	Code   string `yaml:"code" json:"code"`
	Name   string `yaml:"name" json:"name"`
	Region string `yaml:"region" json:"region"`
}

// Profile is a named catalog mapping canonical location codes to display
// names and regions. Profiles are read-only once built.
type Profile struct {
	ID        string     `yaml:"id" json:"id"`
	Name      string     `yaml:"name" json:"name"`
	MapKind   MapKind    `yaml:"map" json:"map"`
	Locations []Location `yaml:"locations" json:"locations"`

	codeIndex   map[string]int
	nameIndex   map[string]int
	regionCodes map[string][]string
	regionOrder []string
}

func (p *Profile) buildIndexes() {
	p.codeIndex = make(map[string]int, len(p.Locations))
	p.nameIndex = make(map[string]int, len(p.Locations))
	p.regionCodes = make(map[string][]string)
	for i, loc := range p.Locations {
		p.codeIndex[strings.ToUpper(loc.Code)] = i
		p.nameIndex[strings.ToLower(loc.Name)] = i
		if loc.Region != "" {
			if _, ok := p.regionCodes[loc.Region]; !ok {
				p.regionOrder = append(p.regionOrder, loc.Region)
			}
			p.regionCodes[loc.Region] = append(p.regionCodes[loc.Region], loc.Code)
		}
	}
}

// Normalize maps a raw location string to its canonical code. It tries, in
// order, an exact case-insensitive code match, then an exact case-insensitive
// display-name match. Unclassifiable input returns ("", false), never an
// error; downstream the row is simply excluded from geographic facets.
func (p *Profile) Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if i, ok := p.codeIndex[strings.ToUpper(s)]; ok {
		return p.Locations[i].Code, true
	}
	if i, ok := p.nameIndex[strings.ToLower(s)]; ok {
		return p.Locations[i].Code, true
	}
	return "", false
}

// RegionOf returns the named region of a canonical code.
func (p *Profile) RegionOf(code string) (string, bool) {
	i, ok := p.codeIndex[strings.ToUpper(code)]
	if !ok {
		return "", false
	}
	return p.Locations[i].Region, true
}

// DisplayName returns the catalog display name for a code, or the code itself
// when unknown.
func (p *Profile) DisplayName(code string) string {
	if i, ok := p.codeIndex[strings.ToUpper(code)]; ok {
		return p.Locations[i].Name
	}
	return code
}

// Regions lists the profile's region names in catalog order.
func (p *Profile) Regions() []string {
	out := make([]string, len(p.regionOrder))
	copy(out, p.regionOrder)
	return out
}

// LocationsOfRegion returns a region's member codes in catalog order.
func (p *Profile) LocationsOfRegion(region string) []string {
	codes := p.regionCodes[region]
	out := make([]string, len(codes))
	copy(out, codes)
	return out
}

// LocationsOfRegions returns the union of member codes across the given
// region names, in catalog order, without duplicates.
func (p *Profile) LocationsOfRegions(regions []string) []string {
	want := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		want[r] = struct{}{}
	}
	var out []string
	for _, loc := range p.Locations {
		if _, ok := want[loc.Region]; ok {
			out = append(out, loc.Code)
		}
	}
	return out
}
