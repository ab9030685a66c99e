package dataset

// ColumnType is the inferred value type of a column.
type ColumnType string

const (
	TypeText    ColumnType = "text"
	TypeNumber  ColumnType = "number"
	TypeDate    ColumnType = "date"
	TypeBoolean ColumnType = "boolean"
)

// Tag is a semantic role inferred for a column from its name and sample.
type Tag string

const (
	TagLocation      Tag = "location"
	TagCity          Tag = "city"
	TagPostalCode    Tag = "postal-code"
	TagOrganization  Tag = "organization"
	TagStatus        Tag = "status"
	TagIndustry      Tag = "industry"
	TagAudienceLevel Tag = "audience-level"
	TagDomain        Tag = "domain"
	TagICP           Tag = "icp"
)

// ColumnDescriptor describes one column: its name, inferred type, and semantic
// tags. Descriptors are created once by ClassifyColumns and never mutated.
type ColumnDescriptor struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
	Tags []Tag      `json:"tags,omitempty"`
}

// HasTag reports whether the descriptor carries the given semantic tag.
func (c ColumnDescriptor) HasTag(t Tag) bool {
	for _, tag := range c.Tags {
		if tag == t {
			return true
		}
	}
	return false
}

// Row is one record: typed cells keyed by column name plus sidecar fields
// derived during ingestion. Rows are immutable after creation.
type Row struct {
	Cells map[string]Value

	// LocationCode is the canonical geography code for the row's location
	// column, empty when the geography normalizer could not classify it.
	LocationCode string
	// Industry is the normalized industry category from an industry-tagged
	// text column, empty when absent.
	Industry string
	// Source names the originating file; set by the merge engine.
	Source string
}

// Number returns the numeric value of a cell, 0 for absent or non-numeric.
func (r Row) Number(column string) float64 {
	return r.Cells[column].Number()
}

// Dataset is an ordered, annotated table. Immutable once created except
// through Merge, which produces a new virtual Dataset.
type Dataset struct {
	ID        string
	Name      string
	Columns   []ColumnDescriptor
	Rows      []Row
	RowCount  int
	ProfileID string
}

// Column returns the descriptor for a column name when present.
func (d *Dataset) Column(name string) (ColumnDescriptor, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}

// roleExcludedTags are semantic tags that disqualify a numeric column from
// being treated as a wide-format role column.
var roleExcludedTags = []Tag{
	TagLocation, TagCity, TagPostalCode, TagOrganization,
	TagStatus, TagIndustry, TagAudienceLevel, TagDomain, TagICP,
}

// RoleColumns returns the wide-format role columns in dataset order: numeric
// columns whose headers carry no structural semantic tag.
func (d *Dataset) RoleColumns() []string {
	var roles []string
	for _, c := range d.Columns {
		if c.Type != TypeNumber {
			continue
		}
		excluded := false
		for _, t := range roleExcludedTags {
			if c.HasTag(t) {
				excluded = true
				break
			}
		}
		if !excluded {
			roles = append(roles, c.Name)
		}
	}
	return roles
}

// LocationColumn returns the name of the first location-tagged column, or "".
func (d *Dataset) LocationColumn() string {
	for _, c := range d.Columns {
		if c.HasTag(TagLocation) {
			return c.Name
		}
	}
	return ""
}

// AvailableLocations returns the distinct normalized location codes present in
// the dataset, in first-seen row order.
func (d *Dataset) AvailableLocations() []string {
	seen := make(map[string]struct{})
	var codes []string
	for _, r := range d.Rows {
		if r.LocationCode == "" {
			continue
		}
		if _, ok := seen[r.LocationCode]; ok {
			continue
		}
		seen[r.LocationCode] = struct{}{}
		codes = append(codes, r.LocationCode)
	}
	return codes
}
