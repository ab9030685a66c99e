package dataset

import "strings"

// RawRow is the ingestion contract: column name to raw cell text, as produced
// by an external file-parsing collaborator.
type RawRow map[string]string

// tagKeywords is the ordered per-tag keyword table for semantic tagging.
// Matching is case-insensitive substring against the column name; a column may
// carry multiple tags.
var tagKeywords = []struct {
	tag      Tag
	keywords []string
}{
	{TagLocation, []string{"state", "location", "country", "region", "province", "territory"}},
	{TagCity, []string{"city", "town", "municipality"}},
	{TagPostalCode, []string{"zip", "postal", "postcode"}},
	{TagOrganization, []string{"company", "organization", "organisation", "employer", "studio"}},
	{TagStatus, []string{"status", "stage"}},
	{TagIndustry, []string{"industry", "sector", "vertical"}},
	{TagAudienceLevel, []string{"audience", "seniority", "level"}},
	{TagDomain, []string{"domain", "website", "url"}},
	{TagICP, []string{"icp", "ideal customer"}},
}

// typeCounter tracks observed value categories for a column sample.
type typeCounter struct {
	numCount  int
	dateCount int
	textCount int
	nonEmpty  int
	// distinct lowered values, used for boolean-set detection
	distinct map[string]struct{}
}

func newTypeCounter() *typeCounter {
	return &typeCounter{distinct: make(map[string]struct{})}
}

func (t *typeCounter) observe(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	t.nonEmpty++
	low := strings.ToLower(s)
	if len(t.distinct) < 16 {
		t.distinct[low] = struct{}{}
	}
	if _, ok := parseNumber(s); ok {
		t.numCount++
		return
	}
	if _, ok := parseDate(s); ok {
		t.dateCount++
		return
	}
	t.textCount++
}

// booleanSet reports whether every sampled distinct value is a boolean token.
func (t *typeCounter) booleanSet() bool {
	if t.nonEmpty == 0 || len(t.distinct) == 0 {
		return false
	}
	for v := range t.distinct {
		if _, ok := boolTokens[v]; !ok {
			return false
		}
	}
	return true
}

// dominantType picks the column type from the sample. Boolean wins when the
// whole sampled set is boolean-like; otherwise the largest category of
// number/date/text wins, defaulting to text for empty samples.
func (t *typeCounter) dominantType() ColumnType {
	if t.booleanSet() {
		return TypeBoolean
	}
	max := t.textCount
	typ := TypeText
	if t.numCount > max {
		max = t.numCount
		typ = TypeNumber
	}
	if t.dateCount > max {
		typ = TypeDate
	}
	return typ
}

// ClassifyColumns infers a ColumnDescriptor for each header, order-preserving,
// from the header name and a bounded value sample. Deterministic given the
// same headers and sample; no side effects.
func ClassifyColumns(headers []string, rows []RawRow, sampleRows int) []ColumnDescriptor {
	if sampleRows <= 0 {
		sampleRows = 100
	}
	counters := make([]*typeCounter, len(headers))
	for i := range counters {
		counters[i] = newTypeCounter()
	}

	sampled := 0
	for _, r := range rows {
		if sampled >= sampleRows {
			break
		}
		sampled++
		for i, h := range headers {
			counters[i].observe(r[h])
		}
	}

	out := make([]ColumnDescriptor, len(headers))
	for i, h := range headers {
		cd := ColumnDescriptor{Name: h, Type: counters[i].dominantType()}
		low := strings.ToLower(strings.TrimSpace(h))
		for _, rule := range tagKeywords {
			if containsAny(low, rule.keywords) {
				cd.Tags = append(cd.Tags, rule.tag)
			}
		}
		// A boolean-like text sample is accepted as an ICP flag even without
		// a name hint.
		if !cd.HasTag(TagICP) && cd.Type == TypeBoolean {
			cd.Tags = append(cd.Tags, TagICP)
		}
		out[i] = cd
	}
	return out
}

// BuildRows converts raw rows into typed rows per the classified descriptors.
// Cells that fail to parse under the declared type degrade per TypedValue.
func BuildRows(columns []ColumnDescriptor, rows []RawRow) []Row {
	out := make([]Row, 0, len(rows))
	for _, raw := range rows {
		cells := make(map[string]Value, len(columns))
		for _, c := range columns {
			v := TypedValue(raw[c.Name], c.Type)
			if !v.Absent() {
				cells[c.Name] = v
			}
		}
		out = append(out, Row{Cells: cells})
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
