package industry

import "strings"

// Category is an industry bucket for a wide-format role column.
type Category string

const (
	Movie        Category = "Movie"
	Television   Category = "Television"
	Music        Category = "Music"
	Theater      Category = "Theater"
	Gaming       Category = "Gaming"
	Publishing   Category = "Publishing"
	Advertising  Category = "Advertising"
	Unclassified Category = "Unclassified"
)

// rules is the ordered classification table: the first category whose keyword
// set has a case-insensitive substring match against the role name wins.
// Keyword-substring classification is approximate; a name containing two
// categories' keywords resolves to whichever is checked first.
var rules = []struct {
	category Category
	keywords []string
}{
	{Movie, []string{"editor", "director", "cinematograph", "camera", "film", "grip", "gaffer", "screenwriter", "vfx", "colorist", "stunt", "production designer"}},
	{Television, []string{"television", "broadcast", "showrunner", "tv ", " tv", "news anchor", "teleprompter"}},
	{Music, []string{"sound", "mixer", "audio", "composer", "musician", "recording", "mastering", "boom", "foley", "music"}},
	{Theater, []string{"stage", "theater", "theatre", "playwright", "usher", "props"}},
	{Gaming, []string{"game", "gameplay", "quest"}},
	{Publishing, []string{"writer", "author", "journalist", "copyedit", "publisher"}},
	{Advertising, []string{"marketing", "advertis", "brand", "media buyer", "publicist"}},
}

// Classify returns the industry category for a role column name. Pure and
// total: unknown names resolve to Unclassified, which is treated as its own
// bucket downstream.
func Classify(roleName string) Category {
	low := strings.ToLower(strings.TrimSpace(roleName))
	if low == "" {
		return Unclassified
	}
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(low, kw) {
				return r.category
			}
		}
	}
	return Unclassified
}

// Categories lists the known categories in rule order, ending with
// Unclassified.
func Categories() []Category {
	out := make([]Category, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.category)
	}
	return append(out, Unclassified)
}
