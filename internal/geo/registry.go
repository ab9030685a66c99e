package geo

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yaml
var profileFS embed.FS

// DefaultProfileID is assumed when a dataset does not name a profile.
const DefaultProfileID = "us-states"

var profiles = mustLoadProfiles()

func mustLoadProfiles() map[string]*Profile {
	entries, err := profileFS.ReadDir("profiles")
	if err != nil {
		panic(fmt.Sprintf("geo: read embedded profiles: %v", err))
	}
	out := make(map[string]*Profile, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := profileFS.ReadFile("profiles/" + e.Name())
		if err != nil {
			panic(fmt.Sprintf("geo: read %s: %v", e.Name(), err))
		}
		var p Profile
		if err := yaml.Unmarshal(data, &p); err != nil {
			panic(fmt.Sprintf("geo: parse %s: %v", e.Name(), err))
		}
		if p.ID == "" {
			panic(fmt.Sprintf("geo: profile %s missing id", e.Name()))
		}
		p.buildIndexes()
		out[p.ID] = &p
	}
	return out
}

// Lookup returns the registered profile for an id.
func Lookup(id string) (*Profile, bool) {
	if id == "" {
		id = DefaultProfileID
	}
	p, ok := profiles[id]
	return p, ok
}

// IDs lists the registered profile identifiers, sorted.
func IDs() []string {
	ids := make([]string, 0, len(profiles))
	for id := range profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
