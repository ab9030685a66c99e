package geo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup_RegisteredProfiles(t *testing.T) {
	require.Contains(t, IDs(), "us-states")
	require.Contains(t, IDs(), "world-countries")

	us, ok := Lookup("us-states")
	require.True(t, ok)
	require.Equal(t, MapRegional, us.MapKind)

	world, ok := Lookup("world-countries")
	require.True(t, ok)
	require.Equal(t, MapGlobal, world.MapKind)

	// Empty id falls back to the default profile.
	def, ok := Lookup("")
	require.True(t, ok)
	require.Equal(t, DefaultProfileID, def.ID)

	_, ok = Lookup("mars-colonies")
	require.False(t, ok)
}

func TestNormalize_CodeThenNameThenFail(t *testing.T) {
	p, ok := Lookup("us-states")
	require.True(t, ok)

	cases := []struct {
		in   string
		code string
		ok   bool
	}{
		{"CA", "CA", true},
		{"ca", "CA", true},
		{" ca ", "CA", true},
		{"California", "CA", true},
		{"california", "CA", true},
		{"New York", "NY", true},
		{"Atlantis", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		code, got := p.Normalize(tc.in)
		require.Equal(t, tc.ok, got, "input %q", tc.in)
		require.Equal(t, tc.code, code, "input %q", tc.in)
	}
}

func TestRegionOf(t *testing.T) {
	p, _ := Lookup("us-states")

	region, ok := p.RegionOf("CA")
	require.True(t, ok)
	require.Equal(t, "West", region)

	region, ok = p.RegionOf("ny")
	require.True(t, ok)
	require.Equal(t, "Northeast", region)

	_, ok = p.RegionOf("XX")
	require.False(t, ok)
}

func TestLocationsOfRegions_UnionInCatalogOrder(t *testing.T) {
	p, _ := Lookup("us-states")

	west := p.LocationsOfRegions([]string{"West"})
	require.Contains(t, west, "CA")
	require.Contains(t, west, "WA")
	require.NotContains(t, west, "NY")

	both := p.LocationsOfRegions([]string{"West", "Northeast"})
	require.Equal(t, len(west)+len(p.LocationsOfRegion("Northeast")), len(both))

	require.Empty(t, p.LocationsOfRegions([]string{"Narnia"}))
	require.Empty(t, p.LocationsOfRegions(nil))
}

func TestDisplayName(t *testing.T) {
	p, _ := Lookup("world-countries")
	require.Equal(t, "United States", p.DisplayName("US"))
	require.Equal(t, "United States", p.DisplayName("us"))
	require.Equal(t, "ZZ", p.DisplayName("ZZ"))
}
