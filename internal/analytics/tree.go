package analytics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/crewlens/crewlens/internal/geo"
)

// TreeNode is one node of the region -> location -> role drill-down tree.
// Leaf nodes carry a value; interior nodes carry children. Every node has a
// stable id and color so the drill-down UI keeps consistent coloring across
// re-renders.
type TreeNode struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Value    float64     `json:"value,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
	Color    string      `json:"color,omitempty"`
}

// Base palette for region nodes; child nodes lighten their region's hue.
var treePalette = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

const treeTopRoles = 5

// BuildDrilldownTree assembles a three-level tree from the current breakdowns.
// Regions include only member locations with a non-zero total. Each location's
// role leaves use the exact per-location accumulation when available; when it
// is missing, the location's total is distributed across the global top roles
// in proportion to each role's share of the global role total. The fallback is
// an approximation of the location's mix, not its true per-role data. Nodes
// with neither children nor a positive value are pruned.
func BuildDrilldownTree(locations, roles *Breakdown, perLocationRoles map[string]map[string]float64, profile *geo.Profile) *TreeNode {
	root := &TreeNode{ID: "root", Name: "All Regions"}
	if profile == nil {
		return root
	}

	globalTop := topRoles(roles, treeTopRoles)
	globalTotal := roles.Total()

	for ri, region := range profile.Regions() {
		base := treePalette[ri%len(treePalette)]
		regionNode := &TreeNode{
			ID:    "region:" + region,
			Name:  region,
			Color: base,
		}
		for _, code := range profile.LocationsOfRegion(region) {
			locTotal := locations.Get(code)
			if locTotal <= 0 {
				continue
			}
			locNode := &TreeNode{
				ID:    "loc:" + code,
				Name:  profile.DisplayName(code),
				Color: lighten(base, 0.25),
			}
			exact := perLocationRoles[code]
			if len(exact) > 0 {
				locNode.Children = exactRoleLeaves(code, exact, lighten(base, 0.45))
			} else {
				locNode.Children = distributedRoleLeaves(code, globalTop, roles, globalTotal, locTotal, lighten(base, 0.45))
			}
			if len(locNode.Children) == 0 {
				locNode.Value = locTotal
			}
			regionNode.Children = append(regionNode.Children, locNode)
		}
		if len(regionNode.Children) > 0 {
			root.Children = append(root.Children, regionNode)
		}
	}
	return root
}

// exactRoleLeaves returns the location's top roles from its exact per-role
// accumulation.
func exactRoleLeaves(code string, perRole map[string]float64, color string) []*TreeNode {
	names := make([]string, 0, len(perRole))
	for r := range perRole {
		names = append(names, r)
	}
	sort.Slice(names, func(i, j int) bool {
		if perRole[names[i]] != perRole[names[j]] {
			return perRole[names[i]] > perRole[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > treeTopRoles {
		names = names[:treeTopRoles]
	}
	var out []*TreeNode
	for _, r := range names {
		v := perRole[r]
		if v <= 0 {
			continue
		}
		out = append(out, &TreeNode{
			ID:    fmt.Sprintf("loc:%s:role:%s", code, r),
			Name:  r,
			Value: v,
			Color: color,
		})
	}
	return out
}

// distributedRoleLeaves approximates a location's role mix by spreading its
// total across the global top roles in proportion to each role's global
// share.
func distributedRoleLeaves(code string, globalTop []string, roles *Breakdown, globalTotal, locTotal float64, color string) []*TreeNode {
	if globalTotal == 0 {
		return nil
	}
	var out []*TreeNode
	for _, r := range globalTop {
		share := roles.Get(r) / globalTotal
		v := math.Round(share * locTotal)
		if v <= 0 {
			continue
		}
		out = append(out, &TreeNode{
			ID:    fmt.Sprintf("loc:%s:role:%s", code, r),
			Name:  r,
			Value: v,
			Color: color,
		})
	}
	return out
}

func topRoles(roles *Breakdown, n int) []string {
	keys := roles.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return roles.Get(keys[i]) > roles.Get(keys[j])
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// lighten blends a #RRGGBB color toward white by fraction f in [0, 1].
func lighten(hex string, f float64) string {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return hex
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return hex
	}
	r := float64((v >> 16) & 0xFF)
	g := float64((v >> 8) & 0xFF)
	b := float64(v & 0xFF)
	blend := func(c float64) uint32 {
		out := c + (255-c)*f
		if out > 255 {
			out = 255
		}
		return uint32(math.Round(out))
	}
	return fmt.Sprintf("#%02X%02X%02X", blend(r), blend(g), blend(b))
}
