package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParetoCurve(t *testing.T) {
	roles := NewBreakdown()
	roles.Add("Editor", 80)
	roles.Add("Sound Mixer", 15)
	roles.Add("Colorist", 5)

	points := Pareto(roles)
	require.Len(t, points, 3)

	assert.Equal(t, "Editor", points[0].Role)
	assert.Equal(t, 80.0, points[0].Cumulative)
	assert.Equal(t, 80.0, points[0].CumulativePercent)

	assert.Equal(t, "Sound Mixer", points[1].Role)
	assert.Equal(t, 95.0, points[1].CumulativePercent)

	assert.Equal(t, "Colorist", points[2].Role)
	assert.Equal(t, 100.0, points[2].CumulativePercent)
}

func TestParetoMonotonic(t *testing.T) {
	roles := NewBreakdown()
	roles.Add("a", 7)
	roles.Add("b", 13)
	roles.Add("c", 2)
	roles.Add("d", 13)

	points := Pareto(roles)
	require.Len(t, points, 4)
	for i := 1; i < len(points); i++ {
		assert.GreaterOrEqual(t, points[i].CumulativePercent, points[i-1].CumulativePercent)
		assert.LessOrEqual(t, points[i].Count, points[i-1].Count)
	}
	assert.Equal(t, 100.0, points[len(points)-1].CumulativePercent)
}

func TestParetoTieKeepsInsertionOrder(t *testing.T) {
	roles := NewBreakdown()
	roles.Add("b", 10)
	roles.Add("a", 10)

	points := Pareto(roles)
	assert.Equal(t, "b", points[0].Role, "stable sort keeps first-inserted on ties")
}

func TestParetoZeroTotal(t *testing.T) {
	roles := NewBreakdown()
	roles.Add("a", 0)

	points := Pareto(roles)
	require.Len(t, points, 1)
	assert.Equal(t, 0.0, points[0].CumulativePercent)

	assert.Empty(t, Pareto(NewBreakdown()))
}
