package analytics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakdownAccumulates(t *testing.T) {
	b := NewBreakdown()
	b.Add("CA", 10)
	b.Add("NY", 5)
	b.Add("CA", 3)

	assert.Equal(t, 13.0, b.Get("CA"))
	assert.Equal(t, []string{"CA", "NY"}, b.Keys())
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 18.0, b.Total())
	assert.True(t, b.Has("NY"))
	assert.False(t, b.Has("TX"))
	assert.Equal(t, 0.0, b.Get("TX"))
}

func TestBreakdownExtremesFirstInsertedWinsTies(t *testing.T) {
	b := NewBreakdown()
	b.Add("first", 10)
	b.Add("second", 10)
	b.Add("low", 1)

	name, v, ok := b.Max()
	require.True(t, ok)
	assert.Equal(t, "first", name)
	assert.Equal(t, 10.0, v)

	name, v, ok = b.Min()
	require.True(t, ok)
	assert.Equal(t, "low", name)
	assert.Equal(t, 1.0, v)

	_, _, ok = NewBreakdown().Max()
	assert.False(t, ok)
}

func TestBreakdownNonZeroCount(t *testing.T) {
	b := NewBreakdown()
	b.Add("a", 0)
	b.Add("b", 2)
	assert.Equal(t, 1, b.NonZeroCount())
	assert.Equal(t, 2, b.Len())
}

func TestBreakdownMarshalJSONInsertionOrder(t *testing.T) {
	b := NewBreakdown()
	b.Add("z", 1)
	b.Add("a", 2)

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":2}`, string(data))
}

func TestPercentZeroDenominator(t *testing.T) {
	assert.Equal(t, 0.0, percent(5, 0))
	assert.Equal(t, 50.0, percent(1, 2))
}
