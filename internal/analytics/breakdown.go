package analytics

import (
	"bytes"
	"encoding/json"
	"math"
)

// Breakdown is an insertion-ordered accumulator of label -> count. Insertion
// order is the documented tie-break for top/bottom extraction: on equal
// counts, the first-inserted label wins.
type Breakdown struct {
	keys []string
	vals map[string]float64
}

// NewBreakdown returns an empty breakdown.
func NewBreakdown() *Breakdown {
	return &Breakdown{vals: make(map[string]float64)}
}

// Add accumulates v under key, registering the key on first use.
func (b *Breakdown) Add(key string, v float64) {
	if _, ok := b.vals[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.vals[key] += v
}

// Get returns the accumulated count for key (0 when unseen).
func (b *Breakdown) Get(key string) float64 { return b.vals[key] }

// Has reports whether the key was ever added.
func (b *Breakdown) Has(key string) bool {
	_, ok := b.vals[key]
	return ok
}

// Keys returns the labels in insertion order.
func (b *Breakdown) Keys() []string {
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// Len returns the number of distinct labels.
func (b *Breakdown) Len() int { return len(b.keys) }

// Total sums all counts.
func (b *Breakdown) Total() float64 {
	var t float64
	for _, v := range b.vals {
		t += v
	}
	return t
}

// NonZeroCount returns the number of labels with a non-zero count.
func (b *Breakdown) NonZeroCount() int {
	n := 0
	for _, v := range b.vals {
		if v != 0 {
			n++
		}
	}
	return n
}

// Max returns the label with the highest count, first-inserted wins on ties.
func (b *Breakdown) Max() (string, float64, bool) {
	return b.extreme(func(v, best float64) bool { return v > best })
}

// Min returns the label with the lowest count, first-inserted wins on ties.
func (b *Breakdown) Min() (string, float64, bool) {
	return b.extreme(func(v, best float64) bool { return v < best })
}

func (b *Breakdown) extreme(better func(v, best float64) bool) (string, float64, bool) {
	if len(b.keys) == 0 {
		return "", 0, false
	}
	bestKey := b.keys[0]
	bestVal := b.vals[bestKey]
	for _, k := range b.keys[1:] {
		if better(b.vals[k], bestVal) {
			bestKey, bestVal = k, b.vals[k]
		}
	}
	return bestKey, bestVal, true
}

// MarshalJSON emits a JSON object in insertion order.
func (b *Breakdown) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range b.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(b.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// percent computes count/total*100 rounded to two decimals, 0 when the
// denominator is 0. Never NaN.
func percent(count, total float64) float64 {
	if total == 0 {
		return 0
	}
	return round2(count / total * 100)
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }

func round3(x float64) float64 { return math.Round(x*1000) / 1000 }
