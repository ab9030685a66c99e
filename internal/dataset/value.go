package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueKind discriminates the typed representations a cell can take.
type ValueKind int

const (
	KindAbsent ValueKind = iota
	KindText
	KindNumber
	KindDate
	KindBool
)

// Value is a typed cell. Exactly one of the payload fields is meaningful,
// selected by Kind. A zero Value is absent.
type Value struct {
	Kind ValueKind
	Text string
	Num  float64
	Time time.Time
	Bool bool
}

// Absent reports whether the cell held no usable value.
func (v Value) Absent() bool { return v.Kind == KindAbsent }

// Number returns the numeric payload, or 0 for any non-numeric cell.
// Unparseable numeric input degrades to 0 rather than an error.
func (v Value) Number() float64 {
	if v.Kind == KindNumber {
		return v.Num
	}
	return 0
}

// String returns a display form of the value.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		if math.Trunc(v.Num) == v.Num {
			return strconv.FormatInt(int64(v.Num), 10)
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindDate:
		return v.Time.Format("2006-01-02")
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

var boolTokens = map[string]bool{
	"true": true, "false": false,
	"yes": true, "no": false,
	"1": true, "0": false,
}

var dateLayouts = []string{
	time.RFC3339, "2006-01-02", "01/02/2006", "2006/01/02", "1/2/2006", "1/2/06", "2006-01-02 15:04:05",
}

// parseNumber parses a numeric string, stripping common formatting ($ and ,).
func parseNumber(s string) (float64, bool) {
	if strings.TrimSpace(s) == "" {
		return 0, false
	}
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ',', '$':
			return -1
		default:
			return r
		}
	}, strings.TrimSpace(s))
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TypedValue converts a raw cell string into a Value according to the column's
// inferred type. Values that fail to parse under the declared type degrade to
// text (or absent when empty), never to an error.
func TypedValue(raw string, typ ColumnType) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Value{}
	}
	switch typ {
	case TypeNumber:
		if f, ok := parseNumber(s); ok {
			return Value{Kind: KindNumber, Num: f}
		}
	case TypeDate:
		if t, ok := parseDate(s); ok {
			return Value{Kind: KindDate, Time: t}
		}
	case TypeBoolean:
		if b, ok := boolTokens[strings.ToLower(s)]; ok {
			return Value{Kind: KindBool, Bool: b}
		}
	}
	return Value{Kind: KindText, Text: s}
}
