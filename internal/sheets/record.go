// Package sheets reads Application Records from the application form's
// Google Sheet. Reads are side-effect free and preserve row order.
package sheets

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is one application row. Fields are keyed by header text; only the
// id and video-link columns carry meaning to the pipeline.
type Record struct {
	ID      int
	Row     int // 1-based sheet row, header is row 1
	Fields  map[string]string
	Columns []string // header order, shared by every record of a read
}

// Field returns the trimmed value of column, or "".
func (r Record) Field(column string) string {
	return strings.TrimSpace(r.Fields[column])
}

// Reader lists application records.
type Reader interface {
	Read(ctx context.Context) ([]Record, error)
}

// IDs maps records to their application ids, preserving order.
func IDs(records []Record) []int {
	ids := make([]int, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

// Find returns the first record with the given id.
func Find(records []Record, id int) (Record, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// ParseID coerces a raw cell to an application id. Numbers and numeric
// strings are accepted when they hold a whole number in the int32 range;
// everything else (blank, text, fractional values) is rejected.
func ParseID(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int:
		return boundedID(int64(x))
	case int64:
		return boundedID(x)
	case float64:
		return floatID(x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return boundedID(n)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return floatID(f)
	default:
		return 0, false
	}
}

func floatID(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// boundedID applies the same int32 range as floatID.
func boundedID(n int64) (int, bool) {
	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0, false
	}
	return int(n), true
}

// cellString renders an unformatted cell value as text.
func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
