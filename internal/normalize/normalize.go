// Package normalize maps raw API records with variable key names onto
// fixed-schema rows. Each target field declares an ordered chain of
// candidate source keys; resolution is declarative so the fallback policy
// per source is data, not code.
package normalize

import (
	"strconv"
	"strings"
	"time"
)

// Kind is the target type of a normalized field.
type Kind int

const (
	String Kind = iota
	Number
	Date
)

// Field declares how one output column resolves from a raw record.
type Field struct {
	Name       string
	Candidates []string // source keys probed in order
	Kind       Kind
	Default    any  // value when no candidate resolves; nil Date defaults to today
	Required   bool // Date only: drop the row when unresolved instead of defaulting
}

// Schema is the fixed column set of one source's normalized table.
type Schema struct {
	Fields []Field

	// Now supplies "today" for date defaults; nil means time.Now.
	Now func() time.Time
}

// Batch is a rectangular normalized batch. A zero-length input produces an
// empty batch with the schema's columns and no rows.
type Batch struct {
	Columns []string
	Rows    [][]any
}

// Len returns the row count.
func (b Batch) Len() int { return len(b.Rows) }

// DateWindow returns the [min, max] of the named date column across the
// batch. ok is false for an empty batch or an unknown column.
func (b Batch) DateWindow(column string) (min, max time.Time, ok bool) {
	idx := -1
	for i, c := range b.Columns {
		if c == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return min, max, false
	}
	for _, row := range b.Rows {
		d, isDate := row[idx].(time.Time)
		if !isDate {
			continue
		}
		if !ok || d.Before(min) {
			min = d
		}
		if !ok || d.After(max) {
			max = d
		}
		ok = true
	}
	return min, max, ok
}

// Columns returns the schema's output column names in declaration order.
func (s Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Name
	}
	return cols
}

// Apply normalizes a batch of raw records. Rows whose required date cannot
// be resolved are dropped; every other miss takes the field's default.
func (s Schema) Apply(items []map[string]any) Batch {
	batch := Batch{Columns: s.Columns()}
	for _, item := range items {
		row, ok := s.applyOne(item)
		if ok {
			batch.Rows = append(batch.Rows, row)
		}
	}
	return batch
}

func (s Schema) applyOne(item map[string]any) ([]any, bool) {
	row := make([]any, len(s.Fields))
	for i, f := range s.Fields {
		switch f.Kind {
		case Date:
			d, ok := resolveDate(item, f.Candidates)
			if !ok {
				if f.Required {
					return nil, false
				}
				if f.Default != nil {
					row[i] = f.Default
				} else {
					row[i] = s.today()
				}
				continue
			}
			row[i] = d
		case Number:
			row[i] = ToFloat(Coalesce(item, f.Candidates...))
		default:
			v := Coalesce(item, f.Candidates...)
			if v == nil {
				row[i] = f.Default
				if f.Default == nil {
					row[i] = ""
				}
				continue
			}
			row[i] = ToString(v)
		}
	}
	return row, true
}

func (s Schema) today() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	t := now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Coalesce returns the first candidate value that is present and not nil,
// "" or the literal string "null".
func Coalesce(item map[string]any, candidates ...string) any {
	for _, key := range candidates {
		v, ok := item[key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && (s == "" || s == "null") {
			continue
		}
		return v
	}
	return nil
}

// resolveDate probes date candidates in order and returns the first value
// that parses.
func resolveDate(item map[string]any, candidates []string) (time.Time, bool) {
	for _, key := range candidates {
		v := Coalesce(item, key)
		if v == nil {
			continue
		}
		if d, ok := ParseDate(ToString(v)); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses ISO-8601 date-times and the space-separated
// "YYYY-MM-DD HH:MM:SS" variant, truncating to the calendar date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ToFloat coerces a raw value to float64, returning 0 for anything that
// does not parse.
func ToFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// ToString renders a raw value as a string. JSON numbers print without an
// exponent so numeric ids stay readable.
func ToString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(s, 10)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return ""
	default:
		return ""
	}
}
