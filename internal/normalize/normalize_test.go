package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCoalesce(t *testing.T) {
	item := map[string]any{
		"a": nil,
		"b": "",
		"c": "null",
		"d": "value",
		"e": float64(7),
	}
	assert.Equal(t, "value", Coalesce(item, "a", "b", "c", "d"))
	assert.Equal(t, float64(7), Coalesce(item, "missing", "e", "d"))
	assert.Nil(t, Coalesce(item, "a", "b", "c"))
	assert.Nil(t, Coalesce(item, "missing"))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-10-29T11:22:33", day(2025, 10, 29), true},
		{"2025-10-29 11:22:33", day(2025, 10, 29), true},
		{"2025-10-29T11:22:33Z", day(2025, 10, 29), true},
		{"2024-01-01", day(2024, 1, 1), true},
		{"29.10.2025", time.Time{}, false},
		{"", time.Time{}, false},
		{"not a date", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestToFloat(t *testing.T) {
	assert.Equal(t, 10.5, ToFloat("10.5"))
	assert.Equal(t, 5.0, ToFloat("5"))
	assert.Equal(t, 3.0, ToFloat(float64(3)))
	assert.Equal(t, 0.0, ToFloat("abc"))
	assert.Equal(t, 0.0, ToFloat(nil))
	assert.Equal(t, 0.0, ToFloat(map[string]any{}))
	assert.Equal(t, -2.0, ToFloat("-2")) // negatives pass through
}

func TestToString(t *testing.T) {
	assert.Equal(t, "12345678", ToString(float64(12345678)))
	assert.Equal(t, "10.5", ToString(10.5))
	assert.Equal(t, "abc", ToString("abc"))
	assert.Equal(t, "", ToString(nil))
}

func testSchema() Schema {
	return Schema{
		Now: func() time.Time { return time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC) },
		Fields: []Field{
			{Name: "date", Candidates: []string{"sale_dt", "saleDt", "date"}, Kind: Date, Required: true},
			{Name: "sku", Candidates: []string{"supplierArticle", "sa_article", "nm_id"}, Kind: String, Default: "UNKNOWN"},
			{Name: "region", Candidates: []string{"regionName", "region_name"}, Kind: String},
			{Name: "quantity", Candidates: []string{"quantity", "sale_qty"}, Kind: Number},
			{Name: "price", Candidates: []string{"retail_price", "price"}, Kind: Number},
		},
	}
}

func TestSchemaApply_FallbackChains(t *testing.T) {
	batch := testSchema().Apply([]map[string]any{
		{
			"saleDt":     "2024-01-01T00:00:00",
			"sa_article": "ART-9",
			"sale_qty":   "5",
			"price":      "10.5",
		},
	})
	require.Equal(t, 1, batch.Len())
	assert.Equal(t, []string{"date", "sku", "region", "quantity", "price"}, batch.Columns)
	assert.Equal(t, []any{day(2024, 1, 1), "ART-9", "", 5.0, 10.5}, batch.Rows[0])
}

func TestSchemaApply_Defaults(t *testing.T) {
	batch := testSchema().Apply([]map[string]any{
		{"sale_dt": "2024-02-02", "quantity": "nope"},
	})
	require.Equal(t, 1, batch.Len())
	row := batch.Rows[0]
	assert.Equal(t, "UNKNOWN", row[1]) // sentinel identifier
	assert.Equal(t, "", row[2])        // empty-string region
	assert.Equal(t, 0.0, row[3])       // unparseable measure
	assert.Equal(t, 0.0, row[4])       // absent measure
}

func TestSchemaApply_DropsRowsWithoutResolvableDate(t *testing.T) {
	batch := testSchema().Apply([]map[string]any{
		{"sale_dt": "2024-01-01", "quantity": 1},
		{"supplierArticle": "NO-DATE", "quantity": 2},
		{"sale_dt": "garbage", "quantity": 3},
	})
	assert.Equal(t, 1, batch.Len())
}

func TestSchemaApply_DateFallsBackToSecondaryThenToday(t *testing.T) {
	s := Schema{
		Now: func() time.Time { return time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC) },
		Fields: []Field{
			{Name: "date", Candidates: []string{"date", "updated_at"}, Kind: Date},
			{Name: "sku", Candidates: []string{"sku"}, Kind: String, Default: "UNKNOWN"},
		},
	}

	batch := s.Apply([]map[string]any{
		{"updated_at": "2025-05-30T08:00:00Z", "sku": "A"},
		{"sku": "B"},
	})
	require.Equal(t, 2, batch.Len())
	assert.Equal(t, day(2025, 5, 30), batch.Rows[0][0]) // secondary timestamp
	assert.Equal(t, day(2025, 6, 1), batch.Rows[1][0])  // current date
}

func TestSchemaApply_EmptyInput(t *testing.T) {
	batch := testSchema().Apply(nil)
	assert.Equal(t, 0, batch.Len())
	assert.Len(t, batch.Columns, 5)
}

func TestBatchDateWindow(t *testing.T) {
	batch := testSchema().Apply([]map[string]any{
		{"sale_dt": "2024-01-05"},
		{"sale_dt": "2024-01-02"},
		{"sale_dt": "2024-01-09"},
	})
	min, max, ok := batch.DateWindow("date")
	require.True(t, ok)
	assert.Equal(t, day(2024, 1, 2), min)
	assert.Equal(t, day(2024, 1, 9), max)

	_, _, ok = batch.DateWindow("nope")
	assert.False(t, ok)

	empty := testSchema().Apply(nil)
	_, _, ok = empty.DateWindow("date")
	assert.False(t, ok)
}
