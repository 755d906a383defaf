package mpapi

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// recordListKeys are the envelope keys probed, in priority order, when the
// "result" value is an object. The upstream response shape varies across
// report types and API versions, so extraction is tolerant by design.
var recordListKeys = [...]string{"items", "stocks", "data", "rows"}

// Record is one raw API record before normalization.
type Record = map[string]any

// DecodeRecords parses a response body and extracts its record list. A
// top-level parse failure is fatal for the page; a parseable body that
// simply holds no recognizable list yields zero records.
func DecodeRecords(body []byte) ([]Record, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, eris.Wrap(err, "mpapi: parse response")
	}
	return ExtractRecords(doc), nil
}

// ExtractRecords locates the record list in a decoded JSON document:
// a top-level array is the list itself; an object's "result" key holds
// either the list or an envelope object probed via recordListKeys.
// Anything else is an empty list.
func ExtractRecords(doc any) []Record {
	switch v := doc.(type) {
	case []any:
		return toRecords(v)
	case map[string]any:
		res, ok := v["result"]
		if !ok {
			res = v
		}
		switch rv := res.(type) {
		case []any:
			return toRecords(rv)
		case map[string]any:
			for _, key := range recordListKeys {
				if list, ok := rv[key].([]any); ok {
					return toRecords(list)
				}
			}
		}
	}
	return nil
}

func toRecords(list []any) []Record {
	records := make([]Record, 0, len(list))
	for _, el := range list {
		if rec, ok := el.(map[string]any); ok {
			records = append(records, rec)
		}
	}
	return records
}
