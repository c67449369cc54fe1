package models

import "time"

// SortKey normalizes a message timestamp to milliseconds since epoch.
// Numeric values are already ms; strings are parsed as ISO-8601 (including
// a trailing Z). Anything malformed sorts as zero, i.e. to the front.
func SortKey(ts any) int64 {
	switch v := ts.(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return 0
		}
		return t.UnixMilli()
	default:
		return 0
	}
}
