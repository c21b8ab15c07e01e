package render

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MinTruncateLen is the smallest width Truncate will honour, leaving room
// for one character plus the ellipsis.
const MinTruncateLen = 4

// Truncate collapses whitespace in s onto a single line and cuts it to at
// most maxLen runes, marking the cut with "...".
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// Scalar renders a leaf value the way widgets display it.
func Scalar(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// normalize turns arbitrary values (structs, typed maps and slices) into
// the generic map/slice shapes produced by encoding/json so widgets only
// deal with one representation.
func normalize(v interface{}) interface{} {
	switch v.(type) {
	case nil, string, bool, float64, int, int64, map[string]interface{}, []interface{}:
		return v
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
