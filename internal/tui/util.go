package tui

import (
	"encoding/json"
	"fmt"
)

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// cellText renders a property value for a table cell or popup line.
func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		bs, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(bs)
	}
}
