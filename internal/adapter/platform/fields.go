package platform

import (
	"encoding/json"
	"fmt"
)

// Code renders a result-code field ("ret", "status") as a string whether the
// platform sent it as a number or a string. Missing fields render as "".
func Code(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(v)
	}
}

// Text returns a string field, or "" when it is missing or not a string.
func Text(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// RemoteID looks for the saved article's id at the top level or under "data".
func RemoteID(obj map[string]any) string {
	for _, scope := range []map[string]any{nested(obj, "data"), obj} {
		if scope == nil {
			continue
		}
		for _, key := range []string{"id", "Id", "ID", "msg_id"} {
			if id := Code(scope, key); id != "" && id != "0" {
				return id
			}
		}
	}
	return ""
}

func nested(obj map[string]any, key string) map[string]any {
	m, _ := obj[key].(map[string]any)
	return m
}
