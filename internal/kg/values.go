package kg

import (
	"fmt"
	"slices"

	"github.com/zero-day-ai/medqa/internal/lexicon"
)

func stringOf(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// stringsOf converts a list column; nil and empty entries are dropped.
func stringsOf(v any) []string {
	out := []string{}
	switch list := v.(type) {
	case []string:
		for _, s := range list {
			if s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range list {
			if s := stringOf(item); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func int64Of(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// categoryOf returns the entity category named by one of the labels in a
// labels column.
func categoryOf(v any) (lexicon.Category, bool) {
	labels := stringsOf(v)
	for _, c := range lexicon.Categories() {
		if slices.Contains(labels, c.Label()) {
			return c, true
		}
	}
	return "", false
}
