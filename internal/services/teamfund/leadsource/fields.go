package leadsource

import (
	"github.com/tidwall/gjson"
)

const (
	maxFieldLen     = 255
	maxFitReasonLen = 500
)

// present reports whether a JSON value is neither missing nor null.
func present(value gjson.Result) bool {
	return value.Exists() && value.Type != gjson.Null
}

// firstPresent returns the first path whose value is neither missing nor
// null. An empty string is a present value and ends the search.
func firstPresent(item gjson.Result, paths ...string) (string, bool) {
	for _, path := range paths {
		if value := item.Get(path); present(value) {
			return value.String(), true
		}
	}
	return "", false
}

func firstPresentOr(item gjson.Result, fallback string, paths ...string) string {
	if value, ok := firstPresent(item, paths...); ok {
		return value
	}
	return fallback
}

// truncate limits value to max runes.
func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}
