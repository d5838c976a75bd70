package audit

import (
	"strconv"
	"strings"
)

// ParseAgeBucket parses a bucketed age range of the form "[low-high)" with
// integer bounds, e.g. "[60-70)" -> (60, 70). Malformed input reports
// ok=false.
func ParseAgeBucket(s string) (low, high int, ok bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, ")") {
		return 0, 0, false
	}
	inner := s[1 : len(s)-1]
	parts := strings.Split(inner, "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	low, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	high, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return low, high, true
}
