package locker

import (
	"strconv"
	"strings"
)

var byteUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatBytes renders n with base-1024 units, e.g. "1.95 MB". decimals caps
// the fractional digits; trailing zeros are dropped.
func FormatBytes(n int64, decimals int) string {
	if n <= 0 {
		return "0 Bytes"
	}
	if decimals < 0 {
		decimals = 0
	}

	v := float64(n)
	i := 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}

	s := strconv.FormatFloat(v, 'f', decimals, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s + " " + byteUnits[i]
}
