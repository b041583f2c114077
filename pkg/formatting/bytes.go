// Package formatting converts values between their machine and
// human-readable forms: byte sizes and JSON replies embedded in model text.
package formatting

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Sizes are base-1024. "KB" and "KiB" name the same unit.
var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n in the largest unit that keeps the value at or
// above one, e.g. 1572864 with precision 1 is "1.5 MB".
func FormatBytes(n int64, precision int) string {
	precision = max(precision, 0)

	size := float64(n)
	i := 0
	for math.Abs(size) >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}

	if i == 0 {
		return strconv.FormatInt(n, 10) + " B"
	}
	return strconv.FormatFloat(size, 'f', precision, 64) + " " + units[i]
}

// ParseBytes reads sizes such as "10MB", "1.5 GiB", "512k" or a bare
// byte count. Units are case-insensitive.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	num, unit := s, ""
	if split >= 0 {
		num, unit = s[:split], strings.TrimSpace(s[split:])
	}
	if num == "" {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}

	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}

	exp, ok := unitExponent(unit)
	if !ok {
		return 0, fmt.Errorf("unknown byte size unit %q", unit)
	}

	bytes := value * math.Pow(1024, float64(exp))
	if bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("byte size %q overflows", s)
	}
	return int64(bytes), nil
}

func unitExponent(unit string) (int, bool) {
	u := strings.ToUpper(unit)
	if u == "" || u == "B" {
		return 0, true
	}
	u = strings.TrimSuffix(strings.TrimSuffix(u, "B"), "I")
	for i, name := range units[1:] {
		if u == name[:1] {
			return i + 1, true
		}
	}
	return 0, false
}
