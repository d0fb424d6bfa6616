package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amounts are stored in minor units (paise). Rupee floats only appear at
// JSON and PDF boundaries.

// ToMinor converts rupees to paise with half-away-from-zero rounding.
func ToMinor(rupees float64) int64 {
	return int64(math.Round(rupees * 100))
}

// ToRupees converts paise to rupees.
func ToRupees(minor int64) float64 {
	return float64(minor) / 100
}

// Percent applies pct to a minor amount, rounding half away from zero.
func Percent(minor int64, pct float64) int64 {
	return int64(math.Round(float64(minor) * pct / 100))
}

// FormatINR renders a minor amount as a display string like "Rs. 1,234.50".
func FormatINR(minor int64) string {
	negative := minor < 0
	if negative {
		minor = -minor
	}
	rupees := minor / 100
	paise := minor % 100
	whole := groupIndian(rupees)
	out := fmt.Sprintf("Rs. %s.%02d", whole, paise)
	if negative {
		return "-" + out
	}
	return out
}

// groupIndian applies the Indian digit grouping (1,23,45,678).
func groupIndian(value int64) string {
	s := strconv.FormatInt(value, 10)
	if len(s) <= 3 {
		return s
	}
	head := s[:len(s)-3]
	tail := s[len(s)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}
