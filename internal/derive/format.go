package derive

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/lukefredrickson/nfact-dashboard/internal/catalog"
)

// ErrNotPercent reports a string without a trailing '%' or a numeric part.
var ErrNotPercent = errors.New("not a percent string")

var printer = message.NewPrinter(language.English)

// FormatPercent renders a fraction as a percentage with one decimal,
// rounding half away from zero on the shortest decimal form of v, so
// 0.0125 becomes "1.3%" even though its binary value is slightly below.
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	mant, exp, _ := strings.Cut(strconv.FormatFloat(math.Abs(v), 'e', -1, 64), "e")
	digits := strings.Replace(mant, ".", "", 1)
	e, _ := strconv.Atoi(exp)
	// Tenths of a percent: |v| * 1000 has e+4 integer digits.
	k := e + 4
	if k > 17 {
		return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
	}
	var n uint64
	switch {
	case k < 0:
	case k == 0:
		if digits[0] >= '5' {
			n = 1
		}
	default:
		for len(digits) <= k {
			digits += "0"
		}
		n, _ = strconv.ParseUint(digits[:k], 10, 64)
		if digits[k] >= '5' {
			n++
		}
	}
	// Negative values keep their sign even when they round to zero.
	sign := ""
	if v < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%d%%", sign, n/10, n%10)
}

// ParsePercent inverts FormatPercent: "18.2%" parses to 0.182.
func ParsePercent(s string) (float64, error) {
	s = strings.TrimSpace(s)
	num, ok := strings.CutSuffix(s, "%")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotPercent, s)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotPercent, s)
	}
	return f / 100, nil
}

// FormatCount renders a count with English digit grouping.
func FormatCount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return printer.Sprintf("%d", int64(math.Round(v)))
}

// Format renders v according to the catalog kind.
func Format(kind catalog.Kind, v float64) string {
	if kind == catalog.KindCount {
		return FormatCount(v)
	}
	return FormatPercent(v)
}
