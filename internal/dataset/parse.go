package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "01/02/2006", "1/2/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	// Spreadsheet short dates (mm-dd-yy, m/d/yy).
	"01-02-06", "1/2/06", "1/2/06 15:04",
}

// naTokens are cell values treated as missing.
var naTokens = map[string]bool{
	"na": true, "n/a": true, "nan": true, "null": true, "none": true,
	"#n/a": true, "#na": true, "-nan": true, "<na>": true,
}

func isNA(s string) bool {
	return naTokens[strings.ToLower(strings.TrimSpace(s))]
}

func parseTimeMaybe(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumeric parses plain, thousands-grouped and percent cells. A trailing
// '%' divides by 100 so "18.2%" and "0.182" load to the same fraction.
// Non-finite values are rejected.
func parseNumeric(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" || isNA(raw) {
		return 0, false
	}
	percent := false
	if strings.HasSuffix(raw, "%") {
		percent = true
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "%"))
	}
	raw = strings.ReplaceAll(raw, " ", "")
	// Only ',' is treated as a thousands separator; survey exports use '.' decimals.
	raw = strings.ReplaceAll(raw, ",", "")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if percent {
		f /= 100
	}
	return f, true
}
