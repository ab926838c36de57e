package rules

import (
	"fmt"
	"strings"
)

// formatMessage substitutes the {pressure:.1f}/{temp:.1f}/{current:.1f}
// placeholders a config message template may carry with the given latest
// values, one decimal place, matching original_source/app/rules.py's
// str.format(...) substitution — which always uses the latest, never the
// smoothed, values.
func formatMessage(template string, pressure, temp, current float64) string {
	replacer := strings.NewReplacer(
		"{pressure:.1f}", fmt.Sprintf("%.1f", pressure),
		"{temp:.1f}", fmt.Sprintf("%.1f", temp),
		"{current:.1f}", fmt.Sprintf("%.1f", current),
	)
	return replacer.Replace(template)
}
