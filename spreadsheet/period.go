package spreadsheet

import (
	"regexp"
	"strings"
)

var (
	quarterRe = regexp.MustCompile(`^(?:q|qtr|quarter)\s*([1-4]|iv|i{1,3})$`)
	ordinalRe = regexp.MustCompile(`^([1-4])(?:st|nd|rd|th)?\s*(?:q|qtr|quarter)$`)
	rangeRe   = regexp.MustCompile(`^([a-z]+)\.?\s*(?:-|to)\s*([a-z]+)\.?$`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

var romanQuarters = map[string]int{"i": 1, "ii": 2, "iii": 3, "iv": 4}

var wordQuarters = map[string]int{"first": 1, "second": 2, "third": 3, "fourth": 4}

// Opening and closing month of every quarter, by three-letter prefix.
var monthRanges = map[[2]string]int{
	{"jan", "mar"}: 1,
	{"apr", "jun"}: 2,
	{"jul", "sep"}: 3,
	{"oct", "dec"}: 4,
}

var skipLabels = map[string]bool{
	"":             true,
	"annual":       true,
	"total":        true,
	"year":         true,
	"annual total": true,
	"whole year":   true,
}

func normaliseLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.NewReplacer("–", "-", "—", "-", "_", " ").Replace(label)
	return spaceRe.ReplaceAllString(label, " ")
}

// parsePeriod maps a period label to its quarter. skip is set for labels of
// columns that carry no quarterly value, such as annual totals.
func parsePeriod(label string) (quarter int, skip bool, ok bool) {
	s := normaliseLabel(label)
	if skipLabels[s] {
		return 0, true, true
	}

	if m := quarterRe.FindStringSubmatch(s); m != nil {
		if q, found := romanQuarters[m[1]]; found {
			return q, false, true
		}
		return int(m[1][0] - '0'), false, true
	}
	if m := ordinalRe.FindStringSubmatch(s); m != nil {
		return int(m[1][0] - '0'), false, true
	}
	if word, rest, found := strings.Cut(s, " "); found && (rest == "quarter" || rest == "qtr") {
		if q, known := wordQuarters[word]; known {
			return q, false, true
		}
	}
	if m := rangeRe.FindStringSubmatch(s); m != nil && len(m[1]) >= 3 && len(m[2]) >= 3 {
		if q, known := monthRanges[[2]string{m[1][:3], m[2][:3]}]; known {
			return q, false, true
		}
	}
	return 0, false, false
}
