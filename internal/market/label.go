// Package market resolves forecast temperatures against the priced buckets
// of a daily temperature event.
package market

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	OpenLow  = -999
	OpenHigh = 999
)

// Range is an inclusive integer temperature range in the market's unit.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

var (
	unitPattern   = regexp.MustCompile(`°\s*[CFcf]?`)
	exactPattern  = regexp.MustCompile(`^-?\d+$`)
	rangePattern  = regexp.MustCompile(`^(-?\d+)\s*(?:-|–|to)\s*(-?\d+)$`)
	numberPattern = regexp.MustCompile(`-?\d+`)
)

var (
	lowerWords = []string{"below", "under", "lower", "less", "<", "≤"}
	upperWords = []string{"above", "over", "higher", "more", ">", "≥"}
)

// ParseLabel turns a bucket label such as "20-22°C", "-5", "19°C or below" or
// "Above 35" into a range. ok is false for labels it does not understand.
func ParseLabel(label string) (Range, bool) {
	clean := strings.TrimSpace(unitPattern.ReplaceAllString(label, ""))
	if clean == "" {
		return Range{}, false
	}

	if exactPattern.MatchString(clean) {
		n, err := strconv.Atoi(clean)
		if err != nil {
			return Range{}, false
		}
		return Range{Min: n, Max: n}, true
	}

	if m := rangePattern.FindStringSubmatch(clean); m != nil {
		lo, err1 := strconv.Atoi(m[1])
		hi, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			return Range{}, false
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		return Range{Min: lo, Max: hi}, true
	}

	lower := strings.ToLower(clean)
	nums := numberPattern.FindAllString(lower, -1)
	if len(nums) != 1 {
		return Range{}, false
	}
	n, err := strconv.Atoi(nums[0])
	if err != nil {
		return Range{}, false
	}
	switch {
	case containsAny(lower, lowerWords):
		return Range{Min: OpenLow, Max: n}, true
	case containsAny(lower, upperWords):
		return Range{Min: n, Max: OpenHigh}, true
	}
	return Range{}, false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
