package forecast

import (
	"regexp"
	"strconv"
)

var tafMaxPattern = regexp.MustCompile(`TX(M?\d{2})/`)

// ParseTAFMax extracts the first TXnn/ maximum temperature group from raw TAF
// text. An M prefix marks a negative value.
func ParseTAFMax(raw string) *float64 {
	m := tafMaxPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	s := m[1]
	sign := 1.0
	if s[0] == 'M' {
		sign = -1
		s = s[1:]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	v := sign * float64(n)
	return &v
}
