package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParsePrice reads a list price written with either decimal convention.
//
// Spaces and "$" are dropped. When both ',' and '.' appear, whichever comes
// last is the decimal point and the other is thousands grouping. A lone
// comma followed by at most two digits is a decimal comma; any other commas
// are grouping. With several dots only the last one is decimal.
//
//	"1.234,56" -> 1234.56   "1,234.56" -> 1234.56
//	"12,50"    -> 12.5      "1,234"    -> 1234
//	"$ 99.99"  -> 99.99     "1.234.567.89" -> 1234567.89
func ParsePrice(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	s = strings.ReplaceAll(s, "$", "")
	if s == "" {
		return 0, fmt.Errorf("empty price %q", raw)
	}

	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndexByte(s, ',') > strings.LastIndexByte(s, '.') {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case commas > 0:
		decimals := len(s) - strings.LastIndexByte(s, ',') - 1
		if commas == 1 && decimals <= 2 {
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case dots > 1:
		last := strings.LastIndexByte(s, '.')
		s = strings.ReplaceAll(s[:last], ".", "") + s[last:]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid price %q: not a finite number", raw)
	}
	return v, nil
}
