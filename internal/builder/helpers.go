package builder

import "time"

// Implements a less comparator for sorting for any pair of values. These
// values almost certainly come from the front matter section of pages, so
// we never know their actual type upfront.
func lessAny(a any, b any) bool {
	s1, okS1 := a.(string)
	s2, okS2 := b.(string)
	if okS1 && okS2 {
		return s1 < s2
	}

	n1, okN1 := toFloat(a)
	n2, okN2 := toFloat(b)
	if okN1 && okN2 {
		return n1 < n2
	}

	t1, okT1 := a.(time.Time)
	t2, okT2 := b.(time.Time)
	if okT1 && okT2 {
		return t1.Before(t2)
	}

	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
