package reconcile

import (
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"commscivet/core/utils"
)

// IdentifierKey returns the canonical form of an identifier value.
// ok is false when the value is nil or renders as blank text.
func IdentifierKey(v any) (key string, ok bool) {
	if utils.IsNil(v) {
		return "", false
	}
	key = utils.ToString(v)
	if strings.TrimSpace(key) == "" {
		return "", false
	}
	return key, true
}

// ValuesEqual reports whether two field values are the same.
// Two nils are equal, a nil never equals a non-nil, and anything else is
// compared by exact canonical text with no trimming or case folding.
func ValuesEqual(a, b any) bool {
	aNil, bNil := utils.IsNil(a), utils.IsNil(b)
	if aNil || bNil {
		return aNil && bNil
	}
	return utils.ToString(a) == utils.ToString(b)
}

// CompareIdentifiers orders canonical identifiers. Numeric identifiers come
// first in numeric order, the rest follow in byte order. Numerically equal
// identifiers with different text ("5", "5.0") fall back to byte order.
func CompareIdentifiers(a, b string) int {
	af, aNum := numericValue(a)
	bf, bNum := numericValue(b)

	switch {
	case aNum && bNum:
		if c := compareNumbers(a, b, af, bf); c != 0 {
			return c
		}
	case aNum:
		return -1
	case bNum:
		return 1
	}
	return strings.Compare(a, b)
}

// SortIdentifiers sorts keys in place by CompareIdentifiers.
func SortIdentifiers(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		return CompareIdentifiers(keys[i], keys[j]) < 0
	})
}

func numericValue(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// compareNumbers falls back to exact rational comparison when the float64
// approximations collide, which happens for long integer identifiers.
func compareNumbers(a, b string, af, bf float64) int {
	if af < bf {
		return -1
	}
	if af > bf {
		return 1
	}
	ra, okA := new(big.Rat).SetString(a)
	rb, okB := new(big.Rat).SetString(b)
	if okA && okB {
		return ra.Cmp(rb)
	}
	return 0
}
