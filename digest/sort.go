package digest

import (
	"fmt"
	"sort"
	"strings"
)

// SortKey is a criterion used to order summaries. Larger values come first.
type SortKey string

// Available sort keys
const (
	SumQueryTime    SortKey = "sum-query-time"
	AvgQueryTime    SortKey = "avg-query-time"
	MaxQueryTime    SortKey = "max-query-time"
	SumRowsExamined SortKey = "sum-rows-examined"
	AvgRowsExamined SortKey = "avg-rows-examined"
	MaxRowsExamined SortKey = "max-rows-examined"
	ExecutionCount  SortKey = "execution-count"
	SumLockTime     SortKey = "sum-lock-time"
	AvgLockTime     SortKey = "avg-lock-time"
	MaxLockTime     SortKey = "max-lock-time"
	SumRowsSent     SortKey = "sum-rows-sent"
	AvgRowsSent     SortKey = "avg-rows-sent"
	MaxRowsSent     SortKey = "max-rows-sent"
)

var defaultOrder = []SortKey{
	SumQueryTime, AvgQueryTime, MaxQueryTime,
	SumRowsExamined, AvgRowsExamined, MaxRowsExamined,
	ExecutionCount,
	SumLockTime, AvgLockTime, MaxLockTime,
	SumRowsSent, AvgRowsSent, MaxRowsSent,
}

// Keys returns every sort key in default order
func Keys() []SortKey {
	return append([]SortKey(nil), defaultOrder...)
}

// ParseSortKeys converts names to sort keys. Duplicates are dropped, keeping
// the position of their first occurence.
func ParseSortKeys(names []string) ([]SortKey, error) {
	var keys []SortKey
	seen := make(map[SortKey]bool)

	for _, name := range names {
		k := SortKey(strings.ToLower(strings.TrimSpace(name)))
		if !k.valid() {
			return nil, fmt.Errorf("unknown sort key %q", name)
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}

	return keys, nil
}

// Order returns keys followed by the keys it misses, in default order
func Order(keys []SortKey) []SortKey {
	res := make([]SortKey, 0, len(defaultOrder))
	seen := make(map[SortKey]bool)

	for _, k := range append(append([]SortKey(nil), keys...), defaultOrder...) {
		if seen[k] || !k.valid() {
			continue
		}
		seen[k] = true
		res = append(res, k)
	}

	return res
}

// Sort orders s by keys, completed with Order. The first key on which two
// summaries differ decides, and the larger value comes first.
func Sort(s []Summary, keys []SortKey) {
	keys = Order(keys)
	sort.SliceStable(s, func(i, j int) bool {
		for _, k := range keys {
			a, b := k.value(s[i]), k.value(s[j])
			if a != b {
				return a > b
			}
		}
		return false
	})
}

// Top returns the n first summaries, or all of them when n is zero or less
func Top(s []Summary, n int) []Summary {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[:n]
}

func (k SortKey) valid() bool {
	for _, v := range defaultOrder {
		if k == v {
			return true
		}
	}
	return false
}

func (k SortKey) value(s Summary) float64 {
	switch k {
	case SumQueryTime:
		return s.QueryTime.Sum
	case AvgQueryTime:
		return s.QueryTime.Avg
	case MaxQueryTime:
		return s.QueryTime.Max
	case SumRowsExamined:
		return s.RowsExamined.Sum
	case AvgRowsExamined:
		return s.RowsExamined.Avg
	case MaxRowsExamined:
		return s.RowsExamined.Max
	case ExecutionCount:
		return float64(s.Calls)
	case SumLockTime:
		return s.LockTime.Sum
	case AvgLockTime:
		return s.LockTime.Avg
	case MaxLockTime:
		return s.LockTime.Max
	case SumRowsSent:
		return s.RowsSent.Sum
	case AvgRowsSent:
		return s.RowsSent.Avg
	case MaxRowsSent:
		return s.RowsSent.Max
	}
	return 0
}
