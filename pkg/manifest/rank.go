package manifest

import "sort"

// Rank returns a new slice ordered by score then weight, both descending.
// Ties keep their input order.
func Rank(records []*Record) []*Record {
	out := make([]*Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SuspicionScore != out[j].SuspicionScore {
			return out[i].SuspicionScore > out[j].SuspicionScore
		}
		return out[i].Weight > out[j].Weight
	})
	return out
}

// Select returns at most n leading records.
func Select(records []*Record, n int) []*Record {
	if n < 0 {
		n = 0
	}
	if len(records) <= n {
		return records
	}
	return records[:n]
}
