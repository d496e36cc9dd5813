package registry

import (
	"sort"

	"wbtracker/internal/domain"
)

// Bucket is the display group of a status: beamed worlds first, finished
// (down or empty) worlds last, everything else in between.
func Bucket(s domain.Status) int {
	switch s {
	case domain.StatusBeamed:
		return 0
	case domain.StatusDown, domain.StatusEmpty:
		return 2
	default:
		return 1
	}
}

// Sort orders records by bucket, then by world number ascending.
func Sort(records []domain.WorldRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		bi, bj := Bucket(records[i].Status), Bucket(records[j].Status)
		if bi != bj {
			return bi < bj
		}
		return records[i].World < records[j].World
	})
}

func sortInts(v []int) { sort.Ints(v) }
