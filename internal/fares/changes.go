package fares

import "sort"

// Change types
const (
	ChangeAdded   = "added"
	ChangeUpdated = "updated"
	ChangeRemoved = "removed"
)

// Change is one difference between the previous table and a fresh scan. A
// trip can carry several fares (one per fare class); Record is the cheapest
// current fare, or the cheapest previous one for removals.
type Change struct {
	Type          string
	Key           string
	Record        Record
	PreviousPrice string
	Fares         int
	PreviousFares int
}

// Key identifies the same trip across scans: route, window and flights flown
func (r Record) Key() string {
	return r.Origin + "|" + r.Destination + "|" + r.DepartDate + "|" + r.ReturnDate + "|" + r.OutboundLegs + "|" + r.ReturnLegs
}

// DetectChanges compares the previous table with the current records trip by
// trip. Fares sharing a key are compared as a whole: a trip counts as updated
// when its set of prices and currencies differs. Changes are ordered by key so
// the output is stable.
func DetectChanges(previous, current []Record) []Change {
	changes := []Change{}
	previousTrips := groupByKey(previous)
	currentTrips := groupByKey(current)

	for key, fares := range currentTrips {
		before, exists := previousTrips[key]
		switch {
		case !exists:
			changes = append(changes, Change{
				Type:   ChangeAdded,
				Key:    key,
				Record: fares[0],
				Fares:  len(fares),
			})
		case !sameFares(before, fares):
			changes = append(changes, Change{
				Type:          ChangeUpdated,
				Key:           key,
				Record:        fares[0],
				PreviousPrice: before[0].PriceTotal,
				Fares:         len(fares),
				PreviousFares: len(before),
			})
		}
	}

	for key, fares := range previousTrips {
		if _, exists := currentTrips[key]; !exists {
			changes = append(changes, Change{
				Type:          ChangeRemoved,
				Key:           key,
				Record:        fares[0],
				PreviousFares: len(fares),
			})
		}
	}

	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Key < changes[j].Key
	})
	return changes
}

// CountChanges tallies changes by type
func CountChanges(changes []Change) map[string]int {
	counts := map[string]int{ChangeAdded: 0, ChangeUpdated: 0, ChangeRemoved: 0}
	for _, change := range changes {
		counts[change.Type]++
	}
	return counts
}

// groupByKey collects the fares of each trip, cheapest first
func groupByKey(records []Record) map[string][]Record {
	trips := make(map[string][]Record)
	for _, record := range records {
		key := record.Key()
		trips[key] = append(trips[key], record)
	}
	for _, fares := range trips {
		sort.SliceStable(fares, func(i, j int) bool {
			return fareLess(fares[i], fares[j])
		})
	}
	return trips
}

func fareLess(a, b Record) bool {
	pa, pb := sortablePrice(a.PriceTotal), sortablePrice(b.PriceTotal)
	if pa != pb {
		return pa < pb
	}
	if a.PriceTotal != b.PriceTotal {
		return a.PriceTotal < b.PriceTotal
	}
	return a.Currency < b.Currency
}

// sameFares reports whether two sorted fare lists carry the same prices
func sameFares(a, b []Record) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].PriceTotal != b[i].PriceTotal || a[i].Currency != b[i].Currency {
			return false
		}
	}
	return true
}
