package tetris

import (
	"math"
	"sort"
)

// SelectCritical returns the scarcer resource by supply/demand ratio.
// Cores win only when strictly scarcer; ties go to RAM.
// A resource nobody asks for has an infinite ratio and is never critical.
func SelectCritical(requests, servers []Item) Resource {
	var demand, supply Load
	for _, r := range requests {
		demand.add(r)
	}
	for _, s := range servers {
		supply.add(s)
	}

	if ratio(supply.Cores, demand.Cores) < ratio(supply.RAM, demand.RAM) {
		return Cores
	}
	return RAM
}

func ratio(supply, demand int) float64 {
	if demand == 0 {
		return math.Inf(1)
	}
	return float64(supply) / float64(demand)
}

// SortForPlacement orders requests ascending and servers descending by r.
// Equal values keep ascending ID order.
func SortForPlacement(requests, servers []Item, r Resource) {
	sortAscending(requests, r)
	sortDescending(servers, r)
}

func sortAscending(items []Item, r Resource) {
	sort.SliceStable(items, func(i, j int) bool {
		vi, vj := items[i].Value(r), items[j].Value(r)
		if vi != vj {
			return vi < vj
		}
		return items[i].ID < items[j].ID
	})
}

func sortDescending(items []Item, r Resource) {
	sort.SliceStable(items, func(i, j int) bool {
		vi, vj := items[i].Value(r), items[j].Value(r)
		if vi != vj {
			return vi > vj
		}
		return items[i].ID < items[j].ID
	})
}
