package tetris

import "sort"

// repair tries to make room for req by evicting everything on the servers with
// the most critical headroom and repacking it together with req.
// The reshuffle is committed only if every evicted request finds a new home;
// otherwise st is left untouched and req stays unplaced.
func (p *Packer) repair(st *placement, req Item) bool {
	r := st.critical

	// Single-dimension pre-check on raw capacity.
	var candidates []int
	for j, s := range st.servers {
		if s.Value(r) >= req.Value(r) {
			candidates = append(candidates, j)
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		ja, jb := candidates[a], candidates[b]
		ha := st.servers[ja].Value(r) - st.load[ja].Value(r)
		hb := st.servers[jb].Value(r) - st.load[jb].Value(r)
		if ha != hb {
			return ha > hb
		}
		return st.servers[ja].ID < st.servers[jb].ID
	})

	if len(candidates) > p.SearchWidth {
		candidates = candidates[:p.SearchWidth]
	}
	if len(candidates) == 0 {
		p.logger().Debug("Repair skipped, no candidate servers", "request", req.ID)
		return false
	}

	subServers := make([]Item, 0, len(candidates))
	for _, j := range candidates {
		subServers = append(subServers, st.servers[j])
	}

	// req is pinned first; the evicted requests follow it.
	subRequests := append([]Item{req}, st.hostedBy(subServers)...)

	sortDescending(subServers, r)
	sortAscending(subRequests[1:], r)

	subLoad := make([]Load, len(subServers))
	sub := Solve(r, subRequests, subServers, subLoad)
	if !sub.AllDeployed {
		p.logger().Debug("Repair discarded",
			"request", req.ID,
			"pool", len(subRequests),
			"placed", sub.DeployedCount,
		)
		return false
	}

	for _, item := range subRequests {
		st.d.assign(item.ID, sub.Mapping[item.ID])
	}
	for k, s := range subServers {
		st.load[st.positions[s.ID]] = subLoad[k]
	}

	p.logger().Debug("Repair committed",
		"request", req.ID,
		"servers", len(subServers),
		"relocated", len(subRequests)-1,
	)
	return true
}

// hostedBy returns the requests currently mapped to servers, grouped by
// server in the given order and by ascending request ID within a server.
func (st *placement) hostedBy(servers []Item) []Item {
	ids := make([]int, 0, len(st.d.Mapping))
	for id := range st.d.Mapping {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var hosted []Item
	for _, s := range servers {
		for _, id := range ids {
			if st.d.Mapping[id] == s.ID {
				hosted = append(hosted, st.requests[id])
			}
		}
	}
	return hosted
}
