package tetris

import (
	"io"
	"log/slog"
)

// DefaultSearchWidth is the number of servers a repair attempt may reshuffle.
const DefaultSearchWidth = 2

// Packer places VM requests onto servers.
// It runs a first-fit pass in critical-resource order and, whenever a request
// fits nowhere, one bounded local-search repair for that request.
type Packer struct {
	SearchWidth int
	Logger      *slog.Logger
}

func NewPacker(searchWidth int, logger *slog.Logger) *Packer {
	if logger == nil {
		logger = discardLogger
	}
	if searchWidth < 0 {
		searchWidth = 0
	}
	return &Packer{
		SearchWidth: searchWidth,
		Logger:      logger,
	}
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// logger returns p.Logger, or a discarding logger for a zero-value Packer.
func (p *Packer) logger() *slog.Logger {
	if p.Logger == nil {
		return discardLogger
	}
	return p.Logger
}

// Solve runs plain first-fit over requests and servers in the order given.
// load must be aligned with servers and is updated in place.
// No resource selection, sorting or repair happens here.
func Solve(critical Resource, requests, servers []Item, load []Load) *Deployment {
	d := newDeployment(0, 0)
	d.Critical = critical
	d.Requests = len(requests)

	for _, req := range requests {
		j := firstFit(req, servers, load)
		if j < 0 {
			continue
		}
		load[j].add(req)
		d.assign(req.ID, servers[j].ID)
	}

	for j, s := range servers {
		d.Utilization[s.ID] = load[j]
	}
	d.finalize()
	return d
}

// firstFit returns the position of the first server admitting req, or -1.
func firstFit(req Item, servers []Item, load []Load) int {
	for j, s := range servers {
		if fits(s, load[j], req) {
			return j
		}
	}
	return -1
}

// Pack places the requests configuration onto the servers configuration.
// The inputs are not modified.
func (p *Packer) Pack(requests, servers Configuration) *Deployment {
	reqs := append([]Item(nil), requests.Items...)
	srvs := append([]Item(nil), servers.Items...)

	critical := SelectCritical(reqs, srvs)
	SortForPlacement(reqs, srvs, critical)

	st := newPlacement(critical, reqs, srvs)
	st.d.RequestConfig = requests.Number
	st.d.ServerConfig = servers.Number

	p.logger().Debug("Placement started",
		"requests", requests.Number,
		"servers", servers.Number,
		"critical", critical.String(),
	)

	for _, req := range reqs {
		if j := firstFit(req, st.servers, st.load); j >= 0 {
			st.place(req, j)
			continue
		}
		st.d.RepairsAttempted++
		if p.repair(st, req) {
			st.d.RepairsCommitted++
		}
	}

	for j, s := range st.servers {
		st.d.Utilization[s.ID] = st.load[j]
	}
	st.d.finalize()
	return st.d
}

// placement is the mutable state of one Pack call.
type placement struct {
	critical  Resource
	servers   []Item
	load      []Load
	requests  map[int]Item // by request ID
	positions map[int]int  // server ID -> position in servers
	d         *Deployment
}

func newPlacement(critical Resource, requests, servers []Item) *placement {
	st := &placement{
		critical:  critical,
		servers:   servers,
		load:      make([]Load, len(servers)),
		requests:  make(map[int]Item, len(requests)),
		positions: make(map[int]int, len(servers)),
		d:         newDeployment(0, 0),
	}
	for _, r := range requests {
		st.requests[r.ID] = r
	}
	for j, s := range servers {
		st.positions[s.ID] = j
	}
	st.d.Critical = critical
	st.d.Requests = len(requests)
	return st
}

func (st *placement) place(req Item, j int) {
	st.load[j].add(req)
	st.d.assign(req.ID, st.servers[j].ID)
}
