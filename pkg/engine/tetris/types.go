package tetris

import "fmt"

// Resource identifies one of the two packing dimensions.
type Resource int

const (
	RAM Resource = iota
	Cores
)

func (r Resource) String() string {
	if r == Cores {
		return "cores"
	}
	return "ram"
}

// Item is a VM request or a physical server.
// ID is its position in the source configuration and survives any reordering.
type Item struct {
	ID    int
	Cores int
	RAM   int
}

// Value returns the item's quantity of r.
func (i Item) Value(r Resource) int {
	if r == Cores {
		return i.Cores
	}
	return i.RAM
}

// Configuration is a batch of requests or servers read from one file.
type Configuration struct {
	Number int
	Items  []Item
}

// Load tracks consumed capacity on a server.
type Load struct {
	Cores int
	RAM   int
}

// Value returns the consumed quantity of r.
func (l Load) Value(r Resource) int {
	if r == Cores {
		return l.Cores
	}
	return l.RAM
}

func (l *Load) add(i Item) {
	l.Cores += i.Cores
	l.RAM += i.RAM
}

// fits reports whether i fits on server s already carrying l.
func fits(s Item, l Load, i Item) bool {
	return l.Cores+i.Cores <= s.Cores && l.RAM+i.RAM <= s.RAM
}

// Deployment is the result of one placement run over a configuration pair.
type Deployment struct {
	RequestConfig int
	ServerConfig  int

	// Mapping is request ID -> server ID.
	Mapping       map[int]int
	DeployedCount int
	AllDeployed   bool

	Requests         int
	Critical         Resource
	RepairsAttempted int
	RepairsCommitted int
	Rejected         []int

	// Utilization is server ID -> final load.
	Utilization map[int]Load
}

func newDeployment(requests, servers int) *Deployment {
	return &Deployment{
		RequestConfig: requests,
		ServerConfig:  servers,
		Mapping:       make(map[int]int),
		Utilization:   make(map[int]Load),
	}
}

func (d *Deployment) assign(request, server int) {
	if _, ok := d.Mapping[request]; !ok {
		d.DeployedCount++
	}
	d.Mapping[request] = server
}

func (d *Deployment) finalize() {
	d.AllDeployed = d.DeployedCount == d.Requests
}

// MarkRejected records requests refused before placement.
// They count toward Requests but are never mapped.
func (d *Deployment) MarkRejected(ids ...int) {
	d.Rejected = append(d.Rejected, ids...)
	d.Requests += len(ids)
	d.finalize()
}

// Validate checks the count invariants.
func (d *Deployment) Validate() error {
	if d.DeployedCount != len(d.Mapping) {
		return fmt.Errorf("deployed count %d does not match %d mapped requests", d.DeployedCount, len(d.Mapping))
	}
	if d.AllDeployed != (d.DeployedCount == d.Requests) {
		return fmt.Errorf("all-deployed flag %t inconsistent with %d/%d", d.AllDeployed, d.DeployedCount, d.Requests)
	}
	return nil
}
