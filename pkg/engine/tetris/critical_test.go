package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectCritical(t *testing.T) {
	tests := []struct {
		name     string
		requests []Item
		servers  []Item
		want     Resource
	}{
		{
			name:     "cores scarcer",
			requests: items([2]int{3, 1}, [2]int{3, 1}, [2]int{2, 1}),
			servers:  items([2]int{4, 4}, [2]int{4, 4}),
			want:     Cores,
		},
		{
			name:     "ram scarcer",
			requests: items([2]int{1, 8}, [2]int{1, 8}),
			servers:  items([2]int{8, 10}),
			want:     RAM,
		},
		{
			name:     "tie goes to ram",
			requests: items([2]int{2, 2}),
			servers:  items([2]int{4, 4}),
			want:     RAM,
		},
		{
			name:     "no core demand",
			requests: items([2]int{0, 5}),
			servers:  items([2]int{4, 4}),
			want:     RAM,
		},
		{
			name:     "no ram demand",
			requests: items([2]int{5, 0}),
			servers:  items([2]int{4, 4}),
			want:     Cores,
		},
		{
			name:     "no demand at all",
			requests: items([2]int{0, 0}),
			servers:  items([2]int{4, 4}),
			want:     RAM,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectCritical(tt.requests, tt.servers))
		})
	}
}

func TestSortForPlacement(t *testing.T) {
	requests := items([2]int{3, 9}, [2]int{1, 1}, [2]int{3, 2}, [2]int{2, 5})
	servers := items([2]int{4, 1}, [2]int{8, 1}, [2]int{4, 9})

	SortForPlacement(requests, servers, Cores)

	var reqIDs, srvIDs []int
	for _, r := range requests {
		reqIDs = append(reqIDs, r.ID)
	}
	for _, s := range servers {
		srvIDs = append(srvIDs, s.ID)
	}
	assert.Equal(t, []int{1, 3, 0, 2}, reqIDs)
	assert.Equal(t, []int{1, 0, 2}, srvIDs)
}

func TestSolve_FirstFitNotBestFit(t *testing.T) {
	servers := items([2]int{10, 10}, [2]int{3, 3})
	load := make([]Load, len(servers))

	d := Solve(Cores, items([2]int{3, 3}), servers, load)

	assert.Equal(t, map[int]int{0: 0}, d.Mapping)
	assert.Equal(t, Load{Cores: 3, RAM: 3}, load[0])
	assert.Equal(t, Load{}, load[1])
}
