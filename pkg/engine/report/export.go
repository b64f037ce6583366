package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
)

// Pair is one placed request/server file combination.
type Pair struct {
	RequestFile string
	ServerFile  string
	Deployment  *tetris.Deployment
}

// ExportItem matches the JSON/CSV structure.
type ExportItem struct {
	RequestFile      string  `json:"request_file"`
	ServerFile       string  `json:"server_file"`
	RequestConfig    int     `json:"request_config"`
	ServerConfig     int     `json:"server_config"`
	Critical         string  `json:"critical_resource"`
	Requests         int     `json:"requests"`
	Deployed         int     `json:"deployed"`
	AllDeployed      bool    `json:"all_deployed"`
	Rejected         int     `json:"rejected"`
	RepairsAttempted int     `json:"repairs_attempted"`
	RepairsCommitted int     `json:"repairs_committed"`
	CoreUtilization  float64 `json:"core_utilization"`
	RAMUtilization   float64 `json:"ram_utilization"`
}

// Items flattens pairs into export rows ordered by server then request config.
// capacity maps server file to its configuration so utilization can be computed.
func Items(pairs []Pair, capacity map[string]tetris.Configuration) []ExportItem {
	items := make([]ExportItem, 0, len(pairs))
	for _, p := range pairs {
		d := p.Deployment
		item := ExportItem{
			RequestFile:      p.RequestFile,
			ServerFile:       p.ServerFile,
			RequestConfig:    d.RequestConfig,
			ServerConfig:     d.ServerConfig,
			Critical:         d.Critical.String(),
			Requests:         d.Requests,
			Deployed:         d.DeployedCount,
			AllDeployed:      d.AllDeployed,
			Rejected:         len(d.Rejected),
			RepairsAttempted: d.RepairsAttempted,
			RepairsCommitted: d.RepairsCommitted,
		}
		item.CoreUtilization, item.RAMUtilization = utilization(d, capacity[p.ServerFile])
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ServerFile != items[j].ServerFile {
			return items[i].ServerFile < items[j].ServerFile
		}
		return items[i].RequestFile < items[j].RequestFile
	})
	return items
}

func utilization(d *tetris.Deployment, servers tetris.Configuration) (float64, float64) {
	var capacity, used tetris.Load
	for _, s := range servers.Items {
		capacity.Cores += s.Cores
		capacity.RAM += s.RAM
		l := d.Utilization[s.ID]
		used.Cores += l.Cores
		used.RAM += l.RAM
	}
	return fraction(used.Cores, capacity.Cores), fraction(used.RAM, capacity.RAM)
}

func fraction(used, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(used) / float64(total)
}

// WriteJSON writes items as an indented JSON array.
func WriteJSON(w io.Writer, items []ExportItem) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// WriteCSV writes items with a header row.
func WriteCSV(w io.Writer, items []ExportItem) error {
	cw := csv.NewWriter(w)

	header := []string{
		"RequestFile",
		"ServerFile",
		"RequestConfig",
		"ServerConfig",
		"Critical",
		"Requests",
		"Deployed",
		"AllDeployed",
		"Rejected",
		"RepairsAttempted",
		"RepairsCommitted",
		"CoreUtilization",
		"RAMUtilization",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	for _, item := range items {
		record := []string{
			item.RequestFile,
			item.ServerFile,
			strconv.Itoa(item.RequestConfig),
			strconv.Itoa(item.ServerConfig),
			item.Critical,
			strconv.Itoa(item.Requests),
			strconv.Itoa(item.Deployed),
			strconv.FormatBool(item.AllDeployed),
			strconv.Itoa(item.Rejected),
			strconv.Itoa(item.RepairsAttempted),
			strconv.Itoa(item.RepairsCommitted),
			fmt.Sprintf("%.3f", item.CoreUtilization),
			fmt.Sprintf("%.3f", item.RAMUtilization),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}
