package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/DrSkyle/rackfit/pkg/version"
)

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"pct": func(f float64) string { return fmt.Sprintf("%.1f", f*100) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>rackfit placement report</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        :root {
            --bg: #050505;
            --surface: rgba(255, 255, 255, 0.03);
            --border: rgba(255, 255, 255, 0.1);
            --primary: #00FF99;
            --secondary: #874BFD;
            --danger: #FF3366;
            --warning: #F59E0B;
            --text: #E2E8F0;
            --text-dim: #64748B;
        }
        body { background: var(--bg); color: var(--text); font-family: ui-monospace, monospace; margin: 2rem; }
        h1 { color: var(--secondary); letter-spacing: 0.1em; }
        .stats { display: flex; gap: 1rem; margin-bottom: 2rem; }
        .card { background: var(--surface); border: 1px solid var(--border); border-radius: 8px; padding: 1rem 1.5rem; }
        .card .value { color: var(--primary); font-size: 1.6rem; font-weight: bold; }
        .card .label { color: var(--text-dim); font-size: 0.8rem; text-transform: uppercase; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 0.4rem 0.8rem; border-bottom: 1px solid var(--border); }
        th { color: var(--text-dim); font-weight: normal; text-transform: uppercase; font-size: 0.75rem; }
        .full { color: var(--primary); }
        .partial { color: var(--warning); }
        .bar { background: var(--border); height: 6px; width: 120px; border-radius: 3px; }
        .bar span { display: block; height: 6px; background: var(--primary); border-radius: 3px; }
        footer { color: var(--text-dim); font-size: 0.75rem; margin-top: 2rem; }
    </style>
</head>
<body>
    <h1>PLACEMENT REPORT</h1>
    <div class="stats">
        <div class="card"><div class="value">{{.Pairs}}</div><div class="label">Pairs</div></div>
        <div class="card"><div class="value">{{.FullPairs}}</div><div class="label">Fully deployed</div></div>
        <div class="card"><div class="value">{{.Deployed}}/{{.Requests}}</div><div class="label">VMs deployed</div></div>
        <div class="card"><div class="value">{{.Repairs}}</div><div class="label">Repairs committed</div></div>
    </div>
    <canvas id="deployed" height="80"></canvas>
    <table>
        <tr><th>Requests</th><th>Servers</th><th>Critical</th><th>Deployed</th><th>Repairs</th><th>Cores</th><th>RAM</th></tr>
        {{- range .Items}}
        <tr>
            <td>{{.RequestFile}}</td>
            <td>{{.ServerFile}}</td>
            <td>{{.Critical}}</td>
            <td class="{{if .AllDeployed}}full{{else}}partial{{end}}">{{.Deployed}}/{{.Requests}}</td>
            <td>{{.RepairsCommitted}}/{{.RepairsAttempted}}</td>
            <td><div class="bar"><span style="width: {{pct .CoreUtilization}}%"></span></div></td>
            <td><div class="bar"><span style="width: {{pct .RAMUtilization}}%"></span></div></td>
        </tr>
        {{- end}}
    </table>
    <footer>Generated by {{.App}} {{.Version}} at {{.Generated}}</footer>
    <script>
        const items = {{.JSON}};
        new Chart(document.getElementById('deployed'), {
            type: 'bar',
            data: {
                labels: items.map(i => i.request_file + ' x ' + i.server_file),
                datasets: [
                    { label: 'deployed', data: items.map(i => i.deployed), backgroundColor: '#00FF99' },
                    { label: 'missing', data: items.map(i => i.requests - i.deployed), backgroundColor: '#FF3366' }
                ]
            },
            options: { scales: { x: { stacked: true, display: false }, y: { stacked: true } } }
        });
    </script>
</body>
</html>
`))

type dashboardData struct {
	Items     []ExportItem
	JSON      template.JS
	Pairs     int
	FullPairs int
	Requests  int
	Deployed  int
	Repairs   int
	App       string
	Version   string
	Generated string
}

// WriteDashboard renders a standalone HTML overview of items.
func WriteDashboard(w io.Writer, items []ExportItem, now time.Time) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	data := dashboardData{
		Items:     items,
		JSON:      template.JS(raw),
		Pairs:     len(items),
		App:       version.AppName,
		Version:   version.Current,
		Generated: now.UTC().Format(time.RFC3339),
	}
	for _, it := range items {
		data.Requests += it.Requests
		data.Deployed += it.Deployed
		data.Repairs += it.RepairsCommitted
		if it.AllDeployed {
			data.FullPairs++
		}
	}

	if err := dashboardTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}
