// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"
)

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report %s: %w", report.ID, err)
	}
	return nil
}

// RenderHTML writes a self-contained HTML page for the report.
func RenderHTML(w io.Writer, report *Report) error {
	if err := htmlTemplate.Execute(w, report); err != nil {
		return fmt.Errorf("render report %s: %w", report.ID, err)
	}
	return nil
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct": func(rate float64) string {
		return fmt.Sprintf("%.1f%%", rate*100)
	},
	"ms": func(v float64) string {
		return fmt.Sprintf("%.1f ms", v)
	},
	"join": strings.Join,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Test Report {{.ID}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 64rem; color: #1a1a1a; }
h1, h2 { border-bottom: 1px solid #ddd; padding-bottom: .3rem; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #eee; }
th { background: #f6f6f6; }
.summary { display: flex; gap: 2rem; margin: 1rem 0; }
.stat { text-align: center; }
.stat .value { font-size: 1.6rem; font-weight: bold; }
.passed { color: #1a7f37; }
.failed { color: #cf222e; }
.errored { color: #9a6700; }
.low-rate { background: #ffebe9; }
ul.suggestions li { margin: .3rem 0; }
</style>
</head>
<body>
<h1>API Test Report</h1>
<p>Run {{.RunID}} &middot; suite {{.SuiteID}} &middot; severity {{.OverallSeverity}} &middot; generated {{.GeneratedAt.Format "2006-01-02 15:04:05"}} &middot; {{printf "%.1fs" .Duration}}</p>

<div class="summary">
  <div class="stat"><div class="value">{{.Total}}</div>total</div>
  <div class="stat"><div class="value passed">{{.Passed}}</div>passed</div>
  <div class="stat"><div class="value failed">{{.Failed}}</div>failed</div>
  <div class="stat"><div class="value errored">{{.Errored}}</div>errors</div>
  <div class="stat"><div class="value">{{pct .PassRate}}</div>pass rate</div>
</div>

{{if .Patterns}}
<h2>Failure Patterns</h2>
<table>
<tr><th>Category</th><th>Count</th><th>Endpoints</th><th>Suggestion</th></tr>
{{range .Patterns}}
<tr><td>{{.Category}}</td><td>{{.Count}}</td><td>{{join .Endpoints ", "}}</td><td>{{.Suggestion}}</td></tr>
{{end}}
</table>
{{end}}

<h2>Endpoints</h2>
<table>
<tr><th>Endpoint</th><th>Cases</th><th>Passed</th><th>Failed</th><th>Errors</th><th>Pass rate</th><th>Mean latency</th></tr>
{{range .Endpoints}}
<tr{{if lt .PassRate 0.5}} class="low-rate"{{end}}>
<td>{{.Endpoint}}</td><td>{{.Total}}</td><td>{{.Passed}}</td><td>{{.Failed}}</td><td>{{.Errored}}</td>
<td>{{pct .PassRate}}</td><td>{{ms .MeanMs}}</td>
</tr>
{{end}}
</table>

<h2>Performance</h2>
<table>
<tr><th>Min</th><th>Mean</th><th>P50</th><th>P95</th><th>P99</th><th>Max</th></tr>
<tr>
<td>{{ms .Performance.MinMs}}</td><td>{{ms .Performance.MeanMs}}</td>
<td>{{ms .Performance.P50Ms}}</td><td>{{ms .Performance.P95Ms}}</td>
<td>{{ms .Performance.P99Ms}}</td><td>{{ms .Performance.MaxMs}}</td>
</tr>
</table>
{{if .Performance.SlowestEndpoint}}<p>Slowest endpoint: {{.Performance.SlowestEndpoint}} ({{ms .Performance.SlowestMs}})</p>{{end}}

{{if .Failures}}
<h2>Failures</h2>
<table>
<tr><th>Case</th><th>Endpoint</th><th>Category</th><th>Severity</th><th>Detail</th></tr>
{{range .Failures}}
<tr><td>{{.CaseTitle}}</td><td>{{.Endpoint}}</td><td>{{.Category}}</td><td>{{.Severity}}</td><td>{{.Detail}}</td></tr>
{{end}}
</table>
{{end}}

{{if .Suggestions}}
<h2>Suggestions</h2>
<ul class="suggestions">
{{range .Suggestions}}<li>{{.}}</li>{{end}}
</ul>
{{end}}
</body>
</html>
`))
