package report

import "html/template"

var reportTemplate = template.Must(template.New("report").Parse(reportHTML))

const reportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Official Match Report</title>
<style>
@page { size: A4; margin: 0; }
body { font-family: 'Roboto', 'Helvetica Neue', Arial, sans-serif; margin: 0; padding: 20px 30px; color: #111; background-color: #fff; box-sizing: border-box; }
.container { max-width: 100%; margin: 0 auto; }
.header { text-align: center; margin-bottom: 10px; text-transform: uppercase; border-bottom: 3px solid #000; padding-bottom: 10px; }
.header h1 { margin: 0 0 5px 0; font-size: 24px; font-weight: 900; letter-spacing: 1px; }
.header h2 { margin: 0; font-size: 16px; font-weight: 500; color: #333; }
.meta-section { display: flex; justify-content: space-between; font-size: 14px; font-weight: 700; margin-bottom: 15px; padding: 10px; background-color: #f4f4f4; border: 2px solid #000; }
.match-title { text-align: center; font-size: 18px; font-weight: 900; margin: 15px 0; padding: 10px; border: 2px solid #000; background-color: #fff; box-shadow: 3px 3px 0px #000; }
.inning-section { margin-bottom: 20px; page-break-inside: avoid; }
.inning-header { display: flex; justify-content: space-between; align-items: center; padding: 8px 12px; background: #000; color: #fff; font-size: 16px; font-weight: 900; border: 2px solid #000; }
table { width: 100%; border-collapse: collapse; margin-bottom: 15px; }
th { background-color: #e0e0e0; color: #000; padding: 6px; text-align: center; font-weight: 800; font-size: 12px; text-transform: uppercase; border: 2px solid #000; }
td { padding: 6px; text-align: center; border: 2px solid #000; font-size: 14px; font-weight: 700; }
.col-no { width: 40px; color: #444; font-size: 12px; }
.col-name { text-align: left; padding-left: 10px; font-size: 14px; font-weight: 800; width: 45%; }
.bowling-header { font-size: 14px; font-weight: 900; margin: 15px 0 5px 0; text-transform: uppercase; padding-left: 10px; border-left: 5px solid #000; line-height: 1; }
.footer { margin-top: 20px; padding-top: 15px; }
.footer-row { font-size: 14px; font-weight: 900; margin-bottom: 10px; padding: 10px; background: #f4f4f4; border: 2px solid #000; }
.label { font-weight: 700; color: #555; margin-right: 10px; }
</style>
</head>
<body>
<div class="container">
<div class="header">
<h1>Match Scorecard</h1>
<h2>{{.TournamentName}}</h2>
</div>
<div class="meta-section">
<span>DATE: {{.Date}}</span>
<span>TIME: {{.Time}}</span>
<span>MATCH: {{.OversLimit}} Overs</span>
</div>
<div class="match-title">{{.Title}}</div>
{{range .Innings}}
<div class="inning-section">
<div class="inning-header">
<span>{{.TeamName}}</span>
<span>{{.Score}} {{.OversPlayed}}</span>
</div>
<table>
<thead>
<tr><th class="col-no">No</th><th class="col-name">BATSMAN</th><th>RUNS (BALLS)</th><th>6s</th><th>4s</th></tr>
</thead>
<tbody>
{{- range .Batting}}
{{- if .Empty}}
<tr><td class="col-no">{{.No}}</td><td class="col-name">&nbsp;</td><td>&nbsp;</td><td>&nbsp;</td><td>&nbsp;</td></tr>
{{- else}}
<tr><td class="col-no">{{.No}}</td><td class="col-name">{{.Name}}</td><td>{{.Runs}} ({{.Balls}})</td><td>{{.Sixes}}</td><td>{{.Fours}}</td></tr>
{{- end}}
{{- end}}
</tbody>
</table>
<div class="bowling-header">Bowling of: {{.Opponent}}</div>
<table>
<thead>
<tr><th class="col-no">No</th><th class="col-name">BOWLER</th><th>OVERS</th><th>RUNS</th><th>WKTS</th></tr>
</thead>
<tbody>
{{- range .Bowling}}
{{- if .Empty}}
<tr><td class="col-no">{{.No}}</td><td class="col-name">&nbsp;</td><td>&nbsp;</td><td>&nbsp;</td><td>&nbsp;</td></tr>
{{- else}}
<tr><td class="col-no">{{.No}}</td><td class="col-name">{{.Name}}</td><td>{{.Overs}}</td><td>{{.Runs}}</td><td>{{.Wickets}}</td></tr>
{{- end}}
{{- end}}
</tbody>
</table>
</div>
{{end}}
<div class="footer">
<div class="footer-row"><span class="label">RESULT:</span> {{.Result}}</div>
<div class="footer-row"><span class="label">MAN OF THE MATCH:</span> {{.ManOfTheMatch}}</div>
</div>
</div>
</body>
</html>
`
