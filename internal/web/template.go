package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/prox-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"cm": func(v float64) string {
		return fmt.Sprintf("%.1f cm", v)
	},
	"std": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Proximity Sensor</title>
<style>
body { font-family: monospace; max-width: 700px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.near { color: green; font-weight: bold; }
.far { color: #888; }
.blocked { color: orange; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Proximity Sensor</h1>

<h2>Channels</h2>
<table>
<tr><th>Ch</th><th>State</th><th>Distance</th><th>PS mean / std</th><th>ALS mean / std</th><th>Samples</th></tr>
{{range .Channels}}<tr>
<td>{{.Channel}}</td>
<td class="{{if .Blocked}}blocked{{else if .InProximity}}near{{else}}far{{end}}">{{if .Blocked}}BLOCKED{{else if .InProximity}}NEAR{{else}}CLEAR{{end}}</td>
<td>{{cm .Distance}}</td>
<td>{{.ProximityMean}} / {{std .ProximityStd}}</td>
<td>{{.LightMean}} / {{std .LightStd}}</td>
<td>{{.Samples}}</td>
</tr>
{{else}}<tr><td colspan="6">no samples yet</td></tr>
{{end}}</table>
<table>
<tr><th>Light</th><td class="{{if .LightOn}}near{{else}}far{{end}}">{{if .LightOn}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}warming up{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Proximity enter</th><td>{{.Counts.ProximityEnter}}</td></tr>
<tr><th>Proximity exit</th><td>{{.Counts.ProximityExit}}</td></tr>
<tr><th>Blocked</th><td>{{.Counts.Blocked}}</td></tr>
<tr><th>Unblocked</th><td>{{.Counts.Unblocked}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Serial</th><td>{{.Config.SerialPort}} @ {{.Config.Baud}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Thresholds</th><td>{{.Config.ThresholdLow}} / {{.Config.ThresholdHigh}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
