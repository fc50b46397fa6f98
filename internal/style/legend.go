package style

import (
	"bytes"
	"html/template"
)

// LegendEntry pairs a bucket color with its label
type LegendEntry struct {
	Color string `json:"color"`
	Label string `json:"label"`
}

// LegendControl is a static map control listing the elevation buckets
type LegendControl struct {
	Title    string        `json:"title"`
	Position string        `json:"position"`
	Entries  []LegendEntry `json:"entries"`
}

// Legend builds the legend from the bucket table
func Legend() LegendControl {
	entries := make([]LegendEntry, 0, len(Buckets))
	for _, b := range Buckets {
		entries = append(entries, LegendEntry{Color: b.Color, Label: b.Label})
	}
	return LegendControl{
		Title:    "Elevation",
		Position: "bottomright",
		Entries:  entries,
	}
}

var legendTmpl = template.Must(template.New("legend").Parse(
	`<div class="legend"><h4>{{.Title}}</h4>` +
		`{{range .Entries}}<i style="background:{{.Color}}"></i>{{.Label}}<br>{{end}}` +
		`</div>`))

// HTML renders the legend as the fragment mounted inside the map control
func (l LegendControl) HTML() template.HTML {
	var buf bytes.Buffer
	if err := legendTmpl.Execute(&buf, l); err != nil {
		return ""
	}
	return template.HTML(buf.String())
}
