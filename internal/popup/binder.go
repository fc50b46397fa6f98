// Package popup builds station popups and wires marker clicks to the
// climate panel.
package popup

import (
	"bytes"
	"context"
	"html/template"
	"strconv"

	"github.com/you/climatemap/internal/mapctx"
	"github.com/you/climatemap/internal/panel"
	"github.com/you/climatemap/models"
)

// NoIdentifierMessage is shown for stations that cannot be joined to the
// climate API
const NoIdentifierMessage = "No climate identifier available for this station."

// ClimateFetcher fills a panel with climate data for one identifier
type ClimateFetcher interface {
	FetchClimate(ctx context.Context, p *panel.State, tok panel.Token, climateID string) error
}

// Binder attaches popups and click listeners to station markers
type Binder struct {
	fetcher ClimateFetcher
}

// NewBinder creates a binder that fetches climate data through fetcher
func NewBinder(fetcher ClimateFetcher) *Binder {
	return &Binder{fetcher: fetcher}
}

// Bind attaches the popup and the click listener for s to m
func (b *Binder) Bind(s models.Station, m *mapctx.Marker) {
	m.BindPopup(Render(s))
	m.OnClick(func(ctx context.Context, p *panel.State) error {
		return b.Click(ctx, p, s)
	})
}

// Click runs the station selection workflow against one panel: name and
// loading placeholder first, then the climate fetch if the station has an
// identifier.
func (b *Binder) Click(ctx context.Context, p *panel.State, s models.Station) error {
	tok := p.Begin(s.DisplayName())

	if !s.HasClimateID() {
		p.Write(tok, template.HTML(`<p class="climate-message">`+template.HTMLEscapeString(NoIdentifierMessage)+`</p>`))
		return nil
	}

	return b.fetcher.FetchClimate(ctx, p, tok, s.ClimateID)
}

type popupLine struct {
	Label string
	Value string
}

type popupView struct {
	Name  string
	Lines []popupLine
}

var popupTmpl = template.Must(template.New("popup").Parse(
	`<div class="station-popup">` +
		`{{if .Name}}<b>{{.Name}}</b>{{end}}` +
		`{{range $i, $l := .Lines}}{{if or $i $.Name}}<br>{{end}}{{$l.Label}}: {{$l.Value}}{{end}}` +
		`</div>`))

// Render builds the popup body. Absent fields are left out entirely.
func Render(s models.Station) template.HTML {
	view := popupView{Name: s.Name}
	if s.ID != "" {
		view.Lines = append(view.Lines, popupLine{"ID", s.ID})
	}
	if s.Elevation != nil {
		view.Lines = append(view.Lines, popupLine{"Elevation", strconv.FormatFloat(*s.Elevation, 'f', -1, 64) + " m"})
	}
	if s.Province != "" {
		view.Lines = append(view.Lines, popupLine{"Province", s.Province})
	}

	var buf bytes.Buffer
	if err := popupTmpl.Execute(&buf, view); err != nil {
		return ""
	}
	return template.HTML(buf.String())
}
