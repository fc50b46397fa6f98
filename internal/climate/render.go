package climate

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/you/climatemap/models"
)

// ErrorMessage replaces the panel content when a fetch fails
const ErrorMessage = "Error loading climate data."

// NoDataMessage is shown for an empty result or an all-null record
func NoDataMessage(year int) string {
	return fmt.Sprintf("No data available for %d.", year)
}

type line struct {
	Label string
	Value string
}

var recordTmpl = template.Must(template.New("record").Parse(
	`{{range .}}<p class="climate-field"><strong>{{.Label}}:</strong> {{.Value}}</p>{{end}}`))

var messageTmpl = template.Must(template.New("message").Parse(`<p class="climate-message">{{.}}</p>`))

// Render turns a query result into panel content. Only the first (most
// recent) record is used.
func Render(records []models.ClimateRecord, year int) template.HTML {
	if len(records) == 0 || records[0].IsEmpty() {
		return message(NoDataMessage(year))
	}

	var buf bytes.Buffer
	if err := recordTmpl.Execute(&buf, lines(records[0])); err != nil {
		return message(ErrorMessage)
	}
	return template.HTML(buf.String())
}

// RenderError is the panel content for a failed fetch
func RenderError() template.HTML {
	return message(ErrorMessage)
}

func message(text string) template.HTML {
	var buf bytes.Buffer
	if err := messageTmpl.Execute(&buf, text); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String())
}

func lines(r models.ClimateRecord) []line {
	var out []line
	if r.LocalDate != nil {
		out = append(out, line{"Date", formatDate(*r.LocalDate)})
	}
	out = appendMeasure(out, "Max Temp", r.MaxTemperature, "°C")
	out = appendMeasure(out, "Min Temp", r.MinTemperature, "°C")
	out = appendMeasure(out, "Mean Temp", r.MeanTemperature, "°C")
	out = appendMeasure(out, "Total Precipitation", r.TotalPrecipitation, "mm")
	out = appendMeasure(out, "Total Rain", r.TotalRain, "mm")
	out = appendMeasure(out, "Total Snow", r.TotalSnow, "cm")
	return out
}

func appendMeasure(out []line, label string, v *float64, unit string) []line {
	if v == nil {
		return out
	}
	return append(out, line{label, strconv.FormatFloat(*v, 'f', -1, 64) + " " + unit})
}

// formatDate trims the midnight time the API attaches to LOCAL_DATE
func formatDate(s string) string {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}
