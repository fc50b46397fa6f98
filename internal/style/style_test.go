package style

import (
	"math"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func elev(v float64) *float64 { return &v }

func TestStyleBucketBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		elevation *float64
		expected  string
	}{
		{"far below sea level", elev(-400), Low.Color},
		{"zero", elev(0), Low.Color},
		{"just below low threshold", elev(199), Low.Color},
		{"fractional below low threshold", elev(199.99), Low.Color},
		{"low threshold", elev(200), Medium.Color},
		{"middle", elev(350), Medium.Color},
		{"medium upper threshold", elev(500), Medium.Color},
		{"fractional above medium", elev(500.01), High.Color},
		{"just above medium", elev(501), High.Color},
		{"mountain", elev(3500), High.Color},
		{"missing", nil, Unknown.Color},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Style(tc.elevation)
			if s.FillColor != tc.expected {
				t.Errorf("Style(%v).FillColor = %q, expected %q", tc.elevation, s.FillColor, tc.expected)
			}
		})
	}
}

func TestStyleConstants(t *testing.T) {
	for _, e := range []*float64{nil, elev(10), elev(300), elev(900)} {
		s := Style(e)
		if s.Radius != 6 || s.Color != "#ffffff" || s.Weight != 1 || s.Opacity != 1 || s.FillOpacity != 0.8 {
			t.Errorf("unexpected constant style fields: %+v", s)
		}
		if s.FillColor == "" {
			t.Error("FillColor must never be empty")
		}
	}
}

func TestStyleIsTotalOverNumbers(t *testing.T) {
	palette := map[string]bool{Low.Color: true, Medium.Color: true, High.Color: true}

	for e := -1000.0; e <= 2000; e += 0.5 {
		if c := Style(elev(e)).FillColor; !palette[c] {
			t.Fatalf("Style(%v) returned %q, outside the three-color palette", e, c)
		}
	}

	if c := Style(elev(math.NaN())).FillColor; c != Unknown.Color {
		t.Errorf("NaN elevation: got %q, expected %q", c, Unknown.Color)
	}
}

func TestStyleMonotonic(t *testing.T) {
	rank := map[string]int{Low.Color: 0, Medium.Color: 1, High.Color: 2}
	prev := 0
	changes := 0
	for e := -100.0; e <= 800; e++ {
		r := rank[Style(elev(e)).FillColor]
		if r < prev {
			t.Fatalf("bucket decreased at %v", e)
		}
		if r != prev {
			changes++
		}
		prev = r
	}
	if changes != 2 {
		t.Errorf("expected exactly 2 bucket changes, got %d", changes)
	}
}

func TestLegendMatchesStylePalette(t *testing.T) {
	legend := Legend()
	if len(legend.Entries) != 3 {
		t.Fatalf("expected 3 legend entries, got %d", len(legend.Entries))
	}

	samples := []float64{0, 300, 900}
	labels := []string{"Low (<200m)", "Medium (200-500m)", "High (>500m)"}
	for i, entry := range legend.Entries {
		if want := Style(elev(samples[i])).FillColor; entry.Color != want {
			t.Errorf("entry %d color %q does not match style color %q", i, entry.Color, want)
		}
		if entry.Label != labels[i] {
			t.Errorf("entry %d label %q, expected %q", i, entry.Label, labels[i])
		}
	}
}

func TestLegendHTML(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(Legend().HTML())))
	if err != nil {
		t.Fatalf("failed to parse legend HTML: %v", err)
	}

	swatches := doc.Find("div.legend i")
	if swatches.Length() != 3 {
		t.Fatalf("expected 3 swatches, got %d", swatches.Length())
	}

	swatches.Each(func(i int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		if !strings.Contains(style, Buckets[i].Color) {
			t.Errorf("swatch %d style %q missing color %s", i, style, Buckets[i].Color)
		}
	})

	text := doc.Find("div.legend").Text()
	for _, b := range Buckets {
		if !strings.Contains(text, b.Label) {
			t.Errorf("legend text missing %q", b.Label)
		}
	}
}
