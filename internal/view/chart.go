package view

import (
	"fmt"
	"html/template"

	"github.com/fakhrymubarak/weather-odds-web/internal/model"
)

const (
	// MinBarWidth keeps a 0% bar visible as a sliver.
	MinBarWidth = 2
	// BaseYear is the synthetic year of the first sample row.
	BaseYear = 1984
	// SampleRows is how many sample rows the results page passes to the table.
	SampleRows = 10
)

// Bar is one horizontal bar of the risk chart.
type Bar struct {
	Key   string
	Label string
	Color template.CSS
	Value int
	Width int
}

// TableRow is one formatted row of the historical sample table.
type TableRow struct {
	Year     int
	Temp     string
	Rain     string
	Humidity string
	Wind     string
}

// RiskCard is one of the five activity panels.
type RiskCard struct {
	Title       string
	Key         string
	Value       int
	Description string
}

type riskDef struct {
	key         string
	title       string
	label       string
	color       template.CSS
	description string
}

var risks = []riskDef{
	{model.KeyVeryHot, "Beach", "Beach: too cold or rainy", "#ff7043", "Bad day if T < 24°C or rain > 5 mm"},
	{model.KeyVeryWet, "Ski", "Ski: too warm", "#42a5f5", "Bad day if T > 0°C"},
	{model.KeyHikingProb, "Hiking", "Hiking: too hot or wet", "#66bb6a", "Bad day if T > 30°C or rain > 10 mm"},
	{model.KeyFishingProb, "Fishing", "Fishing: wet or windy", "#26a69a", "Bad day if rain > 10 mm or wind > 10 m/s"},
	{model.KeyVeryUncomfortable, "Festival", "Festival: rain or heat", "#ab47bc", "Bad day if rain > 5 mm or T > 32°C"},
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// BuildBarChart maps the five risk keys to bars in fixed order. A nil map yields no bars.
func BuildBarChart(p *model.Probabilities) []Bar {
	if p == nil {
		return nil
	}
	bars := make([]Bar, 0, len(risks))
	for _, r := range risks {
		v := clampPercent(p.Get(r.key).Int())
		width := v
		if width < MinBarWidth {
			width = MinBarWidth
		}
		bars = append(bars, Bar{Key: r.key, Label: r.label, Color: r.color, Value: v, Width: width})
	}
	return bars
}

// BuildDataTable formats one row per record; years count up from BaseYear by position.
func BuildDataTable(records []model.DailyRecord) []TableRow {
	if len(records) == 0 {
		return nil
	}
	rows := make([]TableRow, 0, len(records))
	for i, rec := range records {
		rows = append(rows, TableRow{
			Year:     BaseYear + i,
			Temp:     fmt.Sprintf("%.1f", rec.TempC),
			Rain:     fmt.Sprintf("%.1f", rec.RainMM),
			Humidity: fmt.Sprintf("%.1f", rec.HumidityRH),
			Wind:     fmt.Sprintf("%.1f", rec.WindMS),
		})
	}
	return rows
}

// RiskCards returns the five activity cards, whether or not a value is present.
func RiskCards(p *model.Probabilities) []RiskCard {
	cards := make([]RiskCard, 0, len(risks))
	for _, r := range risks {
		cards = append(cards, RiskCard{
			Title:       r.title,
			Key:         r.key,
			Value:       clampPercent(p.Get(r.key).Int()),
			Description: r.description,
		})
	}
	return cards
}
