package view

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakhrymubarak/weather-odds-web/internal/model"
)

func sampleProbabilities() *model.Probabilities {
	return &model.Probabilities{
		VeryHot:           `"80"`,
		VeryWet:           `"10"`,
		HikingProb:        `"45"`,
		FishingProb:       `"5"`,
		VeryUncomfortable: `"60"`,
	}
}

func TestBuildBarChart_Widths(t *testing.T) {
	bars := BuildBarChart(sampleProbabilities())
	require.Len(t, bars, 5)

	wantKeys := []string{"very_hot", "very_wet", "hiking_prob", "fishing_prob", "very_uncomfortable"}
	wantWidths := []int{80, 10, 45, 5, 60}
	for i, bar := range bars {
		assert.Equal(t, wantKeys[i], bar.Key)
		assert.Equal(t, wantWidths[i], bar.Width)
		assert.Equal(t, wantWidths[i], bar.Value)
		assert.NotEmpty(t, bar.Label)
		assert.NotEmpty(t, bar.Color)
	}
}

func TestBuildBarChart_MinimumWidth(t *testing.T) {
	bars := BuildBarChart(&model.Probabilities{VeryHot: model.NewPercent(0), VeryWet: `"1%"`, HikingProb: model.NewPercent(2)})
	require.Len(t, bars, 5)

	assert.Equal(t, 0, bars[0].Value)
	assert.Equal(t, MinBarWidth, bars[0].Width)
	assert.Equal(t, 1, bars[1].Value)
	assert.Equal(t, MinBarWidth, bars[1].Width)
	assert.Equal(t, 2, bars[2].Width)
	// missing values render as 0 with a visible sliver
	assert.Equal(t, MinBarWidth, bars[4].Width)
}

func TestBuildBarChart_Clamps(t *testing.T) {
	bars := BuildBarChart(&model.Probabilities{VeryHot: model.NewPercent(150), VeryWet: model.NewPercent(-20)})
	assert.Equal(t, 100, bars[0].Width)
	assert.Equal(t, 0, bars[1].Value)
}

func TestBuildBarChart_Nil(t *testing.T) {
	assert.Empty(t, BuildBarChart(nil))
}

func TestBuildDataTable_Years(t *testing.T) {
	rows := BuildDataTable([]model.DailyRecord{
		{TempC: 21.44, RainMM: 3, HumidityRH: 80, WindMS: 4.5},
		{TempC: -2, RainMM: 0, HumidityRH: 91.2, WindMS: 7},
		{TempC: 30.05, RainMM: 12.3, HumidityRH: 75.5, WindMS: 2.25},
	})
	require.Len(t, rows, 3)
	assert.Equal(t, []int{1984, 1985, 1986}, []int{rows[0].Year, rows[1].Year, rows[2].Year})
	assert.Equal(t, "21.4", rows[0].Temp)
	assert.Equal(t, "-2.0", rows[1].Temp)
	assert.Equal(t, "12.3", rows[2].Rain)
}

func TestBuildDataTable_NoLimit(t *testing.T) {
	records := make([]model.DailyRecord, 25)
	rows := BuildDataTable(records)
	require.Len(t, rows, 25)
	assert.Equal(t, 2008, rows[24].Year)
}

func TestBuildDataTable_Empty(t *testing.T) {
	assert.Empty(t, BuildDataTable(nil))
	assert.Empty(t, BuildDataTable([]model.DailyRecord{}))
}

func TestRiskCards(t *testing.T) {
	cards := RiskCards(sampleProbabilities())
	require.Len(t, cards, 5)

	titles := make([]string, 0, len(cards))
	for _, c := range cards {
		titles = append(titles, c.Title)
		assert.NotEmpty(t, c.Description)
	}
	assert.Equal(t, []string{"Beach", "Ski", "Hiking", "Fishing", "Festival"}, titles)
	assert.Equal(t, 80, cards[0].Value)
	assert.Equal(t, 60, cards[4].Value)

	assert.Len(t, RiskCards(nil), 5)
}

func TestRenderer_CreateBarChart(t *testing.T) {
	r := MustNewRenderer()

	html, err := r.CreateBarChart(sampleProbabilities())
	require.NoError(t, err)
	out := string(html)
	assert.Equal(t, 5, strings.Count(out, `class="bar"`))
	for _, w := range []int{80, 10, 45, 5, 60} {
		assert.Contains(t, out, fmt.Sprintf("width: %d%%", w))
	}

	empty, err := r.CreateBarChart(nil)
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(string(empty)))
}

func TestRenderer_CreateDataTable(t *testing.T) {
	r := MustNewRenderer()

	html, err := r.CreateDataTable(make([]model.DailyRecord, 3))
	require.NoError(t, err)
	out := string(html)
	assert.Equal(t, 3, strings.Count(out, "<tr><td>"))
	assert.Less(t, strings.Index(out, "1984"), strings.Index(out, "1985"))
	assert.Less(t, strings.Index(out, "1985"), strings.Index(out, "1986"))

	empty, err := r.CreateDataTable(nil)
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(string(empty)))
}

func TestRenderer_SuccessLimitsSample(t *testing.T) {
	r := MustNewRenderer()
	resp := &model.OddsResponse{
		Query:         "Query for Kyiv on 2025-07-15",
		Probabilities: sampleProbabilities(),
		RawDataSample: make([]model.DailyRecord, 20),
	}

	s, err := r.Success(model.Query{Location: "Kyiv", Date: "2025-07-15"}, resp, "/export")
	require.NoError(t, err)
	assert.Equal(t, SampleRows, strings.Count(string(s.Table), "<tr><td>"))
	assert.Len(t, s.Cards, 5)
	assert.Equal(t, "Query for Kyiv on 2025-07-15", s.Header)
}

func TestRenderer_RenderIndex(t *testing.T) {
	r := MustNewRenderer()

	var buf bytes.Buffer
	err := r.RenderIndex(&buf, IndexPage{
		Query:   model.Query{Location: `<script>alert(1)</script>`},
		Results: Results{Validation: "Please enter both a location and a date."},
	})
	require.NoError(t, err)
	out := buf.String()
	for _, id := range []string{`id="location"`, `id="date"`, `id="results"`} {
		assert.Contains(t, out, id)
	}
	assert.Contains(t, out, "Please enter both a location and a date.")
	assert.NotContains(t, out, "<script>alert(1)</script>")
}

func TestRenderer_RenderIndexFailure(t *testing.T) {
	r := MustNewRenderer()

	var buf bytes.Buffer
	err := r.RenderIndex(&buf, IndexPage{Results: Results{Failure: &Failure{
		ServiceURL: "http://127.0.0.1:5000/api/weather-odds",
		Error:      "bad date",
	}}})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "bad date")
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "CORS")
}

func TestRenderer_RenderResultsPage(t *testing.T) {
	r := MustNewRenderer()

	var buf bytes.Buffer
	err := r.RenderResultsPage(&buf, &ResultsPage{
		PlaceName: "Kyiv",
		PhotoSrc:  "/images/kyiv.png",
		GoodRules: []string{"T ≥ 28°C and P < 0.5 mm"},
		BadRules:  []string{"T < 24°C or P > 5 mm"},
	})
	require.NoError(t, err)
	out := buf.String()
	ids := []string{"placeName", "flag", "placePhoto", "dateUS", "mTemp", "mPrec", "mWind", "mRH",
		"riskValue", "riskLabel", "actTitle", "goodRules", "badRules", "tips"}
	for _, id := range ids {
		assert.Contains(t, out, fmt.Sprintf(`id="%s"`, id))
	}
	assert.Contains(t, out, `src="/images/kyiv.png"`)
	assert.Contains(t, out, "<li>T &lt; 24°C or P &gt; 5 mm</li>")
}
