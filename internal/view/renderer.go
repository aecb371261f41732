package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/fakhrymubarak/weather-odds-web/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// IndexPage is the query form plus whatever the results region currently shows.
type IndexPage struct {
	Query   model.Query
	Results Results
}

// Results is the content of the #results region. At most one field is set.
type Results struct {
	Validation string
	Failure    *Failure
	Superseded string
	Success    *Success
}

// Failure carries troubleshooting context for a transport or response error.
type Failure struct {
	ServiceURL string
	Error      string
}

// Success is a rendered odds response.
type Success struct {
	Query     model.Query
	Header    string
	Cards     []RiskCard
	ExportURL string
	Chart     template.HTML
	Table     template.HTML
}

// ResultsPage is the data behind the stored-selection results page.
type ResultsPage struct {
	PlaceName     string
	Flag          string
	PhotoSrc      string
	DateUS        string
	Temp          string
	Precipitation string
	Wind          string
	Humidity      string
	RiskValue     string
	RiskLabel     string
	ActivityTitle string
	GoodRules     []string
	BadRules      []string
	Tips          string
}

// Renderer turns view data into markup. It performs no I/O beyond the writer it is given.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// MustNewRenderer panics when the embedded templates do not parse.
func MustNewRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Renderer) fragment(name string, data interface{}) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// CreateBarChart renders the risk bars; empty when p is nil.
func (r *Renderer) CreateBarChart(p *model.Probabilities) (template.HTML, error) {
	return r.fragment("bar_chart", BuildBarChart(p))
}

// CreateDataTable renders one table row per record; empty when there are none.
func (r *Renderer) CreateDataTable(records []model.DailyRecord) (template.HTML, error) {
	return r.fragment("data_table", BuildDataTable(records))
}

// Success assembles the success view for resp. Only the first SampleRows records reach the table.
func (r *Renderer) Success(q model.Query, resp *model.OddsResponse, exportURL string) (*Success, error) {
	chart, err := r.CreateBarChart(resp.Probabilities)
	if err != nil {
		return nil, err
	}
	sample := resp.RawDataSample
	if len(sample) > SampleRows {
		sample = sample[:SampleRows]
	}
	table, err := r.CreateDataTable(sample)
	if err != nil {
		return nil, err
	}
	return &Success{
		Query:     q,
		Header:    resp.Query,
		Cards:     RiskCards(resp.Probabilities),
		ExportURL: exportURL,
		Chart:     chart,
		Table:     table,
	}, nil
}

func (r *Renderer) RenderIndex(w io.Writer, page IndexPage) error {
	return r.tmpl.ExecuteTemplate(w, "index", page)
}

func (r *Renderer) RenderResultsPage(w io.Writer, page *ResultsPage) error {
	return r.tmpl.ExecuteTemplate(w, "result_page", page)
}
