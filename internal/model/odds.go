package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Query is one submission of the location/date form.
type Query struct {
	Location string `json:"location"`
	Date     string `json:"date"`
}

// IsComplete reports whether both fields are present. Values are sent as typed.
func (q Query) IsComplete() bool {
	return q.Location != "" && q.Date != ""
}

// Percent is a probability as sent by the odds service. The service is loose about the
// encoding ("80", "80%", 80, 45.7), so the raw JSON token is kept and re-emitted verbatim.
type Percent string

// NewPercent builds a numeric Percent.
func NewPercent(v int) Percent {
	return Percent(strconv.Itoa(v))
}

func (p *Percent) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	switch {
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("percent: %w", err)
		}
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		if _, err := strconv.ParseFloat(string(b), 64); err != nil {
			return fmt.Errorf("percent: invalid number %s", b)
		}
	default:
		return fmt.Errorf("percent: unsupported value %s", b)
	}
	*p = Percent(append([]byte(nil), b...))
	return nil
}

func (p Percent) MarshalJSON() ([]byte, error) {
	if p == "" {
		return []byte("null"), nil
	}
	return []byte(p), nil
}

// Int coerces the value to a whole percentage by its leading integer: "80%" is 80,
// 45.7 is 45. Anything unparsable is 0.
func (p Percent) Int() int {
	s := strings.TrimSpace(string(p))
	if s == "" {
		return 0
	}
	if s[0] != '"' {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return int(f)
	}
	var str string
	if err := json.Unmarshal([]byte(s), &str); err != nil {
		return 0
	}
	return leadingInt(strings.TrimSpace(str))
}

func leadingInt(s string) int {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// Probabilities are independent risk magnitudes; they are not a distribution and need not sum to 100.
type Probabilities struct {
	VeryHot           Percent `json:"very_hot,omitempty"`
	VeryWet           Percent `json:"very_wet,omitempty"`
	HikingProb        Percent `json:"hiking_prob,omitempty"`
	FishingProb       Percent `json:"fishing_prob,omitempty"`
	VeryUncomfortable Percent `json:"very_uncomfortable,omitempty"`
}

// Probability keys as sent on the wire.
const (
	KeyVeryHot           = "very_hot"
	KeyVeryWet           = "very_wet"
	KeyHikingProb        = "hiking_prob"
	KeyFishingProb       = "fishing_prob"
	KeyVeryUncomfortable = "very_uncomfortable"
)

// Get returns the value bound to a wire key.
func (p *Probabilities) Get(key string) Percent {
	if p == nil {
		return ""
	}
	switch key {
	case KeyVeryHot:
		return p.VeryHot
	case KeyVeryWet:
		return p.VeryWet
	case KeyHikingProb:
		return p.HikingProb
	case KeyFishingProb:
		return p.FishingProb
	case KeyVeryUncomfortable:
		return p.VeryUncomfortable
	}
	return ""
}

// DailyRecord is one simulated historical day ("Data Rods" sample).
type DailyRecord struct {
	TempC      float64 `json:"Temp_C"`
	RainMM     float64 `json:"Rain_mm"`
	HumidityRH float64 `json:"Humidity_RH"`
	WindMS     float64 `json:"Wind_m_s"`
}

// OddsResponse is the body returned by the odds service.
type OddsResponse struct {
	Query         string         `json:"query"`
	Probabilities *Probabilities `json:"probabilities,omitempty"`
	RawDataSample []DailyRecord  `json:"raw_data_sample,omitempty"`

	raw json.RawMessage
}

// DecodeOddsResponse parses a service body and remembers the original bytes.
func DecodeOddsResponse(body []byte) (*OddsResponse, error) {
	var resp OddsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	resp.raw = append(json.RawMessage(nil), body...)
	return &resp, nil
}

// Raw returns the body the response was decoded from, or its encoding when built in code.
func (r *OddsResponse) Raw() (json.RawMessage, error) {
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	return json.Marshal(r)
}

// StoredResult is the last committed response of a session, kept for export.
type StoredResult struct {
	Query    Query           `json:"query"`
	Response json.RawMessage `json:"response"`
}
