package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/fakhrymubarak/weather-odds-web/internal/model"
	"github.com/fakhrymubarak/weather-odds-web/internal/view"
)

const (
	KyivPhoto    = "/images/kyiv.png"
	DefaultPhoto = "/images/place.png"

	placeholder = "—"
	flagCountry = "🌍"
	flagNone    = "🏳️"
)

// LocalStorage reads the selections stored by the place and date pages.
type LocalStorage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
}

// InitResultsPage builds the results page from the stored selections. Metrics are
// fabricated from rng; a nil rng is seeded from the clock. Malformed stored JSON is an error.
func InitResultsPage(ctx context.Context, storage LocalStorage, rng *rand.Rand) (*view.ResultsPage, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	var place model.ChosenPlace
	if err := readItem(ctx, storage, model.ChosenPlaceKey, &place); err != nil {
		return nil, err
	}
	var date model.ChosenDate
	if err := readItem(ctx, storage, model.ChosenDateKey, &date); err != nil {
		return nil, err
	}

	page := &view.ResultsPage{
		PlaceName: orPlaceholder(place.Name),
		Flag:      flagNone,
		PhotoSrc:  DefaultPhoto,
		DateUS:    orPlaceholder(date.DisplayUS),

		Temp:          randomValue(rng, -10, 35) + "°C",
		Precipitation: randomValue(rng, 0, 10) + " mm",
		Wind:          randomValue(rng, 0, 15) + " m/s",
		Humidity:      randomValue(rng, 30, 100) + "%",

		RiskValue:     randomValue(rng, 0, 100) + "%",
		RiskLabel:     "Moderate",
		ActivityTitle: "Go to the Beach",
		GoodRules:     []string{"T ≥ 28°C and P < 0.5 mm"},
		BadRules:      []string{"T < 24°C or P > 5 mm"},
		Tips:          "Take sunglasses and water with you!",
	}
	if place.Country != "" {
		page.Flag = flagCountry
	}
	if strings.Contains(strings.ToLower(place.Name), "kyiv") {
		page.PhotoSrc = KyivPhoto
	}
	return page, nil
}

// readItem leaves v untouched when the key is absent or empty. A stored null has no
// fields to read and is rejected like any other malformed value.
func readItem(ctx context.Context, storage LocalStorage, key string, v interface{}) error {
	raw, ok, err := storage.GetItem(ctx, key)
	if err != nil {
		return err
	}
	if !ok || raw == "" {
		return nil
	}
	if strings.TrimSpace(raw) == "null" {
		return fmt.Errorf("parse %s: stored value is null", key)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	return nil
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func randomValue(rng *rand.Rand, lo, hi float64) string {
	return fmt.Sprintf("%.1f", rng.Float64()*(hi-lo)+lo)
}
