package service

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStorage map[string]string

func (m mapStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

type failingStorage struct{}

func (failingStorage) GetItem(context.Context, string) (string, bool, error) {
	return "", false, errors.New("redis down")
}

func parseMetric(t *testing.T, s, suffix string) float64 {
	t.Helper()
	require.True(t, strings.HasSuffix(s, suffix), "%q should end with %q", s, suffix)
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, suffix), 64)
	require.NoError(t, err)
	return v
}

func TestInitResultsPage_Kyiv(t *testing.T) {
	storage := mapStorage{
		"chosenPlace": `{"name":"Kyiv","country":"UA"}`,
		"chosenDate":  `{"displayUS":"07/15/2025"}`,
	}

	page, err := InitResultsPage(context.Background(), storage, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Equal(t, "Kyiv", page.PlaceName)
	assert.Equal(t, "🌍", page.Flag)
	assert.Equal(t, KyivPhoto, page.PhotoSrc)
	assert.Equal(t, "07/15/2025", page.DateUS)
	assert.Equal(t, "Moderate", page.RiskLabel)
	assert.Equal(t, "Go to the Beach", page.ActivityTitle)
	assert.Equal(t, []string{"T ≥ 28°C and P < 0.5 mm"}, page.GoodRules)
	assert.Equal(t, []string{"T < 24°C or P > 5 mm"}, page.BadRules)
	assert.Equal(t, "Take sunglasses and water with you!", page.Tips)
}

func TestInitResultsPage_PhotoMatch(t *testing.T) {
	tests := []struct {
		name  string
		place string
		photo string
	}{
		{"lower case", `{"name":"kyiv oblast"}`, KyivPhoto},
		{"upper case", `{"name":"KYIV"}`, KyivPhoto},
		{"other city", `{"name":"Lviv","country":"UA"}`, DefaultPhoto},
		{"no name", `{"country":"UA"}`, DefaultPhoto},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := InitResultsPage(context.Background(), mapStorage{"chosenPlace": tt.place}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.photo, page.PhotoSrc)
		})
	}
}

func TestInitResultsPage_Defaults(t *testing.T) {
	page, err := InitResultsPage(context.Background(), mapStorage{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "—", page.PlaceName)
	assert.Equal(t, "🏳️", page.Flag)
	assert.Equal(t, DefaultPhoto, page.PhotoSrc)
	assert.Equal(t, "—", page.DateUS)
}

func TestInitResultsPage_MetricRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		page, err := InitResultsPage(context.Background(), mapStorage{}, rng)
		require.NoError(t, err)

		temp := parseMetric(t, page.Temp, "°C")
		assert.True(t, temp >= -10 && temp <= 35, "temp %v", temp)
		prec := parseMetric(t, page.Precipitation, " mm")
		assert.True(t, prec >= 0 && prec <= 10, "precipitation %v", prec)
		wind := parseMetric(t, page.Wind, " m/s")
		assert.True(t, wind >= 0 && wind <= 15, "wind %v", wind)
		rh := parseMetric(t, page.Humidity, "%")
		assert.True(t, rh >= 30 && rh <= 100, "humidity %v", rh)
		risk := parseMetric(t, page.RiskValue, "%")
		assert.True(t, risk >= 0 && risk <= 100, "risk %v", risk)
	}
}

func TestInitResultsPage_Malformed(t *testing.T) {
	_, err := InitResultsPage(context.Background(), mapStorage{"chosenPlace": "{not json"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chosenPlace")

	_, err = InitResultsPage(context.Background(), mapStorage{"chosenDate": "[1,2"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chosenDate")
}

func TestInitResultsPage_NullSelection(t *testing.T) {
	_, err := InitResultsPage(context.Background(), mapStorage{"chosenPlace": "null"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chosenPlace")

	_, err = InitResultsPage(context.Background(), mapStorage{"chosenDate": " null "}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chosenDate")
}

func TestInitResultsPage_StorageError(t *testing.T) {
	_, err := InitResultsPage(context.Background(), failingStorage{}, nil)
	assert.Error(t, err)
}
