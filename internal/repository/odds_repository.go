package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fakhrymubarak/weather-odds-web/internal/config"
	"github.com/fakhrymubarak/weather-odds-web/internal/model"
)

// maxErrorBody caps how much of a failed response is read when looking for an error field.
const maxErrorBody = 64 << 10

var ErrOddsRequest = errors.New("odds request failed")

// ServiceError is a non-2xx answer from the odds service.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// OddsRepository defines access to the external odds service
type OddsRepository interface {
	FetchOdds(ctx context.Context, q model.Query) (*model.OddsResponse, error)
	ServiceURL() string
}

// oddsRepository implements OddsRepository over HTTP
type oddsRepository struct {
	url        string
	httpClient *http.Client
}

// NewOddsRepository creates an odds client for the configured service URL
func NewOddsRepository(httpClient ...*http.Client) OddsRepository {
	client := &http.Client{Timeout: config.GetOddsServiceTimeout()}
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}
	return &oddsRepository{
		url:        config.GetOddsServiceURL(),
		httpClient: client,
	}
}

func (r *oddsRepository) ServiceURL() string {
	return r.url
}

// FetchOdds sends exactly one POST with the query as its JSON body. It never retries.
func (r *oddsRepository) FetchOdds(ctx context.Context, q model.Query) (*model.OddsResponse, error) {
	payload, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encode odds query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build odds request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOddsRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, serviceError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read odds response: %w", err)
	}
	odds, err := model.DecodeOddsResponse(body)
	if err != nil {
		return nil, fmt.Errorf("decode odds response: %w", err)
	}
	return odds, nil
}

// serviceError prefers the service's own {"error": "..."} text over the bare status code.
func serviceError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var data struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &data); err == nil && data.Error != "" {
		return &ServiceError{StatusCode: resp.StatusCode, Message: data.Error}
	}
	return &ServiceError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("HTTP error! status: %d", resp.StatusCode),
	}
}
