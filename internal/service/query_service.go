package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fakhrymubarak/weather-odds-web/internal/config"
	"github.com/fakhrymubarak/weather-odds-web/internal/model"
	"github.com/fakhrymubarak/weather-odds-web/internal/repository"
)

var (
	ErrValidation = errors.New("please enter both a location and a date")
	ErrSuperseded = errors.New("query superseded by a newer one")

	// ErrSessionStore marks failures of the session store, as opposed to the odds service.
	ErrSessionStore = errors.New("session store unavailable")
)

// QueryServiceInterface allows mocking in handler tests
type QueryServiceInterface interface {
	FetchOdds(ctx context.Context, sid string, q model.Query) (*model.OddsResponse, error)
	LastResult(ctx context.Context, sid string) (*model.StoredResult, error)
	ServiceURL() string
}

type inflight struct {
	gen    int64
	cancel context.CancelCauseFunc
}

// QueryService sends form queries to the odds service. Each submission of a session gets a
// generation; only the latest generation may publish its result.
type QueryService struct {
	OddsRepo repository.OddsRepository
	Sessions repository.SessionRepository

	mu       sync.Mutex
	inflight map[string]inflight
}

func NewQueryService(odds repository.OddsRepository, sessions repository.SessionRepository) *QueryService {
	if odds == nil {
		odds = repository.NewOddsRepository()
	}
	if sessions == nil {
		sessions = repository.NewSessionRepository()
	}
	return &QueryService{
		OddsRepo: odds,
		Sessions: sessions,
		inflight: make(map[string]inflight),
	}
}

func (s *QueryService) ServiceURL() string {
	return s.OddsRepo.ServiceURL()
}

// FetchOdds validates q, queries the odds service once and commits the response as the
// session's last result. A submission overtaken by a newer one returns ErrSuperseded.
func (s *QueryService) FetchOdds(ctx context.Context, sid string, q model.Query) (*model.OddsResponse, error) {
	if !q.IsComplete() {
		return nil, ErrValidation
	}

	gen, err := s.Sessions.NextGeneration(ctx, sid)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionStore, err)
	}

	ctx, done := s.track(ctx, sid, gen)
	defer done()

	resp, err := s.OddsRepo.FetchOdds(ctx, q)
	if err != nil {
		if errors.Is(context.Cause(ctx), ErrSuperseded) {
			return nil, ErrSuperseded
		}
		config.GetLogger().Warnw("Odds request failed", "location", q.Location, "date", q.Date, "error", err)
		return nil, err
	}

	raw, err := resp.Raw()
	if err != nil {
		return nil, err
	}
	ok, err := s.Sessions.CommitResult(ctx, sid, gen, model.StoredResult{Query: q, Response: raw})
	if err != nil {
		if errors.Is(context.Cause(ctx), ErrSuperseded) {
			return nil, ErrSuperseded
		}
		return nil, fmt.Errorf("%w: %w", ErrSessionStore, err)
	}
	if !ok {
		return nil, ErrSuperseded
	}
	return resp, nil
}

func (s *QueryService) LastResult(ctx context.Context, sid string) (*model.StoredResult, error) {
	return s.Sessions.LastResult(ctx, sid)
}

// track registers the in-flight submission and cancels an older one of the same session.
func (s *QueryService) track(parent context.Context, sid string, gen int64) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)

	s.mu.Lock()
	if s.inflight == nil {
		s.inflight = make(map[string]inflight)
	}
	prev, ok := s.inflight[sid]
	switch {
	case ok && prev.gen > gen:
		cancel(ErrSuperseded)
	default:
		if ok {
			prev.cancel(ErrSuperseded)
		}
		s.inflight[sid] = inflight{gen: gen, cancel: cancel}
	}
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if cur, ok := s.inflight[sid]; ok && cur.gen == gen {
			delete(s.inflight, sid)
		}
		s.mu.Unlock()
		cancel(nil)
	}
}
