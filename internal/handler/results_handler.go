package handler

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/fakhrymubarak/weather-odds-web/internal/config"
	"github.com/fakhrymubarak/weather-odds-web/internal/middleware"
	"github.com/fakhrymubarak/weather-odds-web/internal/model"
	"github.com/fakhrymubarak/weather-odds-web/internal/repository"
	"github.com/fakhrymubarak/weather-odds-web/internal/service"
	"github.com/fakhrymubarak/weather-odds-web/internal/view"
)

// ResultsHandler serves the stored-selection results page.
type ResultsHandler struct {
	Sessions repository.SessionRepository
	Renderer *view.Renderer
	// NewRand supplies the metric source per request; nil seeds from the clock.
	NewRand func() *rand.Rand
}

func NewResultsHandler(sessions repository.SessionRepository, renderer *view.Renderer) *ResultsHandler {
	if renderer == nil {
		renderer = view.MustNewRenderer()
	}
	return &ResultsHandler{Sessions: sessions, Renderer: renderer}
}

func (h *ResultsHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r.Context())
	var rng *rand.Rand
	if h.NewRand != nil {
		rng = h.NewRand()
	}

	page, err := service.InitResultsPage(r.Context(), repository.NewSessionStorage(h.Sessions, sid), rng)
	if err != nil {
		config.GetLogger().Errorw("could not build results page", "session", sid, "error", err)
		http.Error(w, "could not read stored selection", http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, func(out io.Writer) error {
		return h.Renderer.RenderResultsPage(out, page)
	})
}

// HealthHandler reports whether the session store is reachable.
type HealthHandler struct {
	Sessions repository.SessionRepository
	Timeout  time.Duration
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	if err := h.Sessions.Ping(ctx); err != nil {
		config.GetLogger().Warnw("health check failed", "error", err)
		writeJSONResponse(w, http.StatusServiceUnavailable, model.ErrorResponse("session store unreachable", "Error"))
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
