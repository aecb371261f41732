package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/fakhrymubarak/weather-odds-web/internal/config"
	"github.com/fakhrymubarak/weather-odds-web/internal/middleware"
	"github.com/fakhrymubarak/weather-odds-web/internal/model"
	"github.com/fakhrymubarak/weather-odds-web/internal/repository"
	"github.com/fakhrymubarak/weather-odds-web/internal/service"
	"github.com/fakhrymubarak/weather-odds-web/internal/view"
)

const (
	exportPath        = "/export"
	validationMessage = "Please enter both a location and a date."
	supersededMessage = "A newer query was submitted; its results replace this one."
)

// OddsHandler serves the query form, query submissions and the JSON export.
type OddsHandler struct {
	QueryService service.QueryServiceInterface
	Renderer     *view.Renderer
}

func NewOddsHandler(svc service.QueryServiceInterface, renderer *view.Renderer) *OddsHandler {
	if renderer == nil {
		renderer = view.MustNewRenderer()
	}
	return &OddsHandler{QueryService: svc, Renderer: renderer}
}

func (h *OddsHandler) renderIndex(w http.ResponseWriter, status int, page view.IndexPage) {
	writeHTML(w, status, func(out io.Writer) error {
		return h.Renderer.RenderIndex(out, page)
	})
}

func (h *OddsHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderIndex(w, http.StatusOK, view.IndexPage{})
}

// HandleOdds runs one form submission and renders the outcome into the results region.
func (h *OddsHandler) HandleOdds(w http.ResponseWriter, r *http.Request) {
	q := model.Query{
		Location: r.FormValue("location"),
		Date:     r.FormValue("date"),
	}
	page := view.IndexPage{Query: q}
	sid := middleware.SessionID(r.Context())

	resp, err := h.QueryService.FetchOdds(r.Context(), sid, q)
	switch {
	case errors.Is(err, service.ErrValidation):
		page.Results.Validation = validationMessage
		h.renderIndex(w, http.StatusBadRequest, page)
		return
	case errors.Is(err, service.ErrSuperseded):
		page.Results.Superseded = supersededMessage
		h.renderIndex(w, http.StatusConflict, page)
		return
	case errors.Is(err, service.ErrSessionStore):
		config.GetLogger().Errorw("session store failed", "session", sid, "error", err)
		http.Error(w, "session store unavailable, try again later", http.StatusInternalServerError)
		return
	case err != nil:
		page.Results.Failure = &view.Failure{
			ServiceURL: h.QueryService.ServiceURL(),
			Error:      err.Error(),
		}
		h.renderIndex(w, http.StatusBadGateway, page)
		return
	}

	success, err := h.Renderer.Success(q, resp, exportPath)
	if err != nil {
		config.GetLogger().Errorw("could not render odds", "error", err)
		http.Error(w, "could not render page", http.StatusInternalServerError)
		return
	}
	page.Results.Success = success
	h.renderIndex(w, http.StatusOK, page)
}

// HandleExport downloads the session's last committed response as a JSON file.
func (h *OddsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r.Context())
	result, err := h.QueryService.LastResult(r.Context(), sid)
	if errors.Is(err, repository.ErrNoResult) {
		writeJSONError(w, http.StatusNotFound, "Nothing to export yet: run a query first")
		return
	}
	if err != nil {
		config.GetLogger().Errorw("could not load last result", "session", sid, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load the last result")
		return
	}

	dl, err := service.DownloadJSON(result.Response, result.Query.Location, result.Query.Date)
	if err != nil {
		config.GetLogger().Errorw("could not export result", "session", sid, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to export the last result")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dl.Body)
}
