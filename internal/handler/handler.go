package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/fakhrymubarak/weather-odds-web/internal/config"
	"github.com/fakhrymubarak/weather-odds-web/internal/model"
)

func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		config.GetLogger().Errorw("could not encode json", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, statusCode int, errMsg string) {
	writeJSONResponse(w, statusCode, model.ErrorResponse(errMsg, "Error"))
}

// writeHTML renders into a buffer first so a template error never leaves a half-written page.
func writeHTML(w http.ResponseWriter, statusCode int, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		config.GetLogger().Errorw("could not render page", "error", err)
		http.Error(w, "could not render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = buf.WriteTo(w)
}
