package api

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/cubny/metro"
	"github.com/cubny/metro/internal/logging"
)

// response is the envelope of every API response
type response struct {
	Code        int                 `json:"code"`
	CurrentTime int64               `json:"currentTime"`
	Text        string              `json:"text"`
	Notice      string              `json:"notice,omitempty"`
	FieldErrors map[string][]string `json:"fieldErrors,omitempty"`
	Data        any                 `json:"data,omitempty"`
}

type stationResponse struct {
	ID                  int      `json:"id"`
	Name                string   `json:"name"`
	Line                string   `json:"line"`
	Color               string   `json:"color"`
	Layout              string   `json:"layout,omitempty"`
	DistanceFromStartKm float64  `json:"distanceFromStartKm"`
	Opened              string   `json:"opened,omitempty"`
	Lat                 *float64 `json:"lat"`
	Long                *float64 `json:"long"`
	Valid               bool     `json:"valid"`
	Lines               []string `json:"lines,omitempty"`
}

func newStationResponse(s metro.Station) stationResponse {
	out := stationResponse{
		ID:                  s.ID,
		Name:                s.Name,
		Line:                s.Line,
		Color:               LineColor(s.Line),
		Layout:              s.Layout,
		DistanceFromStartKm: s.DistanceFromStart,
		Lat:                 coordinate(s.Lat),
		Long:                coordinate(s.Long),
		Valid:               s.Valid(),
	}
	if !s.Opened.IsZero() {
		out.Opened = s.Opened.Format(time.DateOnly)
	}
	return out
}

// coordinate returns nil for values JSON cannot carry
func coordinate(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (api *API) sendJSON(w http.ResponseWriter, r *http.Request, status int, body response) {
	body.Code = status
	body.CurrentTime = api.now().UnixMilli()
	if body.Text == "" {
		body.Text = http.StatusText(status)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to encode response", err,
			slog.String("path", r.URL.Path),
			slog.Int("status", status))
		status = http.StatusInternalServerError
		payload, _ = json.Marshal(response{
			Code:        status,
			CurrentTime: body.CurrentTime,
			Text:        "internal server error",
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(payload, '\n')); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to write response", err,
			slog.String("path", r.URL.Path))
	}
}

func (api *API) sendResponse(w http.ResponseWriter, r *http.Request, data any) {
	api.sendJSON(w, r, http.StatusOK, response{Text: "OK", Data: data})
}

func (api *API) notFoundResponse(w http.ResponseWriter, r *http.Request, text string) {
	api.sendJSON(w, r, http.StatusNotFound, response{Text: text})
}

func (api *API) noticeResponse(w http.ResponseWriter, r *http.Request, text, notice string) {
	api.sendJSON(w, r, http.StatusUnprocessableEntity, response{Text: text, Notice: notice})
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *API) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	api.sendJSON(w, r, http.StatusBadRequest, response{Text: "invalid request", FieldErrors: fieldErrors})
}

func (api *API) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(logging.FromContext(r.Context()), "request failed", err,
		slog.String("path", r.URL.Path),
		slog.String("component", "http_server"))
	api.sendJSON(w, r, http.StatusInternalServerError, response{Text: "internal server error"})
}
