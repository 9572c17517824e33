package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/cubny/metro"
	"github.com/julienschmidt/httprouter"
	"github.com/twpayne/go-polyline"
)

// report cache keys
const (
	reportLines        = "lines"
	reportOpeningYears = "opening-years"
	reportLayouts      = "layouts"
	reportQuality      = "quality"
	polylinePrefix     = "polyline:"
)

var errUnknownLine = errors.New("unknown line")

type lineResponse struct {
	metro.LineSummary
	Color string `json:"color"`
}

type polylineResponse struct {
	Line     string `json:"line"`
	Color    string `json:"color"`
	Points   int    `json:"points"`
	Polyline string `json:"polyline"`
}

type marker struct {
	Name    string  `json:"name"`
	Line    string  `json:"line"`
	Color   string  `json:"color"`
	Lat     float64 `json:"lat"`
	Long    float64 `json:"long"`
	Tooltip string  `json:"tooltip"`
}

type mapResponse struct {
	CenterLat  float64  `json:"centerLat"`
	CenterLong float64  `json:"centerLong"`
	Zoom       int      `json:"zoom"`
	Markers    []marker `json:"markers"`
}

type journeyResponse struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	DistanceKm  float64 `json:"distanceKm"`
	Display     string  `json:"display"`
	Fare        *int    `json:"fare,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	FareDisplay string  `json:"fareDisplay,omitempty"`
}

func (api *API) healthHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.sendResponse(w, r, map[string]any{
		"status":   "ok",
		"stations": len(api.dataset.Stations()),
	})
}

func (api *API) stationsHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stations := api.dataset.Stations()
	if line := strings.TrimSpace(r.URL.Query().Get("line")); line != "" {
		stations = api.dataset.Line(line)
		if len(stations) == 0 {
			api.notFoundResponse(w, r, fmt.Sprintf("unknown line: %s", line))
			return
		}
	}

	list := make([]stationResponse, 0, len(stations))
	for _, s := range stations {
		list = append(list, newStationResponse(s))
	}
	api.sendResponse(w, r, map[string]any{"list": list})
}

func (api *API) stationHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	name := ps.ByName("name")
	s, ok := api.dataset.Station(name)
	if !ok {
		api.notFoundResponse(w, r, fmt.Sprintf("%s: %s", metro.ErrUnknownStation, name))
		return
	}

	entry := newStationResponse(s)
	for _, row := range api.dataset.Rows() {
		if row.Name == name {
			entry.Lines = append(entry.Lines, row.Line)
		}
	}
	api.sendResponse(w, r, map[string]any{"entry": entry})
}

func (api *API) linesHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	lines, err := api.reports.Get(reportLines)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, map[string]any{"list": lines})
}

func (api *API) polylineHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	line := ps.ByName("line")
	entry, err := api.reports.Get(polylinePrefix + line)
	switch {
	case errors.Is(err, errUnknownLine):
		api.notFoundResponse(w, r, fmt.Sprintf("%s: %s", errUnknownLine, line))
		return
	case err != nil:
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, map[string]any{"entry": entry})
}

func (api *API) mapHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rows := api.dataset.Rows()
	markers := make([]marker, 0, len(rows))
	for _, s := range rows {
		if !s.Valid() {
			continue
		}
		markers = append(markers, marker{
			Name:    s.Name,
			Line:    s.Line,
			Color:   LineColor(s.Line),
			Lat:     s.Lat,
			Long:    s.Long,
			Tooltip: fmt.Sprintf("%s - %s", s.Name, s.Line),
		})
	}

	api.sendResponse(w, r, map[string]any{"entry": mapResponse{
		CenterLat:  mapCenterLat,
		CenterLong: mapCenterLong,
		Zoom:       mapZoom,
		Markers:    markers,
	}})
}

func (api *API) distanceHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	from := strings.TrimSpace(query.Get("from"))
	to := strings.TrimSpace(query.Get("to"))

	fieldErrors := make(map[string][]string)
	if from == "" {
		fieldErrors["from"] = append(fieldErrors["from"], "from station is required")
	}
	if to == "" {
		fieldErrors["to"] = append(fieldErrors["to"], "to station is required")
	}
	withFare := false
	if raw := query.Get("fare"); raw != "" {
		var err error
		if withFare, err = strconv.ParseBool(raw); err != nil {
			fieldErrors["fare"] = append(fieldErrors["fare"], "fare must be true or false")
		}
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	j, err := api.calc.Between(api.dataset, from, to, withFare)
	switch {
	case errors.Is(err, metro.ErrSameStation):
		api.noticeResponse(w, r, err.Error(),
			"Please select two different metro stations to calculate the distance.")
		return
	case errors.Is(err, metro.ErrInvalidCoordinates):
		api.noticeResponse(w, r, err.Error(),
			"The coordinates of the selected station are invalid, the distance cannot be calculated.")
		return
	case errors.Is(err, metro.ErrUnknownStation):
		api.notFoundResponse(w, r, err.Error())
		return
	case err != nil:
		api.serverErrorResponse(w, r, err)
		return
	}

	entry := journeyResponse{
		From:       j.From,
		To:         j.To,
		DistanceKm: j.DistanceKm,
		Display:    fmt.Sprintf("The distance between %s and %s is %.2f km.", j.From, j.To, j.DistanceKm),
	}
	if j.Priced {
		fare := j.Fare
		entry.Fare = &fare
		entry.Currency = api.opts.Currency
		entry.FareDisplay = fmt.Sprintf("%s%d", api.opts.Currency, fare)
	}
	api.sendResponse(w, r, map[string]any{"entry": entry})
}

func (api *API) reportHandler(key string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		report, err := api.reports.Get(key)
		if err != nil {
			api.serverErrorResponse(w, r, err)
			return
		}
		api.sendResponse(w, r, map[string]any{"entry": report})
	}
}

// loadReport is the gcache.LoaderFunc computing the figures derived from the dataset
func (api *API) loadReport(key interface{}) (interface{}, error) {
	name, _ := key.(string)
	switch {
	case name == reportLines:
		return api.lines()
	case name == reportOpeningYears:
		return metro.OpeningYears(api.dataset), nil
	case name == reportLayouts:
		return metro.Layouts(api.dataset), nil
	case name == reportQuality:
		return metro.Quality(api.dataset), nil
	case strings.HasPrefix(name, polylinePrefix):
		return api.linePolyline(strings.TrimPrefix(name, polylinePrefix))
	}
	return nil, fmt.Errorf("unknown report %v", key)
}

func (api *API) lines() ([]lineResponse, error) {
	summaries, err := metro.LineSummaries(context.Background(), api.dataset)
	if err != nil {
		return nil, err
	}

	lines := make([]lineResponse, 0, len(summaries))
	for _, s := range summaries {
		lines = append(lines, lineResponse{LineSummary: s, Color: LineColor(s.Line)})
	}
	return lines, nil
}

// linePolyline encodes the valid stations of a line ordered by distance from start
func (api *API) linePolyline(line string) (polylineResponse, error) {
	stations := api.dataset.Line(line)
	if len(stations) == 0 {
		return polylineResponse{}, errUnknownLine
	}
	sort.SliceStable(stations, func(i, j int) bool {
		return stations[i].DistanceFromStart < stations[j].DistanceFromStart
	})

	coords := make([][]float64, 0, len(stations))
	for _, s := range stations {
		if s.Valid() {
			coords = append(coords, []float64{s.Lat, s.Long})
		}
	}

	return polylineResponse{
		Line:     line,
		Color:    LineColor(line),
		Points:   len(coords),
		Polyline: string(polyline.EncodeCoords(coords)),
	}, nil
}
