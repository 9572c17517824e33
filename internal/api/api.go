// Package api serves the station dataset and journey calculations as JSON over HTTP
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bluele/gcache"
	"github.com/cubny/metro"
	"github.com/julienschmidt/httprouter"
)

// map defaults centred on New Delhi
const (
	mapCenterLat  = 28.7041
	mapCenterLong = 77.1025
	mapZoom       = 11
)

// Options configures the API
type Options struct {
	// RateLimit is the number of requests per second allowed per client, 0 disables limiting
	RateLimit   int
	CacheSize   int
	CacheTTL    time.Duration
	Currency    string
	Compression CompressionConfig
}

// API holds the dependencies of the HTTP handlers
type API struct {
	dataset *metro.Dataset
	calc    *metro.Calculator
	logger  *slog.Logger
	opts    Options
	reports gcache.Cache
	limiter *rateLimiter
	handler http.Handler
	now     func() time.Time
}

// New creates the API over a loaded dataset
func New(dataset *metro.Dataset, calc *metro.Calculator, logger *slog.Logger, opts Options) (*API, error) {
	switch {
	case dataset == nil:
		return nil, errors.New("dataset is required")
	case calc == nil:
		return nil, errors.New("calculator is required")
	case logger == nil:
		return nil, errors.New("logger is required")
	case opts.CacheSize <= 0:
		return nil, errors.New("cache size should be greater than 0")
	case opts.CacheTTL <= 0:
		return nil, errors.New("cache ttl should be greater than 0")
	}
	if opts.Compression == (CompressionConfig{}) {
		opts.Compression = DefaultCompressionConfig()
	}

	api := &API{
		dataset: dataset,
		calc:    calc,
		logger:  logger,
		opts:    opts,
		limiter: newRateLimiter(opts.RateLimit),
		now:     time.Now,
	}
	api.reports = gcache.New(opts.CacheSize).
		LRU().
		Expiration(opts.CacheTTL).
		LoaderFunc(api.loadReport).
		Build()

	var handler http.Handler = api.routes()
	handler = compression(opts.Compression)(handler)
	handler = api.limiter.middleware(api)(handler)
	handler = requestLogging(logger)(handler)
	api.handler = securityHeaders(handler)

	return api, nil
}

// ServeHTTP implements http.Handler
func (api *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.handler.ServeHTTP(w, r)
}

// Close releases the background resources of the API
func (api *API) Close() {
	api.limiter.stop()
}

func (api *API) routes() http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.notFoundResponse(w, r, "resource not found")
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.sendJSON(w, r, http.StatusMethodNotAllowed, response{})
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		api.serverErrorResponse(w, r, fmt.Errorf("panic: %v", v))
	}

	router.GET("/health", api.healthHandler)
	router.GET("/api/stations", api.stationsHandler)
	router.GET("/api/stations/:name", api.stationHandler)
	router.GET("/api/lines", api.linesHandler)
	router.GET("/api/lines/:line/polyline", api.polylineHandler)
	router.GET("/api/map", api.mapHandler)
	router.GET("/api/distance", api.distanceHandler)
	router.GET("/api/reports/opening-years", api.reportHandler(reportOpeningYears))
	router.GET("/api/reports/layouts", api.reportHandler(reportLayouts))
	router.GET("/api/reports/quality", api.reportHandler(reportQuality))

	return router
}
