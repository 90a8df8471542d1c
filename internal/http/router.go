package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-search/internal/observability"
)

// NewRouter wires the page, form, JSON API, health and metrics routes.
// lookupTimeout bounds every route that can dispatch a weather lookup.
func NewRouter(h *Handler, logger *zap.Logger, lookupTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	router.HandleFunc("/", h.GetPage).Methods(http.MethodGet)
	router.HandleFunc("/recent/select", h.PostSelectRecent).Methods(http.MethodPost)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler())

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", h.GetState).Methods(http.MethodGet)
	api.HandleFunc("/recent", h.GetRecent).Methods(http.MethodGet)
	api.HandleFunc("/recent/select", h.PostSelectRecentAPI).Methods(http.MethodPost)

	lookups := router.NewRoute().Subrouter()
	lookups.Use(LookupTimeoutMiddleware(lookupTimeout))
	lookups.HandleFunc("/search", h.PostSearch).Methods(http.MethodPost)
	lookups.HandleFunc("/unit", h.PostUnit).Methods(http.MethodPost)
	lookups.HandleFunc("/api/search", h.PostSearchAPI).Methods(http.MethodPost)
	lookups.HandleFunc("/api/unit", h.PostUnitAPI).Methods(http.MethodPost)

	return router
}
