package http

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-search/internal/controller"
	"github.com/kjstillabower/weather-search/internal/models"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	controller   *controller.Controller
	logger       *zap.Logger
	storagePing  func() error
	shuttingDown atomic.Bool
}

// NewHandler returns a new Handler. storagePing may be nil for backends without a remote server.
func NewHandler(ctrl *controller.Controller, logger *zap.Logger, storagePing func() error) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		controller:  ctrl,
		logger:      logger,
		storagePing: storagePing,
	}
}

// SetShuttingDown flips /health to 503 shutting-down. Call when SIGTERM/SIGINT is received.
func (h *Handler) SetShuttingDown(v bool) {
	h.shuttingDown.Store(v)
}

type pageData struct {
	Query   string
	Unit    models.Unit
	Metric  bool
	Error   string
	Weather *models.WeatherResult
	Recent  []string
}

// GetPage handles GET /.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	v := h.controller.View()
	data := pageData{
		Query:   v.Query,
		Unit:    v.Unit,
		Metric:  v.Unit != models.UnitImperial,
		Error:   v.State.ErrorMessage(),
		Weather: v.State.Result,
		Recent:  v.Recent,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		requestLogger(r, h.logger).Error("render page", zap.Error(err))
	}
}

// PostSearch handles POST /search from the page form.
func (h *Handler) PostSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	unit, ok := h.formUnit(w, r)
	if !ok {
		return
	}
	city := r.PostFormValue("city")
	h.controller.SetQuery(city)
	h.controller.PerformSearch(r.Context(), city, unit)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// PostUnit handles POST /unit from the page's unit selector.
func (h *Handler) PostUnit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	unit, ok := h.formUnit(w, r)
	if !ok {
		return
	}
	h.controller.ChangeUnit(r.Context(), unit)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// PostSelectRecent handles POST /recent/select from a recent-search entry.
func (h *Handler) PostSelectRecent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	h.controller.SelectRecent(r.PostFormValue("city"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// formUnit reads the "unit" form field, defaulting to the current preference when absent.
func (h *Handler) formUnit(w http.ResponseWriter, r *http.Request) (models.Unit, bool) {
	raw := r.PostFormValue("unit")
	if raw == "" {
		return h.controller.Unit(), true
	}
	unit, err := models.ParseUnit(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return unit, true
}

type errorKindBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type stateResponse struct {
	Query    string                `json:"query"`
	Unit     models.Unit           `json:"unit"`
	Status   controller.Status     `json:"status"`
	Weather  *models.WeatherResult `json:"weather,omitempty"`
	Error    *errorKindBody        `json:"error,omitempty"`
	Recent   []string              `json:"recent"`
	Searched *bool                 `json:"searched,omitempty"`
}

func (h *Handler) stateBody() stateResponse {
	v := h.controller.View()
	resp := stateResponse{
		Query:   v.Query,
		Unit:    v.Unit,
		Status:  v.State.Status,
		Weather: v.State.Result,
		Recent:  v.Recent,
	}
	if v.State.Status == controller.StatusFailure {
		resp.Error = &errorKindBody{
			Kind:    string(v.State.ErrorKind),
			Message: v.State.ErrorMessage(),
		}
	}
	return resp
}

// GetState handles GET /api/state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stateBody())
}

type searchRequest struct {
	City string `json:"city"`
	Unit string `json:"unit"`
}

// PostSearchAPI handles POST /api/search. A failed lookup is still a 200: the failure is the new state.
func (h *Handler) PostSearchAPI(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON")
		return
	}
	unit := h.controller.Unit()
	if req.Unit != "" {
		var err error
		if unit, err = models.ParseUnit(req.Unit); err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_UNIT", err.Error())
			return
		}
	}
	h.controller.SetQuery(req.City)
	h.controller.PerformSearch(r.Context(), req.City, unit)
	writeJSON(w, http.StatusOK, h.stateBody())
}

type unitRequest struct {
	Unit string `json:"unit"`
}

// PostUnitAPI handles POST /api/unit. The response reports whether a lookup was re-issued.
func (h *Handler) PostUnitAPI(w http.ResponseWriter, r *http.Request) {
	var req unitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON")
		return
	}
	unit, err := models.ParseUnit(req.Unit)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_UNIT", err.Error())
		return
	}
	_, searched := h.controller.ChangeUnit(r.Context(), unit)
	resp := h.stateBody()
	resp.Searched = &searched
	writeJSON(w, http.StatusOK, resp)
}

type selectRequest struct {
	City string `json:"city"`
}

// PostSelectRecentAPI handles POST /api/recent/select.
func (h *Handler) PostSelectRecentAPI(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON")
		return
	}
	h.controller.SelectRecent(req.City)
	writeJSON(w, http.StatusOK, h.stateBody())
}

// GetRecent handles GET /api/recent.
func (h *Handler) GetRecent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"recent": h.controller.View().Recent})
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status, statusCode := "healthy", http.StatusOK
	checks := map[string]string{}
	if h.storagePing != nil {
		if err := h.storagePing(); err != nil {
			checks["storage"] = "unhealthy"
			requestLogger(r, h.logger).Warn("storage ping failed", zap.Error(err))
		} else {
			checks["storage"] = "healthy"
		}
	}
	if h.shuttingDown.Load() {
		status, statusCode = "shutting-down", http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"service":   "weather-search",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// requestLogger returns the correlation-scoped logger set by CorrelationIDMiddleware, or fallback.
func requestLogger(r *http.Request, fallback *zap.Logger) *zap.Logger {
	if l, ok := r.Context().Value("logger").(*zap.Logger); ok && l != nil {
		return l
	}
	return fallback
}

func correlationID(ctx context.Context) string {
	if v, ok := ctx.Value("correlation_id").(string); ok {
		return v
	}
	return ""
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": correlationID(r.Context()),
		},
	})
}
