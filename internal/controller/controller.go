// Package controller drives the search state machine: it dispatches weather lookups,
// classifies their failures and records successful cities in the recent-search list.
package controller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-search/internal/client"
	"github.com/kjstillabower/weather-search/internal/models"
	"github.com/kjstillabower/weather-search/internal/observability"
	"github.com/kjstillabower/weather-search/internal/recent"
)

// Controller owns the pending query, unit preference and current SearchState.
//
// Overlapping lookups are cancel-and-replace: starting a lookup cancels the one in flight,
// and only the most recently dispatched lookup may change state or the recent list.
type Controller struct {
	client client.WeatherClient
	recent *recent.Store
	logger *zap.Logger

	mu         sync.Mutex
	query      string
	unit       models.Unit
	lastCity   string
	state      SearchState
	generation uint64
	cancel     context.CancelFunc
	closed     bool

	// persistMu is taken while mu is held, so recent entries are written in settle order.
	persistMu sync.Mutex
}

// New returns a Controller in the Idle state with unit preference unit.
func New(weatherClient client.WeatherClient, store *recent.Store, unit models.Unit, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if unit == "" {
		unit = models.DefaultUnit
	}
	return &Controller{
		client: weatherClient,
		recent: store,
		logger: logger,
		unit:   unit,
		state:  Idle(),
	}
}

// PerformSearch looks up city under unit and returns the resulting state.
// city is forwarded as-is. If a newer lookup is dispatched before this one settles,
// the returned state is whatever the controller holds at that point and this
// lookup's outcome is dropped.
func (c *Controller) PerformSearch(ctx context.Context, city string, unit models.Unit) SearchState {
	c.mu.Lock()
	if c.closed {
		state := c.state
		c.mu.Unlock()
		return state
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	lookupCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.unit = unit
	c.lastCity = city
	c.mu.Unlock()
	defer cancel()

	start := time.Now()
	result, err := c.client.GetCurrentWeather(lookupCtx, city, unit)

	c.mu.Lock()
	if gen != c.generation || c.closed {
		state := c.state
		c.mu.Unlock()
		observability.SearchOutcomesTotal.WithLabelValues("superseded").Inc()
		c.logger.Debug("discarding superseded lookup", zap.String("city", city))
		return state
	}
	c.cancel = nil

	if err != nil {
		kind := client.ClassifyError(err)
		c.state = Failure(kind)
		state := c.state
		c.mu.Unlock()
		observability.SearchOutcomesTotal.WithLabelValues(string(kind)).Inc()
		c.logger.Info("weather lookup failed",
			zap.String("city", city),
			zap.String("unit", string(unit)),
			zap.String("error_kind", string(kind)),
			zap.Error(err))
		return state
	}

	c.state = Success(result)
	state := c.state
	c.persistMu.Lock()
	c.mu.Unlock()

	c.recent.Record(ctx, city)
	c.persistMu.Unlock()
	observability.SearchOutcomesTotal.WithLabelValues("success").Inc()
	c.logger.Debug("weather lookup succeeded",
		zap.String("city", city),
		zap.String("unit", string(unit)),
		zap.Duration("duration", time.Since(start)))
	return state
}

// ChangeUnit sets the unit preference. When a result is displayed it re-runs the
// last search under the new unit and reports true; otherwise no lookup happens.
func (c *Controller) ChangeUnit(ctx context.Context, unit models.Unit) (SearchState, bool) {
	c.mu.Lock()
	c.unit = unit
	rerun := c.state.HasResult() && !c.closed
	city := c.lastCity
	state := c.state
	c.mu.Unlock()

	if !rerun {
		return state, false
	}
	return c.PerformSearch(ctx, city, unit), true
}

// SetQuery updates the pending query field.
func (c *Controller) SetQuery(city string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = city
}

// SelectRecent copies a recent entry into the pending query field. It never starts a lookup.
func (c *Controller) SelectRecent(city string) {
	c.SetQuery(city)
}

// Unit returns the current unit preference.
func (c *Controller) Unit() models.Unit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unit
}

// State returns the current SearchState.
func (c *Controller) State() SearchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns a snapshot for rendering.
func (c *Controller) View() View {
	c.mu.Lock()
	v := View{
		Query: c.query,
		Unit:  c.unit,
		State: c.state,
	}
	c.mu.Unlock()
	v.Recent = c.recent.List()
	return v
}

// Close cancels any in-flight lookup. Lookups settling afterwards are discarded
// and new ones are not dispatched.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
