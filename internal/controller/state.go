package controller

import (
	"github.com/kjstillabower/weather-search/internal/client"
	"github.com/kjstillabower/weather-search/internal/models"
)

// Status tags a SearchState.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// SearchState is the outcome of the most recent settled lookup.
// Result is set only for StatusSuccess and ErrorKind only for StatusFailure.
type SearchState struct {
	Status    Status
	Result    *models.WeatherResult
	ErrorKind client.ErrorKind
}

// Idle is the state before any lookup has settled.
func Idle() SearchState {
	return SearchState{Status: StatusIdle}
}

// Success wraps a displayed result.
func Success(r models.WeatherResult) SearchState {
	return SearchState{Status: StatusSuccess, Result: &r}
}

// Failure wraps a classified lookup error.
func Failure(kind client.ErrorKind) SearchState {
	return SearchState{Status: StatusFailure, ErrorKind: kind}
}

// ErrorMessage returns the user-visible error text, or "" when the state is not a failure.
func (s SearchState) ErrorMessage() string {
	if s.Status != StatusFailure {
		return ""
	}
	return s.ErrorKind.Message()
}

// HasResult reports whether a weather result is currently displayed.
func (s SearchState) HasResult() bool {
	return s.Status == StatusSuccess && s.Result != nil
}

// View is a render-ready snapshot of the controller.
type View struct {
	Query  string
	Unit   models.Unit
	State  SearchState
	Recent []string
}
