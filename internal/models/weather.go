package models

import (
	"fmt"
	"strings"
)

// Unit is the measurement system used for temperature and wind speed.
type Unit string

const (
	UnitMetric   Unit = "metric"
	UnitImperial Unit = "imperial"
)

// DefaultUnit is the unit selected before the user picks one.
const DefaultUnit = UnitMetric

// ParseUnit accepts "metric" or "imperial" (case-insensitive, trimmed).
func ParseUnit(s string) (Unit, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(s))) {
	case UnitMetric:
		return UnitMetric, nil
	case UnitImperial:
		return UnitImperial, nil
	}
	return "", fmt.Errorf("unknown unit %q: want metric or imperial", s)
}

// TemperatureSymbol returns the display suffix for temperatures in u.
func (u Unit) TemperatureSymbol() string {
	if u == UnitImperial {
		return "°F"
	}
	return "°C"
}

// WindSpeedLabel returns the display suffix for wind speeds in u.
func (u Unit) WindSpeedLabel() string {
	if u == UnitImperial {
		return "mph"
	}
	return "m/s"
}

// WeatherResult is the current weather for one lookup, passed through from the upstream response.
type WeatherResult struct {
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	Condition   string  `json:"condition"`
	WindSpeed   float64 `json:"windSpeed"`
	Unit        Unit    `json:"unit"`
}
