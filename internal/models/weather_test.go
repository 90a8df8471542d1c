package models

import "testing"

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    Unit
		wantErr bool
	}{
		{"metric", UnitMetric, false},
		{"imperial", UnitImperial, false},
		{" Imperial ", UnitImperial, false},
		{"kelvin", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseUnit(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseUnit(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseUnit(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnitLabels(t *testing.T) {
	if got := UnitMetric.TemperatureSymbol(); got != "°C" {
		t.Errorf("metric TemperatureSymbol = %q", got)
	}
	if got := UnitImperial.TemperatureSymbol(); got != "°F" {
		t.Errorf("imperial TemperatureSymbol = %q", got)
	}
	if got := UnitMetric.WindSpeedLabel(); got != "m/s" {
		t.Errorf("metric WindSpeedLabel = %q", got)
	}
	if got := UnitImperial.WindSpeedLabel(); got != "mph" {
		t.Errorf("imperial WindSpeedLabel = %q", got)
	}
}
