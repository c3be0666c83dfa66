package units

import "testing"

func TestFromSeconds(t *testing.T) {
	tests := []struct {
		name     string
		seconds  float64
		expected Time
	}{
		{"whole second", 1.0, 1000},
		{"fraction rounds to nearest", 2.2224, 2222},
		{"rounds up", 0.0005, 1},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromSeconds(tt.seconds); got != tt.expected {
				t.Errorf("FromSeconds(%v) = %d, want %d", tt.seconds, got, tt.expected)
			}
		})
	}
}

func TestSecondsRoundTrip(t *testing.T) {
	if got := (2500 * Millisecond).Seconds(); got != 2.5 {
		t.Errorf("Seconds() = %v, want 2.5", got)
	}
}

func TestSteps(t *testing.T) {
	tests := []struct {
		name       string
		t          Time
		stepLength Time
		expected   int64
	}{
		{"exact multiple", 3000, 1000, 3},
		{"partial step counts", 2500, 1000, 3},
		{"zero duration", 0, 1000, 0},
		{"invalid step length", 1000, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.t.Steps(tt.stepLength); got != tt.expected {
				t.Errorf("Steps() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestString(t *testing.T) {
	if got := (1500 * Millisecond).String(); got != "1.500s" {
		t.Errorf("String() = %q, want %q", got, "1.500s")
	}
}
