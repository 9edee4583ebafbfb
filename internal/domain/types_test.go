package domain

import (
	"testing"
)

func TestSeverityConstants(t *testing.T) {
	tests := []struct {
		name     string
		value    Severity
		expected string
	}{
		{"Minor", SEVERITY_MINOR, "minor"},
		{"Moderate", SEVERITY_MODERATE, "moderate"},
		{"Major", SEVERITY_MAJOR, "major"},
		{"Contraindicated", SEVERITY_CONTRAINDICATED, "contraindicated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.value) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, string(tt.value))
			}
			if !tt.value.IsValid() {
				t.Errorf("Expected %s to be valid", tt.value)
			}
		})
	}

	if Severity("severe").IsValid() {
		t.Error("Expected unrecognized severity to be invalid")
	}
}

func TestSeverityRankOrdering(t *testing.T) {
	ordered := []Severity{SEVERITY_MINOR, SEVERITY_MODERATE, SEVERITY_MAJOR, SEVERITY_CONTRAINDICATED}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank() <= ordered[i-1].Rank() {
			t.Errorf("Expected %s to rank above %s", ordered[i], ordered[i-1])
		}
	}
	if Severity("").Rank() != 0 {
		t.Error("Expected empty severity to rank zero")
	}
}

func TestSeverityRequiresUrgentReview(t *testing.T) {
	tests := []struct {
		severity Severity
		urgent   bool
	}{
		{SEVERITY_MINOR, false},
		{SEVERITY_MODERATE, false},
		{SEVERITY_MAJOR, true},
		{SEVERITY_CONTRAINDICATED, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			if tt.severity.RequiresUrgentReview() != tt.urgent {
				t.Errorf("Expected urgent=%v for %s", tt.urgent, tt.severity)
			}
		})
	}
}

func TestChangeTypeConstants(t *testing.T) {
	tests := []struct {
		name     string
		value    ChangeType
		expected string
	}{
		{"Started", CHANGE_STARTED, "started"},
		{"Stopped", CHANGE_STOPPED, "stopped"},
		{"Resumed", CHANGE_RESUMED, "resumed"},
		{"Continued", CHANGE_CONTINUED, "continued"},
		{"Dose Increased", CHANGE_DOSE_INCREASED, "dose_increased"},
		{"Dose Decreased", CHANGE_DOSE_DECREASED, "dose_decreased"},
		{"Dose Changed", CHANGE_DOSE_CHANGED, "dose_changed"},
		{"Frequency Changed", CHANGE_FREQUENCY_CHANGED, "frequency_changed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.value) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, string(tt.value))
			}
			if !tt.value.IsValid() {
				t.Errorf("Expected %s to be valid", tt.value)
			}
		})
	}
}

func TestChangeTypeRankStopBeforeResume(t *testing.T) {
	if CHANGE_STOPPED.Rank() >= CHANGE_RESUMED.Rank() {
		t.Error("Expected stopped to order before resumed on the same day")
	}
	if CHANGE_RESUMED.Rank() >= CHANGE_DOSE_INCREASED.Rank() {
		t.Error("Expected resumed to order before dose changes on the same day")
	}
}

func TestFrequencyDosesPerDay(t *testing.T) {
	tests := []struct {
		freq     Frequency
		expected float64
	}{
		{FREQ_ONCE_DAILY, 1},
		{FREQ_TWICE_DAILY, 2},
		{FREQ_THREE_TIMES_DAILY, 3},
		{FREQ_FOUR_TIMES_DAILY, 4},
		{FREQ_WEEKLY, 1.0 / 7.0},
		{FREQ_AS_NEEDED, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			if got := tt.freq.DosesPerDay(); got != tt.expected {
				t.Errorf("Expected %v doses per day, got %v", tt.expected, got)
			}
		})
	}
}

func TestBandForConfidence(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		expected ConfidenceBand
	}{
		{"exact rule with clean extraction", 0.95, CONFIDENCE_VERY_HIGH},
		{"top of high band", 0.89, CONFIDENCE_HIGH},
		{"class rule with clean extraction", 0.75, CONFIDENCE_HIGH},
		{"middling", 0.6, CONFIDENCE_MODERATE},
		{"just above threshold", 0.4, CONFIDENCE_LOW},
		{"below threshold", 0.39, CONFIDENCE_VERY_LOW},
		{"zero", 0, CONFIDENCE_VERY_LOW},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BandForConfidence(tt.score); got != tt.expected {
				t.Errorf("BandForConfidence(%v) = %s, want %s", tt.score, got, tt.expected)
			}
		})
	}
}

func TestNormalizeDrugName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Warfarin", "warfarin"},
		{"  ASPIRIN  ", "aspirin"},
		{"ferrous sulfate", "ferrous sulfate"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := NormalizeDrugName(tt.input); got != tt.expected {
			t.Errorf("NormalizeDrugName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
