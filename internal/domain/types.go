// Package domain contains core business entities and types for medication
// timeline reconstruction and drug-safety reasoning over structured
// medication records extracted from clinical documents.
package domain

import (
	"errors"
	"strings"
)

// Severity represents the clinical severity of a safety finding.
// Ordering matters: findings are reported most severe first.
type Severity string

const (
	SEVERITY_MINOR           Severity = "minor"
	SEVERITY_MODERATE        Severity = "moderate"
	SEVERITY_MAJOR           Severity = "major"
	SEVERITY_CONTRAINDICATED Severity = "contraindicated"
)

// ChangeType represents the kind of medication change detected
// between consecutive periods of the same drug.
type ChangeType string

const (
	CHANGE_STARTED           ChangeType = "started"
	CHANGE_STOPPED           ChangeType = "stopped"
	CHANGE_RESUMED           ChangeType = "resumed"
	CHANGE_CONTINUED         ChangeType = "continued"
	CHANGE_DOSE_INCREASED    ChangeType = "dose_increased"
	CHANGE_DOSE_DECREASED    ChangeType = "dose_decreased"
	CHANGE_DOSE_CHANGED      ChangeType = "dose_changed"
	CHANGE_FREQUENCY_CHANGED ChangeType = "frequency_changed"
)

// FindingType represents the category of a drug-safety finding.
type FindingType string

const (
	FINDING_DRUG_INTERACTION  FindingType = "drug_interaction"
	FINDING_CLASS_INTERACTION FindingType = "class_interaction"
	FINDING_ALLERGY_CONFLICT  FindingType = "allergy_conflict"
	FINDING_CONTRAINDICATION  FindingType = "contraindication"
	FINDING_DUPLICATE_THERAPY FindingType = "duplicate_therapy"
)

// DiagnosticType classifies non-fatal problems encountered during evaluation.
type DiagnosticType string

const (
	DIAG_INVALID_RECORD  DiagnosticType = "invalid_record"
	DIAG_CATALOG_GAP     DiagnosticType = "catalog_gap"
	DIAG_AMBIGUOUS_ORDER DiagnosticType = "ambiguous_order"
)

// Route represents the administration route of a medication.
type Route string

const (
	ROUTE_ORAL          Route = "oral"
	ROUTE_INTRAVENOUS   Route = "iv"
	ROUTE_INTRAMUSCULAR Route = "im"
	ROUTE_SUBCUTANEOUS  Route = "sc"
	ROUTE_TOPICAL       Route = "topical"
	ROUTE_INHALED       Route = "inhaled"
)

// Frequency represents a coded dosing frequency.
type Frequency string

const (
	FREQ_ONCE_DAILY        Frequency = "od"
	FREQ_TWICE_DAILY       Frequency = "bd"
	FREQ_THREE_TIMES_DAILY Frequency = "tds"
	FREQ_FOUR_TIMES_DAILY  Frequency = "qds"
	FREQ_WEEKLY            Frequency = "weekly"
	FREQ_AS_NEEDED         Frequency = "prn"
)

// ConfidenceBand is the human-readable interpretation of a numeric confidence.
type ConfidenceBand string

const (
	CONFIDENCE_VERY_HIGH ConfidenceBand = "very_high"
	CONFIDENCE_HIGH      ConfidenceBand = "high"
	CONFIDENCE_MODERATE  ConfidenceBand = "moderate"
	CONFIDENCE_LOW       ConfidenceBand = "low"
	CONFIDENCE_VERY_LOW  ConfidenceBand = "very_low"
)

// Validation errors for medication data integrity
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidSeverity  = errors.New("invalid severity")
	ErrInvalidChange    = errors.New("invalid change type")
	ErrInvalidFrequency = errors.New("invalid frequency code")
	ErrInvalidRoute     = errors.New("invalid administration route")
)

// IsValid validates that the Severity is one of the recognized levels.
// Only valid severities may enter clinical findings.
func (s Severity) IsValid() bool {
	switch s {
	case SEVERITY_MINOR, SEVERITY_MODERATE, SEVERITY_MAJOR, SEVERITY_CONTRAINDICATED:
		return true
	default:
		return false
	}
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// Rank returns the numeric ordering of the severity, higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SEVERITY_CONTRAINDICATED:
		return 4
	case SEVERITY_MAJOR:
		return 3
	case SEVERITY_MODERATE:
		return 2
	case SEVERITY_MINOR:
		return 1
	default:
		return 0
	}
}

// RequiresUrgentReview reports whether a finding at this severity should be
// escalated rather than batched for routine review.
func (s Severity) RequiresUrgentReview() bool {
	return s == SEVERITY_MAJOR || s == SEVERITY_CONTRAINDICATED
}

// LogFields returns structured logging fields for audit trails.
func (s Severity) LogFields() map[string]any {
	return map[string]any{
		"severity":      string(s),
		"severity_rank": s.Rank(),
		"urgent":        s.RequiresUrgentReview(),
	}
}

// IsValid validates the change type.
func (c ChangeType) IsValid() bool {
	switch c {
	case CHANGE_STARTED, CHANGE_STOPPED, CHANGE_RESUMED, CHANGE_CONTINUED,
		CHANGE_DOSE_INCREASED, CHANGE_DOSE_DECREASED, CHANGE_DOSE_CHANGED,
		CHANGE_FREQUENCY_CHANGED:
		return true
	default:
		return false
	}
}

// String returns the string representation of the change type.
func (c ChangeType) String() string {
	return string(c)
}

// Rank gives change types a stable order for same-day events:
// stop before resume, resume before modification.
func (c ChangeType) Rank() int {
	switch c {
	case CHANGE_STOPPED:
		return 0
	case CHANGE_STARTED:
		return 1
	case CHANGE_RESUMED:
		return 2
	case CHANGE_DOSE_INCREASED:
		return 3
	case CHANGE_DOSE_DECREASED:
		return 4
	case CHANGE_DOSE_CHANGED:
		return 5
	case CHANGE_FREQUENCY_CHANGED:
		return 6
	case CHANGE_CONTINUED:
		return 7
	default:
		return 8
	}
}

// IsValid validates the finding type.
func (f FindingType) IsValid() bool {
	switch f {
	case FINDING_DRUG_INTERACTION, FINDING_CLASS_INTERACTION, FINDING_ALLERGY_CONFLICT,
		FINDING_CONTRAINDICATION, FINDING_DUPLICATE_THERAPY:
		return true
	default:
		return false
	}
}

// String returns the string representation of the finding type.
func (f FindingType) String() string {
	return string(f)
}

// IsValid validates the frequency code.
func (f Frequency) IsValid() bool {
	switch f {
	case FREQ_ONCE_DAILY, FREQ_TWICE_DAILY, FREQ_THREE_TIMES_DAILY,
		FREQ_FOUR_TIMES_DAILY, FREQ_WEEKLY, FREQ_AS_NEEDED:
		return true
	default:
		return false
	}
}

// String returns the string representation of the frequency.
func (f Frequency) String() string {
	return string(f)
}

// DosesPerDay returns the nominal number of administrations per day.
// PRN dosing has no fixed schedule and reports zero.
func (f Frequency) DosesPerDay() float64 {
	switch f {
	case FREQ_ONCE_DAILY:
		return 1
	case FREQ_TWICE_DAILY:
		return 2
	case FREQ_THREE_TIMES_DAILY:
		return 3
	case FREQ_FOUR_TIMES_DAILY:
		return 4
	case FREQ_WEEKLY:
		return 1.0 / 7.0
	default:
		return 0
	}
}

// IsValid validates the administration route.
func (r Route) IsValid() bool {
	switch r {
	case ROUTE_ORAL, ROUTE_INTRAVENOUS, ROUTE_INTRAMUSCULAR,
		ROUTE_SUBCUTANEOUS, ROUTE_TOPICAL, ROUTE_INHALED:
		return true
	default:
		return false
	}
}

// String returns the string representation of the route.
func (r Route) String() string {
	return string(r)
}

// BandForConfidence maps a numeric confidence score onto its
// plain-language interpretation band.
func BandForConfidence(score float64) ConfidenceBand {
	switch {
	case score >= 0.9:
		return CONFIDENCE_VERY_HIGH
	case score >= 0.75:
		return CONFIDENCE_HIGH
	case score >= 0.55:
		return CONFIDENCE_MODERATE
	case score >= 0.4:
		return CONFIDENCE_LOW
	default:
		return CONFIDENCE_VERY_LOW
	}
}

// String returns the string representation of the confidence band.
func (b ConfidenceBand) String() string {
	return string(b)
}

// NormalizeDrugName canonicalizes a generic drug name for identity
// comparison and catalog lookup.
func NormalizeDrugName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
