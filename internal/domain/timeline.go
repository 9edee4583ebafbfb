package domain

import (
	"time"
)

// MedicationPeriod is a contiguous span during which a drug was taken at a
// single dose and frequency. End is nil while the period is open (no
// explicit end date and no contradicting later record).
type MedicationPeriod struct {
	Drug            string     `json:"drug"`
	Start           time.Time  `json:"start"`
	End             *time.Time `json:"end,omitempty"`
	ExplicitEnd     bool       `json:"explicit_end,omitempty"`
	LastObserved    time.Time  `json:"last_observed"`
	DoseValue       float64    `json:"dose_value"`
	DoseUnit        string     `json:"dose_unit"`
	Frequency       Frequency  `json:"frequency"`
	Route           Route      `json:"route,omitempty"`
	Indications     []string   `json:"indications,omitempty"`
	SourceRecordIDs []string   `json:"source_record_ids"`
	Overlap         bool       `json:"overlap,omitempty"`
	Confidence      float64    `json:"confidence"`
}

// ActiveAt reports whether the period covers the given date. Coverage is
// half-open: a period ending on the date is no longer active.
func (p *MedicationPeriod) ActiveAt(date time.Time) bool {
	if date.Before(p.Start) {
		return false
	}
	return p.End == nil || p.End.After(date)
}

// DoseLabel renders the regimen for rationale text, e.g. "500 mg bd".
func (p *MedicationPeriod) DoseLabel() string {
	label := trimFloat(p.DoseValue) + " " + p.DoseUnit
	if p.Frequency != "" {
		label += " " + p.Frequency.String()
	}
	return label
}

// ChangeEvent records one detected medication change at a point in time.
type ChangeEvent struct {
	Drug            string     `json:"drug"`
	Date            time.Time  `json:"date"`
	Type            ChangeType `json:"type"`
	PreviousRegimen string     `json:"previous_regimen,omitempty"`
	NewRegimen      string     `json:"new_regimen,omitempty"`
	GapDays         int        `json:"gap_days,omitempty"`
	Confidence      float64    `json:"confidence"`
	Rationale       *Rationale `json:"rationale,omitempty"`
}

// TreatmentGap is a span with no coverage between two periods of the same
// drug that exceeded the continuity window.
type TreatmentGap struct {
	Drug  string    `json:"drug"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// TimelineSummary aggregates counts for reporting.
type TimelineSummary struct {
	DrugCount     int                `json:"drug_count"`
	PeriodCount   int                `json:"period_count"`
	ActiveCount   int                `json:"active_count"`
	GapCount      int                `json:"gap_count"`
	ChangesByType map[ChangeType]int `json:"changes_by_type"`
}

// TimelineSnapshot is the reconstructed medication history as of a fixed
// date. Periods are ordered by (drug, start); changes by (drug, date, type).
type TimelineSnapshot struct {
	AsOf    time.Time          `json:"as_of"`
	Periods []MedicationPeriod `json:"periods"`
	Changes []ChangeEvent      `json:"changes"`
	Gaps    []TreatmentGap     `json:"gaps,omitempty"`
	Active  []MedicationPeriod `json:"active"`
	Summary TimelineSummary    `json:"summary"`
}

// ActiveDrugs returns the distinct normalized names of drugs active as of
// the snapshot date, in sorted order.
func (s *TimelineSnapshot) ActiveDrugs() []string {
	seen := make(map[string]bool, len(s.Active))
	var drugs []string
	for _, p := range s.Active {
		if !seen[p.Drug] {
			seen[p.Drug] = true
			drugs = append(drugs, p.Drug)
		}
	}
	return drugs
}
