package domain

import (
	"strconv"
	"time"
)

// Fact is a single contributing observation referenced by a rationale.
// RecordID is empty for facts drawn from patient context or the catalog.
type Fact struct {
	RecordID  string    `json:"record_id,omitempty"`
	Date      time.Time `json:"date,omitempty"`
	Statement string    `json:"statement"`
}

// Rationale explains how a finding or change event was derived: the facts
// that contributed, the catalog rule applied, and the propagated confidence.
type Rationale struct {
	Facts          []Fact         `json:"facts"`
	RuleID         string         `json:"rule_id,omitempty"`
	Mechanism      string         `json:"mechanism,omitempty"`
	Management     string         `json:"management,omitempty"`
	Alternatives   []string       `json:"alternatives,omitempty"`
	SupportingRule string         `json:"supporting_rule,omitempty"`
	Confidence     float64        `json:"confidence"`
	Band           ConfidenceBand `json:"confidence_band"`
	Summary        string         `json:"summary"`
}

// Finding is one drug-safety conclusion about the active medication set.
// Drugs holds the normalized names involved, sorted, one or two entries.
// Condition and Allergen are set only for the finding types that use them.
type Finding struct {
	Type       FindingType `json:"type"`
	Severity   Severity    `json:"severity"`
	Drugs      []string    `json:"drugs"`
	DrugClass  string      `json:"drug_class,omitempty"`
	Condition  string      `json:"condition,omitempty"`
	Allergen   string      `json:"allergen,omitempty"`
	RuleID     string      `json:"rule_id"`
	Confidence float64     `json:"confidence"`
	Rationale  *Rationale  `json:"rationale"`
}

// Key returns a stable identity for the finding, used for deduplication and
// for matching review decisions against re-evaluations.
func (f *Finding) Key() string {
	key := string(f.Type)
	for _, d := range f.Drugs {
		key += "|" + d
	}
	if f.Condition != "" {
		key += "|cond:" + NormalizeDrugName(f.Condition)
	}
	if f.Allergen != "" {
		key += "|allergen:" + NormalizeDrugName(f.Allergen)
	}
	if f.DrugClass != "" {
		key += "|class:" + NormalizeDrugName(f.DrugClass)
	}
	return key
}

// Diagnostic is a non-fatal problem surfaced alongside results.
type Diagnostic struct {
	Type     DiagnosticType `json:"type"`
	RecordID string         `json:"record_id,omitempty"`
	Drug     string         `json:"drug,omitempty"`
	Message  string         `json:"message"`
}

// EvaluationResult is the complete output of one engine run. Findings below
// the review threshold appear only in PendingReview, never in Findings.
type EvaluationResult struct {
	Patient        string            `json:"patient_id"`
	AsOf           time.Time         `json:"as_of"`
	CatalogVersion string            `json:"catalog_version"`
	Snapshot       *TimelineSnapshot `json:"timeline"`
	Findings       []Finding         `json:"findings"`
	PendingReview  []Finding         `json:"pending_review,omitempty"`
	Diagnostics    []Diagnostic      `json:"diagnostics,omitempty"`
	Graph          *Graph            `json:"graph,omitempty"`
}

// HighestSeverity returns the worst severity among headline findings, or
// empty when there are none.
func (r *EvaluationResult) HighestSeverity() Severity {
	var worst Severity
	for _, f := range r.Findings {
		if f.Severity.Rank() > worst.Rank() {
			worst = f.Severity
		}
	}
	return worst
}

// trimFloat formats a dose value without trailing zeros.
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
