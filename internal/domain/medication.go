package domain

import (
	"fmt"
	"time"
)

// MedicationRecord is a single structured medication mention extracted from a
// clinical document. Records arrive already parsed; the engine never sees
// free text. ExtractionConfidence reflects the upstream extractor's certainty
// and propagates into every downstream confidence score.
type MedicationRecord struct {
	RecordID             string     `json:"record_id"`
	DrugGenericName      string     `json:"drug_generic_name"`
	DoseValue            float64    `json:"dose_value"`
	DoseUnit             string     `json:"dose_unit"`
	Frequency            Frequency  `json:"frequency"`
	Route                Route      `json:"route,omitempty"`
	ObservedDate         time.Time  `json:"observed_date"`
	ExplicitEndDate      *time.Time `json:"explicit_end_date,omitempty"`
	SourcePrescriptionID string     `json:"source_prescription_id"`
	SourceVisitDate      time.Time  `json:"source_visit_date"`
	Indications          []string   `json:"indications,omitempty"`
	ExtractionConfidence float64    `json:"extraction_confidence"`
}

// DrugKey returns the normalized drug identity used for grouping and
// catalog lookup.
func (r *MedicationRecord) DrugKey() string {
	return NormalizeDrugName(r.DrugGenericName)
}

// Validate checks the record for structural integrity. A failing record is
// excluded from evaluation with a diagnostic; it never aborts the run.
func (r *MedicationRecord) Validate() error {
	if r.RecordID == "" {
		return fmt.Errorf("record_id is required: %w", ErrInvalidRecord)
	}
	if r.DrugKey() == "" {
		return fmt.Errorf("record %s: drug_generic_name is required: %w", r.RecordID, ErrInvalidRecord)
	}
	if r.DoseValue < 0 {
		return fmt.Errorf("record %s: dose_value must not be negative: %w", r.RecordID, ErrInvalidRecord)
	}
	if r.Frequency != "" && !r.Frequency.IsValid() {
		return fmt.Errorf("record %s: frequency %q: %w", r.RecordID, r.Frequency, ErrInvalidFrequency)
	}
	if r.Route != "" && !r.Route.IsValid() {
		return fmt.Errorf("record %s: route %q: %w", r.RecordID, r.Route, ErrInvalidRoute)
	}
	if r.ObservedDate.IsZero() {
		return fmt.Errorf("record %s: observed_date is required: %w", r.RecordID, ErrInvalidRecord)
	}
	if r.ExplicitEndDate != nil && r.ExplicitEndDate.Before(r.ObservedDate) {
		return fmt.Errorf("record %s: explicit_end_date precedes observed_date: %w", r.RecordID, ErrInvalidRecord)
	}
	if r.ExtractionConfidence < 0 || r.ExtractionConfidence > 1 {
		return fmt.Errorf("record %s: extraction_confidence %.2f out of [0,1]: %w", r.RecordID, r.ExtractionConfidence, ErrInvalidRecord)
	}
	return nil
}

// SameRegimen reports whether two records describe the same dose and
// frequency of the same drug, the condition for period merging.
func (r *MedicationRecord) SameRegimen(other *MedicationRecord) bool {
	return r.DrugKey() == other.DrugKey() &&
		r.DoseValue == other.DoseValue &&
		r.DoseUnit == other.DoseUnit &&
		r.Frequency == other.Frequency
}

// PatientContext carries the patient facts the safety evaluator needs.
// AsOfDate anchors every "current" judgment so evaluation is reproducible.
type PatientContext struct {
	PatientID         string    `json:"patient_id"`
	Allergies         []string  `json:"allergies,omitempty"`
	ChronicConditions []string  `json:"chronic_conditions,omitempty"`
	AsOfDate          time.Time `json:"as_of_date"`
}

// Validate checks the patient context. A missing as_of_date is fatal because
// it would make evaluation depend on the wall clock.
func (p *PatientContext) Validate() error {
	if p.PatientID == "" {
		return fmt.Errorf("patient_id is required: %w", ErrInvalidPatient)
	}
	if p.AsOfDate.IsZero() {
		return fmt.Errorf("as_of_date is required: %w", ErrInvalidPatient)
	}
	return nil
}

// EvaluationRequest is the full input to one engine run.
type EvaluationRequest struct {
	Patient PatientContext     `json:"patient" binding:"required"`
	Records []MedicationRecord `json:"records" binding:"required"`
}
