// Package service implements the reasoning pipeline: timeline
// reconstruction, change detection, safety evaluation, evidence
// composition, and knowledge-graph projection.
package service

import (
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rx-timeline-engine/internal/domain"
)

// ambiguousOrderPenalty is applied to a period's confidence when same-day
// records for the same drug disagreed and a tie-break picked the winner.
const ambiguousOrderPenalty = 0.8

// TimelineBuilder reconstructs per-drug medication periods from validated
// records. It is stateless apart from configuration; calls are deterministic.
type TimelineBuilder struct {
	continuityWindowDays int
	logger               *logrus.Logger
}

// NewTimelineBuilder creates a timeline builder with the configured
// continuity window.
func NewTimelineBuilder(cfg domain.EngineConfig, logger *logrus.Logger) *TimelineBuilder {
	return &TimelineBuilder{
		continuityWindowDays: cfg.ContinuityWindowDays,
		logger:               logger,
	}
}

// Build groups records by drug, resolves same-day conflicts, merges
// contiguous same-regimen records into periods, and assembles the snapshot
// as of the given date. Diagnostics report ambiguity, never abort.
func (b *TimelineBuilder) Build(records []domain.MedicationRecord, asOf time.Time) (*domain.TimelineSnapshot, []domain.Diagnostic) {
	var diagnostics []domain.Diagnostic

	byDrug := make(map[string][]domain.MedicationRecord)
	for _, rec := range records {
		byDrug[rec.DrugKey()] = append(byDrug[rec.DrugKey()], rec)
	}

	drugs := make([]string, 0, len(byDrug))
	for drug := range byDrug {
		drugs = append(drugs, drug)
	}
	sort.Strings(drugs)

	var periods []domain.MedicationPeriod
	for _, drug := range drugs {
		drugPeriods, diags := b.buildDrugPeriods(drug, byDrug[drug])
		periods = append(periods, drugPeriods...)
		diagnostics = append(diagnostics, diags...)
	}

	sort.Slice(periods, func(i, j int) bool {
		if periods[i].Drug != periods[j].Drug {
			return periods[i].Drug < periods[j].Drug
		}
		if !periods[i].Start.Equal(periods[j].Start) {
			return periods[i].Start.Before(periods[j].Start)
		}
		return periods[i].DoseValue < periods[j].DoseValue
	})

	var active []domain.MedicationPeriod
	for _, p := range periods {
		if p.ActiveAt(asOf) {
			active = append(active, p)
		}
	}

	snapshot := &domain.TimelineSnapshot{
		AsOf:    asOf,
		Periods: periods,
		Active:  active,
	}

	b.logger.WithFields(logrus.Fields{
		"drugs":   len(byDrug),
		"periods": len(periods),
		"active":  len(active),
		"as_of":   asOf.Format("2006-01-02"),
	}).Debug("Timeline reconstructed")

	return snapshot, diagnostics
}

// buildDrugPeriods walks one drug's records in date order and emits periods.
func (b *TimelineBuilder) buildDrugPeriods(drug string, records []domain.MedicationRecord) ([]domain.MedicationPeriod, []domain.Diagnostic) {
	records, superseded, diagnostics := b.resolveSameDay(drug, records)

	var periods []domain.MedicationPeriod
	var current *domain.MedicationPeriod
	for i := range records {
		rec := &records[i]
		if current == nil {
			current = b.openPeriod(drug, rec, superseded[rec.RecordID])
			continue
		}

		// An open period's end is inferred from the next visit, so only an
		// explicit end date can open a coverage gap.
		gapDays := 0
		if current.ExplicitEnd && current.End != nil {
			gapDays = daysBetween(*current.End, rec.ObservedDate)
		}
		sameRegimen := current.DoseValue == rec.DoseValue &&
			current.DoseUnit == rec.DoseUnit &&
			current.Frequency == rec.Frequency

		switch {
		case sameRegimen && gapDays <= b.continuityWindowDays:
			// Continuation of the same regimen.
			current.SourceRecordIDs = append(current.SourceRecordIDs, rec.RecordID)
			current.SourceRecordIDs = append(current.SourceRecordIDs, superseded[rec.RecordID]...)
			current.LastObserved = rec.ObservedDate
			current.Confidence = minFloat(current.Confidence, rec.ExtractionConfidence)
			if rec.ExplicitEndDate != nil {
				end := *rec.ExplicitEndDate
				current.End = &end
				current.ExplicitEnd = true
			}

		case current.ExplicitEnd && current.End != nil && current.End.After(rec.ObservedDate):
			// Distinct regimen inside the explicit span of the previous one:
			// both are kept and flagged for duplicate-therapy review.
			current.Overlap = true
			periods = append(periods, *current)
			current = b.openPeriod(drug, rec, superseded[rec.RecordID])
			current.Overlap = true

		default:
			// Regimen change closes the prior period at the new record's
			// start; a record beyond an explicit end opens a fresh period
			// and leaves the gap for the change detector.
			if current.End == nil {
				end := rec.ObservedDate
				current.End = &end
			}
			periods = append(periods, *current)
			current = b.openPeriod(drug, rec, superseded[rec.RecordID])
		}
	}
	if current != nil {
		periods = append(periods, *current)
	}

	return periods, diagnostics
}

// resolveSameDay sorts a drug's records and collapses each same-day group
// to the most recently recorded source prescription. When the group
// disagreed on regimen, the winner is confidence-penalized and an
// ambiguous-order diagnostic is emitted. Superseded record IDs are
// returned keyed by the winning record so periods keep both sides of the
// conflict in their source lists.
func (b *TimelineBuilder) resolveSameDay(drug string, records []domain.MedicationRecord) ([]domain.MedicationRecord, map[string][]string, []domain.Diagnostic) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].ObservedDate.Equal(records[j].ObservedDate) {
			return records[i].ObservedDate.Before(records[j].ObservedDate)
		}
		if records[i].SourcePrescriptionID != records[j].SourcePrescriptionID {
			return records[i].SourcePrescriptionID < records[j].SourcePrescriptionID
		}
		return records[i].RecordID < records[j].RecordID
	})

	var diagnostics []domain.Diagnostic
	var resolved []domain.MedicationRecord
	superseded := make(map[string][]string)
	for i := 0; i < len(records); {
		j := i
		for j+1 < len(records) && records[j+1].ObservedDate.Equal(records[i].ObservedDate) {
			j++
		}
		if j == i {
			resolved = append(resolved, records[i])
			i = j + 1
			continue
		}

		// Same-day group: the highest prescription ID is the latest source.
		winner := records[j]
		conflict := false
		var losers []string
		for k := i; k < j; k++ {
			superseded[winner.RecordID] = append(superseded[winner.RecordID], records[k].RecordID)
			losers = append(losers, records[k].SourcePrescriptionID)
			if !records[k].SameRegimen(&winner) {
				conflict = true
			}
		}
		if conflict {
			winner.ExtractionConfidence *= ambiguousOrderPenalty
			diagnostics = append(diagnostics, domain.Diagnostic{
				Type:     domain.DIAG_AMBIGUOUS_ORDER,
				RecordID: winner.RecordID,
				Drug:     drug,
				Message: "conflicting same-day records on " + winner.ObservedDate.Format("2006-01-02") +
					"; most recent source prescription " + winner.SourcePrescriptionID +
					" used, superseding " + strings.Join(losers, ", "),
			})
		}
		resolved = append(resolved, winner)
		i = j + 1
	}
	return resolved, superseded, diagnostics
}

func (b *TimelineBuilder) openPeriod(drug string, rec *domain.MedicationRecord, superseded []string) *domain.MedicationPeriod {
	p := &domain.MedicationPeriod{
		Drug:            drug,
		Start:           rec.ObservedDate,
		LastObserved:    rec.ObservedDate,
		DoseValue:       rec.DoseValue,
		DoseUnit:        rec.DoseUnit,
		Frequency:       rec.Frequency,
		Route:           rec.Route,
		Indications:     append([]string(nil), rec.Indications...),
		SourceRecordIDs: append([]string{rec.RecordID}, superseded...),
		Confidence:      rec.ExtractionConfidence,
	}
	if rec.ExplicitEndDate != nil {
		end := *rec.ExplicitEndDate
		p.End = &end
		p.ExplicitEnd = true
	}
	return p
}

// periodCloseDate is the date coverage ends for gap measurement: the
// explicit end when present, otherwise the last observation.
func periodCloseDate(p *domain.MedicationPeriod) time.Time {
	if p.End != nil {
		return *p.End
	}
	return p.LastObserved
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
