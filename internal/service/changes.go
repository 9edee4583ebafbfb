package service

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rx-timeline-engine/internal/domain"
)

// ChangeDetector derives medication change events and treatment gaps from a
// reconstructed timeline.
type ChangeDetector struct {
	continuityWindowDays int
	logger               *logrus.Logger
}

// NewChangeDetector creates a change detector with the configured
// continuity window.
func NewChangeDetector(cfg domain.EngineConfig, logger *logrus.Logger) *ChangeDetector {
	return &ChangeDetector{
		continuityWindowDays: cfg.ContinuityWindowDays,
		logger:               logger,
	}
}

// Detect fills the snapshot's Changes, Gaps, and Summary in place.
func (d *ChangeDetector) Detect(snapshot *domain.TimelineSnapshot) {
	byDrug := make(map[string][]domain.MedicationPeriod)
	var drugs []string
	for _, p := range snapshot.Periods {
		if _, seen := byDrug[p.Drug]; !seen {
			drugs = append(drugs, p.Drug)
		}
		byDrug[p.Drug] = append(byDrug[p.Drug], p)
	}
	sort.Strings(drugs)

	var changes []domain.ChangeEvent
	var gaps []domain.TreatmentGap
	for _, drug := range drugs {
		drugChanges, drugGaps := d.detectDrug(byDrug[drug], snapshot.AsOf)
		changes = append(changes, drugChanges...)
		gaps = append(gaps, drugGaps...)
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Drug != changes[j].Drug {
			return changes[i].Drug < changes[j].Drug
		}
		if !changes[i].Date.Equal(changes[j].Date) {
			return changes[i].Date.Before(changes[j].Date)
		}
		return changes[i].Type.Rank() < changes[j].Type.Rank()
	})

	snapshot.Changes = changes
	snapshot.Gaps = gaps
	snapshot.Summary = summarize(snapshot)

	d.logger.WithFields(logrus.Fields{
		"changes": len(changes),
		"gaps":    len(gaps),
	}).Debug("Change detection complete")
}

// detectDrug walks one drug's periods in start order.
func (d *ChangeDetector) detectDrug(periods []domain.MedicationPeriod, asOf time.Time) ([]domain.ChangeEvent, []domain.TreatmentGap) {
	var changes []domain.ChangeEvent
	var gaps []domain.TreatmentGap

	first := periods[0]
	changes = append(changes, domain.ChangeEvent{
		Drug:       first.Drug,
		Date:       first.Start,
		Type:       domain.CHANGE_STARTED,
		NewRegimen: first.DoseLabel(),
		Confidence: first.Confidence,
	})
	changes = append(changes, continuationEvents(&first)...)

	for i := 1; i < len(periods); i++ {
		prev, cur := periods[i-1], periods[i]
		pairConfidence := minFloat(prev.Confidence, cur.Confidence)

		if prev.Overlap && cur.Overlap && prev.End != nil && prev.End.After(cur.Start) {
			// Concurrent regimens; duplicate-therapy evaluation owns these.
			changes = append(changes, continuationEvents(&cur)...)
			continue
		}

		gapDays := daysBetween(periodCloseDate(&prev), cur.Start)
		resumedAfterGap := gapDays > d.continuityWindowDays

		if resumedAfterGap {
			stopDate := periodCloseDate(&prev)
			changes = append(changes,
				domain.ChangeEvent{
					Drug:            prev.Drug,
					Date:            stopDate,
					Type:            domain.CHANGE_STOPPED,
					PreviousRegimen: prev.DoseLabel(),
					Confidence:      prev.Confidence,
				},
				domain.ChangeEvent{
					Drug:            cur.Drug,
					Date:            cur.Start,
					Type:            domain.CHANGE_RESUMED,
					PreviousRegimen: prev.DoseLabel(),
					NewRegimen:      cur.DoseLabel(),
					GapDays:         gapDays,
					Confidence:      pairConfidence,
				},
			)
			gaps = append(gaps, domain.TreatmentGap{
				Drug:  prev.Drug,
				Start: stopDate,
				End:   cur.Start,
				Days:  gapDays,
			})
		}

		switch {
		case cur.DoseValue > prev.DoseValue && cur.DoseUnit == prev.DoseUnit:
			changes = append(changes, regimenChange(&prev, &cur, domain.CHANGE_DOSE_INCREASED, pairConfidence))
		case cur.DoseValue < prev.DoseValue && cur.DoseUnit == prev.DoseUnit:
			changes = append(changes, regimenChange(&prev, &cur, domain.CHANGE_DOSE_DECREASED, pairConfidence))
		case cur.DoseUnit != prev.DoseUnit:
			// Units differ, so the direction is unknowable without a
			// conversion table; record it as an undirected dose change.
			changes = append(changes, regimenChange(&prev, &cur, domain.CHANGE_DOSE_CHANGED, pairConfidence))
		case cur.Frequency == prev.Frequency && !resumedAfterGap:
			changes = append(changes, regimenChange(&prev, &cur, domain.CHANGE_CONTINUED, pairConfidence))
		}
		if cur.Frequency != prev.Frequency {
			changes = append(changes, regimenChange(&prev, &cur, domain.CHANGE_FREQUENCY_CHANGED, pairConfidence))
		}
		changes = append(changes, continuationEvents(&cur)...)
	}

	// Half-open coverage: a course ending on the as-of date has stopped.
	last := periods[len(periods)-1]
	if last.End != nil && !last.End.After(asOf) {
		changes = append(changes, domain.ChangeEvent{
			Drug:            last.Drug,
			Date:            *last.End,
			Type:            domain.CHANGE_STOPPED,
			PreviousRegimen: last.DoseLabel(),
			Confidence:      last.Confidence,
		})
	}

	return changes, gaps
}

// continuationEvents emits a continued event when a period absorbed more
// than one visit's records, anchored at the last observation.
func continuationEvents(p *domain.MedicationPeriod) []domain.ChangeEvent {
	if len(p.SourceRecordIDs) < 2 || p.LastObserved.Equal(p.Start) {
		return nil
	}
	return []domain.ChangeEvent{{
		Drug:            p.Drug,
		Date:            p.LastObserved,
		Type:            domain.CHANGE_CONTINUED,
		PreviousRegimen: p.DoseLabel(),
		NewRegimen:      p.DoseLabel(),
		Confidence:      p.Confidence,
	}}
}

func regimenChange(prev, cur *domain.MedicationPeriod, kind domain.ChangeType, confidence float64) domain.ChangeEvent {
	return domain.ChangeEvent{
		Drug:            cur.Drug,
		Date:            cur.Start,
		Type:            kind,
		PreviousRegimen: prev.DoseLabel(),
		NewRegimen:      cur.DoseLabel(),
		Confidence:      confidence,
	}
}

func summarize(snapshot *domain.TimelineSnapshot) domain.TimelineSummary {
	byType := make(map[domain.ChangeType]int)
	for _, c := range snapshot.Changes {
		byType[c.Type]++
	}
	drugs := make(map[string]bool)
	for _, p := range snapshot.Periods {
		drugs[p.Drug] = true
	}
	return domain.TimelineSummary{
		DrugCount:     len(drugs),
		PeriodCount:   len(snapshot.Periods),
		ActiveCount:   len(snapshot.Active),
		GapCount:      len(snapshot.Gaps),
		ChangesByType: byType,
	}
}
