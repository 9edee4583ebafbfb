package service

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rx-timeline-engine/internal/domain"
)

// EvidenceComposer fills in rationales: contributing facts, confidence
// bands, and plain-language summaries. It also diverts findings below the
// review threshold into the pending-review list.
type EvidenceComposer struct {
	reviewThreshold float64
	logger          *logrus.Logger
}

// NewEvidenceComposer creates a composer with the configured threshold.
func NewEvidenceComposer(cfg domain.EngineConfig, logger *logrus.Logger) *EvidenceComposer {
	return &EvidenceComposer{reviewThreshold: cfg.ReviewThreshold, logger: logger}
}

// Compose attaches facts and summaries to every finding, then splits the
// list into headline findings and pending-review findings.
func (c *EvidenceComposer) Compose(findings []domain.Finding, snapshot *domain.TimelineSnapshot, patient *domain.PatientContext) (headline, pending []domain.Finding) {
	periodsByDrug := make(map[string][]domain.MedicationPeriod)
	for _, p := range snapshot.Active {
		periodsByDrug[p.Drug] = append(periodsByDrug[p.Drug], p)
	}

	for i := range findings {
		c.composeFinding(&findings[i], periodsByDrug, patient)
		if findings[i].Confidence < c.reviewThreshold {
			pending = append(pending, findings[i])
		} else {
			headline = append(headline, findings[i])
		}
	}

	for i := range snapshot.Changes {
		c.composeChange(&snapshot.Changes[i])
	}

	if len(pending) > 0 {
		c.logger.WithFields(logrus.Fields{
			"pending":   len(pending),
			"threshold": c.reviewThreshold,
		}).Info("Findings below confidence threshold routed to review queue")
	}
	return headline, pending
}

func (c *EvidenceComposer) composeFinding(f *domain.Finding, periodsByDrug map[string][]domain.MedicationPeriod, patient *domain.PatientContext) {
	if f.Rationale == nil {
		f.Rationale = &domain.Rationale{RuleID: f.RuleID}
	}
	r := f.Rationale
	r.Confidence = f.Confidence
	r.Band = domain.BandForConfidence(f.Confidence)

	for _, drug := range f.Drugs {
		for _, p := range periodsByDrug[drug] {
			r.Facts = append(r.Facts, domain.Fact{
				RecordID: strings.Join(p.SourceRecordIDs, ","),
				Date:     p.Start,
				Statement: fmt.Sprintf("%s %s active since %s",
					p.Drug, p.DoseLabel(), p.Start.Format("2006-01-02")),
			})
		}
	}
	if f.Allergen != "" {
		r.Facts = append(r.Facts, domain.Fact{
			Statement: "patient has a recorded allergy to " + f.Allergen,
		})
	}
	if f.Condition != "" {
		r.Facts = append(r.Facts, domain.Fact{
			Statement: "patient has " + f.Condition + " in the problem list",
		})
	}

	r.Summary = findingSummary(f)
}

func findingSummary(f *domain.Finding) string {
	var sb strings.Builder
	switch f.Type {
	case domain.FINDING_DRUG_INTERACTION:
		fmt.Fprintf(&sb, "%s interaction between %s", f.Severity, strings.Join(f.Drugs, " and "))
	case domain.FINDING_CLASS_INTERACTION:
		fmt.Fprintf(&sb, "%s class-level interaction (%s) between %s", f.Severity, f.DrugClass, strings.Join(f.Drugs, " and "))
	case domain.FINDING_ALLERGY_CONFLICT:
		fmt.Fprintf(&sb, "%s is in conflict with the recorded %s allergy", f.Drugs[0], f.Allergen)
	case domain.FINDING_CONTRAINDICATION:
		fmt.Fprintf(&sb, "%s is discouraged in %s (%s)", f.Drugs[0], f.Condition, f.Severity)
	case domain.FINDING_DUPLICATE_THERAPY:
		if f.DrugClass != "" {
			fmt.Fprintf(&sb, "duplicate %s therapy: %s", f.DrugClass, strings.Join(f.Drugs, ", "))
		} else {
			fmt.Fprintf(&sb, "overlapping regimens of %s", f.Drugs[0])
		}
	}
	if f.Rationale != nil && f.Rationale.Mechanism != "" {
		sb.WriteString(". ")
		sb.WriteString(f.Rationale.Mechanism)
	}
	fmt.Fprintf(&sb, " [rule %s, confidence %.2f]", f.RuleID, f.Confidence)
	return sb.String()
}

func (c *EvidenceComposer) composeChange(ev *domain.ChangeEvent) {
	r := &domain.Rationale{
		Confidence: ev.Confidence,
		Band:       domain.BandForConfidence(ev.Confidence),
	}
	switch ev.Type {
	case domain.CHANGE_STARTED:
		r.Summary = fmt.Sprintf("%s started at %s on %s", ev.Drug, ev.NewRegimen, ev.Date.Format("2006-01-02"))
	case domain.CHANGE_STOPPED:
		r.Summary = fmt.Sprintf("%s (%s) stopped on %s", ev.Drug, ev.PreviousRegimen, ev.Date.Format("2006-01-02"))
	case domain.CHANGE_RESUMED:
		r.Summary = fmt.Sprintf("%s resumed at %s on %s after a %d-day gap", ev.Drug, ev.NewRegimen, ev.Date.Format("2006-01-02"), ev.GapDays)
	case domain.CHANGE_CONTINUED:
		r.Summary = fmt.Sprintf("%s continued at %s through %s", ev.Drug, ev.NewRegimen, ev.Date.Format("2006-01-02"))
	default:
		r.Summary = fmt.Sprintf("%s changed from %s to %s on %s", ev.Drug, ev.PreviousRegimen, ev.NewRegimen, ev.Date.Format("2006-01-02"))
	}
	ev.Rationale = r
}
