package service

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rx-timeline-engine/internal/catalog"
	"github.com/rx-timeline-engine/internal/domain"
)

// SafetyEvaluator checks the active medication set against the rule
// catalog: pairwise interactions, allergy conflicts, condition
// contraindications, and duplicate therapy.
type SafetyEvaluator struct {
	catalog *catalog.Catalog
	cfg     domain.EngineConfig
	logger  *logrus.Logger
}

// NewSafetyEvaluator creates a safety evaluator bound to a validated catalog.
func NewSafetyEvaluator(cat *catalog.Catalog, cfg domain.EngineConfig, logger *logrus.Logger) *SafetyEvaluator {
	return &SafetyEvaluator{catalog: cat, cfg: cfg, logger: logger}
}

// activeDrug aggregates the active periods of one drug.
type activeDrug struct {
	name       string
	classes    []string
	known      bool
	confidence float64
	periods    []domain.MedicationPeriod
	overlap    bool
}

// Evaluate runs every check against the active set. Findings come back
// ordered by severity descending, then entity names; diagnostics report
// catalog gaps for unknown drugs.
func (e *SafetyEvaluator) Evaluate(active []domain.MedicationPeriod, patient *domain.PatientContext) ([]domain.Finding, []domain.Diagnostic) {
	drugs, diagnostics := e.collectActive(active)

	var findings []domain.Finding
	findings = append(findings, e.checkInteractions(drugs)...)
	findings = append(findings, e.checkAllergies(drugs, patient.Allergies)...)
	findings = append(findings, e.checkContraindications(drugs, patient.ChronicConditions)...)
	findings = append(findings, e.checkDuplicateTherapy(drugs)...)

	findings = dedupeFindings(findings)
	sortFindings(findings)

	e.logger.WithFields(logrus.Fields{
		"active_drugs": len(drugs),
		"findings":     len(findings),
	}).Debug("Safety evaluation complete")

	return findings, diagnostics
}

func (e *SafetyEvaluator) collectActive(active []domain.MedicationPeriod) ([]*activeDrug, []domain.Diagnostic) {
	byName := make(map[string]*activeDrug)
	var names []string
	for _, p := range active {
		drug, ok := byName[p.Drug]
		if !ok {
			classes, known := e.catalog.ClassesOf(p.Drug)
			drug = &activeDrug{name: p.Drug, classes: classes, known: known, confidence: p.Confidence}
			byName[p.Drug] = drug
			names = append(names, p.Drug)
		}
		drug.confidence = minFloat(drug.confidence, p.Confidence)
		drug.periods = append(drug.periods, p)
		if p.Overlap {
			drug.overlap = true
		}
	}
	sort.Strings(names)

	var diagnostics []domain.Diagnostic
	drugs := make([]*activeDrug, 0, len(names))
	for _, name := range names {
		drug := byName[name]
		drugs = append(drugs, drug)
		if !drug.known {
			diagnostics = append(diagnostics, domain.Diagnostic{
				Type:    domain.DIAG_CATALOG_GAP,
				Drug:    name,
				Message: "drug " + name + " has no class membership in the catalog; class-level checks skipped",
			})
		}
	}
	return drugs, diagnostics
}

// checkInteractions runs exact pair lookup first; class pairs apply when no
// exact rule matches, or attach as supporting evidence when one does.
func (e *SafetyEvaluator) checkInteractions(drugs []*activeDrug) []domain.Finding {
	var findings []domain.Finding
	for i := 0; i < len(drugs); i++ {
		for j := i + 1; j < len(drugs); j++ {
			a, b := drugs[i], drugs[j]
			pairConfidence := minFloat(a.confidence, b.confidence)

			classRule := e.bestClassRule(a, b)

			if rule, ok := e.catalog.Interaction(a.name, b.name); ok {
				f := domain.Finding{
					Type:       domain.FINDING_DRUG_INTERACTION,
					Severity:   rule.Severity,
					Drugs:      sortedPair(a.name, b.name),
					RuleID:     rule.RuleID,
					Confidence: pairConfidence * e.cfg.ExactRuleConfidence,
				}
				f.Rationale = &domain.Rationale{
					RuleID:     rule.RuleID,
					Mechanism:  rule.Mechanism,
					Management: rule.Management,
				}
				if classRule != nil {
					f.Rationale.SupportingRule = classRule.RuleID
				}
				findings = append(findings, f)
				continue
			}

			if classRule != nil {
				findings = append(findings, domain.Finding{
					Type:       domain.FINDING_CLASS_INTERACTION,
					Severity:   classRule.Severity,
					Drugs:      sortedPair(a.name, b.name),
					DrugClass:  classRule.ClassA + "/" + classRule.ClassB,
					RuleID:     classRule.RuleID,
					Confidence: pairConfidence * e.cfg.ClassRuleConfidence,
					Rationale: &domain.Rationale{
						RuleID:     classRule.RuleID,
						Mechanism:  classRule.Mechanism,
						Management: classRule.Management,
					},
				})
			}
		}
	}
	return findings
}

// bestClassRule checks every class pair between two drugs and returns the
// worst-severity match, tie-broken by rule ID for determinism.
func (e *SafetyEvaluator) bestClassRule(a, b *activeDrug) *catalog.ClassInteractionRule {
	var best *catalog.ClassInteractionRule
	for _, ca := range a.classes {
		for _, cb := range b.classes {
			rule, ok := e.catalog.ClassInteraction(ca, cb)
			if !ok {
				continue
			}
			if best == nil ||
				rule.Severity.Rank() > best.Severity.Rank() ||
				(rule.Severity.Rank() == best.Severity.Rank() && rule.RuleID < best.RuleID) {
				best = rule
			}
		}
	}
	return best
}

// checkAllergies flags active drugs that match a recorded allergen directly
// or through catalog cross-reactivity. Direct matches are contraindicated;
// only a catalog rule may lower the cross-reactive severity.
func (e *SafetyEvaluator) checkAllergies(drugs []*activeDrug, allergies []string) []domain.Finding {
	var findings []domain.Finding
	for _, allergen := range allergies {
		allergenKey := domain.NormalizeDrugName(allergen)
		if allergenKey == "" {
			continue
		}
		rule, hasRule := e.catalog.Allergy(allergenKey)

		for _, drug := range drugs {
			severity, matched := matchAllergy(drug, allergenKey, rule, hasRule)
			if !matched {
				continue
			}
			ruleConfidence := e.cfg.ExactRuleConfidence
			if severity != domain.SEVERITY_CONTRAINDICATED {
				ruleConfidence = e.cfg.ClassRuleConfidence
			}
			f := domain.Finding{
				Type:       domain.FINDING_ALLERGY_CONFLICT,
				Severity:   severity,
				Drugs:      []string{drug.name},
				Allergen:   allergenKey,
				Confidence: drug.confidence * ruleConfidence,
			}
			if hasRule {
				f.RuleID = rule.RuleID
				f.Rationale = &domain.Rationale{
					RuleID:       rule.RuleID,
					Alternatives: append([]string(nil), rule.Alternatives...),
				}
			} else {
				f.RuleID = "ALG-DIRECT"
				f.Rationale = &domain.Rationale{RuleID: "ALG-DIRECT"}
			}
			findings = append(findings, f)
		}
	}
	return findings
}

// matchAllergy reports whether a drug violates an allergen and at what
// severity. An unlisted allergen still matches its own drug name.
func matchAllergy(drug *activeDrug, allergenKey string, rule *catalog.AllergyRule, hasRule bool) (domain.Severity, bool) {
	if drug.name == allergenKey {
		return domain.SEVERITY_CONTRAINDICATED, true
	}
	if !hasRule {
		return "", false
	}
	for _, d := range rule.MatchDrugs {
		if domain.NormalizeDrugName(d) == drug.name {
			return domain.SEVERITY_CONTRAINDICATED, true
		}
	}
	classSet := make(map[string]bool, len(drug.classes))
	for _, cls := range drug.classes {
		classSet[cls] = true
	}
	for _, cls := range rule.MatchClasses {
		if classSet[domain.NormalizeDrugName(cls)] {
			return domain.SEVERITY_CONTRAINDICATED, true
		}
	}
	for _, cls := range rule.CrossReactiveClasses {
		if classSet[domain.NormalizeDrugName(cls)] {
			severity := rule.CrossSeverity
			if severity == "" {
				severity = domain.SEVERITY_CONTRAINDICATED
			}
			return severity, true
		}
	}
	return "", false
}

func (e *SafetyEvaluator) checkContraindications(drugs []*activeDrug, conditions []string) []domain.Finding {
	var findings []domain.Finding
	for _, condition := range conditions {
		for _, drug := range drugs {
			for _, rule := range e.catalog.Contraindications(drug.name, drug.classes, condition) {
				ruleConfidence := e.cfg.ExactRuleConfidence
				if rule.TargetIsClass {
					ruleConfidence = e.cfg.ClassRuleConfidence
				}
				findings = append(findings, domain.Finding{
					Type:       domain.FINDING_CONTRAINDICATION,
					Severity:   rule.Level.Severity(),
					Drugs:      []string{drug.name},
					Condition:  domain.NormalizeDrugName(condition),
					RuleID:     rule.RuleID,
					Confidence: drug.confidence * ruleConfidence,
					Rationale: &domain.Rationale{
						RuleID:     rule.RuleID,
						Mechanism:  rule.Mechanism,
						Management: rule.Management,
					},
				})
			}
		}
	}
	return findings
}

// checkDuplicateTherapy flags same-class stacking and same-generic overlap.
func (e *SafetyEvaluator) checkDuplicateTherapy(drugs []*activeDrug) []domain.Finding {
	byClass := make(map[string][]*activeDrug)
	var classes []string
	for _, drug := range drugs {
		for _, cls := range drug.classes {
			if _, seen := byClass[cls]; !seen {
				classes = append(classes, cls)
			}
			byClass[cls] = append(byClass[cls], drug)
		}
	}
	sort.Strings(classes)

	var findings []domain.Finding
	for _, cls := range classes {
		members := byClass[cls]
		if len(members) < 2 {
			continue
		}
		if allAllowed(e.catalog, cls, members) {
			continue
		}
		names := make([]string, 0, len(members))
		confidence := 1.0
		for _, m := range members {
			names = append(names, m.name)
			confidence = minFloat(confidence, m.confidence)
		}
		findings = append(findings, domain.Finding{
			Type:       domain.FINDING_DUPLICATE_THERAPY,
			Severity:   domain.SEVERITY_MODERATE,
			Drugs:      names,
			DrugClass:  cls,
			RuleID:     "DUP-" + strings.ToUpper(cls),
			Confidence: confidence * e.cfg.ClassRuleConfidence,
			Rationale: &domain.Rationale{
				RuleID:     "DUP-" + strings.ToUpper(cls),
				Mechanism:  "Multiple active drugs share the " + cls + " class",
				Management: "Confirm the combination is intentional; review for additive effects.",
			},
		})
	}

	// The same generic running under two regimens at once.
	for _, drug := range drugs {
		if !drug.overlap {
			continue
		}
		findings = append(findings, domain.Finding{
			Type:       domain.FINDING_DUPLICATE_THERAPY,
			Severity:   domain.SEVERITY_MODERATE,
			Drugs:      []string{drug.name},
			RuleID:     "DUP-OVERLAP",
			Confidence: drug.confidence * e.cfg.ExactRuleConfidence,
			Rationale: &domain.Rationale{
				RuleID:     "DUP-OVERLAP",
				Mechanism:  "Overlapping periods of " + drug.name + " with different regimens",
				Management: "Verify which prescription is current and discontinue the other.",
			},
		})
	}

	return findings
}

// allAllowed reports whether every pair of class members is exempt from
// duplicate-therapy findings.
func allAllowed(cat *catalog.Catalog, cls string, members []*activeDrug) bool {
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			if !cat.IsAllowedCombination(members[i].name, members[j].name, cls) {
				return false
			}
		}
	}
	return true
}

func sortedPair(a, b string) []string {
	if a > b {
		a, b = b, a
	}
	return []string{a, b}
}

func dedupeFindings(findings []domain.Finding) []domain.Finding {
	seen := make(map[string]bool, len(findings))
	out := findings[:0]
	for _, f := range findings {
		key := f.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

func sortFindings(findings []domain.Finding) {
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Severity.Rank() != findings[j].Severity.Rank() {
			return findings[i].Severity.Rank() > findings[j].Severity.Rank()
		}
		a := strings.Join(findings[i].Drugs, ",")
		b := strings.Join(findings[j].Drugs, ",")
		if a != b {
			return a < b
		}
		if findings[i].Type != findings[j].Type {
			return findings[i].Type < findings[j].Type
		}
		return findings[i].RuleID < findings[j].RuleID
	})
}
