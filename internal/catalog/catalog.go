// Package catalog implements the static drug-safety rule catalog: exact
// interaction pairs, class-level interactions, class membership, allergy
// cross-reactivity, condition contraindications, and the duplicate-therapy
// allowlist. The catalog is loaded once, validated, and read-only after that.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rx-timeline-engine/internal/domain"
)

// ContraLevel grades how strongly a drug is discouraged for a condition.
type ContraLevel string

const (
	LEVEL_CONTRAINDICATED ContraLevel = "contraindicated"
	LEVEL_USE_CAUTION     ContraLevel = "use_caution"
	LEVEL_DOSE_ADJUSTMENT ContraLevel = "dose_adjustment"
)

// IsValid validates the contraindication level.
func (l ContraLevel) IsValid() bool {
	switch l {
	case LEVEL_CONTRAINDICATED, LEVEL_USE_CAUTION, LEVEL_DOSE_ADJUSTMENT:
		return true
	default:
		return false
	}
}

// Severity maps the contraindication level onto finding severity.
func (l ContraLevel) Severity() domain.Severity {
	switch l {
	case LEVEL_CONTRAINDICATED:
		return domain.SEVERITY_CONTRAINDICATED
	case LEVEL_USE_CAUTION:
		return domain.SEVERITY_MODERATE
	default:
		return domain.SEVERITY_MINOR
	}
}

// InteractionRule is an exact drug-pair interaction. Pair lookup is
// symmetric; the stored order of DrugA/DrugB carries no meaning.
type InteractionRule struct {
	RuleID     string          `json:"rule_id"`
	DrugA      string          `json:"drug_a"`
	DrugB      string          `json:"drug_b"`
	Severity   domain.Severity `json:"severity"`
	Mechanism  string          `json:"mechanism"`
	Management string          `json:"management"`
}

// ClassInteractionRule is an interaction between two therapeutic classes,
// applied when no exact pair rule matches, or attached as supporting
// evidence when one does.
type ClassInteractionRule struct {
	RuleID     string          `json:"rule_id"`
	ClassA     string          `json:"class_a"`
	ClassB     string          `json:"class_b"`
	Severity   domain.Severity `json:"severity"`
	Mechanism  string          `json:"mechanism"`
	Management string          `json:"management"`
}

// Contraindication discourages a drug or a whole class for a condition.
type Contraindication struct {
	RuleID        string      `json:"rule_id"`
	Target        string      `json:"target"`
	TargetIsClass bool        `json:"target_is_class,omitempty"`
	Condition     string      `json:"condition"`
	Level         ContraLevel `json:"level"`
	Mechanism     string      `json:"mechanism,omitempty"`
	Management    string      `json:"management,omitempty"`
}

// AllergyRule maps a recorded allergen to the drugs and classes it forbids.
// CrossReactiveClasses carry a lowered severity when Severity is set below
// contraindicated (e.g. penicillin allergy vs. cephalosporins).
type AllergyRule struct {
	RuleID               string          `json:"rule_id"`
	Allergen             string          `json:"allergen"`
	MatchDrugs           []string        `json:"match_drugs,omitempty"`
	MatchClasses         []string        `json:"match_classes,omitempty"`
	CrossReactiveClasses []string        `json:"cross_reactive_classes,omitempty"`
	CrossSeverity        domain.Severity `json:"cross_severity,omitempty"`
	Alternatives         []string        `json:"alternatives,omitempty"`
}

// Allowlist exempts sanctioned combinations from duplicate-therapy findings.
// Classes lists whole classes that may stack (supplements); DrugPairs lists
// specific sanctioned pairs (dual antiplatelet therapy).
type Allowlist struct {
	Classes   []string    `json:"classes,omitempty"`
	DrugPairs [][2]string `json:"drug_pairs,omitempty"`
}

// Document is the serialized form of a catalog, as loaded from JSON.
type Document struct {
	Version           string                 `json:"version"`
	Memberships       map[string][]string    `json:"memberships"`
	Interactions      []InteractionRule      `json:"interactions"`
	ClassInteractions []ClassInteractionRule `json:"class_interactions"`
	Contraindications []Contraindication     `json:"contraindications"`
	Allergies         []AllergyRule          `json:"allergies"`
	Allowlist         Allowlist              `json:"allowlist"`
}

// Catalog is the validated, indexed rule catalog. All lookups are
// symmetric where pairs are involved and operate on normalized names.
type Catalog struct {
	version           string
	memberships       map[string][]string
	interactions      map[string]*InteractionRule
	classInteractions map[string]*ClassInteractionRule
	contraindications map[string][]*Contraindication
	allergies         map[string]*AllergyRule
	allowClasses      map[string]bool
	allowPairs        map[string]bool
}

// pairKey builds the canonical symmetric key for a pair of names.
func pairKey(a, b string) string {
	a, b = domain.NormalizeDrugName(a), domain.NormalizeDrugName(b)
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// New indexes and validates a catalog document. Any validation failure is
// fatal: a partially trusted catalog must never reach the evaluator.
func New(doc *Document) (*Catalog, error) {
	if doc.Version == "" {
		return nil, fmt.Errorf("catalog version is required: %w", domain.ErrCatalogInvalid)
	}

	c := &Catalog{
		version:           doc.Version,
		memberships:       make(map[string][]string, len(doc.Memberships)),
		interactions:      make(map[string]*InteractionRule, len(doc.Interactions)),
		classInteractions: make(map[string]*ClassInteractionRule, len(doc.ClassInteractions)),
		contraindications: make(map[string][]*Contraindication),
		allergies:         make(map[string]*AllergyRule, len(doc.Allergies)),
		allowClasses:      make(map[string]bool),
		allowPairs:        make(map[string]bool),
	}

	knownClasses := make(map[string]bool)
	for drug, classes := range doc.Memberships {
		key := domain.NormalizeDrugName(drug)
		if key == "" {
			return nil, fmt.Errorf("membership with empty drug name: %w", domain.ErrCatalogInvalid)
		}
		if len(classes) == 0 {
			return nil, fmt.Errorf("drug %q has no classes: %w", drug, domain.ErrCatalogInvalid)
		}
		normalized := make([]string, 0, len(classes))
		for _, cls := range classes {
			cls = domain.NormalizeDrugName(cls)
			if cls == "" {
				return nil, fmt.Errorf("drug %q has an empty class name: %w", drug, domain.ErrCatalogInvalid)
			}
			knownClasses[cls] = true
			normalized = append(normalized, cls)
		}
		sort.Strings(normalized)
		c.memberships[key] = normalized
	}

	for i := range doc.Interactions {
		rule := doc.Interactions[i]
		if err := validatePairRule(rule.RuleID, rule.DrugA, rule.DrugB, rule.Severity); err != nil {
			return nil, err
		}
		key := pairKey(rule.DrugA, rule.DrugB)
		if _, dup := c.interactions[key]; dup {
			return nil, fmt.Errorf("duplicate interaction rule for pair %s: %w", key, domain.ErrCatalogInvalid)
		}
		c.interactions[key] = &rule
	}

	for i := range doc.ClassInteractions {
		rule := doc.ClassInteractions[i]
		if err := validatePairRule(rule.RuleID, rule.ClassA, rule.ClassB, rule.Severity); err != nil {
			return nil, err
		}
		for _, cls := range []string{rule.ClassA, rule.ClassB} {
			if !knownClasses[domain.NormalizeDrugName(cls)] {
				return nil, fmt.Errorf("class interaction %s references class %q with no members: %w", rule.RuleID, cls, domain.ErrCatalogInvalid)
			}
		}
		key := pairKey(rule.ClassA, rule.ClassB)
		if _, dup := c.classInteractions[key]; dup {
			return nil, fmt.Errorf("duplicate class interaction rule for pair %s: %w", key, domain.ErrCatalogInvalid)
		}
		c.classInteractions[key] = &rule
	}

	for i := range doc.Contraindications {
		rule := doc.Contraindications[i]
		if rule.Target == "" || rule.Condition == "" {
			return nil, fmt.Errorf("contraindication %s missing target or condition: %w", rule.RuleID, domain.ErrCatalogInvalid)
		}
		if !rule.Level.IsValid() {
			return nil, fmt.Errorf("contraindication %s has invalid level %q: %w", rule.RuleID, rule.Level, domain.ErrCatalogInvalid)
		}
		if rule.TargetIsClass && !knownClasses[domain.NormalizeDrugName(rule.Target)] {
			return nil, fmt.Errorf("contraindication %s references class %q with no members: %w", rule.RuleID, rule.Target, domain.ErrCatalogInvalid)
		}
		cond := domain.NormalizeDrugName(rule.Condition)
		c.contraindications[cond] = append(c.contraindications[cond], &rule)
	}

	for i := range doc.Allergies {
		rule := doc.Allergies[i]
		if rule.Allergen == "" {
			return nil, fmt.Errorf("allergy rule %s missing allergen: %w", rule.RuleID, domain.ErrCatalogInvalid)
		}
		if rule.CrossSeverity != "" && !rule.CrossSeverity.IsValid() {
			return nil, fmt.Errorf("allergy rule %s has invalid cross severity %q: %w", rule.RuleID, rule.CrossSeverity, domain.ErrCatalogInvalid)
		}
		c.allergies[domain.NormalizeDrugName(rule.Allergen)] = &rule
	}

	for _, cls := range doc.Allowlist.Classes {
		c.allowClasses[domain.NormalizeDrugName(cls)] = true
	}
	for _, pair := range doc.Allowlist.DrugPairs {
		c.allowPairs[pairKey(pair[0], pair[1])] = true
	}

	return c, nil
}

func validatePairRule(ruleID, a, b string, severity domain.Severity) error {
	if domain.NormalizeDrugName(a) == "" || domain.NormalizeDrugName(b) == "" {
		return fmt.Errorf("rule %s has an empty pair member: %w", ruleID, domain.ErrCatalogInvalid)
	}
	if !severity.IsValid() {
		return fmt.Errorf("rule %s has invalid severity %q: %w", ruleID, severity, domain.ErrCatalogInvalid)
	}
	return nil
}

// Version returns the catalog version string.
func (c *Catalog) Version() string {
	return c.version
}

// ClassesOf returns the therapeutic classes of a drug and whether the drug
// is known to the catalog at all. An unknown drug is a catalog gap, not an
// error.
func (c *Catalog) ClassesOf(drug string) ([]string, bool) {
	classes, ok := c.memberships[domain.NormalizeDrugName(drug)]
	return classes, ok
}

// Interaction looks up the exact pair rule for two drugs, symmetrically.
func (c *Catalog) Interaction(a, b string) (*InteractionRule, bool) {
	rule, ok := c.interactions[pairKey(a, b)]
	return rule, ok
}

// ClassInteraction looks up the class pair rule, symmetrically.
func (c *Catalog) ClassInteraction(classA, classB string) (*ClassInteractionRule, bool) {
	rule, ok := c.classInteractions[pairKey(classA, classB)]
	return rule, ok
}

// Contraindications returns the rules matching a drug (directly or through
// any of its classes) against one condition, in stable rule-ID order.
func (c *Catalog) Contraindications(drug string, classes []string, condition string) []*Contraindication {
	rules := c.contraindications[domain.NormalizeDrugName(condition)]
	if len(rules) == 0 {
		return nil
	}
	classSet := make(map[string]bool, len(classes))
	for _, cls := range classes {
		classSet[domain.NormalizeDrugName(cls)] = true
	}
	drugKey := domain.NormalizeDrugName(drug)

	var matched []*Contraindication
	for _, rule := range rules {
		target := domain.NormalizeDrugName(rule.Target)
		if rule.TargetIsClass {
			if classSet[target] {
				matched = append(matched, rule)
			}
		} else if target == drugKey {
			matched = append(matched, rule)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].RuleID < matched[j].RuleID })
	return matched
}

// Allergy returns the rule for a recorded allergen, if any.
func (c *Catalog) Allergy(allergen string) (*AllergyRule, bool) {
	rule, ok := c.allergies[domain.NormalizeDrugName(allergen)]
	return rule, ok
}

// IsAllowedCombination reports whether two same-class drugs are exempt from
// duplicate-therapy findings, either through their shared class or as an
// explicitly sanctioned pair.
func (c *Catalog) IsAllowedCombination(drugA, drugB, sharedClass string) bool {
	if c.allowClasses[domain.NormalizeDrugName(sharedClass)] {
		return true
	}
	return c.allowPairs[pairKey(drugA, drugB)]
}

// Stats summarizes catalog contents for the info endpoint and logs.
func (c *Catalog) Stats() map[string]int {
	return map[string]int{
		"drugs":              len(c.memberships),
		"interactions":       len(c.interactions),
		"class_interactions": len(c.classInteractions),
		"contraindications":  countContra(c.contraindications),
		"allergy_rules":      len(c.allergies),
	}
}

func countContra(m map[string][]*Contraindication) int {
	n := 0
	for _, rules := range m {
		n += len(rules)
	}
	return n
}

// DescribePair renders a pair for rationale text in sorted order.
func DescribePair(a, b string) string {
	return strings.ReplaceAll(pairKey(a, b), "|", " + ")
}
