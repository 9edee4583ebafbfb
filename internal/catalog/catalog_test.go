package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rx-timeline-engine/internal/domain"
)

func minimalDocument() *Document {
	return &Document{
		Version: "test-1",
		Memberships: map[string][]string{
			"warfarin":  {"anticoagulant"},
			"aspirin":   {"nsaid", "antiplatelet"},
			"ibuprofen": {"nsaid"},
		},
		Interactions: []InteractionRule{
			{RuleID: "DDI-1", DrugA: "warfarin", DrugB: "aspirin", Severity: domain.SEVERITY_MAJOR},
		},
		ClassInteractions: []ClassInteractionRule{
			{RuleID: "CLS-1", ClassA: "nsaid", ClassB: "anticoagulant", Severity: domain.SEVERITY_MAJOR},
		},
		Contraindications: []Contraindication{
			{RuleID: "CI-1", Target: "nsaid", TargetIsClass: true, Condition: "renal_impairment", Level: LEVEL_USE_CAUTION},
			{RuleID: "CI-2", Target: "warfarin", Condition: "pregnancy", Level: LEVEL_CONTRAINDICATED},
		},
		Allergies: []AllergyRule{
			{RuleID: "ALG-1", Allergen: "aspirin", MatchDrugs: []string{"aspirin"},
				CrossReactiveClasses: []string{"nsaid"}, CrossSeverity: domain.SEVERITY_MAJOR},
		},
	}
}

func TestNewValidCatalog(t *testing.T) {
	cat, err := New(minimalDocument())
	require.NoError(t, err)
	require.NotNil(t, cat)
	assert.Equal(t, "test-1", cat.Version())
}

func TestNewRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Document)
	}{
		{"missing version", func(d *Document) { d.Version = "" }},
		{"empty drug name", func(d *Document) { d.Memberships["  "] = []string{"nsaid"} }},
		{"drug with no classes", func(d *Document) { d.Memberships["naproxen"] = nil }},
		{"interaction with empty member", func(d *Document) {
			d.Interactions = append(d.Interactions, InteractionRule{RuleID: "DDI-X", DrugA: "warfarin", Severity: domain.SEVERITY_MAJOR})
		}},
		{"interaction with bad severity", func(d *Document) {
			d.Interactions = append(d.Interactions, InteractionRule{RuleID: "DDI-X", DrugA: "a", DrugB: "b", Severity: "severe"})
		}},
		{"duplicate pair rule", func(d *Document) {
			d.Interactions = append(d.Interactions, InteractionRule{RuleID: "DDI-X", DrugA: "aspirin", DrugB: "warfarin", Severity: domain.SEVERITY_MINOR})
		}},
		{"class rule with no members", func(d *Document) {
			d.ClassInteractions = append(d.ClassInteractions, ClassInteractionRule{RuleID: "CLS-X", ClassA: "nsaid", ClassB: "opioid", Severity: domain.SEVERITY_MAJOR})
		}},
		{"contraindication missing condition", func(d *Document) {
			d.Contraindications = append(d.Contraindications, Contraindication{RuleID: "CI-X", Target: "warfarin", Level: LEVEL_USE_CAUTION})
		}},
		{"contraindication bad level", func(d *Document) {
			d.Contraindications = append(d.Contraindications, Contraindication{RuleID: "CI-X", Target: "warfarin", Condition: "pregnancy", Level: "banned"})
		}},
		{"allergy missing allergen", func(d *Document) {
			d.Allergies = append(d.Allergies, AllergyRule{RuleID: "ALG-X"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := minimalDocument()
			tt.mutate(doc)
			_, err := New(doc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrCatalogInvalid), "expected ErrCatalogInvalid, got %v", err)
		})
	}
}

func TestInteractionLookupIsSymmetric(t *testing.T) {
	cat, err := New(minimalDocument())
	require.NoError(t, err)

	ab, okAB := cat.Interaction("warfarin", "aspirin")
	ba, okBA := cat.Interaction("aspirin", "warfarin")
	require.True(t, okAB)
	require.True(t, okBA)
	assert.Equal(t, ab.RuleID, ba.RuleID)

	// Lookup normalizes names.
	norm, ok := cat.Interaction("  Warfarin ", "ASPIRIN")
	require.True(t, ok)
	assert.Equal(t, "DDI-1", norm.RuleID)

	_, ok = cat.Interaction("warfarin", "ibuprofen")
	assert.False(t, ok)
}

func TestClassInteractionLookupIsSymmetric(t *testing.T) {
	cat, err := New(minimalDocument())
	require.NoError(t, err)

	rule, ok := cat.ClassInteraction("anticoagulant", "nsaid")
	require.True(t, ok)
	assert.Equal(t, "CLS-1", rule.RuleID)
}

func TestContraindicationsMatchDrugAndClass(t *testing.T) {
	cat, err := New(minimalDocument())
	require.NoError(t, err)

	byClass := cat.Contraindications("ibuprofen", []string{"nsaid"}, "renal_impairment")
	require.Len(t, byClass, 1)
	assert.Equal(t, "CI-1", byClass[0].RuleID)

	byDrug := cat.Contraindications("warfarin", []string{"anticoagulant"}, "pregnancy")
	require.Len(t, byDrug, 1)
	assert.Equal(t, "CI-2", byDrug[0].RuleID)

	assert.Empty(t, cat.Contraindications("warfarin", []string{"anticoagulant"}, "renal_impairment"))
	assert.Empty(t, cat.Contraindications("ibuprofen", []string{"nsaid"}, "asthma"))
}

func TestContraLevelSeverityMapping(t *testing.T) {
	assert.Equal(t, domain.SEVERITY_CONTRAINDICATED, LEVEL_CONTRAINDICATED.Severity())
	assert.Equal(t, domain.SEVERITY_MODERATE, LEVEL_USE_CAUTION.Severity())
	assert.Equal(t, domain.SEVERITY_MINOR, LEVEL_DOSE_ADJUSTMENT.Severity())
}

func TestIsAllowedCombination(t *testing.T) {
	doc := minimalDocument()
	doc.Allowlist = Allowlist{
		Classes:   []string{"supplement"},
		DrugPairs: [][2]string{{"aspirin", "clopidogrel"}},
	}
	doc.Memberships["clopidogrel"] = []string{"antiplatelet"}
	cat, err := New(doc)
	require.NoError(t, err)

	assert.True(t, cat.IsAllowedCombination("calcium", "cholecalciferol", "supplement"))
	assert.True(t, cat.IsAllowedCombination("clopidogrel", "aspirin", "antiplatelet"))
	assert.False(t, cat.IsAllowedCombination("aspirin", "ibuprofen", "nsaid"))
}

func TestBuiltinCatalogLoads(t *testing.T) {
	cat, err := Builtin()
	require.NoError(t, err)
	assert.Equal(t, BuiltinVersion, cat.Version())

	stats := cat.Stats()
	assert.Greater(t, stats["drugs"], 50)
	assert.Greater(t, stats["interactions"], 20)
	assert.Greater(t, stats["class_interactions"], 5)

	// Spot checks against the compiled-in rules.
	warfAsa, ok := cat.Interaction("warfarin", "aspirin")
	require.True(t, ok)
	assert.Equal(t, domain.SEVERITY_MAJOR, warfAsa.Severity)

	sil, ok := cat.Interaction("sildenafil", "isosorbide")
	require.True(t, ok)
	assert.Equal(t, domain.SEVERITY_CONTRAINDICATED, sil.Severity)

	classes, known := cat.ClassesOf("amoxicillin")
	require.True(t, known)
	assert.Contains(t, classes, "penicillin")

	pen, ok := cat.Allergy("penicillin")
	require.True(t, ok)
	assert.Contains(t, pen.CrossReactiveClasses, "cephalosporin")
	assert.Equal(t, domain.SEVERITY_MAJOR, pen.CrossSeverity)
}

func TestDescribePair(t *testing.T) {
	assert.Equal(t, "aspirin + warfarin", DescribePair("Warfarin", "aspirin"))
}
