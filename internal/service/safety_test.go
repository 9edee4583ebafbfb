package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rx-timeline-engine/internal/catalog"
	"github.com/rx-timeline-engine/internal/domain"
)

func newSafetyEvaluator(t *testing.T) *SafetyEvaluator {
	t.Helper()
	cat, err := catalog.Builtin()
	require.NoError(t, err)
	return NewSafetyEvaluator(cat, testEngineConfig(), testLogger())
}

func activePeriod(drug string, confidence float64) domain.MedicationPeriod {
	return domain.MedicationPeriod{
		Drug:         drug,
		Start:        day(2025, 1, 1),
		LastObserved: day(2025, 2, 1),
		DoseValue:    10,
		DoseUnit:     "mg",
		Frequency:    domain.FREQ_ONCE_DAILY,
		Confidence:   confidence,
	}
}

func findingsOfType(findings []domain.Finding, kind domain.FindingType) []domain.Finding {
	var out []domain.Finding
	for _, f := range findings {
		if f.Type == kind {
			out = append(out, f)
		}
	}
	return out
}

func TestEvaluateExactInteractionWinsOverClass(t *testing.T) {
	evaluator := newSafetyEvaluator(t)

	findings, diags := evaluator.Evaluate([]domain.MedicationPeriod{
		activePeriod("warfarin", 0.9),
		activePeriod("aspirin", 0.8),
	}, &domain.PatientContext{PatientID: "p1"})

	require.Empty(t, diags)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, domain.FINDING_DRUG_INTERACTION, f.Type)
	assert.Equal(t, domain.SEVERITY_MAJOR, f.Severity)
	assert.Equal(t, []string{"aspirin", "warfarin"}, f.Drugs)
	assert.Equal(t, "DDI-WARF-ASA", f.RuleID)
	assert.InDelta(t, 0.8*0.95, f.Confidence, 1e-9)

	// The class rule that also matched rides along as supporting evidence.
	require.NotNil(t, f.Rationale)
	assert.Equal(t, "CLS-NSAID-ANTICOAG", f.Rationale.SupportingRule)
}

func TestEvaluateClassInteractionFallback(t *testing.T) {
	evaluator := newSafetyEvaluator(t)

	findings, _ := evaluator.Evaluate([]domain.MedicationPeriod{
		activePeriod("ibuprofen", 0.9),
		activePeriod("rivaroxaban", 0.9),
	}, &domain.PatientContext{PatientID: "p1"})

	class := findingsOfType(findings, domain.FINDING_CLASS_INTERACTION)
	require.Len(t, class, 1)

	f := class[0]
	assert.Equal(t, domain.SEVERITY_MAJOR, f.Severity)
	assert.Equal(t, "CLS-NSAID-ANTICOAG", f.RuleID)
	assert.Equal(t, "nsaid/anticoagulant", f.DrugClass)
	assert.InDelta(t, 0.9*0.75, f.Confidence, 1e-9, "class rules carry lower rule confidence")
}

func TestEvaluateAllergyDirectAndCrossReactive(t *testing.T) {
	evaluator := newSafetyEvaluator(t)

	findings, _ := evaluator.Evaluate([]domain.MedicationPeriod{
		activePeriod("amoxicillin", 0.9),
		activePeriod("ceftriaxone", 0.9),
	}, &domain.PatientContext{
		PatientID: "p1",
		Allergies: []string{"Penicillin"},
	})

	allergy := findingsOfType(findings, domain.FINDING_ALLERGY_CONFLICT)
	require.Len(t, allergy, 2)

	// Severity-descending order puts the penicillin-class hit first.
	direct := allergy[0]
	assert.Equal(t, domain.SEVERITY_CONTRAINDICATED, direct.Severity)
	assert.Equal(t, []string{"amoxicillin"}, direct.Drugs)
	assert.Equal(t, "penicillin", direct.Allergen)
	assert.Equal(t, "ALG-PENICILLIN", direct.RuleID)
	require.NotNil(t, direct.Rationale)
	assert.Contains(t, direct.Rationale.Alternatives, "azithromycin")

	// Cephalosporins cross-react at the catalog's lowered severity.
	cross := allergy[1]
	assert.Equal(t, domain.SEVERITY_MAJOR, cross.Severity)
	assert.Equal(t, []string{"ceftriaxone"}, cross.Drugs)
	assert.InDelta(t, 0.9*0.75, cross.Confidence, 1e-9)
}

func TestEvaluateAllergyUnlistedAllergenMatchesOwnDrug(t *testing.T) {
	evaluator := newSafetyEvaluator(t)

	findings, _ := evaluator.Evaluate([]domain.MedicationPeriod{
		activePeriod("metoprolol", 0.9),
	}, &domain.PatientContext{
		PatientID: "p1",
		Allergies: []string{"Metoprolol"},
	})

	allergy := findingsOfType(findings, domain.FINDING_ALLERGY_CONFLICT)
	require.Len(t, allergy, 1)
	assert.Equal(t, domain.SEVERITY_CONTRAINDICATED, allergy[0].Severity)
	assert.Equal(t, "ALG-DIRECT", allergy[0].RuleID)
}

func TestEvaluateContraindicationByCondition(t *testing.T) {
	evaluator := newSafetyEvaluator(t)

	findings, _ := evaluator.Evaluate([]domain.MedicationPeriod{
		activePeriod("metformin", 0.9),
	}, &domain.PatientContext{
		PatientID:         "p1",
		ChronicConditions: []string{"renal_impairment"},
	})

	contra := findingsOfType(findings, domain.FINDING_CONTRAINDICATION)
	require.Len(t, contra, 1)

	f := contra[0]
	assert.Equal(t, domain.SEVERITY_CONTRAINDICATED, f.Severity)
	assert.Equal(t, "CI-RENAL-METF", f.RuleID)
	assert.Equal(t, "renal_impairment", f.Condition)
	assert.InDelta(t, 0.9*0.95, f.Confidence, 1e-9)
}

func TestEvaluateClassContraindicationUsesClassConfidence(t *testing.T) {
	evaluator := newSafetyEvaluator(t)

	findings, _ := evaluator.Evaluate([]domain.MedicationPeriod{
		activePeriod("naproxen", 0.9),
	}, &domain.PatientContext{
		PatientID:         "p1",
		ChronicConditions: []string{"renal_impairment"},
	})

	contra := findingsOfType(findings, domain.FINDING_CONTRAINDICATION)
	require.Len(t, contra, 1)
	assert.Equal(t, "CI-RENAL-NSAID", contra[0].RuleID)
	assert.Equal(t, domain.SEVERITY_MODERATE, contra[0].Severity)
	assert.InDelta(t, 0.9*0.75, contra[0].Confidence, 1e-9)
}

func TestEvaluateDuplicateTherapyPerSharedClass(t *testing.T) {
	evaluator := newSafetyEvaluator(t)

	findings, _ := evaluator.Evaluate([]domain.MedicationPeriod{
		activePeriod("ibuprofen", 0.9),
		activePeriod("naproxen", 0.8),
	}, &domain.PatientContext{PatientID: "p1"})

	dup := findingsOfType(findings, domain.FINDING_DUPLICATE_THERAPY)
	require.Len(t, dup, 2, "one finding per shared class")
	assert.Equal(t, "DUP-NSAID", dup[0].RuleID)
	assert.Equal(t, "DUP-PAIN_RELIEVER", dup[1].RuleID)
	for _, f := range dup {
		assert.Equal(t, domain.SEVERITY_MODERATE, f.Severity)
		assert.Equal(t, []string{"ibuprofen", "naproxen"}, f.Drugs)
		assert.InDelta(t, 0.8*0.75, f.Confidence, 1e-9)
	}
}

func TestEvaluateAllowlistedCombinationIsClean(t *testing.T) {
	evaluator := newSafetyEvaluator(t)

	findings, diags := evaluator.Evaluate([]domain.MedicationPeriod{
		activePeriod("aspirin", 0.9),
		activePeriod("clopidogrel", 0.9),
	}, &domain.PatientContext{PatientID: "p1"})

	assert.Empty(t, diags)
	assert.Empty(t, findings, "dual antiplatelet therapy is an allowed combination")
}

func TestEvaluateOverlappingRegimenFlagged(t *testing.T) {
	evaluator := newSafetyEvaluator(t)

	first := activePeriod("warfarin", 0.9)
	first.Overlap = true
	second := activePeriod("warfarin", 0.85)
	second.Overlap = true
	second.DoseValue = 7.5

	findings, _ := evaluator.Evaluate([]domain.MedicationPeriod{first, second},
		&domain.PatientContext{PatientID: "p1"})

	dup := findingsOfType(findings, domain.FINDING_DUPLICATE_THERAPY)
	require.Len(t, dup, 1)
	assert.Equal(t, "DUP-OVERLAP", dup[0].RuleID)
	assert.Equal(t, []string{"warfarin"}, dup[0].Drugs)
	assert.InDelta(t, 0.85*0.95, dup[0].Confidence, 1e-9)
}

func TestEvaluateUnknownDrugEmitsCatalogGap(t *testing.T) {
	evaluator := newSafetyEvaluator(t)

	findings, diags := evaluator.Evaluate([]domain.MedicationPeriod{
		activePeriod("examplamab", 0.9),
	}, &domain.PatientContext{PatientID: "p1"})

	assert.Empty(t, findings)
	require.Len(t, diags, 1)
	assert.Equal(t, domain.DIAG_CATALOG_GAP, diags[0].Type)
	assert.Equal(t, "examplamab", diags[0].Drug)
}

func TestEvaluateFindingsOrderedBySeverity(t *testing.T) {
	evaluator := newSafetyEvaluator(t)

	findings, _ := evaluator.Evaluate([]domain.MedicationPeriod{
		activePeriod("metformin", 0.9),
		activePeriod("warfarin", 0.9),
		activePeriod("aspirin", 0.9),
	}, &domain.PatientContext{
		PatientID:         "p1",
		ChronicConditions: []string{"renal_impairment"},
	})

	require.NotEmpty(t, findings)
	for i := 1; i < len(findings); i++ {
		assert.GreaterOrEqual(t, findings[i-1].Severity.Rank(), findings[i].Severity.Rank(),
			"findings must be severity-descending")
	}
	assert.Equal(t, domain.SEVERITY_CONTRAINDICATED, findings[0].Severity)
	assert.Equal(t, "CI-RENAL-METF", findings[0].RuleID)
}
