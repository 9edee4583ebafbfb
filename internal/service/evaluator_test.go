package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rx-timeline-engine/internal/catalog"
	"github.com/rx-timeline-engine/internal/domain"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	cat, err := catalog.Builtin()
	require.NoError(t, err)
	return NewEngine(cat, testEngineConfig(), testLogger())
}

func evaluationRequest(records ...domain.MedicationRecord) *domain.EvaluationRequest {
	return &domain.EvaluationRequest{
		Patient: domain.PatientContext{
			PatientID: "mrn-123",
			AsOfDate:  day(2025, 3, 1),
		},
		Records: records,
	}
}

func TestEvaluateEndToEnd(t *testing.T) {
	engine := newEngine(t)

	result, err := engine.Evaluate(context.Background(), evaluationRequest(
		record("r1", "warfarin", 5, domain.FREQ_ONCE_DAILY, day(2025, 1, 1)),
		record("r2", "aspirin", 75, domain.FREQ_ONCE_DAILY, day(2025, 1, 15)),
	))
	require.NoError(t, err)

	assert.Equal(t, "mrn-123", result.Patient)
	assert.Equal(t, catalog.BuiltinVersion, result.CatalogVersion)
	require.NotNil(t, result.Snapshot)
	assert.Len(t, result.Snapshot.Active, 2)

	require.Len(t, result.Findings, 1)
	f := result.Findings[0]
	assert.Equal(t, "DDI-WARF-ASA", f.RuleID)
	assert.InDelta(t, 0.9*0.95, f.Confidence, 1e-9)
	require.NotNil(t, f.Rationale)
	assert.NotEmpty(t, f.Rationale.Summary)
	assert.NotEmpty(t, f.Rationale.Facts)

	require.NotNil(t, result.Graph)
	assert.NotEmpty(t, result.Graph.Edges)
	assert.Equal(t, domain.SEVERITY_MAJOR, result.HighestSeverity())
}

func TestEvaluateIsOrderIndependent(t *testing.T) {
	engine := newEngine(t)

	records := []domain.MedicationRecord{
		record("r1", "metformin", 500, domain.FREQ_TWICE_DAILY, day(2025, 1, 15)),
		record("r2", "metformin", 1000, domain.FREQ_TWICE_DAILY, day(2025, 2, 15)),
		record("r3", "warfarin", 5, domain.FREQ_ONCE_DAILY, day(2025, 1, 1)),
		record("r4", "aspirin", 75, domain.FREQ_ONCE_DAILY, day(2025, 1, 10)),
	}
	reversed := []domain.MedicationRecord{records[3], records[2], records[1], records[0]}

	first, err := engine.Evaluate(context.Background(), evaluationRequest(records...))
	require.NoError(t, err)
	second, err := engine.Evaluate(context.Background(), evaluationRequest(reversed...))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	engine := newEngine(t)
	req := evaluationRequest(
		record("r1", "warfarin", 5, domain.FREQ_ONCE_DAILY, day(2025, 1, 1)),
	)

	first, err := engine.Evaluate(context.Background(), req)
	require.NoError(t, err)
	second, err := engine.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEvaluateInvalidPatientIsFatal(t *testing.T) {
	engine := newEngine(t)

	req := evaluationRequest()
	req.Patient = domain.PatientContext{PatientID: "mrn-123"}

	_, err := engine.Evaluate(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidPatient)
}

func TestEvaluateInvalidRecordDegradesToDiagnostic(t *testing.T) {
	engine := newEngine(t)

	bad := record("r2", "", 5, domain.FREQ_ONCE_DAILY, day(2025, 1, 1))
	result, err := engine.Evaluate(context.Background(), evaluationRequest(
		record("r1", "warfarin", 5, domain.FREQ_ONCE_DAILY, day(2025, 1, 1)),
		bad,
	))
	require.NoError(t, err)

	assert.Len(t, result.Snapshot.Active, 1)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, domain.DIAG_INVALID_RECORD, result.Diagnostics[0].Type)
	assert.Equal(t, "r2", result.Diagnostics[0].RecordID)
}

func TestEvaluateLowConfidenceRoutedToReview(t *testing.T) {
	engine := newEngine(t)

	warfarin := record("r1", "warfarin", 5, domain.FREQ_ONCE_DAILY, day(2025, 1, 1))
	warfarin.ExtractionConfidence = 0.4
	aspirin := record("r2", "aspirin", 75, domain.FREQ_ONCE_DAILY, day(2025, 1, 10))

	result, err := engine.Evaluate(context.Background(), evaluationRequest(warfarin, aspirin))
	require.NoError(t, err)

	// 0.4 extraction x 0.95 rule confidence lands just under the threshold.
	assert.Empty(t, result.Findings)
	require.Len(t, result.PendingReview, 1)
	assert.Equal(t, "DDI-WARF-ASA", result.PendingReview[0].RuleID)
	assert.InDelta(t, 0.38, result.PendingReview[0].Confidence, 1e-9)
}

func TestEvaluateHonorsContextCancellation(t *testing.T) {
	engine := newEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Evaluate(ctx, evaluationRequest(
		record("r1", "warfarin", 5, domain.FREQ_ONCE_DAILY, day(2025, 1, 1)),
	))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateGraphDisabled(t *testing.T) {
	cat, err := catalog.Builtin()
	require.NoError(t, err)
	cfg := testEngineConfig()
	cfg.ProjectGraph = false
	engine := NewEngine(cat, cfg, testLogger())

	result, err := engine.Evaluate(context.Background(), evaluationRequest(
		record("r1", "warfarin", 5, domain.FREQ_ONCE_DAILY, day(2025, 1, 1)),
	))
	require.NoError(t, err)
	assert.Nil(t, result.Graph)
}

func TestTimelineSkipsSafetyRules(t *testing.T) {
	engine := newEngine(t)
	req := evaluationRequest(
		record("r1", "warfarin", 5, domain.FREQ_ONCE_DAILY, day(2025, 1, 1)),
		record("r2", "aspirin", 75, domain.FREQ_ONCE_DAILY, day(2025, 1, 10)),
	)

	snapshot, diags, err := engine.Timeline(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, diags)

	// The interacting pair still reconstructs; no finding is raised.
	assert.Len(t, snapshot.Active, 2)
	assert.Len(t, snapshot.Changes, 2)
}

func TestTimelineInvalidPatientIsFatal(t *testing.T) {
	engine := newEngine(t)
	req := evaluationRequest()
	req.Patient.PatientID = ""

	_, _, err := engine.Timeline(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidPatient)
}
