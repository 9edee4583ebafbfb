package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/rx-timeline-engine/internal/catalog"
	"github.com/rx-timeline-engine/internal/domain"
)

// Engine orchestrates the full reasoning pipeline. Evaluate is a pure
// function of its inputs plus the catalog and configuration: the same call
// always yields the same result regardless of record ordering.
type Engine struct {
	catalog   *catalog.Catalog
	cfg       domain.EngineConfig
	timeline  *TimelineBuilder
	changes   *ChangeDetector
	safety    *SafetyEvaluator
	composer  *EvidenceComposer
	projector *GraphProjector
	logger    *logrus.Logger
}

// NewEngine wires the pipeline stages to a validated catalog.
func NewEngine(cat *catalog.Catalog, cfg domain.EngineConfig, logger *logrus.Logger) *Engine {
	return &Engine{
		catalog:   cat,
		cfg:       cfg,
		timeline:  NewTimelineBuilder(cfg, logger),
		changes:   NewChangeDetector(cfg, logger),
		safety:    NewSafetyEvaluator(cat, cfg, logger),
		composer:  NewEvidenceComposer(cfg, logger),
		projector: NewGraphProjector(cat),
		logger:    logger,
	}
}

// Catalog exposes the engine's catalog for the API info endpoint.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Evaluate runs validation, timeline reconstruction, change detection,
// safety evaluation, evidence composition, and graph projection. Invalid
// records degrade to diagnostics; an invalid patient context is fatal.
func (e *Engine) Evaluate(ctx context.Context, req *domain.EvaluationRequest) (*domain.EvaluationResult, error) {
	if err := req.Patient.Validate(); err != nil {
		return nil, fmt.Errorf("evaluation rejected: %w", err)
	}

	log := e.logger.WithFields(logrus.Fields{
		"patient_hash": domain.PatientNodeID(req.Patient.PatientID),
		"records":      len(req.Records),
		"as_of":        req.Patient.AsOfDate.Format("2006-01-02"),
	})
	log.Info("Starting evaluation")

	valid, diagnostics := validateRecords(req.Records)

	// Canonical input order keeps the pipeline independent of the order
	// records arrived in.
	sort.Slice(valid, func(i, j int) bool {
		if valid[i].DrugKey() != valid[j].DrugKey() {
			return valid[i].DrugKey() < valid[j].DrugKey()
		}
		if !valid[i].ObservedDate.Equal(valid[j].ObservedDate) {
			return valid[i].ObservedDate.Before(valid[j].ObservedDate)
		}
		return valid[i].RecordID < valid[j].RecordID
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshot, timelineDiags := e.timeline.Build(valid, req.Patient.AsOfDate)
	diagnostics = append(diagnostics, timelineDiags...)

	e.changes.Detect(snapshot)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	findings, safetyDiags := e.safety.Evaluate(snapshot.Active, &req.Patient)
	diagnostics = append(diagnostics, safetyDiags...)

	headline, pending := e.composer.Compose(findings, snapshot, &req.Patient)

	sort.Slice(diagnostics, func(i, j int) bool {
		if diagnostics[i].Type != diagnostics[j].Type {
			return diagnostics[i].Type < diagnostics[j].Type
		}
		if diagnostics[i].RecordID != diagnostics[j].RecordID {
			return diagnostics[i].RecordID < diagnostics[j].RecordID
		}
		return diagnostics[i].Message < diagnostics[j].Message
	})

	result := &domain.EvaluationResult{
		Patient:        req.Patient.PatientID,
		AsOf:           req.Patient.AsOfDate,
		CatalogVersion: e.catalog.Version(),
		Snapshot:       snapshot,
		Findings:       headline,
		PendingReview:  pending,
		Diagnostics:    diagnostics,
	}
	if e.cfg.ProjectGraph {
		result.Graph = e.projector.Project(snapshot, &req.Patient, headline)
	}

	log.WithFields(logrus.Fields{
		"findings":       len(headline),
		"pending_review": len(pending),
		"diagnostics":    len(diagnostics),
		"max_severity":   result.HighestSeverity().String(),
	}).Info("Evaluation complete")

	return result, nil
}

// Timeline runs only the reconstruction stages: validation, period
// building, and change detection. The safety rules never fire, so the
// catalog is consulted only for its version string.
func (e *Engine) Timeline(ctx context.Context, req *domain.EvaluationRequest) (*domain.TimelineSnapshot, []domain.Diagnostic, error) {
	if err := req.Patient.Validate(); err != nil {
		return nil, nil, fmt.Errorf("timeline rejected: %w", err)
	}

	valid, diagnostics := validateRecords(req.Records)
	sort.Slice(valid, func(i, j int) bool {
		if valid[i].DrugKey() != valid[j].DrugKey() {
			return valid[i].DrugKey() < valid[j].DrugKey()
		}
		if !valid[i].ObservedDate.Equal(valid[j].ObservedDate) {
			return valid[i].ObservedDate.Before(valid[j].ObservedDate)
		}
		return valid[i].RecordID < valid[j].RecordID
	})

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	snapshot, timelineDiags := e.timeline.Build(valid, req.Patient.AsOfDate)
	diagnostics = append(diagnostics, timelineDiags...)
	e.changes.Detect(snapshot)

	return snapshot, diagnostics, nil
}

// validateRecords splits records into usable input and diagnostics.
func validateRecords(records []domain.MedicationRecord) ([]domain.MedicationRecord, []domain.Diagnostic) {
	valid := make([]domain.MedicationRecord, 0, len(records))
	var diagnostics []domain.Diagnostic
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			diagnostics = append(diagnostics, domain.Diagnostic{
				Type:     domain.DIAG_INVALID_RECORD,
				RecordID: rec.RecordID,
				Drug:     rec.DrugKey(),
				Message:  err.Error(),
			})
			continue
		}
		valid = append(valid, rec)
	}
	return valid, diagnostics
}
