package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rx-timeline-engine/internal/cache"
	"github.com/rx-timeline-engine/internal/domain"
	"github.com/rx-timeline-engine/internal/review"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"timestamp":       time.Now().UTC(),
		"catalog_version": s.engine.Catalog().Version(),
	})
}

// handleEvaluate runs the full reasoning pipeline for one patient. Cached
// results are reused when the request, catalog version, and engine tuning
// all match. Findings a reviewer has dismissed are suppressed from the
// response but still counted.
func (s *Server) handleEvaluate(c *gin.Context) {
	var req domain.EvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrCodeInvalidInput, "Malformed evaluation request", err.Error(), c.GetString("correlation_id")))
		return
	}

	result, cached, err := s.evaluate(c, &req)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, domain.NewAPIError(
			domain.ErrCodeEvaluation, "Evaluation failed", err.Error(), c.GetString("correlation_id")))
		return
	}

	suppressed := 0
	if s.reviews != nil {
		dismissed, derr := review.Dismissed(c.Request.Context(), s.reviews, req.Patient.PatientID)
		if derr != nil {
			s.logger.WithError(derr).Warn("Review lookup failed; returning unsuppressed findings")
		} else if len(dismissed) > 0 {
			result, suppressed = suppressDismissed(result, dismissed)
		}
	}

	if cached {
		c.Header("X-Cache", "hit")
	} else {
		c.Header("X-Cache", "miss")
	}
	c.JSON(http.StatusOK, gin.H{
		"result":              result,
		"suppressed_findings": suppressed,
	})
}

// evaluate consults the cache before running the engine. Cache failures
// never fail the request.
func (s *Server) evaluate(c *gin.Context, req *domain.EvaluationRequest) (*domain.EvaluationResult, bool, error) {
	ctx := c.Request.Context()
	engineCfg := s.configManager.GetEngineConfig()

	var key string
	if s.cache != nil {
		k, err := cache.Key(req, s.engine.Catalog().Version(), *engineCfg)
		if err == nil {
			key = k
			if result, ok := s.cache.Get(ctx, key); ok {
				return result, true, nil
			}
		} else {
			s.logger.WithError(err).Warn("Cache key derivation failed")
		}
	}

	result, err := s.engine.Evaluate(ctx, req)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil && key != "" {
		s.cache.Put(ctx, key, result)
	}
	return result, false, nil
}

// suppressDismissed returns a shallow copy of the result with dismissed
// findings removed. The cached original is never mutated.
func suppressDismissed(result *domain.EvaluationResult, dismissed map[string]bool) (*domain.EvaluationResult, int) {
	filtered := *result
	suppressed := 0

	keep := func(findings []domain.Finding) []domain.Finding {
		out := make([]domain.Finding, 0, len(findings))
		for _, f := range findings {
			if dismissed[f.Key()] {
				suppressed++
				continue
			}
			out = append(out, f)
		}
		return out
	}
	filtered.Findings = keep(result.Findings)
	filtered.PendingReview = keep(result.PendingReview)

	return &filtered, suppressed
}

// handleTimeline reconstructs the medication timeline without running the
// safety rules.
func (s *Server) handleTimeline(c *gin.Context) {
	var req domain.EvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrCodeInvalidInput, "Malformed timeline request", err.Error(), c.GetString("correlation_id")))
		return
	}

	snapshot, diagnostics, err := s.engine.Timeline(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, domain.NewAPIError(
			domain.ErrCodeEvaluation, "Timeline reconstruction failed", err.Error(), c.GetString("correlation_id")))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"patient_id":  req.Patient.PatientID,
		"as_of":       req.Patient.AsOfDate,
		"timeline":    snapshot,
		"diagnostics": diagnostics,
	})
}

// handleCatalogInfo reports the loaded catalog version and rule counts.
func (s *Server) handleCatalogInfo(c *gin.Context) {
	cat := s.engine.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"version": cat.Version(),
		"rules":   cat.Stats(),
	})
}

// handleSaveReview records a reviewer's decision on a finding.
func (s *Server) handleSaveReview(c *gin.Context) {
	if s.reviews == nil {
		s.reviewsDisabled(c)
		return
	}

	var rv review.Review
	if err := c.ShouldBindJSON(&rv); err != nil {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrCodeInvalidInput, "Malformed review", err.Error(), c.GetString("correlation_id")))
		return
	}
	if rv.PatientID == "" || rv.FindingKey == "" || !rv.Status.IsValid() {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrCodeValidation, "Review requires patient_id, finding_key, and a valid status", "", c.GetString("correlation_id")))
		return
	}

	if err := s.reviews.Save(c.Request.Context(), &rv); err != nil {
		c.JSON(http.StatusInternalServerError, domain.NewAPIError(
			domain.ErrCodeDatabaseError, "Failed to save review", err.Error(), c.GetString("correlation_id")))
		return
	}

	s.logger.WithFields(logrus.Fields{
		"patient_hash": domain.PatientNodeID(rv.PatientID),
		"finding_key":  rv.FindingKey,
		"status":       rv.Status,
	}).Info("Review decision saved")

	c.JSON(http.StatusOK, rv)
}

// handleListReviews returns a patient's review decisions, paginated.
func (s *Server) handleListReviews(c *gin.Context) {
	if s.reviews == nil {
		s.reviewsDisabled(c)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	reviews, err := s.reviews.ListForPatient(c.Request.Context(), c.Param("patient_id"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, domain.NewAPIError(
			domain.ErrCodeDatabaseError, "Failed to list reviews", err.Error(), c.GetString("correlation_id")))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// handleDeleteReview removes a review decision by ID.
func (s *Server) handleDeleteReview(c *gin.Context) {
	if s.reviews == nil {
		s.reviewsDisabled(c)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrCodeInvalidInput, "Review ID must be numeric", "", c.GetString("correlation_id")))
		return
	}

	if err := s.reviews.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, domain.NewAPIError(
			domain.ErrCodeNotFound, "Review not found", err.Error(), c.GetString("correlation_id")))
		return
	}

	c.Status(http.StatusNoContent)
}

// handleExportReviews streams all review decisions as JSON.
func (s *Server) handleExportReviews(c *gin.Context) {
	if s.reviews == nil {
		s.reviewsDisabled(c)
		return
	}

	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", "attachment; filename=reviews.json")
	if err := s.reviews.ExportJSON(c.Request.Context(), c.Writer); err != nil {
		s.logger.WithError(err).Error("Review export failed")
	}
}

// handleImportReviews loads review decisions from an uploaded JSON export.
func (s *Server) handleImportReviews(c *gin.Context) {
	if s.reviews == nil {
		s.reviewsDisabled(c)
		return
	}

	imported, skipped, err := s.reviews.ImportJSON(c.Request.Context(), c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrCodeInvalidInput, "Review import failed", err.Error(), c.GetString("correlation_id")))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"imported": imported,
		"skipped":  skipped,
	})
}

func (s *Server) reviewsDisabled(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, domain.NewAPIError(
		domain.ErrCodeDatabaseError, "Review store is not configured", "", c.GetString("correlation_id")))
}
