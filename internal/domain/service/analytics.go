package service

import (
	"AMDScope/internal/domain/models"
)

// IndicatorEngine derives per-bar technical features from raw bars.
type IndicatorEngine interface {
	Compute(bars []models.Bar) ([]models.EnrichedBar, error)
}

// RegimeDetector labels enriched bars and reports raw manipulation windows.
type RegimeDetector interface {
	Detect(bars []models.EnrichedBar) models.Detection
}

// CycleSummarizer collapses labeled bars into cycles.
type CycleSummarizer interface {
	Summarize(bars []models.LabeledBar) []models.Cycle
}
