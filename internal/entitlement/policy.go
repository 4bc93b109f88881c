// Package entitlement holds the plan and usage rules: quotas, the monthly
// reset window, pro expiry, feature gates and plan transitions. Everything
// here is pure; persistence belongs to the callers.
package entitlement

import (
	"errors"
	"fmt"
	"time"
)

// Policy constants.
const (
	AnalysisLimit = 3
	ChatLimit     = 5

	// ResetWindow is a fixed duration, not a calendar month.
	ResetWindow = 30 * 24 * time.Hour
	// ProDuration is how long an approved upgrade lasts.
	ProDuration = 30 * 24 * time.Hour
)

var (
	ErrUnknownFeature    = errors.New("unknown feature")
	ErrAlreadyPending    = errors.New("an upgrade request is already awaiting approval")
	ErrAlreadyPro        = errors.New("plan is already pro")
	ErrInvalidTransition = errors.New("invalid plan transition")
)

// Feature is a metered free-tier action.
type Feature string

const (
	FeatureAnalysis Feature = "analysis"
	FeatureChat     Feature = "chat"
)

// ParseFeature validates a metered feature name.
func ParseFeature(s string) (Feature, error) {
	switch f := Feature(s); f {
	case FeatureAnalysis, FeatureChat:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFeature, s)
}

// Limit returns the per-window quota of f.
func (f Feature) Limit() int {
	if f == FeatureChat {
		return ChatLimit
	}
	return AnalysisLimit
}

// ProFeature is a capability reserved for the pro plan.
type ProFeature string

const (
	ProMicronutrients   ProFeature = "micronutrients"
	ProAIVerdict        ProFeature = "ai_verdict"
	ProPDFExport        ProFeature = "pdf_export"
	ProShoppingList     ProFeature = "shopping_list"
	ProMealPlanReview   ProFeature = "meal_plan_review"
	ProAlternatives     ProFeature = "alternative_suggestions"
	ProRecipeSuggestion ProFeature = "recipe_suggestions"
)

// ProFeatures lists every pro-only capability in a stable order.
func ProFeatures() []ProFeature {
	return []ProFeature{
		ProMicronutrients,
		ProAIVerdict,
		ProPDFExport,
		ProShoppingList,
		ProMealPlanReview,
		ProAlternatives,
		ProRecipeSuggestion,
	}
}

// ParseProFeature validates a pro capability name.
func ParseProFeature(s string) (ProFeature, error) {
	for _, f := range ProFeatures() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFeature, s)
}
