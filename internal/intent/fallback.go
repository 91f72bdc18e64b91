package intent

import (
	"context"
	"log/slog"
)

// DefaultMinConfidence is the lowest prediction confidence accepted from a
// Fallback classifier.
const DefaultMinConfidence = 0.7

// Prediction is one label produced by an external classifier.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Fallback is an optional external intent source (e.g. a fine-tuned text
// classifier served out of process). Labels must use the intent catalog names.
type Fallback interface {
	Predict(ctx context.Context, question string) ([]Prediction, error)
}

// FallbackFunc adapts a function to the Fallback interface.
type FallbackFunc func(ctx context.Context, question string) ([]Prediction, error)

// Predict calls f.
func (f FallbackFunc) Predict(ctx context.Context, question string) ([]Prediction, error) {
	return f(ctx, question)
}

// FallbackResolver fills in intents from a Fallback when the rule table could
// not classify a question that nevertheless has entities.
type FallbackResolver struct {
	fallback      Fallback
	minConfidence float64
	logger        *slog.Logger
}

// NewFallbackResolver creates a resolver. A nil fallback makes Resolve a no-op;
// minConfidence <= 0 uses DefaultMinConfidence.
func NewFallbackResolver(fb Fallback, minConfidence float64, logger *slog.Logger) *FallbackResolver {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackResolver{fallback: fb, minConfidence: minConfidence, logger: logger}
}

// Resolve returns res unchanged unless it has entities but no intents, in which
// case the fallback's accepted labels become the intents. The entities are never
// re-derived.
func (r *FallbackResolver) Resolve(ctx context.Context, question string, res Result) Result {
	if r == nil || r.fallback == nil || len(res.Entities) == 0 || len(res.Intents) > 0 {
		return res
	}

	predictions, err := r.fallback.Predict(ctx, question)
	if err != nil {
		r.logger.WarnContext(ctx, "fallback classifier failed", "error", err)
		return res
	}

	seen := make(map[Intent]bool)
	for _, p := range predictions {
		if p.Confidence < r.minConfidence {
			r.logger.DebugContext(ctx, "fallback prediction below threshold",
				"label", p.Label, "confidence", p.Confidence)
			continue
		}
		i, err := Parse(p.Label)
		if err != nil {
			r.logger.WarnContext(ctx, "fallback returned unknown intent", "label", p.Label)
			continue
		}
		if !seen[i] {
			seen[i] = true
			res.Intents = append(res.Intents, i)
		}
	}
	return res
}
