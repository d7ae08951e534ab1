package port

import (
	"context"

	"orderparse/internal/domain"
)

// TokenClassifier runs a pretrained token-classification model.
type TokenClassifier interface {
	// Classify tokenizes text (with truncation) and returns per-token label logits.
	Classify(ctx context.Context, text string) (*domain.TokenLogits, error)
	// Labels maps a logit index to its BIO label.
	Labels() []string
}

// EntityExtractor produces grouped named entities from text.
type EntityExtractor interface {
	Extract(ctx context.Context, text string) ([]domain.Entity, error)
}
