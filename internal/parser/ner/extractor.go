package ner

import (
	"context"
	"fmt"
	"math"
	"strings"

	"orderparse/internal/domain"
	"orderparse/internal/port"
)

// MinEntityConfidence is the mean token confidence an entity must exceed to be kept.
const MinEntityConfidence = 0.3

const wordpiecePrefix = "##"

var specialTokens = map[string]struct{}{
	"[CLS]": {}, "[SEP]": {}, "[PAD]": {}, "<s>": {}, "</s>": {}, "<pad>": {},
}

// Token is one classified token after wordpiece reconstruction.
type Token struct {
	Text       string
	Label      string
	Confidence float64
}

// Extractor groups token-classification output into named entities.
// It is safe for concurrent use when the underlying classifier is.
type Extractor struct {
	model port.TokenClassifier
}

// NewExtractor creates an Extractor backed by model.
func NewExtractor(model port.TokenClassifier) *Extractor {
	return &Extractor{model: model}
}

// Extract runs one forward pass over text and returns the entities in text order.
func (e *Extractor) Extract(ctx context.Context, text string) ([]domain.Entity, error) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil, nil
	}
	out, err := e.model.Classify(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("classifying tokens: %w", err)
	}
	tokens, err := DecodeTokens(out, e.model.Labels())
	if err != nil {
		return nil, err
	}
	return GroupEntities(tokens), nil
}

// DecodeTokens picks the most likely label for every token, drops special tokens and folds
// wordpiece continuations into the token before them.
func DecodeTokens(out *domain.TokenLogits, labels []string) ([]Token, error) {
	if out == nil {
		return nil, nil
	}
	if len(out.Logits) != len(out.Tokens) {
		return nil, fmt.Errorf("model returned %d logit rows for %d tokens", len(out.Logits), len(out.Tokens))
	}

	tokens := make([]Token, 0, len(out.Tokens))
	for i, tok := range out.Tokens {
		if isSpecial(out, i, tok) {
			continue
		}
		idx, p := argmax(Softmax(out.Logits[i]))
		if idx < 0 || idx >= len(labels) {
			return nil, fmt.Errorf("label index %d out of range for %d labels", idx, len(labels))
		}

		if strings.HasPrefix(tok, wordpiecePrefix) && len(tokens) > 0 {
			prev := &tokens[len(tokens)-1]
			prev.Text += strings.TrimPrefix(tok, wordpiecePrefix)
			prev.Confidence = (prev.Confidence + p) / 2
			continue
		}
		tokens = append(tokens, Token{
			Text:       strings.TrimPrefix(tok, wordpiecePrefix),
			Label:      labels[idx],
			Confidence: p,
		})
	}
	return tokens, nil
}

func isSpecial(out *domain.TokenLogits, i int, tok string) bool {
	if i < len(out.Special) && out.Special[i] {
		return true
	}
	_, ok := specialTokens[tok]
	return ok
}

// GroupEntities merges BIO-tagged tokens into entities. An I- token that does not continue
// the open entity's type is dropped.
func GroupEntities(tokens []Token) []domain.Entity {
	var (
		entities []domain.Entity
		open     *span
	)
	flush := func() {
		if open == nil {
			return
		}
		if e := open.entity(); e.Confidence > MinEntityConfidence {
			entities = append(entities, e)
		}
		open = nil
	}

	for _, tok := range tokens {
		prefix, typ := splitLabel(tok.Label)
		switch prefix {
		case "O":
			flush()
		case "B":
			flush()
			open = &span{typ: typ}
			open.add(tok)
		case "I":
			if open != nil && open.typ == typ {
				open.add(tok)
			}
		}
	}
	flush()
	return entities
}

// splitLabel turns "B-ORG" into ("B", "ORG"). Labels without a BIO prefix start an entity.
func splitLabel(label string) (string, domain.EntityType) {
	if label == "" || label == "O" {
		return "O", ""
	}
	if len(label) > 2 && label[1] == '-' && (label[0] == 'B' || label[0] == 'I') {
		return label[:1], domain.EntityType(label[2:])
	}
	return "B", domain.EntityType(label)
}

type span struct {
	typ   domain.EntityType
	words []string
	sum   float64
}

func (s *span) add(t Token) {
	s.words = append(s.words, t.Text)
	s.sum += t.Confidence
}

func (s *span) entity() domain.Entity {
	return domain.Entity{
		Text:       strings.Join(s.words, " "),
		Type:       s.typ,
		Confidence: s.sum / float64(len(s.words)),
	}
}

// Softmax converts logits to probabilities.
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		if l > maxLogit {
			maxLogit = l
		}
	}
	probs := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		probs[i] = math.Exp(l - maxLogit)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func argmax(probs []float64) (int, float64) {
	best, bestP := -1, math.Inf(-1)
	for i, p := range probs {
		if p > bestP {
			best, bestP = i, p
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, bestP
}
