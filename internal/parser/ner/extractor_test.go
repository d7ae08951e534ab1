package ner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"orderparse/internal/domain"
	"orderparse/internal/parser/ner"
	"orderparse/mocks"
)

var testLabels = []string{"O", "B-PER", "I-PER", "B-ORG", "I-ORG", "B-LOC", "I-LOC", "B-MISC", "I-MISC"}

func labelIndex(label string) int {
	for i, l := range testLabels {
		if l == label {
			return i
		}
	}
	panic("unknown label " + label)
}

// row returns a logit row that favours label by strength.
func row(label string, strength float64) []float64 {
	r := make([]float64, len(testLabels))
	r[labelIndex(label)] = strength
	return r
}

func prob(label string, strength float64) float64 {
	return ner.Softmax(row(label, strength))[labelIndex(label)]
}

func TestSoftmax(t *testing.T) {
	p := ner.Softmax([]float64{1, 2, 3})
	assert.InDelta(t, 1.0, p[0]+p[1]+p[2], 1e-9)
	assert.Greater(t, p[2], p[1])

	big := ner.Softmax([]float64{1000, 1000})
	assert.InDelta(t, 0.5, big[0], 1e-9)

	assert.Nil(t, ner.Softmax(nil))
}

func TestDecodeTokens_MergesWordpiecesAndSkipsSpecial(t *testing.T) {
	out := &domain.TokenLogits{
		Tokens: []string{"[CLS]", "Acme", "Corp", "##oration", "[SEP]"},
		Logits: [][]float64{row("O", 5), row("B-ORG", 5), row("I-ORG", 4), row("I-ORG", 2), row("O", 5)},
	}

	tokens, err := ner.DecodeTokens(out, testLabels)

	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "Acme", tokens[0].Text)
	assert.Equal(t, "Corporation", tokens[1].Text)
	assert.Equal(t, "I-ORG", tokens[1].Label)
	assert.InDelta(t, (prob("I-ORG", 4)+prob("I-ORG", 2))/2, tokens[1].Confidence, 1e-9)
}

func TestDecodeTokens_SpecialMask(t *testing.T) {
	out := &domain.TokenLogits{
		Tokens:  []string{"<bos>", "Paris"},
		Logits:  [][]float64{row("B-PER", 5), row("B-LOC", 5)},
		Special: []bool{true, false},
	}

	tokens, err := ner.DecodeTokens(out, testLabels)

	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "Paris", tokens[0].Text)
}

func TestDecodeTokens_Errors(t *testing.T) {
	_, err := ner.DecodeTokens(&domain.TokenLogits{
		Tokens: []string{"a", "b"},
		Logits: [][]float64{row("O", 1)},
	}, testLabels)
	assert.Error(t, err)

	_, err = ner.DecodeTokens(&domain.TokenLogits{
		Tokens: []string{"a"},
		Logits: [][]float64{row("I-MISC", 3)},
	}, testLabels[:3])
	assert.Error(t, err)
}

func TestGroupEntities_BIO(t *testing.T) {
	tokens := []ner.Token{
		{Text: "John", Label: "B-PER", Confidence: 0.9},
		{Text: "Inc", Label: "I-ORG", Confidence: 0.9},
		{Text: "Smith", Label: "I-PER", Confidence: 0.7},
		{Text: "in", Label: "O", Confidence: 0.99},
		{Text: "stray", Label: "I-LOC", Confidence: 0.9},
		{Text: "Paris", Label: "B-LOC", Confidence: 0.8},
		{Text: "Berlin", Label: "B-LOC", Confidence: 0.6},
	}

	entities := ner.GroupEntities(tokens)

	require.Len(t, entities, 3)
	assert.Equal(t, domain.Entity{Text: "John Smith", Type: domain.EntityPerson, Confidence: 0.8}, roundEntity(entities[0]))
	assert.Equal(t, "Paris", entities[1].Text)
	assert.Equal(t, domain.EntityLocation, entities[1].Type)
	assert.Equal(t, "Berlin", entities[2].Text)
}

func TestGroupEntities_DiscardsLowConfidence(t *testing.T) {
	tokens := []ner.Token{
		{Text: "maybe", Label: "B-ORG", Confidence: 0.3},
		{Text: "Acme", Label: "B-ORG", Confidence: 0.31},
	}

	entities := ner.GroupEntities(tokens)

	require.Len(t, entities, 1)
	assert.Equal(t, "Acme", entities[0].Text)
}

func TestGroupEntities_UnprefixedLabelStartsEntity(t *testing.T) {
	entities := ner.GroupEntities([]ner.Token{{Text: "HTP-2000", Label: "PRODUCT", Confidence: 0.9}})

	require.Len(t, entities, 1)
	assert.Equal(t, domain.EntityProduct, entities[0].Type)
}

func TestExtractor_Extract(t *testing.T) {
	model := new(mocks.MockTokenClassifier)
	model.On("Labels").Return(testLabels)
	model.On("Classify", mock.Anything, "Acme Corp ships to Paris").Return(&domain.TokenLogits{
		Tokens: []string{"[CLS]", "Acme", "Corp", "ships", "to", "Paris", "[SEP]"},
		Logits: [][]float64{
			row("O", 5), row("B-ORG", 5), row("I-ORG", 5), row("O", 5), row("O", 5), row("B-LOC", 5), row("O", 5),
		},
	}, nil)

	entities, err := ner.NewExtractor(model).Extract(context.Background(), "  Acme   Corp\nships to\tParis ")

	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "Acme Corp", entities[0].Text)
	assert.Equal(t, domain.EntityOrg, entities[0].Type)
	assert.InDelta(t, prob("B-ORG", 5), entities[0].Confidence, 1e-9)
	assert.Equal(t, "Paris", entities[1].Text)
	model.AssertExpectations(t)
}

func TestExtractor_ModelError(t *testing.T) {
	model := new(mocks.MockTokenClassifier)
	model.On("Classify", mock.Anything, "text").Return(nil, errors.New("boom"))

	entities, err := ner.NewExtractor(model).Extract(context.Background(), "text")

	assert.Error(t, err)
	assert.Nil(t, entities)
}

func TestExtractor_EmptyTextSkipsModel(t *testing.T) {
	model := new(mocks.MockTokenClassifier)

	entities, err := ner.NewExtractor(model).Extract(context.Background(), " \n ")

	assert.NoError(t, err)
	assert.Empty(t, entities)
	model.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
}

func roundEntity(e domain.Entity) domain.Entity {
	e.Confidence = float64(int(e.Confidence*1000+0.5)) / 1000
	return e
}
