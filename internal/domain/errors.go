package domain

import "errors"

var (
	ErrModelUnavailable = errors.New("ner model unavailable")
	ErrMissingAPIKey    = errors.New("llm api key not configured")
	ErrEmptyCompletion  = errors.New("llm returned an empty completion")
	ErrMalformedReply   = errors.New("llm reply is not valid order json")
	ErrUnknownProvider  = errors.New("unknown llm provider")
	ErrUnsupportedInput = errors.New("unsupported input file")
)
