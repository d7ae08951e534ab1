package domain

// Source identifies which extraction strategy produced a field value.
type Source string

const (
	SourceNone          Source = ""
	SourceRegex         Source = "regex"
	SourceRegexFallback Source = "regex-fallback"
	SourceNER           Source = "ner"
	SourceNERRegex      Source = "ner+regex"
	SourceLLM           Source = "llm"
	SourceDefault       Source = "default"
)

// EntityType is the coarse label of a grouped NER entity (the part after B-/I-).
type EntityType string

const (
	EntityPerson   EntityType = "PER"
	EntityOrg      EntityType = "ORG"
	EntityLocation EntityType = "LOC"
	EntityMisc     EntityType = "MISC"
	EntityProduct  EntityType = "PRODUCT"
	EntityCardinal EntityType = "CARDINAL"
	EntityQuantity EntityType = "QUANTITY"
	EntityMoney    EntityType = "MONEY"
	EntityPrice    EntityType = "PRICE"
)

// ExtractionPath records which branch of the orchestrator produced the final result.
type ExtractionPath string

const (
	PathRegex       ExtractionPath = "regex"
	PathRegexNER    ExtractionPath = "regex+ner"
	PathLLMFallback ExtractionPath = "llm-fallback"
	PathLLMForced   ExtractionPath = "llm-forced"
)

// FailureKind classifies an LLM stage failure.
type FailureKind string

const (
	FailureNone         FailureKind = ""
	FailureLLMTransient FailureKind = "llm_transient"
	FailureLLMPermanent FailureKind = "llm_permanent"
)

// Default field confidences used when a value had to be filled in.
const (
	DefaultQuantity        = 1
	DefaultPrice           = 0.0
	DefaultFieldConfidence = 0.5
)
