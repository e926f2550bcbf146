package model

// Method identifies how a phone candidate was extracted.
type Method string

const (
	MethodRegex              Method = "Regex"
	MethodLLM                Method = "LLM"
	MethodLLMWebSearch       Method = "LLMWebSearch"
	MethodLLMDirectKnowledge Method = "LLMDirectKnowledge"
)

// EvidenceRecord is one phone candidate produced by one source. Records are
// kept in source visitation order; that order drives consensus tie-breaks.
type EvidenceRecord struct {
	SourceURL        string `json:"source_url"`
	PhoneCandidate   string `json:"phone_candidate"`
	ExtractionMethod Method `json:"extraction_method"`
}
