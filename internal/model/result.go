package model

const (
	// NotFound is the phone number and label reported when no evidence wins.
	NotFound = "Not Found"
	// OffTopic is the phone number reported for queries rejected by the gate.
	OffTopic = "Off-Topic"

	// LabelInputValidation is the source label of an off-topic result.
	LabelInputValidation = "Input Validation"
	// LabelWebSearch is the source label of a DeepSearch hit.
	LabelWebSearch = "LLM WebSearch"
	// LabelDirectKnowledge is the source label of a direct-knowledge hit.
	LabelDirectKnowledge = "LLM Direct Knowledge"

	// DirectKnowledgeSource stands in for a URL on direct-knowledge evidence.
	DirectKnowledgeSource = "LLM Direct Knowledge"
)

// ResultRecord is the outcome of one clinic lookup.
type ResultRecord struct {
	Query       string           `json:"query"`
	PhoneNumber string           `json:"phone_number"`
	SourceLabel string           `json:"source_label"`
	Engine      Engine           `json:"engine,omitempty"`
	Evidence    []EvidenceRecord `json:"evidence"`
}

// Found reports whether the result carries a phone number rather than a
// sentinel.
func (r *ResultRecord) Found() bool {
	return r.PhoneNumber != NotFound && r.PhoneNumber != OffTopic && r.PhoneNumber != ""
}

// SourceURL returns the URL of the first evidence record supporting the
// chosen phone number, or NotFound when there is none.
func (r *ResultRecord) SourceURL() string {
	for _, e := range r.Evidence {
		if e.PhoneCandidate == r.PhoneNumber {
			return e.SourceURL
		}
	}
	return NotFound
}
