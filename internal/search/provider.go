// Package search locates candidate pages for a clinic query.
package search

import "context"

// Request is a single web search.
type Request struct {
	Query      string
	Region     string // e.g. "it-it"
	SafeSearch string // "on", "moderate" or "off"
	MaxResults int
}

// Result is one organic search hit.
type Result struct {
	URL     string
	Title   string
	Snippet string
}

// Provider runs a web search. Implementations make exactly one upstream call
// per Search.
type Provider interface {
	Search(ctx context.Context, req Request) ([]Result, error)
	Name() string
}
