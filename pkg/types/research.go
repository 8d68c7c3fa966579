// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the deep-research pipeline.
// See docs/ARCHITECTURE § Pipeline Interface, § Data Structures.
package types

import "time"

// BackendHint is the client-declared preference among the interchangeable
// local model-serving backends.
type BackendHint string

const (
	HintOllama   BackendHint = "ollama"
	HintLMStudio BackendHint = "lmstudio"
	HintUnknown  BackendHint = "unknown"
)

// ParseBackendHint maps the wire-level provider literal to a BackendHint.
// Only the two recognized provider names map to a concrete hint; anything
// else (including the empty string) is HintUnknown.
func ParseBackendHint(source string) BackendHint {
	switch source {
	case "Ollama":
		return HintOllama
	case "LM Studio":
		return HintLMStudio
	default:
		return HintUnknown
	}
}

// ModelSpec identifies the model a request wants and which backend should
// serve it.
type ModelSpec struct {
	// Name is the model identifier as the backend knows it
	// (e.g. "llama3.1:8b").
	Name string `json:"name" yaml:"name"`

	// Hint selects the backend fallback order for this request.
	Hint BackendHint `json:"hint" yaml:"hint"`
}

// ResearchRequest is one accepted research job. Immutable once accepted.
type ResearchRequest struct {
	// Topic is the free-text research topic. Never empty in an accepted
	// request; validation happens before a pipeline is started.
	Topic string `json:"topic" yaml:"topic"`

	// Model selects the model and backend for every model call in the run.
	Model ModelSpec `json:"model" yaml:"model"`
}

// SearchHit is one candidate source returned by a search provider.
type SearchHit struct {
	// Title is the result title. Providers that return bare URLs use the
	// URL as the title until enrichment fills it in.
	Title string `json:"title" yaml:"title"`

	// URL is the natural key of a hit within one query's result set.
	// Duplicates across queries survive into the raw candidate list and
	// are reconciled only at the evidence stage, by exact case-sensitive
	// URL match. Deliberately not normalized.
	URL string `json:"url" yaml:"url"`

	// Snippet is the short description or content excerpt, when the
	// provider supplies one.
	Snippet string `json:"snippet" yaml:"snippet"`

	// Provider identifies which search backend found this hit
	// (e.g. "google", "duckduckgo", "tavily"), kept for attribution.
	Provider string `json:"provider" yaml:"provider"`
}

// EvidenceItem is one fetched-and-analyzed source retained for report
// synthesis. Items with an empty or error-flagged analysis are dropped
// during collection and never appear here.
type EvidenceItem struct {
	// Source is the title of the originating page.
	Source string `json:"source" yaml:"source"`

	// URL is the page address.
	URL string `json:"url" yaml:"url"`

	// ExtractedText is the cleaned page text the analysis was based on,
	// bounded by the fetch character budget.
	ExtractedText string `json:"extracted_text" yaml:"extracted_text"`

	// ReliabilityScore is the evaluator-assigned trust estimate, always
	// in [0,100]. Unparsable model output is clamped to the neutral 50.
	ReliabilityScore int `json:"reliability_score" yaml:"reliability_score"`

	// ReliabilityReason is the evaluator's combined justification
	// (estimated date, topic category, neutrality, free text).
	ReliabilityReason string `json:"reliability_reason" yaml:"reliability_reason"`

	// AnalysisSummary is the model's topic-focused summary of the source.
	// Never blank in a retained item.
	AnalysisSummary string `json:"analysis_summary" yaml:"analysis_summary"`

	// SpecificData holds extracted numeric facts, calculations, and
	// comparisons, when the extraction call produced any.
	SpecificData string `json:"specific_data,omitempty" yaml:"specific_data,omitempty"`

	// Provider identifies the search backend that surfaced this source.
	Provider string `json:"provider" yaml:"provider"`
}

// ResearchReport is the write-once result of a completed pipeline run.
type ResearchReport struct {
	// Topic is the researched topic.
	Topic string `json:"topic" yaml:"topic"`

	// GeneratedAt is when synthesis completed.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	// ModelUsed names the model that produced the report body.
	ModelUsed string `json:"model_used" yaml:"model_used"`

	// Language is the human-readable name of the detected working
	// language (e.g. "Turkish", "English").
	Language string `json:"language" yaml:"language"`

	// Queries are the search queries the planner produced, in order.
	Queries []string `json:"queries" yaml:"queries"`

	// Items are the surviving evidence items, sorted descending by
	// ReliabilityScore; ties preserve collection order.
	Items []EvidenceItem `json:"items" yaml:"items"`

	// ConflictNotes is the cross-source contradiction analysis, verbatim.
	ConflictNotes string `json:"conflict_notes,omitempty" yaml:"conflict_notes,omitempty"`

	// GapNotes lists subtopics the evidence did not cover (max 3).
	GapNotes []string `json:"gap_notes,omitempty" yaml:"gap_notes,omitempty"`

	// Body is the synthesized Markdown body. The persisted file wraps it
	// with a metadata header and a generated sources section.
	Body string `json:"body" yaml:"body"`

	// WebVerified is false when the report was produced from model
	// knowledge alone because no evidence survived scoring.
	WebVerified bool `json:"web_verified" yaml:"web_verified"`
}
