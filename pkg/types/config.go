package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "deep-research/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ModelConfig holds settings for the Model Gateway and its backends.
type ModelConfig struct {
	// OllamaBaseURL is the base URL of the Ollama generate API
	// (default "http://localhost:11434").
	OllamaBaseURL string `json:"ollama_base_url" yaml:"ollama_base_url"`

	// LMStudioBaseURL is the base URL of the LM Studio OpenAI-compatible
	// API (default "http://localhost:1234").
	LMStudioBaseURL string `json:"lmstudio_base_url" yaml:"lmstudio_base_url"`

	// OllamaTimeout is the per-call timeout for the generate-style
	// backend. Longer than the chat backend: first-load of a local model
	// can take minutes (default 300s).
	OllamaTimeout time.Duration `json:"ollama_timeout" yaml:"ollama_timeout"`

	// LMStudioTimeout is the per-call timeout for the chat-completion
	// backend (default 120s).
	LMStudioTimeout time.Duration `json:"lmstudio_timeout" yaml:"lmstudio_timeout"`

	// Temperature is applied to every completion. Fixed low so scoring
	// and extraction stay close to deterministic (default 0.3).
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

// SearchConfig holds settings for the search providers.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// ResultsPerQuery is how many hits to request per planned query
	// (default 8).
	ResultsPerQuery int `json:"results_per_query" yaml:"results_per_query"`

	// TavilyAPIKey enables the Tavily fallback provider when set.
	TavilyAPIKey string `json:"tavily_api_key,omitempty" yaml:"tavily_api_key,omitempty"`

	// EnrichTimeout bounds the per-URL title/meta scrape of bare hits.
	// Independent per URL; one slow page never stalls the batch
	// (default 5s).
	EnrichTimeout time.Duration `json:"enrich_timeout" yaml:"enrich_timeout"`
}

// FetchConfig holds settings for the content fetcher.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxChars bounds the cleaned text returned per page (default 4000).
	MaxChars int `json:"max_chars" yaml:"max_chars"`

	// MaxBodyBytes bounds the raw HTTP body read per page (default 10 MiB).
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes"`
}

// PipelineConfig holds settings for the research orchestration itself.
type PipelineConfig struct {
	// MaxQueries caps the planned query set (default 5).
	MaxQueries int `json:"max_queries" yaml:"max_queries"`

	// MaxCandidates caps how many raw candidates are deep-processed
	// (fetched and analyzed), in collection order (default 20).
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`

	// QueryDelay is the pause between search queries to respect external
	// rate limits (default 1s).
	QueryDelay time.Duration `json:"query_delay" yaml:"query_delay"`

	// RelevanceFilter enables the per-hit yes/no model check.
	RelevanceFilter bool `json:"relevance_filter" yaml:"relevance_filter"`

	// ReliabilityFloor is the minimum score a source needs to stay in
	// the evidence set (default 30 on the 0-100 scale).
	ReliabilityFloor int `json:"reliability_floor" yaml:"reliability_floor"`
}

// ReportConfig holds settings for report synthesis and persistence.
type ReportConfig struct {
	// ReportsDir is the user-facing directory for finished reports.
	ReportsDir string `json:"reports_dir" yaml:"reports_dir"`

	// ArchiveDir is the internal results directory; reports and run
	// manifests are mirrored here.
	ArchiveDir string `json:"archive_dir" yaml:"archive_dir"`

	// MaxTokens is the token budget for the final synthesis call
	// (default 4000).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MaxFilenameLen bounds the sanitized topic part of report filenames
	// (default 50).
	MaxFilenameLen int `json:"max_filename_len" yaml:"max_filename_len"`
}

// ServerConfig holds settings for the serving layer.
type ServerConfig struct {
	// Addr is the listen address (default ":8001").
	Addr string `json:"addr" yaml:"addr"`

	// KeepaliveInterval is how often the connection-level keepalive is
	// sent while a pipeline runs (default 30s).
	KeepaliveInterval time.Duration `json:"keepalive_interval" yaml:"keepalive_interval"`

	// ReceiveTimeout bounds how long the read loop waits for a request
	// before emitting a keepalive instead (default 5m).
	ReceiveTimeout time.Duration `json:"receive_timeout" yaml:"receive_timeout"`
}

// Config groups all stage configurations. Built once at process start and
// passed by reference into the components; no package-level mutable state.
type Config struct {
	Model    ModelConfig    `json:"model" yaml:"model"`
	Search   SearchConfig   `json:"search" yaml:"search"`
	Fetch    FetchConfig    `json:"fetch" yaml:"fetch"`
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline"`
	Report   ReportConfig   `json:"report" yaml:"report"`
	Server   ServerConfig   `json:"server" yaml:"server"`
}

// Defaults returns a Config with every knob at its documented default.
func Defaults() Config {
	return Config{
		Model: ModelConfig{
			OllamaBaseURL:   "http://localhost:11434",
			LMStudioBaseURL: "http://localhost:1234",
			OllamaTimeout:   300 * time.Second,
			LMStudioTimeout: 120 * time.Second,
			Temperature:     0.3,
		},
		Search: SearchConfig{
			HTTPConfig:      HTTPConfig{Timeout: 10 * time.Second, UserAgent: "deep-research/0.1"},
			ResultsPerQuery: 8,
			EnrichTimeout:   5 * time.Second,
		},
		Fetch: FetchConfig{
			HTTPConfig:   HTTPConfig{Timeout: 15 * time.Second, UserAgent: "deep-research/0.1"},
			MaxChars:     4000,
			MaxBodyBytes: 10 << 20,
		},
		Pipeline: PipelineConfig{
			MaxQueries:       5,
			MaxCandidates:    20,
			QueryDelay:       time.Second,
			RelevanceFilter:  true,
			ReliabilityFloor: 30,
		},
		Report: ReportConfig{
			ReportsDir:     "reports",
			ArchiveDir:     "archive",
			MaxTokens:      4000,
			MaxFilenameLen: 50,
		},
		Server: ServerConfig{
			Addr:              ":8001",
			KeepaliveInterval: 30 * time.Second,
			ReceiveTimeout:    5 * time.Minute,
		},
	}
}
