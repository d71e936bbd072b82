// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// EmbeddingConfig holds settings for the embedding model adapter.
// Per prd002-dense-index R3.1-R3.4.
type EmbeddingConfig struct {
	// BaseURL is the embedding server endpoint (e.g. "http://localhost:11434").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Model is the embedding model identifier (e.g. "nomic-embed-text").
	Model string `json:"model" yaml:"model"`

	// Dimensions is the expected vector width for Model.
	Dimensions int `json:"dimensions" yaml:"dimensions"`

	// BatchSize is the number of texts sent per embedding request (default 32).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// Concurrency is the number of embedding batches in flight (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// Timeout bounds each embedding request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// IndexConfig holds settings for dense index construction.
// Per prd002-dense-index R2.1-R2.3.
type IndexConfig struct {
	// IndexDir is the directory the index is persisted to.
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// UnitTypes selects which retrieval units to extract. Empty means all.
	UnitTypes []UnitType `json:"unit_types" yaml:"unit_types"`
}

// RetrieveConfig holds settings for query-time retrieval.
// Per prd003-retrieval R1.3.
type RetrieveConfig struct {
	// K is the maximum number of papers returned per query (default 100).
	K int `json:"k" yaml:"k"`

	// Concurrency is the number of queries processed in parallel (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// RelationalConfig holds settings for the relational projection and the
// text-to-SQL retrieval path. Per prd004-relational R1.2, R3.1.
type RelationalConfig struct {
	AIConfig `yaml:",inline"`

	// DBPath is the SQLite database file for the relational projection.
	DBPath string `json:"db_path" yaml:"db_path"`
}

// ScoreConfig holds settings for the evaluation stage.
// Per prd005-evaluation R2.1.
type ScoreConfig struct {
	// Ks lists the cutoffs for hits@k (default 1 and 5).
	Ks []int `json:"ks" yaml:"ks"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Embedding  EmbeddingConfig  `json:"embedding" yaml:"embedding"`
	Index      IndexConfig      `json:"index" yaml:"index"`
	Retrieve   RetrieveConfig   `json:"retrieve" yaml:"retrieve"`
	Relational RelationalConfig `json:"relational" yaml:"relational"`
	Score      ScoreConfig      `json:"score" yaml:"score"`
}
