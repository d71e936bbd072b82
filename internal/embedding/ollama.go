// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/paper-finder/internal/httputil"
	"github.com/pdiddy/paper-finder/pkg/types"
)

const (
	// DefaultOllamaURL is the default Ollama API endpoint.
	DefaultOllamaURL = "http://localhost:11434"

	// DefaultModel is the default embedding model.
	DefaultModel = "nomic-embed-text"

	// DefaultDimensions is the vector width of nomic-embed-text.
	DefaultDimensions = 768

	// DefaultTimeout bounds one embedding request. Batches of long
	// paragraphs can take a while on CPU-only hosts.
	DefaultTimeout = 2 * time.Minute

	// apiPathEmbed is the Ollama batch embeddings endpoint.
	apiPathEmbed = "/api/embed"
)

// OllamaEmbedder generates embeddings through the Ollama HTTP API.
// One request carries a whole batch of texts (R3.1).
type OllamaEmbedder struct {
	baseURL    string
	model      string
	dimensions int
	timeout    time.Duration
	client     *http.Client
}

// OllamaOption configures an OllamaEmbedder.
type OllamaOption func(*OllamaEmbedder)

// WithBaseURL sets the Ollama API base URL.
func WithBaseURL(url string) OllamaOption {
	return func(e *OllamaEmbedder) {
		if url != "" {
			e.baseURL = url
		}
	}
}

// WithModel sets the embedding model and its expected vector width.
func WithModel(model string, dimensions int) OllamaOption {
	return func(e *OllamaEmbedder) {
		if model != "" {
			e.model = model
		}
		if dimensions > 0 {
			e.dimensions = dimensions
		}
	}
}

// WithTimeout bounds each embedding request.
func WithTimeout(timeout time.Duration) OllamaOption {
	return func(e *OllamaEmbedder) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// NewOllamaEmbedder creates an Ollama-backed embedder.
func NewOllamaEmbedder(opts ...OllamaOption) *OllamaEmbedder {
	e := &OllamaEmbedder{
		baseURL:    DefaultOllamaURL,
		model:      DefaultModel,
		dimensions: DefaultDimensions,
		timeout:    DefaultTimeout,
		client:     &http.Client{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewFromConfig creates an Ollama-backed embedder from stage configuration.
func NewFromConfig(cfg types.EmbeddingConfig) *OllamaEmbedder {
	return NewOllamaEmbedder(
		WithBaseURL(cfg.BaseURL),
		WithModel(cfg.Model, cfg.Dimensions),
		WithTimeout(cfg.Timeout),
	)
}

// ollamaEmbedRequest is the request body for the Ollama embed API.
type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// ollamaEmbedResponse is the response from the Ollama embed API.
type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed returns one vector per input text, in input order. A model call
// that never returns is bounded by the configured timeout; timeouts and
// transport failures abort the caller's operation (R3.3).
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+apiPathEmbed, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, e.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("calling embedding model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("embedding model returned status %d: %s", resp.StatusCode, msg)
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("model returned %d vectors for %d texts", len(result.Embeddings), len(texts))
	}
	for i, vec := range result.Embeddings {
		if len(vec) != e.dimensions {
			return nil, fmt.Errorf("vector %d has %d dimensions, want %d", i, len(vec), e.dimensions)
		}
	}

	return result.Embeddings, nil
}

// ModelName returns the embedding model identifier.
func (e *OllamaEmbedder) ModelName() string {
	return e.model
}

// Dimensions returns the expected vector width.
func (e *OllamaEmbedder) Dimensions() int {
	return e.dimensions
}
