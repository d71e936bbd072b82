// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relational

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"

	"github.com/pdiddy/paper-finder/internal/httputil"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// SQLBackend abstracts the text-to-SQL model so tests can supply a mock.
// Per Strategy pattern (prd004-relational R3.1).
type SQLBackend interface {
	// GenerateSQL turns a natural-language query and a schema description
	// into a single SQL SELECT statement.
	GenerateSQL(ctx context.Context, query string) (string, error)
}

// SchemaDescription is the fixed schema contract sent to the model with
// every query (R3.2). It mirrors createSchema in store.go; keep the two
// in sync.
const SchemaDescription = `DATABASE SCHEMA:

Table: papers
- paper_id (TEXT, PRIMARY KEY): Unique paper identifier
- corpus_id (TEXT): Corpus identifier
- title (TEXT, NOT NULL): Paper title
- abstract (TEXT): Paper abstract
- venue (TEXT): Publication venue (conference/journal name)
- year (INTEGER): Publication year
- publication_date (TEXT): Full publication date
- citation_count (INTEGER): Number of citations
- publication_types (TEXT): Comma-joined publication types
- fields_of_study (TEXT): Comma-joined research fields

Table: authors
- author_id (TEXT, PRIMARY KEY): Unique author identifier
- name (TEXT, NOT NULL): Author name

Table: paper_authors (junction table for the many-to-many relationship)
- paper_id (TEXT, FOREIGN KEY -> papers.paper_id)
- author_id (TEXT, FOREIGN KEY -> authors.author_id)
- author_position (INTEGER): Author order, 0 is first author

RELATIONSHIPS:
- papers <-> authors (many-to-many through paper_authors)
- To filter by author: JOIN through paper_authors and filter on authors.name`

// sqlPromptTmpl is the prompt sent to the Claude API for each query.
// Per prd004-relational R3.2.
var sqlPromptTmpl = template.Must(template.New("sqlgen").Parse(`You are a SQL expert helping researchers find academic papers in a SQLite database.

Given the database schema and a natural language query (which might be conversational or informal), generate a SQLite SQL query that retrieves the relevant papers.

Key requirements:
- Return ONLY the SQL query, no explanations or markdown formatting
- Always select at least the paper_id column
- Use LIKE with lowercase patterns for partial text matching
- Use DISTINCT when joining with paper_authors to avoid duplicate papers
- Order by relevance (typically citation_count DESC, year DESC)
- Limit to {{.Limit}} results maximum
- Do not end with a semicolon

{{.Schema}}

Researcher's query: {{.Query}}

Generate a SQLite SQL query to find the relevant papers.`))

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeBackend calls the Claude Messages API to generate SQL (R3.1).
type ClaudeBackend struct {
	APIKey string
	Model  string

	// Limit caps the row count the generated query may return.
	Limit int

	// MaxRetries bounds rate-limit retries per request.
	MaxRetries int

	Client *http.Client
}

// NewClaudeBackend builds a backend from the AI stage configuration.
// limit caps the row count the generated query may return.
func NewClaudeBackend(cfg types.AIConfig, limit int) *ClaudeBackend {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ClaudeBackend{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		Limit:      limit,
		MaxRetries: maxRetries,
	}
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// GenerateSQL renders the prompt, calls the Claude API, and cleans the
// returned statement (R3.3): code fences and a trailing semicolon are
// stripped, everything else is left to validation in Retrieve.
func (c *ClaudeBackend) GenerateSQL(ctx context.Context, query string) (string, error) {
	limit := c.Limit
	if limit <= 0 {
		limit = 100
	}

	var prompt bytes.Buffer
	err := sqlPromptTmpl.Execute(&prompt, struct {
		Schema string
		Query  string
		Limit  int
	}{Schema: SchemaDescription, Query: query, Limit: limit})
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: 1024,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt.String()},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		statement := cleanSQL(block.Text)
		if statement == "" {
			return "", fmt.Errorf("Claude API returned an empty SQL statement")
		}
		return statement, nil
	}

	return "", fmt.Errorf("no text content in Claude API response")
}

// cleanSQL strips markdown code fences and a trailing semicolon.
func cleanSQL(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "sql")
		if i := strings.Index(s, "```"); i >= 0 {
			s = s[:i]
		}
	}

	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
}
