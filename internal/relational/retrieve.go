// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relational

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// ErrUnsafeSQL reports a generated statement that is not a plain SELECT.
// The projection is read-only at query time; anything else is refused
// before execution (R4.2).
var ErrUnsafeSQL = errors.New("generated statement is not a SELECT query")

// Retrieve answers a natural-language query through the text-to-SQL path:
// generate a statement against the fixed schema, execute it read-only,
// and map the rows to the shared ranked-result shape (R4.1-R4.4).
// SQL result sets carry no similarity, so rank r receives the positional
// score 1/(r+1), keeping downstream scoring uniform with the dense path.
func (s *Store) Retrieve(ctx context.Context, backend SQLBackend, query string, k int) (types.RankedResult, error) {
	if k <= 0 {
		k = 100
	}

	statement, err := backend.GenerateSQL(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("generating SQL: %w", err)
	}

	if err := validateSelect(statement); err != nil {
		return nil, fmt.Errorf("%w: %q", err, statement)
	}

	rows, err := s.db.QueryContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("executing generated SQL %q: %w", statement, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading result columns: %w", err)
	}

	idCol := paperIDColumn(cols)
	if idCol < 0 {
		return nil, fmt.Errorf("generated SQL selects no paper_id column: %q", statement)
	}

	var (
		ranked types.RankedResult
		seen   = make(map[string]bool)
	)

	scan := make([]any, len(cols))
	for i := range scan {
		scan[i] = new(any)
	}

	for rows.Next() {
		if len(ranked) >= k {
			break
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		paperID := stringValue(*scan[idCol].(*any))
		if paperID == "" || seen[paperID] {
			continue
		}
		seen[paperID] = true
		ranked = append(ranked, types.ScoredPaper{
			PaperID: paperID,
			Score:   1 / float64(len(ranked)+1),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return ranked, nil
}

// validateSelect accepts a single SELECT (or WITH ... SELECT) statement.
func validateSelect(statement string) error {
	trimmed := strings.ToUpper(strings.TrimSpace(statement))
	if !strings.HasPrefix(trimmed, "SELECT") && !strings.HasPrefix(trimmed, "WITH") {
		return ErrUnsafeSQL
	}
	// A semicolon inside the statement smuggles in a second statement.
	if strings.Contains(statement, ";") {
		return ErrUnsafeSQL
	}
	return nil
}

// paperIDColumn locates the paper_id column, tolerating aliases.
func paperIDColumn(cols []string) int {
	for i, c := range cols {
		if strings.EqualFold(c, "paper_id") {
			return i
		}
	}
	// Fall back to the first column: the prompt instructs the model to
	// select paper_id first.
	if len(cols) > 0 {
		return 0
	}
	return -1
}

// stringValue renders a scanned SQLite value as a string.
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
