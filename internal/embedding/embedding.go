// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embedding adapts an external text-embedding model behind a
// narrow interface so indexing and retrieval stay testable with
// deterministic stubs.
// Implements: prd002-dense-index (R3); docs/ARCHITECTURE § Embedding.
package embedding

import (
	"context"
	"fmt"
	"sync"
)

const (
	// DefaultBatchSize is the number of texts sent per embedding request.
	DefaultBatchSize = 32

	// DefaultConcurrency is the number of batches in flight during bulk
	// embedding.
	DefaultConcurrency = 4
)

// Embedder maps a batch of texts to fixed-width vectors. Implementations
// must return one vector per input text, in input order (R3.2).
type Embedder interface {
	// Embed returns the embedding vectors for texts, same length and order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName identifies the model configuration; recorded in the index
	// manifest and compared at query time (R3.4).
	ModelName() string

	// Dimensions is the vector width the model produces.
	Dimensions() int
}

// BatchError reports a failed embedding batch. A single failed batch
// aborts the whole operation: partially embedded indexes silently change
// recall, so the failure is surfaced instead (R3.3).
type BatchError struct {
	// Batch is the zero-based batch ordinal.
	Batch int

	// Start and End are the input offsets the batch covered, half-open.
	Start, End int

	// Err is the underlying model call failure.
	Err error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("embedding batch %d (texts %d-%d): %v", e.Batch, e.Start, e.End, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// EmbedAll embeds texts in batches of batchSize with up to concurrency
// batches in flight. Each batch writes its pre-assigned slice of the
// output, so the result order always matches the input order regardless
// of completion order (prd002-dense-index R3.2, R4.2). The first batch
// failure cancels the remaining batches and is returned as a *BatchError.
func EmbedAll(ctx context.Context, e Embedder, texts []string, batchSize, concurrency int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([][]float32, len(texts))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, concurrency)

	for batch, start := 0, 0; start < len(texts); batch, start = batch+1, start+batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(batch, start, end int) {
			defer wg.Done()
			defer func() { <-sem }()

			vectors, err := e.Embed(ctx, texts[start:end])
			if err == nil && len(vectors) != end-start {
				err = fmt.Errorf("model returned %d vectors for %d texts", len(vectors), end-start)
			}
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = &BatchError{Batch: batch, Start: start, End: end, Err: err}
					cancel()
				}
				mu.Unlock()
				return
			}
			copy(out[start:end], vectors)
		}(batch, start, end)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
