// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Index storage layout (R5.1): a directory containing the row-major
// vector matrix, the row-indexed unit metadata table, and the manifest.
const (
	embeddingsFile = "embeddings.bin"
	unitsFile      = "units.jsonl"
	manifestFile   = "manifest.json"
)

// Save persists the index to dir. Each file is written to a temp path and
// renamed into place, so a crashed save never leaves a truncated file
// behind the manifest's back. Concurrent saves to one directory are not
// supported; the caller serializes builds (R5.2).
func (idx *Index) Save(dir string) error {
	if err := idx.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	if err := writeAtomic(filepath.Join(dir, embeddingsFile), idx.writeVectors); err != nil {
		return fmt.Errorf("writing vector matrix: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, unitsFile), idx.writeUnits); err != nil {
		return fmt.Errorf("writing unit metadata: %w", err)
	}
	// Manifest last: its presence marks a complete index.
	if err := writeAtomic(filepath.Join(dir, manifestFile), idx.writeManifest); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// writeAtomic writes via fn to path+".tmp" and renames into place.
func writeAtomic(path string, fn func(*bufio.Writer) error) error {
	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		f.Close()
		os.Remove(tempPath)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("flushing: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}

// writeVectors emits the matrix as little-endian float32, row-major.
func (idx *Index) writeVectors(w *bufio.Writer) error {
	buf := make([]byte, 4)
	for _, row := range idx.Vectors {
		for _, v := range row {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeUnits emits one JSON object per row.
func (idx *Index) writeUnits(w *bufio.Writer) error {
	enc := json.NewEncoder(w)
	for _, u := range idx.Units {
		if err := enc.Encode(u); err != nil {
			return err
		}
	}
	return nil
}

func (idx *Index) writeManifest(w *bufio.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(idx.Manifest)
}

// Load reads a persisted index from dir and checks its row invariants:
// the matrix byte size must agree with the manifest's dimensions, the
// metadata row count must match, and unit IDs must be unique (R5.4).
func Load(dir string) (*Index, error) {
	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	idx := &Index{Manifest: *manifest}

	if err := idx.loadUnits(filepath.Join(dir, unitsFile)); err != nil {
		return nil, err
	}
	if err := idx.loadVectors(filepath.Join(dir, embeddingsFile)); err != nil {
		return nil, err
	}
	if err := idx.validate(); err != nil {
		return nil, err
	}
	return idx, nil
}

// LoadManifest reads only the manifest, for inspection without paying the
// matrix load.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, dir)
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

func (idx *Index) loadUnits(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening unit metadata: %w", err)
	}
	defer f.Close()

	idx.Units = make([]UnitMeta, 0, idx.Manifest.NumUnits)
	dec := json.NewDecoder(bufio.NewReader(f))
	for dec.More() {
		var u UnitMeta
		if err := dec.Decode(&u); err != nil {
			return fmt.Errorf("parsing unit metadata row %d: %w", len(idx.Units), err)
		}
		idx.Units = append(idx.Units, u)
	}
	return nil
}

func (idx *Index) loadVectors(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading vector matrix: %w", err)
	}

	dim := idx.Manifest.EmbeddingDim
	wantBytes := idx.Manifest.NumUnits * dim * 4
	if len(data) != wantBytes {
		return fmt.Errorf("%w: matrix has %d bytes, manifest implies %d", ErrRowMismatch, len(data), wantBytes)
	}

	idx.Vectors = make([][]float32, idx.Manifest.NumUnits)
	for row := 0; row < idx.Manifest.NumUnits; row++ {
		vec := make([]float32, dim)
		base := row * dim * 4
		for col := 0; col < dim; col++ {
			bits := binary.LittleEndian.Uint32(data[base+col*4:])
			vec[col] = math.Float32frombits(bits)
		}
		idx.Vectors[row] = vec
	}
	return nil
}
