// Package export reads and writes the files around an alignment session:
// per-pair alignment JSON and YAML project descriptions of a slice stack.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"slicealign/internal/models"
)

// WriteAlignment writes a as the flat JSON object {"theta","px","py"}.
func WriteAlignment(w io.Writer, a models.Alignment) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("failed to encode alignment: %w", err)
	}
	return nil
}

// ReadAlignment parses an alignment written by WriteAlignment. Unknown
// fields are rejected so a mistyped key is not read as zero.
func ReadAlignment(r io.Reader) (models.Alignment, error) {
	var a models.Alignment
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return models.Alignment{}, fmt.Errorf("failed to decode alignment: %w", err)
	}
	return a, nil
}

// ChainFileName returns the file name for the alignment of moving slice k
// (0-based). pattern receives the 1-based numbers of the reference and the
// moving slice, so slice 1 becomes "alignment-1-and-2.json".
func ChainFileName(pattern string, k int) string {
	return fmt.Sprintf(pattern, k, k+1)
}

// WriteChain writes one file per slice after the first and returns the paths
// written. The first slice is the fixed reference and has no file.
func WriteChain(dir, pattern string, alignments []models.Alignment) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, 0, len(alignments))
	for k := 1; k < len(alignments); k++ {
		path := filepath.Join(dir, ChainFileName(pattern, k))
		if err := writeAlignmentFile(path, alignments[k]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeAlignmentFile(path string, a models.Alignment) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return WriteAlignment(f, a)
}
