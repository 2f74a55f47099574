package dataset

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// fileRecord is the on-disk layout of a precomputed feature file. Features
// are extracted offline; the trainer only loads them.
type fileRecord struct {
	NumClasses int           `cbor:"num_classes"`
	Local      [][][]float64 `cbor:"local_feats"`
	Global     [][]float64   `cbor:"global_feats"`
	Labels     [][]float64   `cbor:"labels"`
}

func LoadFile(path string) (*Albums, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature file %q: %w", path, err)
	}

	var rec fileRecord
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode feature file %q: %w", path, err)
	}

	albums, err := NewAlbums(rec.Local, rec.Global, rec.Labels, rec.NumClasses)
	if err != nil {
		return nil, fmt.Errorf("feature file %q: %w", path, err)
	}

	return albums, nil
}

func WriteFile(path string, albums *Albums) error {
	data, err := cbor.Marshal(fileRecord{
		NumClasses: albums.classes,
		Local:      albums.local,
		Global:     albums.global,
		Labels:     albums.labels,
	})
	if err != nil {
		return fmt.Errorf("failed to encode feature file: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write feature file %q: %w", path, err)
	}

	return nil
}
