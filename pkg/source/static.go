package source

import (
	"context"
	"fmt"

	"github.com/CTAG07/Ebooks/pkg/corpus"
)

// FileSource reads a static corpus file in the quoted one-post-per-line format.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string { return "file:" + s.Path }

func (s *FileSource) Fetch(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	texts, err := corpus.ReadLinesFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", s.Path, err)
	}
	return texts, nil
}

// StoreSource serves the texts held in a corpus store.
type StoreSource struct {
	Store corpus.Store
	Label string
}

func (s *StoreSource) Name() string {
	if s.Label != "" {
		return "store:" + s.Label
	}
	return "store"
}

func (s *StoreSource) Fetch(ctx context.Context) ([]string, error) {
	return s.Store.Get(ctx)
}
