package knowledgebase

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed articles.yaml
var defaultArticles []byte

// MemoryStore is an immutable, in-memory ArticleStore. It needs no locking
// because nothing mutates it after construction.
type MemoryStore struct {
	articles []Article
	byID     map[string]int
}

// NewMemoryStore builds a store from articles, rejecting repeated ids.
func NewMemoryStore(articles []Article) (*MemoryStore, error) {
	byID := make(map[string]int, len(articles))
	owned := make([]Article, len(articles))
	for i, a := range articles {
		if _, ok := byID[a.ID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateArticle, a.ID)
		}
		byID[a.ID] = i
		a.Tags = append([]string(nil), a.Tags...)
		owned[i] = a
	}
	return &MemoryStore{articles: owned, byID: byID}, nil
}

// LoadArticles decodes a YAML list of articles.
func LoadArticles(r io.Reader) ([]Article, error) {
	var articles []Article
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&articles); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode articles: %w", err)
	}
	return articles, nil
}

// DefaultStore returns the store backed by the embedded sample articles.
func DefaultStore() (*MemoryStore, error) {
	articles, err := LoadArticles(bytes.NewReader(defaultArticles))
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(articles)
}

// OpenStore loads articles from path, or the embedded set when path is empty.
func OpenStore(path string) (*MemoryStore, error) {
	if path == "" {
		return DefaultStore()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open articles file: %w", err)
	}
	defer f.Close()

	articles, err := LoadArticles(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewMemoryStore(articles)
}

func (s *MemoryStore) GetArticle(_ context.Context, id string) (*Article, error) {
	i, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrArticleNotFound, id)
	}
	a := s.articles[i]
	return &a, nil
}

// ListArticles returns the articles in load order. The slice is shared and
// must not be modified.
func (s *MemoryStore) ListArticles(_ context.Context) ([]Article, error) {
	return s.articles, nil
}

// Len reports how many articles the store holds.
func (s *MemoryStore) Len() int {
	return len(s.articles)
}
