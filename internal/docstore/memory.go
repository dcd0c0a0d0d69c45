package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// memoryStore is the in-process reference implementation, used by tests.
// Documents are deep-ish copied on the way in and out so callers cannot
// mutate stored state behind the store's back.
type memoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]Document
	// insertion order per collection, so unordered lists and order ties
	// stay stable.
	insertions map[string][]string
}

func NewMemoryStore() Store {
	return &memoryStore{
		collections: make(map[string]map[string]Document),
		insertions:  make(map[string][]string),
	}
}

func (s *memoryStore) Get(_ context.Context, collection, id string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDocument(doc, id), nil
}

func (s *memoryStore) List(_ context.Context, collection string, filters []Filter, orders ...Order) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var docs []Document
	for _, id := range s.insertions[collection] {
		doc, ok := s.collections[collection][id]
		if !ok {
			continue
		}
		if !matchesFilters(doc, filters) {
			continue
		}
		docs = append(docs, copyDocument(doc, id))
	}

	if len(orders) > 0 {
		sort.SliceStable(docs, func(i, j int) bool {
			for _, order := range orders {
				cmp := compareValues(docs[i][order.Field], docs[j][order.Field])
				if cmp == 0 {
					continue
				}
				if order.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}
	return docs, nil
}

func (s *memoryStore) Create(_ context.Context, collection, id string, data Document) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]Document)
	}
	if _, exists := s.collections[collection][id]; exists {
		return nil, fmt.Errorf("document %s/%s already exists", collection, id)
	}

	s.collections[collection][id] = copyDocument(data, id)
	s.insertions[collection] = append(s.insertions[collection], id)
	return copyDocument(data, id), nil
}

func (s *memoryStore) Update(_ context.Context, collection, id string, data Document) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}

	// Partial update, matching the Postgres jsonb merge.
	for k, v := range data {
		doc[k] = v
	}
	return copyDocument(doc, id), nil
}

func (s *memoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

func matchesFilters(doc Document, filters []Filter) bool {
	for _, f := range filters {
		v, ok := doc[f.Field]
		if !ok || fmt.Sprint(v) != fmt.Sprint(f.Value) {
			return false
		}
	}
	return true
}

func copyDocument(doc Document, id string) Document {
	out := make(Document, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	out["id"] = id
	return out
}

func compareValues(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
