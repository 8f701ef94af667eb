package store

import (
	"sort"
	"sync"
)

// MemStore is an in-memory implementation of Storer for testing.
type MemStore struct {
	mu     sync.RWMutex
	tokens map[string]*SuperToken
	edges  map[string]*Edge
}

// NewMemStore creates a new in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		tokens: make(map[string]*SuperToken),
		edges:  make(map[string]*Edge),
	}
}

// Close is a no-op for MemStore.
func (s *MemStore) Close() error {
	return nil
}

// =============================================================================
// SuperToken CRUD
// =============================================================================

func (s *MemStore) UpsertSuperToken(tok *SuperToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copyToken(tok)
	if prev, ok := s.tokens[tok.ID]; ok {
		stored.CreatedAt = prev.CreatedAt
	}
	s.tokens[tok.ID] = stored
	return nil
}

func (s *MemStore) GetSuperToken(id string) (*SuperToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if tok, ok := s.tokens[id]; ok {
		return copyToken(tok), nil
	}
	return nil, nil
}

func (s *MemStore) DeleteSuperToken(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, id)
	return nil
}

func (s *MemStore) ListSuperTokens() ([]*SuperToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*SuperToken, 0, len(s.tokens))
	for _, tok := range s.tokens {
		result = append(result, copyToken(tok))
	}
	sortTokens(result)
	return result, nil
}

func (s *MemStore) FindSuperTokensByCode(code string, depth int) ([]*SuperToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*SuperToken
	for _, tok := range s.tokens {
		if tok.Code == code && tok.Depth == depth {
			result = append(result, copyToken(tok))
		}
	}
	sortTokens(result)
	return result, nil
}

func (s *MemStore) CountSuperTokens() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens), nil
}

// =============================================================================
// Edge CRUD
// =============================================================================

func (s *MemStore) UpsertEdge(edge *Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *edge
	s.edges[edge.ID] = &copy
	return nil
}

func (s *MemStore) GetEdge(id string) (*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if edge, ok := s.edges[id]; ok {
		copy := *edge
		return &copy, nil
	}
	return nil, nil
}

func (s *MemStore) DeleteEdge(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.edges, id)
	return nil
}

func (s *MemStore) ListEdges() ([]*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Edge, 0, len(s.edges))
	for _, edge := range s.edges {
		copy := *edge
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemStore) CountEdges() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges), nil
}

// =============================================================================
// Helpers
// =============================================================================

// copyToken deep-copies tok so callers cannot mutate stored labels.
func copyToken(tok *SuperToken) *SuperToken {
	copy := *tok
	copy.Labels = append([]string(nil), tok.Labels...)
	return &copy
}

func sortTokens(toks []*SuperToken) {
	sort.Slice(toks, func(i, j int) bool {
		if toks[i].CreatedAt != toks[j].CreatedAt {
			return toks[i].CreatedAt < toks[j].CreatedAt
		}
		return toks[i].ID < toks[j].ID
	})
}

// Compile-time interface check
var _ Storer = (*MemStore)(nil)
