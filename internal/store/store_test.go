package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Store Factory for Testing Both Implementations
// =============================================================================

// storeFactory creates a store for testing.
// We test both MemStore and SQLiteStore with the same test suite.
type storeFactory func() (Storer, error)

func memStoreFactory() (Storer, error) {
	return NewMemStore(), nil
}

func sqliteStoreFactory() (Storer, error) {
	return NewSQLiteStore()
}

// runTestsForAllStores runs a test function against both store implementations.
func runTestsForAllStores(t *testing.T, testName string, testFn func(t *testing.T, store Storer)) {
	factories := map[string]storeFactory{
		"MemStore":    memStoreFactory,
		"SQLiteStore": sqliteStoreFactory,
	}

	for name, factory := range factories {
		t.Run(name+"/"+testName, func(t *testing.T) {
			store, err := factory()
			require.NoError(t, err, "Failed to create store")
			defer store.Close()
			testFn(t, store)
		})
	}
}

// =============================================================================
// SuperToken CRUD Tests
// =============================================================================

func TestSuperTokenUpsertAndGet(t *testing.T) {
	runTestsForAllStores(t, "UpsertAndGet", func(t *testing.T, store Storer) {
		now := time.Now().UnixMilli()
		tok := &SuperToken{
			ID:        "tok-1",
			Labels:    []string{"doc1#0", "doc2#3", "doc1#4"},
			Claim:     "methods chain into results",
			Code:      "340282366920938463463374607431768211507",
			Depth:     2,
			Capped:    true,
			CreatedAt: now,
		}

		err := store.UpsertSuperToken(tok)
		require.NoError(t, err, "UpsertSuperToken should not error")

		retrieved, err := store.GetSuperToken("tok-1")
		require.NoError(t, err, "GetSuperToken should not error")
		require.NotNil(t, retrieved, "Retrieved token should not be nil")

		assert.Equal(t, tok.ID, retrieved.ID)
		assert.Equal(t, tok.Labels, retrieved.Labels)
		assert.Equal(t, tok.Claim, retrieved.Claim)
		assert.Equal(t, tok.Code, retrieved.Code)
		assert.Equal(t, tok.Depth, retrieved.Depth)
		assert.True(t, retrieved.Capped)
		assert.Equal(t, now, retrieved.CreatedAt)

		// Update keeps the registration time
		tok.Claim = "revised"
		tok.Capped = false
		tok.CreatedAt = now + 1000
		require.NoError(t, store.UpsertSuperToken(tok))

		retrieved, err = store.GetSuperToken("tok-1")
		require.NoError(t, err)
		assert.Equal(t, "revised", retrieved.Claim)
		assert.False(t, retrieved.Capped)
		assert.Equal(t, now, retrieved.CreatedAt)
	})
}

func TestSuperTokenGetNotFound(t *testing.T) {
	runTestsForAllStores(t, "GetNotFound", func(t *testing.T, store Storer) {
		retrieved, err := store.GetSuperToken("missing")
		require.NoError(t, err)
		assert.Nil(t, retrieved)
	})
}

func TestSuperTokenIsolation(t *testing.T) {
	runTestsForAllStores(t, "Isolation", func(t *testing.T, store Storer) {
		tok := &SuperToken{ID: "tok-1", Labels: []string{"a", "b"}, Code: "2", CreatedAt: 1}
		require.NoError(t, store.UpsertSuperToken(tok))

		tok.Labels[0] = "mutated"
		retrieved, err := store.GetSuperToken("tok-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, retrieved.Labels)
	})
}

func TestSuperTokenDelete(t *testing.T) {
	runTestsForAllStores(t, "Delete", func(t *testing.T, store Storer) {
		tok := &SuperToken{ID: "tok-del", Labels: []string{"a", "b"}, Code: "2", CreatedAt: 1}
		require.NoError(t, store.UpsertSuperToken(tok))

		require.NoError(t, store.DeleteSuperToken("tok-del"))

		retrieved, err := store.GetSuperToken("tok-del")
		require.NoError(t, err)
		assert.Nil(t, retrieved)

		// Deleting again is not an error
		assert.NoError(t, store.DeleteSuperToken("tok-del"))
	})
}

func TestSuperTokenListOrder(t *testing.T) {
	runTestsForAllStores(t, "ListOrder", func(t *testing.T, store Storer) {
		toks := []*SuperToken{
			{ID: "c", Labels: []string{"x", "y"}, Code: "13", Depth: 1, CreatedAt: 300},
			{ID: "b", Labels: []string{"x", "z"}, Code: "13", Depth: 1, CreatedAt: 100},
			{ID: "a", Labels: []string{"y", "z"}, Code: "30", Depth: 0, CreatedAt: 100},
		}
		for _, tok := range toks {
			require.NoError(t, store.UpsertSuperToken(tok))
		}

		list, err := store.ListSuperTokens()
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "a", list[0].ID)
		assert.Equal(t, "b", list[1].ID)
		assert.Equal(t, "c", list[2].ID)
	})
}

func TestSuperTokenFindByCode(t *testing.T) {
	runTestsForAllStores(t, "FindByCode", func(t *testing.T, store Storer) {
		toks := []*SuperToken{
			{ID: "t1", Labels: []string{"a", "b"}, Code: "13", Depth: 1, CreatedAt: 2},
			{ID: "t2", Labels: []string{"b", "a"}, Code: "13", Depth: 1, CreatedAt: 1},
			{ID: "t3", Labels: []string{"a", "c"}, Code: "13", Depth: 0, CreatedAt: 3},
			{ID: "t4", Labels: []string{"c", "d"}, Code: "30", Depth: 0, CreatedAt: 4},
		}
		for _, tok := range toks {
			require.NoError(t, store.UpsertSuperToken(tok))
		}

		found, err := store.FindSuperTokensByCode("13", 1)
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, "t2", found[0].ID)
		assert.Equal(t, "t1", found[1].ID)

		found, err = store.FindSuperTokensByCode("13", 0)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "t3", found[0].ID)

		found, err = store.FindSuperTokensByCode("999", 0)
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestSuperTokenCount(t *testing.T) {
	runTestsForAllStores(t, "Count", func(t *testing.T, store Storer) {
		count, err := store.CountSuperTokens()
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		for i := 0; i < 3; i++ {
			tok := &SuperToken{
				ID:        "tok-" + string(rune('a'+i)),
				Labels:    []string{"p", "q"},
				Code:      "6",
				CreatedAt: int64(i),
			}
			require.NoError(t, store.UpsertSuperToken(tok))
		}

		count, err = store.CountSuperTokens()
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})
}

// =============================================================================
// Edge CRUD Tests
// =============================================================================

func TestEdgeUpsertAndGet(t *testing.T) {
	runTestsForAllStores(t, "EdgeUpsertAndGet", func(t *testing.T, store Storer) {
		now := time.Now().UnixMilli()
		edge := &Edge{
			ID:        "doc1#0|doc2#0",
			SourceID:  "doc1#0",
			TargetID:  "doc2#0",
			Weight:    0.87,
			CreatedAt: now,
		}

		err := store.UpsertEdge(edge)
		require.NoError(t, err, "UpsertEdge should not error")

		retrieved, err := store.GetEdge("doc1#0|doc2#0")
		require.NoError(t, err, "GetEdge should not error")
		require.NotNil(t, retrieved, "Retrieved edge should not be nil")

		assert.Equal(t, edge.ID, retrieved.ID)
		assert.Equal(t, edge.SourceID, retrieved.SourceID)
		assert.Equal(t, edge.TargetID, retrieved.TargetID)
		assert.Equal(t, edge.Weight, retrieved.Weight)
		assert.Equal(t, edge.CreatedAt, retrieved.CreatedAt)
	})
}

func TestEdgeDelete(t *testing.T) {
	runTestsForAllStores(t, "EdgeDelete", func(t *testing.T, store Storer) {
		edge := &Edge{
			ID:        "edge-to-delete",
			SourceID:  "e1",
			TargetID:  "e2",
			Weight:    1,
			CreatedAt: time.Now().UnixMilli(),
		}

		require.NoError(t, store.UpsertEdge(edge))
		require.NoError(t, store.DeleteEdge("edge-to-delete"))

		retrieved, err := store.GetEdge("edge-to-delete")
		require.NoError(t, err)
		assert.Nil(t, retrieved)
	})
}

func TestEdgeList(t *testing.T) {
	runTestsForAllStores(t, "EdgeList", func(t *testing.T, store Storer) {
		now := time.Now().UnixMilli()
		edges := []*Edge{
			{ID: "e3", SourceID: "b", TargetID: "c", Weight: 0.7, CreatedAt: now},
			{ID: "e1", SourceID: "a", TargetID: "b", Weight: 0.9, CreatedAt: now},
			{ID: "e2", SourceID: "a", TargetID: "c", Weight: 0.8, CreatedAt: now},
		}
		for _, e := range edges {
			require.NoError(t, store.UpsertEdge(e))
		}

		list, err := store.ListEdges()
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "e1", list[0].ID)
		assert.Equal(t, "e2", list[1].ID)
		assert.Equal(t, "e3", list[2].ID)
	})
}

func TestEdgeCount(t *testing.T) {
	runTestsForAllStores(t, "EdgeCount", func(t *testing.T, store Storer) {
		count, err := store.CountEdges()
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		now := time.Now().UnixMilli()
		for i := 0; i < 4; i++ {
			edge := &Edge{
				ID:        "edge-" + string(rune('a'+i)),
				SourceID:  "src",
				TargetID:  "tgt",
				Weight:    0.5,
				CreatedAt: now,
			}
			require.NoError(t, store.UpsertEdge(edge))
		}

		// Upserting an existing ID does not add a row
		require.NoError(t, store.UpsertEdge(&Edge{ID: "edge-a", SourceID: "src", TargetID: "other", CreatedAt: now}))

		count, err = store.CountEdges()
		require.NoError(t, err)
		assert.Equal(t, 4, count)
	})
}

// =============================================================================
// SQLite specifics
// =============================================================================

func TestSQLiteVecRegistered(t *testing.T) {
	s, err := NewSQLiteStore()
	require.NoError(t, err)
	defer s.Close()

	v, err := s.VecVersion()
	require.NoError(t, err)
	assert.NotEmpty(t, v)
}

func TestSQLiteFilePersistence(t *testing.T) {
	dsn := t.TempDir() + "/primepath.db"

	s, err := NewSQLiteStoreWithDSN(dsn)
	require.NoError(t, err)
	require.NoError(t, s.UpsertSuperToken(&SuperToken{ID: "keep", Labels: []string{"a", "b"}, Code: "2", CreatedAt: 1}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStoreWithDSN(dsn)
	require.NoError(t, err)
	defer s.Close()

	tok, err := s.GetSuperToken("keep")
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, []string{"a", "b"}, tok.Labels)
}

// =============================================================================
// Interface Compliance Test
// =============================================================================

func TestStorerInterface(t *testing.T) {
	// Verify both implementations satisfy Storer interface
	var _ Storer = (*MemStore)(nil)
	var _ Storer = (*SQLiteStore)(nil)
}
