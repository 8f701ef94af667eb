// Package vector keeps chunk embeddings in an HNSW index and turns them into
// the similarity graph that paths are encoded over.
package vector

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/fogfish/hnsw"
	"github.com/fogfish/hnsw/vector"
	"github.com/hack-pad/hackpadfs"
	kvector "github.com/kshard/vector"

	"github.com/kittclouds/primepath/pkg/graph"
)

var (
	ErrDimension      = errors.New("vector: dimension mismatch")
	ErrDuplicateLabel = errors.New("vector: duplicate label")
)

// cosineDistance scores two vectors as (1 - cos)/2. Its kernel works on
// blocks of 4 lanes, so every stored dimension is a multiple of 4.
var cosineDistance = kvector.Cosine()

// lanes is the block width the distance kernel requires.
const lanes = 4

// Store manages the HNSW index, the label of every key and its persistence.
// Keys are positions in labels.
type Store struct {
	mu     sync.RWMutex
	index  *hnsw.HNSW[vector.VF32]
	labels []string
	vecs   [][]float32
	keys   map[string]uint32

	fs   hackpadfs.FS
	path string
}

// snapshot is the gob form written by Save.
type snapshot struct {
	Nodes   hnsw.Nodes[vector.VF32]
	Labels  []string
	Vectors [][]float32
}

// NewStore creates a store persisted at path on fsys. An existing index is
// loaded; a missing one starts empty. Any other read failure is returned.
func NewStore(fsys hackpadfs.FS, path string) (*Store, error) {
	s := &Store{fs: fsys, path: path}
	s.reset()

	if err := s.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return s, nil
}

func (s *Store) reset() {
	s.index = newIndex()
	s.labels = nil
	s.vecs = nil
	s.keys = make(map[string]uint32)
}

func newIndex() *hnsw.HNSW[vector.VF32] {
	return hnsw.New[vector.VF32](vector.SurfaceVF32(cosineDistance))
}

// Len returns the number of stored vectors.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.labels)
}

// Labels returns the stored labels in insertion order.
func (s *Store) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.labels...)
}

// Add inserts vec under label.
// Returns error if vector dimension doesn't match existing index or is not a
// multiple of 4.
func (s *Store) Add(label string, vec []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(vec) == 0 {
		return fmt.Errorf("%w: empty vector for %q", ErrDimension, label)
	}
	if _, ok := s.keys[label]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateLabel, label)
	}
	if err := s.checkDim(vec); err != nil {
		return err
	}

	key := uint32(len(s.labels))
	v := append([]float32(nil), vec...)
	s.index.Insert(vector.VF32{Key: key, Vec: v})
	s.labels = append(s.labels, label)
	s.vecs = append(s.vecs, v)
	s.keys[label] = key
	return nil
}

func (s *Store) checkDim(vec []float32) error {
	if len(vec)%lanes != 0 {
		return fmt.Errorf("%w: length %d is not a multiple of %d", ErrDimension, len(vec), lanes)
	}
	if len(s.vecs) > 0 && len(vec) != len(s.vecs[0]) {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimension, len(s.vecs[0]), len(vec))
	}
	return nil
}

// Search returns the labels of the k nearest vectors, closest first.
func (s *Store) Search(vec []float32, k int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 || len(s.labels) == 0 {
		return nil, nil
	}
	if err := s.checkDim(vec); err != nil {
		return nil, err
	}

	hits := s.search(vec, k)
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = s.labels[h.Key]
	}
	return out, nil
}

func (s *Store) search(vec []float32, k int) []vector.VF32 {
	ef := max(k*2, 100)
	return s.index.Search(vector.VF32{Vec: vec}, k, ef)
}

// SimilarityGraph links every stored vector to those of its k nearest
// neighbors whose cosine similarity is at least threshold. Every label is a
// node, linked or not.
func (s *Store) SimilarityGraph(k int, threshold float32) *graph.ConceptGraph {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g := graph.NewGraph()
	for _, label := range s.labels {
		g.EnsureNode(label, label, "CHUNK")
	}
	if k <= 0 {
		return g
	}

	for key, vec := range s.vecs {
		// one extra slot for the vector itself
		for _, h := range s.search(vec, k+1) {
			if int(h.Key) == key {
				continue
			}
			sim := similarity(vec, s.vecs[h.Key])
			if sim >= threshold {
				g.Link(s.labels[key], s.labels[h.Key], float64(sim))
			}
		}
	}
	return g
}

// similarity maps the cosine distance back onto [-1, 1]. A zero vector
// yields NaN, which never passes a threshold.
func similarity(a, b []float32) float32 {
	return 1 - 2*cosineDistance.Distance(a, b)
}

// Save persists the index to FS.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		Nodes:   s.index.Nodes(),
		Labels:  s.labels,
		Vectors: s.vecs,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	if err := hackpadfs.WriteFullFile(s.fs, s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	return nil
}

// Load replaces the in-memory index with the one on FS.
func (s *Store) Load() error {
	content, err := hackpadfs.ReadFile(s.fs, s.path)
	if err != nil {
		return err
	}

	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(content)).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode index: %w", err)
	}
	if len(snap.Labels) != len(snap.Vectors) {
		return fmt.Errorf("corrupt index: %d labels for %d vectors", len(snap.Labels), len(snap.Vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	if len(snap.Labels) > 0 {
		s.index = hnsw.FromNodes[vector.VF32](vector.SurfaceVF32(cosineDistance), snap.Nodes)
	}
	s.labels = snap.Labels
	s.vecs = snap.Vectors
	for i, label := range s.labels {
		s.keys[label] = uint32(i)
	}
	return nil
}
