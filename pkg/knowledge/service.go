// Package knowledge is the knowledge-graph service the dashboard talks to.
// It owns the similarity graph, derives canonical edge primes from it,
// encodes node paths and keeps registered paths ("super tokens") in a store.
package knowledge

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kittclouds/primepath/internal/store"
	"github.com/kittclouds/primepath/pkg/canonical"
	"github.com/kittclouds/primepath/pkg/graph"
	"github.com/kittclouds/primepath/pkg/pathcode"
	"github.com/kittclouds/primepath/pkg/primes"
)

// Option configures a Service.
type Option func(*Service)

// WithDepthLimit overrides the codec's default lift budget.
func WithDepthLimit(n int) Option {
	return func(s *Service) {
		s.depthLimit = n
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log.With().Str("component", "knowledge").Logger()
	}
}

// WithClock sets the time source for registration timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service is safe for concurrent use. Graph mutations take the write lock;
// everything that derives edge primes holds the read lock so a path is
// always encoded against one snapshot.
type Service struct {
	mu    sync.RWMutex
	g     *graph.ConceptGraph
	ix    *canonical.Indexer
	codec *pathcode.Codec
	st    store.Storer

	depthLimit int
	log        zerolog.Logger
	now        func() time.Time
}

// NewService wires a service. A nil graph starts empty.
func NewService(g *graph.ConceptGraph, reg *primes.Registry, codec *pathcode.Codec, st store.Storer, opts ...Option) *Service {
	if g == nil {
		g = graph.NewGraph()
	}
	s := &Service{
		g:          g,
		ix:         canonical.NewIndexer(g, reg),
		codec:      codec,
		st:         st,
		depthLimit: codec.Config().DepthLimit,
		log:        zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DepthLimit returns the lift budget used for encoding.
func (s *Service) DepthLimit() int {
	return s.depthLimit
}

// =============================================================================
// Graph
// =============================================================================

// Link adds an undirected similarity edge. Linking a node to itself is
// rejected.
func (s *Service) Link(a, b string, weight float64) error {
	if a == "" || b == "" || a == b {
		return fmt.Errorf("knowledge: link %q - %q: %w", a, b, primes.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.Link(a, b, weight)
	return nil
}

// Unlink removes both directions of the edge between a and b.
func (s *Service) Unlink(a, b string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.RemoveEdge(a, b)
	s.g.RemoveEdge(b, a)
}

// ReplaceGraph swaps in the nodes and edges of snap.
func (s *Service) ReplaceGraph(snap graph.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	restore(s.g, graph.FromSnapshot(snap))
}

// Snapshot returns the current graph.
func (s *Service) Snapshot() graph.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.g.Snapshot()
}

// Stats summarizes the current graph.
func (s *Service) Stats() graph.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.g.Stats()
}

// SortedNeighbors returns the neighbors of node in canonical order.
func (s *Service) SortedNeighbors(node string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ix.SortedNeighbors(node)
}

// EdgePrime returns the canonical prime of source -> target.
func (s *Service) EdgePrime(source, target string) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ix.EdgePrime(source, target)
}

// FindPath returns a shortest node path from -> to.
func (s *Service) FindPath(from, to string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.g.ShortestPath(from, to)
}

// =============================================================================
// Encoding
// =============================================================================

// EncodeNodePath encodes the edges of the node path labels and returns the
// code with the edge primes it was built from, in path order.
func (s *Service) EncodeNodePath(labels []string) (pathcode.PathCode, []*big.Int, error) {
	ps, err := s.pathPrimes(labels)
	if err != nil {
		return pathcode.PathCode{}, nil, err
	}
	pc, err := s.codec.Encode(ps, s.depthLimit)
	if err != nil {
		return pathcode.PathCode{}, nil, err
	}
	return pc, ps, nil
}

// EncodeShortestPath finds a shortest path from -> to and encodes it.
func (s *Service) EncodeShortestPath(from, to string) ([]string, pathcode.PathCode, error) {
	s.mu.RLock()
	labels, err := s.g.ShortestPath(from, to)
	var ps []*big.Int
	if err == nil {
		ps, err = s.pathPrimesLocked(labels)
	}
	s.mu.RUnlock()
	if err != nil {
		return nil, pathcode.PathCode{}, err
	}

	pc, err := s.codec.Encode(ps, s.depthLimit)
	if err != nil {
		return nil, pathcode.PathCode{}, err
	}
	return labels, pc, nil
}

// Decode recovers the edge-prime multiset of pc.
func (s *Service) Decode(pc pathcode.PathCode) ([]*big.Int, error) {
	return s.codec.DecodePathCode(pc)
}

func (s *Service) pathPrimes(labels []string) ([]*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pathPrimesLocked(labels)
}

func (s *Service) pathPrimesLocked(labels []string) ([]*big.Int, error) {
	if len(labels) < 2 {
		return nil, fmt.Errorf("knowledge: path of %d labels: %w", len(labels), pathcode.ErrEmptyPath)
	}
	return s.ix.PathPrimes(labels)
}

// =============================================================================
// Super tokens
// =============================================================================

// Resolution is a stored super token checked against the current graph.
type Resolution struct {
	Token *store.SuperToken
	// Decoded is the edge-prime multiset recovered from the stored code.
	Decoded []*big.Int
	// Current holds the path's edge primes in the current graph, nil when
	// the path no longer exists.
	Current []*big.Int
	// Stale is set when the neighbor sets along the path changed since
	// registration, so the stored code no longer describes the path.
	Stale bool
}

// RegisterSuperToken encodes labels and persists them with claim.
func (s *Service) RegisterSuperToken(labels []string, claim string) (*store.SuperToken, error) {
	pc, _, err := s.EncodeNodePath(labels)
	if err != nil {
		return nil, err
	}

	tok := &store.SuperToken{
		ID:        uuid.NewString(),
		Labels:    append([]string(nil), labels...),
		Claim:     claim,
		Code:      pc.Code.String(),
		Depth:     pc.Depth,
		Capped:    pc.Capped,
		CreatedAt: s.now().UnixMilli(),
	}
	if err := s.st.UpsertSuperToken(tok); err != nil {
		return nil, fmt.Errorf("knowledge: store super token: %w", err)
	}

	s.log.Info().
		Str("id", tok.ID).
		Int("edges", len(labels)-1).
		Str("code", pc.String()).
		Bool("capped", pc.Capped).
		Msg("super token registered")
	return tok, nil
}

// ResolveSuperToken loads a super token, decodes it and compares it with the
// path's edge primes in the current graph.
func (s *Service) ResolveSuperToken(id string) (*Resolution, error) {
	tok, err := s.st.GetSuperToken(id)
	if err != nil {
		return nil, fmt.Errorf("knowledge: load super token: %w", err)
	}
	if tok == nil {
		return nil, fmt.Errorf("knowledge: super token %q: %w", id, primes.ErrNotFound)
	}

	code, ok := new(big.Int).SetString(tok.Code, 10)
	if !ok {
		return nil, fmt.Errorf("knowledge: super token %q has code %q: %w", id, tok.Code, pathcode.ErrDecode)
	}
	decoded, err := s.codec.Decode(code, tok.Depth)
	if err != nil {
		return nil, err
	}

	res := &Resolution{Token: tok, Decoded: decoded}

	current, err := s.pathPrimes(tok.Labels)
	switch {
	case errors.Is(err, primes.ErrNotFound):
		res.Stale = true
	case err != nil:
		return nil, err
	default:
		res.Current = current
		res.Stale = !sameMultiset(decoded, current)
	}
	return res, nil
}

// SuperTokensForCode lists the super tokens that share pc. Paths with the
// same edge-prime multiset encode identically.
func (s *Service) SuperTokensForCode(pc pathcode.PathCode) ([]*store.SuperToken, error) {
	return s.st.FindSuperTokensByCode(pc.Code.String(), pc.Depth)
}

// =============================================================================
// Persistence
// =============================================================================

// SaveGraph writes every undirected link to the store and removes stored
// edges no longer in the graph. It returns the number of links written.
func (s *Service) SaveGraph() (int, error) {
	s.mu.RLock()
	links := make(map[string]*store.Edge)
	now := s.now().UnixMilli()
	for _, ref := range s.g.AllEdges() {
		a, b := ref.Source, ref.Target
		if a > b {
			a, b = b, a
		}
		id := edgeID(a, b)
		if _, ok := links[id]; ok {
			continue
		}
		links[id] = &store.Edge{ID: id, SourceID: a, TargetID: b, Weight: ref.Edge.Weight, CreatedAt: now}
	}
	s.mu.RUnlock()

	stored, err := s.st.ListEdges()
	if err != nil {
		return 0, fmt.Errorf("knowledge: list edges: %w", err)
	}
	for _, e := range stored {
		if _, ok := links[e.ID]; !ok {
			if err := s.st.DeleteEdge(e.ID); err != nil {
				return 0, fmt.Errorf("knowledge: delete edge %s: %w", e.ID, err)
			}
		}
	}

	ids := make([]string, 0, len(links))
	for id := range links {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := s.st.UpsertEdge(links[id]); err != nil {
			return 0, fmt.Errorf("knowledge: save edge %s: %w", id, err)
		}
	}

	s.log.Debug().Int("links", len(ids)).Msg("graph saved")
	return len(ids), nil
}

// LoadGraph replaces the graph with the stored links and returns their count.
func (s *Service) LoadGraph() (int, error) {
	edges, err := s.st.ListEdges()
	if err != nil {
		return 0, fmt.Errorf("knowledge: list edges: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.Clear()
	for _, e := range edges {
		s.g.Link(e.SourceID, e.TargetID, e.Weight)
	}

	s.log.Debug().Int("links", len(edges)).Msg("graph loaded")
	return len(edges), nil
}

// edgeNamespace scopes the name-based UUIDs of stored links.
var edgeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("primepath:edge"))

// edgeID derives a stable ID for the link a - b (a <= b). The name is
// length-prefixed, so no two label pairs share it.
func edgeID(a, b string) string {
	name := strconv.Itoa(len(a)) + ":" + a + b
	return uuid.NewSHA1(edgeNamespace, []byte(name)).String()
}

// restore copies src into dst so the indexer keeps its graph pointer.
func restore(dst, src *graph.ConceptGraph) {
	dst.Nodes = src.Nodes
	dst.Outbound = src.Outbound
	dst.Inbound = src.Inbound
}

func sameMultiset(a, b []*big.Int) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]*big.Int(nil), a...)
	bs := append([]*big.Int(nil), b...)
	sort.Slice(as, func(i, j int) bool { return as[i].Cmp(as[j]) < 0 })
	sort.Slice(bs, func(i, j int) bool { return bs[i].Cmp(bs[j]) < 0 })
	for i := range as {
		if as[i].Cmp(bs[i]) != 0 {
			return false
		}
	}
	return true
}
