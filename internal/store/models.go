// Package store provides persistence for registered path codes and the
// similarity edges they were computed against.
package store

// SuperToken is a registered path: the ordered node labels, the claim the
// path supports, and its encoded form. Code is a decimal string so values
// beyond 64 bits survive every backend.
type SuperToken struct {
	ID        string   `json:"id"`
	Labels    []string `json:"labels"`
	Claim     string   `json:"claim"`
	Code      string   `json:"code"`
	Depth     int      `json:"depth"`
	Capped    bool     `json:"capped,omitempty"`
	CreatedAt int64    `json:"createdAt"`
}

// Edge is a persisted undirected similarity link.
type Edge struct {
	ID        string  `json:"id"`
	SourceID  string  `json:"sourceId"`
	TargetID  string  `json:"targetId"`
	Weight    float64 `json:"weight"`
	CreatedAt int64   `json:"createdAt"`
}

// Storer defines the interface for data persistence.
// This allows swapping between MemStore (testing) and SQLiteStore (production).
type Storer interface {
	// Super tokens
	UpsertSuperToken(tok *SuperToken) error
	GetSuperToken(id string) (*SuperToken, error)
	DeleteSuperToken(id string) error
	ListSuperTokens() ([]*SuperToken, error)
	FindSuperTokensByCode(code string, depth int) ([]*SuperToken, error)
	CountSuperTokens() (int, error)

	// Edges
	UpsertEdge(edge *Edge) error
	GetEdge(id string) (*Edge, error)
	DeleteEdge(id string) error
	ListEdges() ([]*Edge, error)
	CountEdges() (int, error)

	// Lifecycle
	Close() error
}
