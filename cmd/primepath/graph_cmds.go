package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kittclouds/primepath/internal/store"
	"github.com/kittclouds/primepath/pkg/graph"
	"github.com/kittclouds/primepath/pkg/knowledge"
	"github.com/kittclouds/primepath/pkg/pathcode"
	"github.com/kittclouds/primepath/pkg/primes"
)

// openService loads the graph file and opens the configured store. The
// caller closes the store.
func (a *app) openService(graphPath string) (*knowledge.Service, store.Storer, error) {
	if graphPath == "" {
		return nil, nil, fmt.Errorf("--graph is required: %w", primes.ErrInvalidArgument)
	}
	data, err := os.ReadFile(graphPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read graph: %w", err)
	}
	var snap graph.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil, fmt.Errorf("parse graph %s: %w", graphPath, err)
	}

	st, err := store.NewSQLiteStoreWithDSN(a.cfg.Store.DSN)
	if err != nil {
		return nil, nil, err
	}

	svc := knowledge.NewService(graph.FromSnapshot(snap), a.reg, a.codec, st,
		knowledge.WithDepthLimit(a.limit()),
		knowledge.WithLogger(a.log),
	)
	return svc, st, nil
}

func (a *app) edgePrimeCmd() *cobra.Command {
	var graphPath string
	cmd := &cobra.Command{
		Use:   "edge-prime SOURCE TARGET",
		Short: "Print the canonical prime of the edge SOURCE -> TARGET",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := a.openService(graphPath)
			if err != nil {
				return err
			}
			defer st.Close()

			p, err := svc.EdgePrime(args[0], args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]any{
				"source":    args[0],
				"target":    args[1],
				"neighbors": svc.SortedNeighbors(args[0]),
				"prime":     p.String(),
			})
		},
	}
	cmd.Flags().StringVar(&graphPath, "graph", "", "Graph snapshot JSON file")
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	var graphPath string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the graph: counts, orphans and hubs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := a.openService(graphPath)
			if err != nil {
				return err
			}
			defer st.Close()
			return writeJSON(cmd, svc.Stats())
		},
	}
	cmd.Flags().StringVar(&graphPath, "graph", "", "Graph snapshot JSON file")
	return cmd
}

type pathResponse struct {
	Path       []string          `json:"path"`
	EdgePrimes []string          `json:"edgePrimes"`
	PathCode   pathcode.PathCode `json:"pathCode"`
	TokenID    string            `json:"tokenId,omitempty"`
}

func (a *app) pathCmd() *cobra.Command {
	var (
		graphPath string
		claim     string
		register  bool
	)
	cmd := &cobra.Command{
		Use:   "path FROM TO | path --nodes LABEL...",
		Short: "Find a shortest path and encode it",
		Long: `With two arguments, finds a shortest path FROM -> TO and encodes its edges.
With --nodes, encodes the given node sequence as is. --register stores the
path as a super token with --claim.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := a.openService(graphPath)
			if err != nil {
				return err
			}
			defer st.Close()

			labels := args
			nodes, _ := cmd.Flags().GetBool("nodes")
			if !nodes {
				if len(args) != 2 {
					return fmt.Errorf("expected FROM TO, got %d labels: %w", len(args), primes.ErrInvalidArgument)
				}
				if labels, err = svc.FindPath(args[0], args[1]); err != nil {
					return asNotFound(err)
				}
			}

			pc, ps, err := svc.EncodeNodePath(labels)
			if err != nil {
				return err
			}
			resp := pathResponse{Path: labels, EdgePrimes: decimals(ps), PathCode: pc}

			if register {
				tok, err := svc.RegisterSuperToken(labels, claim)
				if err != nil {
					return err
				}
				resp.TokenID = tok.ID
			}
			return writeJSON(cmd, resp)
		},
	}
	cmd.Flags().StringVar(&graphPath, "graph", "", "Graph snapshot JSON file")
	cmd.Flags().Bool("nodes", false, "Treat the arguments as the full node path")
	cmd.Flags().BoolVar(&register, "register", false, "Store the path as a super token")
	cmd.Flags().StringVar(&claim, "claim", "", "Claim recorded with --register")
	return cmd
}

type resolveResponse struct {
	Token   *store.SuperToken `json:"token"`
	Decoded []string          `json:"decoded"`
	Current []string          `json:"current,omitempty"`
	Stale   bool              `json:"stale"`
}

func (a *app) resolveCmd() *cobra.Command {
	var graphPath string
	cmd := &cobra.Command{
		Use:   "resolve TOKEN_ID",
		Short: "Decode a stored super token and check it against the graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := a.openService(graphPath)
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := svc.ResolveSuperToken(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, resolveResponse{
				Token:   res.Token,
				Decoded: decimals(res.Decoded),
				Current: decimals(res.Current),
				Stale:   res.Stale,
			})
		},
	}
	cmd.Flags().StringVar(&graphPath, "graph", "", "Graph snapshot JSON file")
	return cmd
}

// asNotFound maps graph lookup failures onto the engine's NotFound kind.
func asNotFound(err error) error {
	if errors.Is(err, graph.ErrNodeNotFound) || errors.Is(err, graph.ErrNoPath) {
		return fmt.Errorf("%w: %w", err, primes.ErrNotFound)
	}
	return err
}
