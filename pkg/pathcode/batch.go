package pathcode

import (
	"context"
	"fmt"
	"math/big"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// EncodeBatch encodes independent paths in parallel. Results are positional.
// The first failure cancels the remaining work and is returned.
func (c *Codec) EncodeBatch(ctx context.Context, paths [][]*big.Int, depthLimit int) ([]PathCode, error) {
	out := make([]PathCode, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range paths {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pc, err := c.Encode(path, depthLimit)
			if err != nil {
				return fmt.Errorf("pathcode: batch path %d: %w", i, err)
			}
			out[i] = pc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
