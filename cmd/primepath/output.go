package main

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/kittclouds/primepath/pkg/primes"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseBig(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not a decimal integer: %w", s, primes.ErrInvalidArgument)
	}
	return n, nil
}

func parseBigs(args []string) ([]*big.Int, error) {
	out := make([]*big.Int, len(args))
	for i, s := range args {
		n, err := parseBig(s)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func decimals(xs []*big.Int) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = x.String()
	}
	return out
}
