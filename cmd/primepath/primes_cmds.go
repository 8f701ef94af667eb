package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kittclouds/primepath/pkg/primes"
)

func (a *app) nthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nth N",
		Short: "Print the N-th prime (1-based)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%q is not an integer: %w", args[0], primes.ErrInvalidArgument)
			}
			p, err := a.reg.NthPrime(n)
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]any{"n": n, "prime": p.String()})
		},
	}
}

func (a *app) indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index P",
		Short: "Print the 1-based position of prime P",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseBig(args[0])
			if err != nil {
				return err
			}
			idx, err := a.reg.PrimeIndex(p)
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]any{"prime": p.String(), "index": idx})
		},
	}
}

func (a *app) factorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "factor N",
		Short: "Print the prime factors of N in ascending order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseBig(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]any{
				"n":       n.String(),
				"factors": decimals(a.reg.Factorize(n)),
			})
		},
	}
}
