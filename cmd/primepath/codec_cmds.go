package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kittclouds/primepath/pkg/primes"
)

func (a *app) encodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode PRIME...",
		Short: "Encode a list of edge primes into a path code",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := parseBigs(args)
			if err != nil {
				return err
			}
			pc, err := a.codec.Encode(ps, a.limit())
			if err != nil {
				return err
			}
			return writeJSON(cmd, pc)
		},
	}
}

func (a *app) decodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode CODE DEPTH",
		Short: "Recover the edge primes of a path code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseBig(args[0])
			if err != nil {
				return err
			}
			depth, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%q is not an integer: %w", args[1], primes.ErrInvalidArgument)
			}
			ps, err := a.codec.Decode(code, depth)
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]any{
				"code":   code.String(),
				"depth":  depth,
				"primes": decimals(ps),
			})
		},
	}
}
