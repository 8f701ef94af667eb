// Command primepath encodes graph paths into prime path codes and decodes
// them again. Every command prints JSON on stdout.
package main

import (
	"encoding/json"
	"os"

	"github.com/kittclouds/primepath/pkg/pathcode"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		enc := json.NewEncoder(os.Stderr)
		_ = enc.Encode(errorResponse{
			Error: err.Error(),
			Code:  pathcode.ErrorCode(err),
		})
		os.Exit(1)
	}
}
