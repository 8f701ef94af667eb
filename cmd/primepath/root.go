package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kittclouds/primepath/internal/config"
	"github.com/kittclouds/primepath/internal/logger"
	"github.com/kittclouds/primepath/pkg/pathcode"
	"github.com/kittclouds/primepath/pkg/primes"
)

// app carries what PersistentPreRunE builds for the subcommands.
type app struct {
	configPath string
	depthLimit int
	logLevel   string

	cfg   *config.Config
	log   zerolog.Logger
	reg   *primes.Registry
	codec *pathcode.Codec
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "primepath",
		Short: "Prime path encoding engine",
		Long: `primepath assigns a canonical prime to every directed edge of a labeled
graph and compresses paths of such edges into a single integer by
multiplication and recursive lifting into the prime sequence.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	root.PersistentFlags().IntVar(&a.depthLimit, "depth-limit", -1,
		"Lift budget for encoding (default: codec.depth_limit from config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log level")

	root.AddCommand(
		a.nthCmd(),
		a.indexCmd(),
		a.factorCmd(),
		a.encodeCmd(),
		a.decodeCmd(),
		a.edgePrimeCmd(),
		a.statsCmd(),
		a.pathCmd(),
		a.resolveCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	w := cmd.ErrOrStderr()
	if strings.EqualFold(cfg.Log.Output, "stdout") {
		w = cmd.OutOrStdout()
	}
	a.log, err = logger.NewWithWriter(cfg.Log, w)
	if err != nil {
		return err
	}

	a.reg = primes.NewRegistry(cfg.Registry, primes.WithLogger(a.log))
	if err := a.reg.Preseed(); err != nil {
		return fmt.Errorf("preseed registry: %w", err)
	}

	a.codec, err = pathcode.NewCodec(a.reg, cfg.Codec, pathcode.WithLogger(a.log))
	return err
}

// limit resolves --depth-limit against the config.
func (a *app) limit() int {
	if a.depthLimit >= 0 {
		return a.depthLimit
	}
	return a.cfg.Codec.DepthLimit
}
