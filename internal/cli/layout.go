package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arbormap/arbor/pkg/cache"
	"github.com/arbormap/arbor/pkg/layout"
	"github.com/arbormap/arbor/pkg/tree"
)

// layoutCommand creates the layout command for computing tree positions offline.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := layout.Options{}

	cmd := &cobra.Command{
		Use:   "layout [tree.json]",
		Short: "Compute diagram positions for a family tree file",
		Long: `Compute diagram positions for a family tree file.

The layout command reads a tree JSON file, runs the automatic layout
engine from the given root person, and writes the tree back with every
person's x/y coordinates updated. Persons not reachable from the root
are placed in a fallback row below the deepest generation.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	cmd.Flags().StringVarP(&opts.RootID, "root", "r", "", "root person id (required)")
	cmd.Flags().StringVarP(&opts.Direction, "direction", "d", layout.DirectionTopDown, "layout direction: top-down (default), left-right")
	cmd.Flags().Float64Var(&opts.SpacingX, "spacing-x", layout.DefaultSpacingX, "distance between persons in a generation")
	cmd.Flags().Float64Var(&opts.SpacingY, "spacing-y", layout.DefaultSpacingY, "distance between generations")
	_ = cmd.MarkFlagRequired("root")

	return cmd
}

// runLayout loads the tree, computes the layout, and writes the result.
func (c *CLI) runLayout(ctx context.Context, input string, opts layout.Options, output string, noCache bool) error {
	if err := layout.ValidateDirection(opts.Direction); err != nil {
		return err
	}

	t, err := tree.ImportJSON(input)
	if err != nil {
		return fmt.Errorf("load tree %s: %w", input, err)
	}
	if _, ok := t.Persons[opts.RootID]; !ok {
		return fmt.Errorf("root person not found: %s", opts.RootID)
	}

	store, err := newCache(noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer store.Close()

	opts.Logger = c.Logger
	opts.SetDefaults()

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	positions, cacheHit, err := c.computeLayout(ctx, store, t, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	for id, pos := range positions {
		if p, ok := t.Persons[id]; ok {
			p.X, p.Y = pos.X, pos.Y
		}
	}

	outputPath := output
	if outputPath == "" {
		outputPath = input
	}
	if err := tree.ExportJSON(t, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printTreeStats(len(t.Persons), len(t.Marriages), cacheHit)
	printNewline()
	printNextStep("Export", "arbor export "+outputPath)

	return nil
}

// computeLayout runs the engine, consulting the cache first.
func (c *CLI) computeLayout(ctx context.Context, store cache.Cache, t *tree.Tree, opts layout.Options) (map[string]layout.Position, bool, error) {
	treeHash, err := cache.HashJSON(t)
	if err != nil {
		return nil, false, err
	}
	key := cache.LayoutKey(treeHash, cache.LayoutKeyOpts{
		RootID:    opts.RootID,
		Direction: opts.Direction,
		SpacingX:  opts.SpacingX,
		SpacingY:  opts.SpacingY,
	})

	if data, ok, err := store.Get(ctx, key); err == nil && ok {
		var positions map[string]layout.Position
		if err := json.Unmarshal(data, &positions); err == nil {
			return positions, true, nil
		}
	}

	positions := layout.Compute(t, opts)

	if data, err := json.Marshal(positions); err == nil {
		if err := store.Set(ctx, key, data, cache.DefaultTTL); err != nil {
			c.Logger.Warn("cache write failed", "err", err)
		}
	}
	return positions, false, nil
}
