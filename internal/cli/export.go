package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arbormap/arbor/pkg/cache"
	"github.com/arbormap/arbor/pkg/render"
	"github.com/arbormap/arbor/pkg/tree"
)

// exportCommand creates the export command for rendering tree diagrams.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output  string
		formats string
		noCache bool
	)
	opts := render.Options{}

	cmd := &cobra.Command{
		Use:   "export [tree.json]",
		Short: "Render a family tree file as a diagram",
		Long: `Render a family tree file as a diagram.

Reads a tree JSON file (typically one produced by 'arbor layout') and
renders it in one or more formats: svg, png, jpg, pdf, dot, or graph.
PDF output requires rsvg-convert on PATH; dot emits raw Graphviz source
while graph renders a Graphviz-laid-out relationship view as SVG.

Rendered artifacts are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args[0], opts, parseFormats(formats), output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file base (default: input name)")
	cmd.Flags().StringVarP(&formats, "format", "f", render.FormatSVG, "comma-separated output formats: svg, png, jpg, pdf, dot, graph")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().IntVar(&opts.Width, "width", render.DefaultWidth, "raster width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", render.DefaultHeight, "raster height in pixels")
	cmd.Flags().IntVar(&opts.Quality, "quality", render.DefaultQuality, "jpg quality (1-100)")

	return cmd
}

// runExport loads the tree and renders each requested format.
func (c *CLI) runExport(ctx context.Context, input string, opts render.Options, formats []string, output string, noCache bool) error {
	for _, f := range formats {
		if err := render.ValidateFormat(f); err != nil {
			return err
		}
	}

	t, err := tree.ImportJSON(input)
	if err != nil {
		return fmt.Errorf("load tree %s: %w", input, err)
	}

	store, err := newCache(noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer store.Close()

	treeHash, err := cache.HashJSON(t)
	if err != nil {
		return err
	}

	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	}

	pr := newProgress(c.Logger)
	allCached := true
	for _, format := range formats {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		opts.Format = format
		opts.SetDefaults()

		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", format))
		spinner.Start()

		data, cached, err := c.renderArtifact(ctx, store, t, treeHash, opts)
		if err != nil {
			spinner.StopWithError(fmt.Sprintf("Render %s failed", format))
			return fmt.Errorf("render %s: %w", format, err)
		}
		spinner.Stop()
		allCached = allCached && cached

		outputPath := base + "." + render.Extension(format)
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", outputPath, err)
		}
		printFile(outputPath)
	}
	pr.done(fmt.Sprintf("Rendered %d format(s)", len(formats)))

	printSuccess("Export complete")
	printTreeStats(len(t.Persons), len(t.Marriages), allCached)

	return nil
}

// renderArtifact renders one format, consulting the cache first.
func (c *CLI) renderArtifact(ctx context.Context, store cache.Cache, t *tree.Tree, treeHash string, opts render.Options) ([]byte, bool, error) {
	key := cache.ArtifactKey(treeHash, cache.ArtifactKeyOpts{
		Format:  opts.Format,
		Width:   opts.Width,
		Height:  opts.Height,
		Quality: opts.Quality,
	})

	if data, ok, err := store.Get(ctx, key); err == nil && ok {
		return data, true, nil
	}

	data, err := render.Export(t, opts)
	if err != nil {
		return nil, false, err
	}
	if err := store.Set(ctx, key, data, cache.DefaultTTL); err != nil {
		c.Logger.Warn("cache write failed", "err", err)
	}
	return data, false, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{render.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
