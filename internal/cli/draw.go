package cli

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plastic-phy/plastic/pkg/phylo"
	"github.com/plastic-phy/plastic/pkg/render"
)

type drawOpts struct {
	output    string
	format    string
	noSupport bool
	noColor   bool
	noCache   bool
}

// drawCommand creates the draw command.
func (c *CLI) drawCommand() *cobra.Command {
	var opts drawOpts

	cmd := &cobra.Command{
		Use:   "draw [tree.dot]",
		Short: "Draw a tree to SVG, PNG or PDF",
		Long: `Draw a SASC tree with Graphviz.

The output format follows the extension of --output (.svg, .png, .pdf, .dot).
Without --output the drawing is written next to the input, using --format or
the format from the config file.

Nodes that carry a support percentage (see 'simplify') are annotated with
[s = x%] and outlined on a blue to green scale; 0% is red.

Drawings are cached by content under the cache directory (see 'plastic cache
path'); --no-cache forces a fresh render.

PDF output requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := c.drawOutputPath(args[0], opts)
			if err != nil {
				return err
			}

			tree, err := phylo.ReadSASCFile(args[0])
			if err != nil {
				return err
			}

			showSupport := c.Config.Draw.ShowSupport && !opts.noSupport
			showColor := c.Config.Draw.ShowColor && !opts.noColor
			if err := c.drawSASC(cmd.Context(), tree, output, showSupport, showColor, opts.noCache); err != nil {
				return err
			}

			printSuccess("Drew %s", args[0])
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (.svg, .png, .pdf, .dot)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format when --output is not set: svg, png, pdf, dot")
	cmd.Flags().BoolVar(&opts.noSupport, "no-support", false, "omit support percentages")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "do not color nodes by support")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "render with Graphviz even if a cached drawing exists")

	return cmd
}

// drawOutputPath resolves the output file: --output as given, otherwise the
// input path with the extension of the chosen format.
func (c *CLI) drawOutputPath(input string, opts drawOpts) (string, error) {
	if opts.output != "" {
		if _, err := render.FormatFromPath(opts.output); err != nil {
			return "", err
		}
		return opts.output, nil
	}

	name := opts.format
	if name == "" {
		name = c.Config.Draw.Format
	}
	format, err := render.ParseFormat(name)
	if err != nil {
		return "", err
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if format == render.FormatDOT {
		return base + ".drawn.dot", nil
	}
	return base + "." + string(format), nil
}

// drawSASC renders tree to path while a spinner runs.
func (c *CLI) drawSASC(ctx context.Context, tree *phylo.SASC, path string, showSupport, showColor, noCache bool) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	rc := c.renderCache(noCache)
	defer rc.Close()

	spinner := newSpinner(ctx, "Rendering "+filepath.Base(path)+"...")
	spinner.Start()

	err := tree.DrawToFile(ctx, path, phylo.DrawOptions{
		ShowSupport: showSupport,
		ShowColor:   showColor,
		Logger:      logger,
		Cache:       rc,
		CacheTTL:    c.Config.Cache.TTL(),
	})
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return err
	}
	spinner.Stop()

	if err := ctx.Err(); err != nil {
		return err
	}
	prog.done("Rendered " + path)
	return nil
}
