package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/plastic-phy/plastic/pkg/errors"
	"github.com/plastic-phy/plastic/pkg/phylo"
)

type simplifyOpts struct {
	output    string
	threshold int
	collapse  bool
	drawPath  string
	noSupport bool
	noColor   bool
}

// simplifyCommand creates the simplify command.
func (c *CLI) simplifyCommand() *cobra.Command {
	var opts simplifyOpts

	cmd := &cobra.Command{
		Use:   "simplify [tree.dot]",
		Short: "Compute support and collapse weak or linear branches",
		Long: `Compute the support of every mutation node and simplify the tree.

The input must be a SASC tree with cells attached. Cell leaves are removed from
the output; each mutation node gets a support percentage instead.

With --support-threshold N, nodes whose support is below N percent are merged
into their parent. With --collapse-paths, unbranched chains of mutation nodes
are merged into a single node. Defaults come from the [visualization] section
of the config file.

Without --output the simplified tree is written to stdout in DOT format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vopts := phylo.VisualizationOptions{
				SupportThreshold:    c.Config.Visualization.SupportThreshold,
				CollapseSimplePaths: c.Config.Visualization.CollapseSimplePaths,
			}
			if cmd.Flags().Changed("support-threshold") {
				if opts.threshold < 0 || opts.threshold > 100 {
					return errors.New(errors.ErrCodeInvalidValue, "--support-threshold must be between 0 and 100, got %d", opts.threshold)
				}
				vopts.SupportThreshold = &opts.threshold
			}
			if cmd.Flags().Changed("collapse-paths") {
				vopts.CollapseSimplePaths = opts.collapse
			}
			return c.runSimplify(cmd.Context(), args[0], vopts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output DOT file (default stdout)")
	cmd.Flags().IntVarP(&opts.threshold, "support-threshold", "s", 0, "merge nodes with support below this percentage into their parent")
	cmd.Flags().BoolVarP(&opts.collapse, "collapse-paths", "p", false, "merge unbranched chains of mutation nodes")
	cmd.Flags().StringVar(&opts.drawPath, "draw", "", "also draw the simplified tree to this file (.svg, .png, .pdf)")
	cmd.Flags().BoolVar(&opts.noSupport, "no-support", false, "omit support percentages from the drawing")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "do not color nodes by support in the drawing")

	return cmd
}

func (c *CLI) runSimplify(ctx context.Context, input string, vopts phylo.VisualizationOptions, opts simplifyOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	tree, err := phylo.ReadSASCFile(input)
	if err != nil {
		return err
	}
	if !tree.HasCells() {
		return errors.New(errors.ErrCodeUncomputableSupport, "%s has no cells; support cannot be computed", input)
	}

	vopts.Logger = logger
	viz, err := tree.WithVisualizationFeatures(vopts)
	if err != nil {
		return err
	}
	prog.done("Simplified tree")

	if opts.output == "" {
		if err := viz.Tree().WriteDOT(os.Stdout); err != nil {
			return err
		}
	} else if err := viz.Tree().WriteFile(opts.output); err != nil {
		return err
	}

	if opts.drawPath != "" {
		if err := c.drawSASC(ctx, viz, opts.drawPath, !opts.noSupport && c.Config.Draw.ShowSupport, !opts.noColor && c.Config.Draw.ShowColor, false); err != nil {
			return err
		}
	}

	if opts.output == "" {
		return nil
	}
	printSuccess("Simplified %s", input)
	printStats(len(tree.MutationNodes()), len(tree.CellNodes()), len(tree.Deletions()))
	printDetail("%d mutation nodes after simplification", viz.Tree().Len())
	printFile(opts.output)
	if opts.drawPath != "" {
		printFile(opts.drawPath)
	} else {
		printNewline()
		printNextStep("Draw it", appName+" draw "+opts.output+" -o tree.pdf")
	}
	return nil
}
