package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/plastic-phy/plastic/pkg/phylo"
)

// stripCellsCommand creates the strip-cells command.
func (c *CLI) stripCellsCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "strip-cells [tree.dot]",
		Short: "Remove the cell leaves from a tree",
		Long: `Remove every cell leaf (unlabeled node with shape=box) from a SASC tree.

Without --output the result is written to stdout in DOT format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := phylo.ReadSASCFile(args[0])
			if err != nil {
				return err
			}
			bare, err := tree.WithoutCells()
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("removed cells", "count", len(tree.CellNodes()))

			if output == "" {
				return bare.Tree().WriteDOT(os.Stdout)
			}
			if err := bare.Tree().WriteFile(output); err != nil {
				return err
			}
			printSuccess("Removed %d cells from %s", len(tree.CellNodes()), args[0])
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output DOT file (default stdout)")
	return cmd
}
