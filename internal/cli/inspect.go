package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/plastic-phy/plastic/pkg/phylo"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [tree.dot]",
		Short: "Summarize a tree and print its support table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runInspect(ctx context.Context, input string) error {
	tree, err := phylo.ReadSASCFile(input)
	if err != nil {
		return err
	}

	root, _ := tree.Node(tree.Tree().Root())
	mutations := tree.MutationNodes()
	cells := tree.CellNodes()
	deletions := tree.Deletions()

	printInfo("%s", StyleTitle.Render(input))
	if label, ok := tree.Tree().GraphAttrs()[phylo.AttrLabel]; ok {
		printKeyValue("Label", label)
	}
	printKeyValue("Root", root.Label()+" ("+root.ID+")")
	printKeyValue("Nodes", strconv.Itoa(tree.Tree().Len()))
	printKeyValue("Has cells", strconv.FormatBool(tree.HasCells()))
	printKeyValue("Deletions", joinOrNone(deletions))
	printStats(len(mutations), len(cells), len(deletions))
	printNewline()

	rows, err := supportRows(ctx, tree)
	if err != nil {
		return err
	}
	if rows == nil {
		printWarning("No cells and no support attributes; support is unavailable")
		return nil
	}
	printTable([]string{"ID", "Mutations", "Cells", "Support"}, rows)
	return nil
}

// supportRows builds one row per mutation node. Support is computed when
// the tree has cells and read from the support attribute otherwise. It
// returns nil when neither is available.
func supportRows(ctx context.Context, tree *phylo.SASC) ([][]string, error) {
	supports := make(map[string]*int)
	if tree.HasCells() {
		viz, err := tree.WithVisualizationFeatures(phylo.VisualizationOptions{Logger: loggerFromContext(ctx)})
		if err != nil {
			return nil, err
		}
		for _, n := range viz.MutationNodes() {
			supports[n.ID] = n.Support
		}
	} else {
		for _, n := range tree.MutationNodes() {
			if n.Support != nil {
				supports[n.ID] = n.Support
			}
		}
		if len(supports) == 0 {
			return nil, nil
		}
	}

	var rows [][]string
	for _, n := range tree.MutationNodes() {
		direct := 0
		for _, child := range tree.Tree().Children(n.ID) {
			if info, _ := tree.Node(child); info.Cell {
				direct++
			}
		}
		rows = append(rows, []string{n.ID, n.Name(), strconv.Itoa(direct), formatSupport(supports[n.ID])})
	}
	return rows, nil
}

func formatSupport(support *int) string {
	text := "-"
	if support != nil {
		text = strconv.Itoa(*support) + "%"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(phylo.SupportColor(support))).Render(text)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, " ")
}
