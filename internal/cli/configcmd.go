package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the effective configuration and where it was loaded from.

The file is read from --config, or from $XDG_CONFIG_HOME/plastic/config.toml
(~/.config/plastic/config.toml when XDG_CONFIG_HOME is unset). Missing keys
keep their built-in defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if src := c.Config.Source(); src != "" {
				printKeyValue("Source", src)
			} else {
				printKeyValue("Source", "built-in defaults")
			}
			printNewline()
			return c.Config.Encode(os.Stdout)
		},
	}
}
