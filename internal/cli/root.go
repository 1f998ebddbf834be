// Package cli wires the repogen commands: init (guided setup and GitHub
// authentication), new (create a repository), config (view/edit/clear), and
// version.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/waabox/repogen/internal/config"
)

// version is set at build time via -ldflags "-X github.com/waabox/repogen/internal/cli.version=x.y.z".
var version = "dev"

// NewRootCommand builds the repogen command tree.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "repogen",
		Short:         "Create GitHub repositories from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if configPath == "" {
				configPath = config.DefaultConfigPath()
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the config file (default "+config.DefaultConfigPath()+")")

	root.AddCommand(
		newInitCommand(&configPath),
		newNewCommand(&configPath),
		newConfigCommand(&configPath),
		newVersionCommand(),
	)
	return root
}
