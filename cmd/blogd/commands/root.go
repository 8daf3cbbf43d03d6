package commands

import (
	"github.com/spf13/cobra"

	"github.com/Alp4ka/keypager/internal/config"
)

const serviceName = "blogd"

type rootOptions struct {
	configFile string
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(o.configFile)
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Blog API served with keyset pagination",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "path to the config file")

	rootCmd.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newTokenCommand(opts),
	)

	return rootCmd
}
