package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Alp4ka/keypager/internal/blog"
	"github.com/Alp4ka/keypager/internal/database"
	"github.com/Alp4ka/keypager/internal/logging"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "migrate",
		Args:    cobra.NoArgs,
		Aliases: []string{"m"},
		Short:   "Create or update the posts and users tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, serviceName)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			db, err := database.Open(cfg.Database, logger)
			if err != nil {
				return err
			}

			if err = blog.Migrate(db); err != nil {
				return fmt.Errorf("cannot migrate: %w", err)
			}

			logger.Info("Migration complete", zap.String("driver", cfg.Database.Driver))

			return nil
		},
	}
}
