package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hgarciaospina/library-management/config"
	"github.com/hgarciaospina/library-management/repository/postgres"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the PostgreSQL schema if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				_, err := fmt.Fprint(cmd.OutOrStdout(), postgres.Schema())
				return err
			}
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.Storage != config.StoragePostgres {
				return errors.New("migrate needs postgres storage")
			}
			s, err := openPostgres(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer s.Close()
			return s.Migrate(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the DDL instead of applying it")
	return cmd
}
