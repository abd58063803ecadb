package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hgarciaospina/library-management/config"
	"github.com/hgarciaospina/library-management/util/jwt"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a staff bearer token for the write endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only the signing secret matters here; storage settings may be incomplete.
			cfg, err := config.Load(opts.configPath)
			if err != nil && !errors.Is(err, config.ErrInvalid) {
				return err
			}
			tok, err := jwt.Issue(cfg.JWTSecret, subject, ttl, time.Now())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "staff member the token is issued to")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
