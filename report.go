package main

import (
	"errors"
	"fmt"

	"oustad/internal/adapters/roster"
	"oustad/internal/core/domain"
	"oustad/internal/core/service"

	"github.com/spf13/cobra"
)

func reportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print today's status report from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, closeStore, err := openStore(cmd.Context(), a.cfg.Store)
			if err != nil {
				return err
			}
			defer closeStore()

			loc, err := a.cfg.Location()
			if err != nil {
				return err
			}

			community := a.cfg.Bot.Community
			availability := service.NewAvailability(community, st,
				roster.NewDirectory(st, community),
				service.NewDailyRefresh(loc))

			registry, err := availability.Peek(cmd.Context())
			if errors.Is(err, domain.ErrSnapshotNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "no votes today")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read registry: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), domain.StatusReport(registry))
			return nil
		},
	}
}
