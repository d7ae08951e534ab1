package main

import (
	"github.com/spf13/cobra"

	"orderparse/internal/output"
	"orderparse/internal/service"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Inspect or reset the persisted usage counters",
}

var statsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print how many documents each extraction path handled",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, closeRepo, err := openUsageStats(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = closeRepo() }()

		return output.WriteTo(cmd.OutOrStdout(), format, stats.Snapshot(), true)
	},
}

var statsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Zero the usage counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, closeRepo, err := openUsageStats(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = closeRepo() }()

		stats.Reset()
		if err := stats.Persist(cmd.Context()); err != nil {
			return err
		}
		logger.Info("stats.reset", "path", cfg.Stats.Path)
		return output.WriteTo(cmd.OutOrStdout(), format, stats.Snapshot(), true)
	},
}

func init() {
	statsCmd.AddCommand(statsShowCmd, statsResetCmd)
}

func openUsageStats(cmd *cobra.Command) (*service.UsageStats, func() error, error) {
	repo, closeRepo, err := openStatsRepo(cmd.Context(), cfg.Stats)
	if err != nil {
		return nil, nil, err
	}
	stats := service.NewUsageStats(repo)
	if err := stats.Restore(cmd.Context()); err != nil {
		_ = closeRepo()
		return nil, nil, err
	}
	return stats, closeRepo, nil
}
